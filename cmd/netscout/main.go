// Package main provides the entry point for the netscout CLI.
//
// netscout is a multi-target network reconnaissance engine. It probes
// hosts, port ranges, and CIDR blocks under a global rate ceiling with
// bounded concurrency, and reports which ports answered.
//
// Usage:
//
//	netscout scan 192.168.1.0/24 -p 1-1024
//	netscout banner example.com -p 22,80,443
//
// See --help for all available options.
package main

// main is the entry point for netscout.
func main() {
	Execute()
}
