// Package model defines the data types shared across the scan engine:
// targets, probe tasks, probe outcomes, streamed result records, and the
// per-run summary. These types carry no behavior beyond construction and
// classification helpers; ownership and mutation rules are enforced by
// the engine package.
package model
