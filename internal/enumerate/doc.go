// Package enumerate expands user-facing scan inputs (port specs, CIDR
// prefixes, target files) into the probe task stream the engine
// consumes. Expansion is lazy where it matters: the cross-product of
// targets and ports is produced one task at a time, so a /16 scan never
// materializes its full task list in memory.
package enumerate
