// Package sink persists streamed result records: JSONL for piping into
// other tools, CSV for spreadsheets, SQLite for queryable history
// across runs, an in-memory collector for whole-run report rendering,
// and a fan-out that composes them.
//
// All sinks rely on the engine's delivery guarantees: at most one Write
// per (target, port, transport) per run, and exactly one Flush at
// finalize. Writes arrive from a single forwarder goroutine, so sinks
// need no internal locking for correctness; the SQLite sink still
// serializes through database/sql.
package sink
