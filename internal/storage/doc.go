// Package storage persists the execution history of scheduled actions.
//
// Backends:
//   - file: append-only JSON Lines, no dependencies
//   - sqlite: single-file database (modernc.org/sqlite, cgo-free)
package storage
