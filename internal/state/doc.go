// Package state persists per-item processing progress in SQLite so runs can
// pick up where a previous invocation stopped.
package state
