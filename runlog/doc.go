// Package runlog houses concrete implementations of the core.RunStore plus
// the external persistence helpers for finished runs: a JSONL task-record
// writer and a markdown output writer for final artifacts.
//
// The RunStore interface (and the Run struct) live in the core package to
// centralize domain contracts. Keeping only implementations here prevents
// higher level packages (agents, orchestrator) from depending on concrete
// storage.
//
// Add additional backends (Redis, Postgres, object stores, etc.) in
// sub-packages without changing any calling code; only the wiring layer needs
// to decide which implementation to instantiate.
package runlog
