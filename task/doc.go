// Package task contains concrete TaskStore implementations. The store
// interface and the Task type reside in the core package. Import
// github.com/hupe1980/contentmesh/core and depend on core.TaskStore in your
// code; select an implementation (like the in-memory store below) at wiring
// time.
//
// Rationale: keeps domain contracts centralized while allowing pluggable
// backends (databases, durable queues, etc.) to be added without introducing
// dependency cycles.
package task
