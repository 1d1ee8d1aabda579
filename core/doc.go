// Package core provides the foundational domain types and interfaces of
// ContentMesh. It defines the contracts of the A2A coordination core:
//
//   - Tasks (delegated units of work with a lifecycle state machine)
//   - Messages (immutable envelopes assigning work and reporting outcomes)
//   - Artifacts (immutable typed payloads handed between pipeline stages)
//   - Agents (named actors exposing registered capabilities)
//   - Pluggable stores for tasks, artifacts and run records
//
// The package intentionally keeps implementation concerns (store backends,
// orchestration, concrete agents) out of scope, exposing small interfaces to
// enable custom backends and extensions. All exported identifiers include
// concise documentation to aid discoverability and external consumption.
package core
