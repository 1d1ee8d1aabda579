// Package orchestrator implements the coordination core of ContentMesh: the
// agent registry, task minting and lifecycle bookkeeping, synchronous message
// routing and the fixed content-pipeline workflow.
//
// The orchestrator is the single owner of task state. Agents report status
// transitions back through messages, but the task store remains authoritative:
// status updates are applied under monotonic-transition rules with duplicate
// suppression, and terminal state is only ever applied from the result or
// error reply of the assignment itself.
//
// Key behaviors:
//   - AssignTaskAndWait mints a task, delivers the assign message in-process
//     and blocks until the terminal reply, a timeout or context cancellation
//   - Replies that do not match the issued task and sender are dropped
//   - RunWorkflow sequences research, writing, seo and image stages, feeding
//     each stage from latest-of-kind artifact lookups, and composes the final
//     composite document with explicit degraded provenance
package orchestrator
