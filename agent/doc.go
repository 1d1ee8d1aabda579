// Package agent contains the content pipeline agent implementations and the
// capability plumbing they share. The package focuses on three concerns:
//
//  1. Base message handling + capability registry (BaseAgent)
//  2. Concrete pipeline stages (ResearchAgent, WritingAgent, SEOAgent, ImageAgent)
//  3. Declarative construction via a registration-table Factory
//
// Design principles:
//   - Minimal hidden global state – ids, clocks and loggers are injected
//   - Single-assignment execution – an agent runs one capability at a time
//   - Graceful degradation – stages fall back to synthesized content and mark
//     the artifact as degraded instead of failing the pipeline
//   - Extensibility – embed BaseAgent; register capabilities with handlers
//
// Execution model:
//   - The orchestrator delivers an assign message via HandleMessage
//   - The agent validates the input, emits an in_progress status update,
//     runs the capability handler and returns a result or error message
//   - Handler faults never escape the agent boundary; they are classified
//     into structured task errors and reported, not thrown
//
// The package intentionally keeps store, model and search abstractions in
// their respective packages to avoid cyclic deps.
package agent
