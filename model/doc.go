// Package model defines the provider‑agnostic abstractions and concrete
// helpers for interacting with language and image models inside ContentMesh.
//
// Core goals:
//   - Keep request/response shapes minimal and transport independent
//   - Separate text generation (Model) from image generation (ImageModel)
//   - Facilitate lightweight mocking for tests (MockModel, MockImageModel)
//
// Providers (e.g. OpenAI, Anthropic) implement these interfaces so higher
// layers (agents, orchestrator) remain decoupled from vendor SDKs.
package model
