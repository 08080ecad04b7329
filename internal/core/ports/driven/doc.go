// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Analyzer: The external analyzer that classifies terms in a text
//   - ConfigStore: Application configuration
//   - Splitter: Cuts documents into analyzer-sized chunks
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - ResultStore: Persistent layer behind the in-memory analysis cache.
//     Without it, cached results live for the process lifetime only.
//   - LLMService: Chat model used by the LLM analyzer backend.
//   - PromptStore: Customisable prompt templates. Without it, built-in prompts are used.
//   - NormaliserRegistry: Text extraction for formatted documents.
//   - MetricsRecorder: Engine counters and timings.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
