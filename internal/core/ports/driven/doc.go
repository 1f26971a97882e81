// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - EmbeddingService: Turns record text and questions into vectors
//   - LLMService: Generates answers from a prompt
//   - VectorIndex: Stores embeddings and answers similarity queries
//   - IndexFactory: Creates empty VectorIndex instances for rebuilds
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - IndexStore: Persists index snapshots. Without it the index lives in memory only.
//   - HistoryStore: Mirrors the query history log. Without it history is per-process.
//   - RecordSource: Loads booking records for a build.
//   - PromptStore: User-editable prompt templates. Without it built-in prompts are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
