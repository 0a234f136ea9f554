// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Interfaces
//
//   - VectorStore: Named collections of embedded chunks with similarity search
//   - EmbeddingService: Generates vector embeddings (same model at ingest and query)
//   - LLMService: Text completion used by answer synthesis
//   - PromptVersionRepository: Versioned prompt template persistence
//   - HistoryStore: Chat sessions and conversation turns
//   - Normaliser / NormaliserRegistry: Extracts page text from source files
//   - Chunker: Splits pages into chunks
//   - ConfigStore: Application configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
