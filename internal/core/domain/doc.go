// Package domain defines the core business entities for citeqa.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - DocumentChunk: A unit of ingested text with its embedding and metadata
//   - SystemPromptVersion: A numbered, activatable prompt template snapshot
//   - ConversationTurn: One message in a chat session
//   - Answer: A synthesised response with its cited sources
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
