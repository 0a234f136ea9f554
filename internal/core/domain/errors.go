package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	// Returned for missing collections, prompt versions, sessions and folders.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates malformed or invalid input, such as an empty
	// query, an unsupported file extension or a duplicate file name.
	ErrValidation = errors.New("validation error")

	// ErrInvalidOperation indicates a request that is well-formed but not
	// allowed in the current state, such as deleting an active prompt version.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrIngestionFailure indicates loading or embedding failed during ingestion.
	// The whole ingestion call is aborted and nothing is written.
	ErrIngestionFailure = errors.New("ingestion failed")

	// ErrSynthesisFailure indicates an embedding or completion error while
	// answering a query. No partial answer is produced.
	ErrSynthesisFailure = errors.New("synthesis failed")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrRateLimited indicates a provider rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)
