package driven

import "github.com/custodia-labs/citeqa/internal/core/domain"

// AIConfigValidator checks that AI provider settings reach a live service.
type AIConfigValidator interface {
	// ValidateEmbedding pings the embedding provider.
	// Returns nil when the provider is reachable or not configured.
	ValidateEmbedding(config *domain.EmbeddingSettings) error

	// ValidateLLM pings the LLM provider.
	// Returns nil when the provider is reachable or not configured.
	ValidateLLM(config *domain.LLMSettings) error
}
