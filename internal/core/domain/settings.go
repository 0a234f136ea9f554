package domain

import "time"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI API or any compatible endpoint.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is the Anthropic API. LLM only.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
// The same model must be used for ingestion and querying.
type EmbeddingSettings struct {
	Provider AIProvider
	Model    string
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if e.Provider == AIProviderAnthropic || !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	Provider    AIProvider
	Model       string
	BaseURL     string
	APIKey      string
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// RateLimitSettings throttles calls to AI providers.
// A zero RequestsPerSecond disables limiting.
type RateLimitSettings struct {
	RequestsPerSecond float64
	Burst             int
}

// IngestionSettings controls how files are loaded, chunked and embedded.
type IngestionSettings struct {
	// Extensions is the allow-list of file extensions, without dots.
	Extensions []string

	ChunkSize    int
	ChunkOverlap int

	// BatchSize is the number of chunks sent per embedding request.
	BatchSize int

	// Concurrency bounds parallel embedding requests.
	Concurrency int
}

// RetrievalSettings controls similarity search.
type RetrievalSettings struct {
	TopK int
}

// SynthesisSettings controls compact/refine answer synthesis.
type SynthesisSettings struct {
	// MaxPromptChars is the character budget for one rendered prompt.
	MaxPromptChars int

	// FallbackURL is the document_url reported for sources without one.
	FallbackURL string
}

// ContextSettings controls the conversational context heuristic.
type ContextSettings struct {
	Keywords    []string
	Indicators  []string
	CharBudget  int
	TurnCap     int
	RecentTurns int
}

// Settings holds all application settings. A Settings value is built once
// at startup and passed to each service at construction.
type Settings struct {
	// DataDir is the document folder ingest scans when none is given.
	DataDir           string
	DefaultCollection string
	Owner             string

	Embedding EmbeddingSettings
	LLM       LLMSettings
	RateLimit RateLimitSettings

	Ingestion IngestionSettings
	Retrieval RetrievalSettings
	Synthesis SynthesisSettings
	Context   ContextSettings
}

// Default values.
const (
	DefaultCollection     = "doc_store_v1"
	DefaultFallbackURL    = "https://www.construction-institute.org/"
	DefaultTopK           = 5
	DefaultMaxPromptChars = 12000
	DefaultTemperature    = 0.1
	DefaultChunkSize      = 1000
	DefaultChunkOverlap   = 200
	DefaultBatchSize      = 64
	DefaultConcurrency    = 4
	DefaultCharBudget     = 2000
	DefaultTurnCap        = 4
	DefaultRecentTurns    = 3
	DefaultOwner          = "local"
)

// DefaultExtensions returns the default ingestion allow-list.
func DefaultExtensions() []string {
	return []string{"pdf", "docx", "xlsx"}
}

// DefaultFollowupIndicators returns phrases that mark a query as a follow-up.
func DefaultFollowupIndicators() []string {
	return []string{
		"this", "that", "it", "these", "those", "how", "why",
		"what about", "can you", "tell me more",
	}
}

// DefaultTopicKeywords returns domain keywords that mark a change of topic
// when they appear in a query but not in recent conversation.
func DefaultTopicKeywords() []string {
	return []string{
		"AWP", "PDRI", "FEP", "modular", "constructability",
		"benchmarking", "safety", "risk", "scheduling", "procurement",
	}
}

// DefaultContextSettings returns the context heuristic defaults.
func DefaultContextSettings() ContextSettings {
	return ContextSettings{
		Keywords:    DefaultTopicKeywords(),
		Indicators:  DefaultFollowupIndicators(),
		CharBudget:  DefaultCharBudget,
		TurnCap:     DefaultTurnCap,
		RecentTurns: DefaultRecentTurns,
	}
}

// DefaultSettings returns settings with sensible defaults.
// AI providers are left unconfigured until an API key or endpoint is supplied.
func DefaultSettings() Settings {
	return Settings{
		DefaultCollection: DefaultCollection,
		Owner:             DefaultOwner,
		Embedding: EmbeddingSettings{
			Provider: AIProviderOpenAI,
			Model:    "text-embedding-ada-002",
		},
		LLM: LLMSettings{
			Provider:    AIProviderOpenAI,
			Model:       "gpt-4",
			Temperature: DefaultTemperature,
		},
		Ingestion: IngestionSettings{
			Extensions:   DefaultExtensions(),
			ChunkSize:    DefaultChunkSize,
			ChunkOverlap: DefaultChunkOverlap,
			BatchSize:    DefaultBatchSize,
			Concurrency:  DefaultConcurrency,
		},
		Retrieval: RetrievalSettings{TopK: DefaultTopK},
		Synthesis: SynthesisSettings{
			MaxPromptChars: DefaultMaxPromptChars,
			FallbackURL:    DefaultFallbackURL,
		},
		Context: DefaultContextSettings(),
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-ada-002",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// SettingSource records where a resolved setting value came from.
type SettingSource string

// Setting sources, in increasing precedence.
const (
	SourceDefault SettingSource = "default"
	SourceConfig  SettingSource = "config"
	SourceEnv     SettingSource = "env"
)

// SettingEntry is one resolved key for display. Secret values are masked.
type SettingEntry struct {
	Key    string
	Value  string
	Source SettingSource
}
