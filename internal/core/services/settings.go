package services

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/citeqa/internal/core/domain"
	"github.com/custodia-labs/citeqa/internal/core/ports/driven"
	"github.com/custodia-labs/citeqa/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyDataDir         = "data_dir"
	keyCollection      = "collection"
	keyOwner           = "owner"
	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"
	keyEmbedTimeout    = "embedding.timeout"
	keyLLMProvider     = "llm.provider"
	keyLLMModel        = "llm.model"
	keyLLMBaseURL      = "llm.base_url"
	keyLLMAPIKey       = "llm.api_key"
	keyLLMTimeout      = "llm.timeout"
	keyLLMTemperature  = "llm.temperature"
	keyLLMMaxTokens    = "llm.max_tokens"
	keyRateRPS         = "rate_limit.requests_per_second"
	keyRateBurst       = "rate_limit.burst"
	keyExtensions      = "ingestion.extensions"
	keyChunkSize       = "ingestion.chunk_size"
	keyChunkOverlap    = "ingestion.chunk_overlap"
	keyBatchSize       = "ingestion.batch_size"
	keyConcurrency     = "ingestion.concurrency"
	keyTopK            = "retrieval.top_k"
	keyMaxPromptChars  = "synthesis.max_prompt_chars"
	keyFallbackURL     = "synthesis.fallback_url"
	keyContextKeywords = "context.keywords"
	keyContextIndics   = "context.indicators"
	keyContextBudget   = "context.char_budget"
	keyContextTurnCap  = "context.turn_cap"
	keyContextRecent   = "context.recent_turns"
)

// Environment variables that override the config file.
//
//nolint:gosec // G101: These are variable names, not actual credentials.
const (
	EnvOpenAIKey      = "OPENAI_API_KEY"
	EnvAnthropicKey   = "ANTHROPIC_API_KEY"
	EnvDataDir        = "CITEQA_DATA_DIR"
	EnvCollection     = "CITEQA_COLLECTION"
	EnvLLMModel       = "CITEQA_LLM_MODEL"
	EnvEmbeddingModel = "CITEQA_EMBEDDING_MODEL"
	EnvFallbackURL    = "CITEQA_FALLBACK_URL"
)

type settingKind int

const (
	kindString settingKind = iota
	kindSecret
	kindProvider
	kindInt
	kindFloat
	kindDuration
	kindList
)

var settingKinds = map[string]settingKind{
	keyDataDir:         kindString,
	keyCollection:      kindString,
	keyOwner:           kindString,
	keyEmbedProvider:   kindProvider,
	keyEmbedModel:      kindString,
	keyEmbedBaseURL:    kindString,
	keyEmbedAPIKey:     kindSecret,
	keyEmbedTimeout:    kindDuration,
	keyLLMProvider:     kindProvider,
	keyLLMModel:        kindString,
	keyLLMBaseURL:      kindString,
	keyLLMAPIKey:       kindSecret,
	keyLLMTimeout:      kindDuration,
	keyLLMTemperature:  kindFloat,
	keyLLMMaxTokens:    kindInt,
	keyRateRPS:         kindFloat,
	keyRateBurst:       kindInt,
	keyExtensions:      kindList,
	keyChunkSize:       kindInt,
	keyChunkOverlap:    kindInt,
	keyBatchSize:       kindInt,
	keyConcurrency:     kindInt,
	keyTopK:            kindInt,
	keyMaxPromptChars:  kindInt,
	keyFallbackURL:     kindString,
	keyContextKeywords: kindList,
	keyContextIndics:   kindList,
	keyContextBudget:   kindInt,
	keyContextTurnCap:  kindInt,
	keyContextRecent:   kindInt,
}

// SettingsService resolves settings from the config store and environment.
type SettingsService struct {
	configStore driven.ConfigStore
	lookupEnv   func(string) (string, bool)
}

// NewSettingsService creates a new settings service reading the process environment.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		lookupEnv:   os.LookupEnv,
	}
}

// WithEnv replaces the environment lookup. Used by tests.
func (s *SettingsService) WithEnv(lookup func(string) (string, bool)) *SettingsService {
	s.lookupEnv = lookup
	return s
}

// Get resolves the current settings.
func (s *SettingsService) Get() (*domain.Settings, error) {
	d := domain.DefaultSettings()

	settings := &domain.Settings{
		DataDir:           s.configStore.GetString(keyDataDir),
		DefaultCollection: s.getString(keyCollection, d.DefaultCollection),
		Owner:             s.getString(keyOwner, d.Owner),
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(keyEmbedProvider, d.Embedding.Provider),
			BaseURL:  s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:   s.configStore.GetString(keyEmbedAPIKey),
		},
		LLM: domain.LLMSettings{
			Provider:    s.getProvider(keyLLMProvider, d.LLM.Provider),
			BaseURL:     s.configStore.GetString(keyLLMBaseURL),
			APIKey:      s.configStore.GetString(keyLLMAPIKey),
			Temperature: s.getFloat(keyLLMTemperature, d.LLM.Temperature),
			MaxTokens:   s.configStore.GetInt(keyLLMMaxTokens),
		},
		RateLimit: domain.RateLimitSettings{
			RequestsPerSecond: s.configStore.GetFloat(keyRateRPS),
			Burst:             s.configStore.GetInt(keyRateBurst),
		},
		Ingestion: domain.IngestionSettings{
			Extensions:   s.getStringSlice(keyExtensions, d.Ingestion.Extensions),
			ChunkSize:    s.getInt(keyChunkSize, d.Ingestion.ChunkSize),
			ChunkOverlap: s.getInt(keyChunkOverlap, d.Ingestion.ChunkOverlap),
			BatchSize:    s.getInt(keyBatchSize, d.Ingestion.BatchSize),
			Concurrency:  s.getInt(keyConcurrency, d.Ingestion.Concurrency),
		},
		Retrieval: domain.RetrievalSettings{
			TopK: s.getInt(keyTopK, d.Retrieval.TopK),
		},
		Synthesis: domain.SynthesisSettings{
			MaxPromptChars: s.getInt(keyMaxPromptChars, d.Synthesis.MaxPromptChars),
			FallbackURL:    s.getString(keyFallbackURL, d.Synthesis.FallbackURL),
		},
		Context: domain.ContextSettings{
			Keywords:    s.getStringSlice(keyContextKeywords, d.Context.Keywords),
			Indicators:  s.getStringSlice(keyContextIndics, d.Context.Indicators),
			CharBudget:  s.getInt(keyContextBudget, d.Context.CharBudget),
			TurnCap:     s.getInt(keyContextTurnCap, d.Context.TurnCap),
			RecentTurns: s.getInt(keyContextRecent, d.Context.RecentTurns),
		},
	}
	settings.Embedding.Model = s.getString(keyEmbedModel, defaultModel(
		domain.DefaultEmbeddingModels(), settings.Embedding.Provider, d.Embedding.Model))
	settings.LLM.Model = s.getString(keyLLMModel, defaultModel(
		domain.DefaultLLMModels(), settings.LLM.Provider, d.LLM.Model))

	var err error
	if settings.Embedding.Timeout, err = s.getDuration(keyEmbedTimeout); err != nil {
		return nil, err
	}
	if settings.LLM.Timeout, err = s.getDuration(keyLLMTimeout); err != nil {
		return nil, err
	}

	s.applyEnv(settings)
	return settings, nil
}

// applyEnv overlays environment overrides onto resolved settings.
func (s *SettingsService) applyEnv(settings *domain.Settings) {
	if v, ok := s.env(EnvDataDir); ok {
		settings.DataDir = v
	}
	if v, ok := s.env(EnvCollection); ok {
		settings.DefaultCollection = v
	}
	if v, ok := s.env(EnvEmbeddingModel); ok {
		settings.Embedding.Model = v
	}
	if v, ok := s.env(EnvLLMModel); ok {
		settings.LLM.Model = v
	}
	if v, ok := s.env(EnvFallbackURL); ok {
		settings.Synthesis.FallbackURL = v
	}
	if key, ok := s.env(EnvOpenAIKey); ok {
		if settings.Embedding.Provider == domain.AIProviderOpenAI {
			settings.Embedding.APIKey = key
		}
		if settings.LLM.Provider == domain.AIProviderOpenAI {
			settings.LLM.APIKey = key
		}
	}
	if key, ok := s.env(EnvAnthropicKey); ok && settings.LLM.Provider == domain.AIProviderAnthropic {
		settings.LLM.APIKey = key
	}
}

// Entries lists every known key with its resolved value and source.
func (s *SettingsService) Entries() ([]domain.SettingEntry, error) {
	settings, err := s.Get()
	if err != nil {
		return nil, err
	}
	resolved := resolvedValues(settings)

	envKeys := map[string]string{
		keyDataDir:     EnvDataDir,
		keyCollection:  EnvCollection,
		keyEmbedModel:  EnvEmbeddingModel,
		keyLLMModel:    EnvLLMModel,
		keyFallbackURL: EnvFallbackURL,
		keyEmbedAPIKey: EnvOpenAIKey,
		keyLLMAPIKey:   envKeyForProvider(settings.LLM.Provider),
	}

	keys := make([]string, 0, len(settingKinds))
	for key := range settingKinds {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	entries := make([]domain.SettingEntry, 0, len(keys))
	for _, key := range keys {
		entry := domain.SettingEntry{Key: key, Value: resolved[key], Source: domain.SourceDefault}
		if _, ok := s.configStore.Get(key); ok {
			entry.Source = domain.SourceConfig
		}
		if name := envKeys[key]; name != "" {
			if _, ok := s.env(name); ok {
				entry.Source = domain.SourceEnv
			}
		}
		if settingKinds[key] == kindSecret {
			entry.Value = maskSecret(entry.Value)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Set validates and persists a single key.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrValidation, key)
	}

	var stored any
	switch kind {
	case kindString, kindSecret:
		stored = value
	case kindProvider:
		provider := domain.AIProvider(strings.ToLower(value))
		if !provider.IsValid() {
			return fmt.Errorf("%w: invalid provider %q", domain.ErrValidation, value)
		}
		if key == keyEmbedProvider && provider == domain.AIProviderAnthropic {
			return fmt.Errorf("%w: anthropic does not support embeddings", domain.ErrValidation)
		}
		stored = provider.String()
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %s expects a non-negative integer, got %q", domain.ErrValidation, key, value)
		}
		stored = n
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("%w: %s expects a non-negative number, got %q", domain.ErrValidation, key, value)
		}
		stored = f
	case kindDuration:
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("%w: %s expects a duration such as 30s, got %q", domain.ErrValidation, key, value)
		}
		stored = value
	case kindList:
		stored = splitList(value)
	}

	if err := s.configStore.Set(key, stored); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// SetAPIKey stores the key on each of embedding and LLM that uses provider.
func (s *SettingsService) SetAPIKey(provider domain.AIProvider, apiKey string) error {
	if !provider.RequiresAPIKey() {
		return fmt.Errorf("%w: provider %q does not use an API key", domain.ErrValidation, provider)
	}
	if strings.TrimSpace(apiKey) == "" {
		return fmt.Errorf("%w: API key is empty", domain.ErrValidation)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	stored := false
	if settings.Embedding.Provider == provider {
		if err := s.configStore.Set(keyEmbedAPIKey, apiKey); err != nil {
			return fmt.Errorf("save embedding api_key: %w", err)
		}
		stored = true
	}
	if settings.LLM.Provider == provider {
		if err := s.configStore.Set(keyLLMAPIKey, apiKey); err != nil {
			return fmt.Errorf("save llm api_key: %w", err)
		}
		stored = true
	}
	if !stored {
		return fmt.Errorf("%w: neither embedding nor llm uses provider %q", domain.ErrValidation, provider)
	}
	return nil
}

// ConfigPath returns the path of the backing config file.
func (s *SettingsService) ConfigPath() string {
	return s.configStore.Path()
}

// ==================== Helper Functions ====================

func (s *SettingsService) env(name string) (string, bool) {
	v, ok := s.lookupEnv(name)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getStringSlice(key string, defaultVal []string) []string {
	val := s.configStore.GetStringSlice(key)
	if len(val) == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getDuration(key string) (time.Duration, error) {
	val := s.configStore.GetString(key)
	if val == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s %q: %w", domain.ErrValidation, key, val, err)
	}
	return d, nil
}

func defaultModel(models map[domain.AIProvider]string, provider domain.AIProvider, fallback string) string {
	if m, ok := models[provider]; ok {
		return m
	}
	return fallback
}

func envKeyForProvider(provider domain.AIProvider) string {
	switch provider {
	case domain.AIProviderOpenAI:
		return EnvOpenAIKey
	case domain.AIProviderAnthropic:
		return EnvAnthropicKey
	default:
		return ""
	}
}

func resolvedValues(s *domain.Settings) map[string]string {
	durationString := func(d time.Duration) string {
		if d == 0 {
			return ""
		}
		return d.String()
	}
	return map[string]string{
		keyDataDir:         s.DataDir,
		keyCollection:      s.DefaultCollection,
		keyOwner:           s.Owner,
		keyEmbedProvider:   s.Embedding.Provider.String(),
		keyEmbedModel:      s.Embedding.Model,
		keyEmbedBaseURL:    s.Embedding.BaseURL,
		keyEmbedAPIKey:     s.Embedding.APIKey,
		keyEmbedTimeout:    durationString(s.Embedding.Timeout),
		keyLLMProvider:     s.LLM.Provider.String(),
		keyLLMModel:        s.LLM.Model,
		keyLLMBaseURL:      s.LLM.BaseURL,
		keyLLMAPIKey:       s.LLM.APIKey,
		keyLLMTimeout:      durationString(s.LLM.Timeout),
		keyLLMTemperature:  strconv.FormatFloat(s.LLM.Temperature, 'g', -1, 64),
		keyLLMMaxTokens:    strconv.Itoa(s.LLM.MaxTokens),
		keyRateRPS:         strconv.FormatFloat(s.RateLimit.RequestsPerSecond, 'g', -1, 64),
		keyRateBurst:       strconv.Itoa(s.RateLimit.Burst),
		keyExtensions:      strings.Join(s.Ingestion.Extensions, ","),
		keyChunkSize:       strconv.Itoa(s.Ingestion.ChunkSize),
		keyChunkOverlap:    strconv.Itoa(s.Ingestion.ChunkOverlap),
		keyBatchSize:       strconv.Itoa(s.Ingestion.BatchSize),
		keyConcurrency:     strconv.Itoa(s.Ingestion.Concurrency),
		keyTopK:            strconv.Itoa(s.Retrieval.TopK),
		keyMaxPromptChars:  strconv.Itoa(s.Synthesis.MaxPromptChars),
		keyFallbackURL:     s.Synthesis.FallbackURL,
		keyContextKeywords: strings.Join(s.Context.Keywords, ","),
		keyContextIndics:   strings.Join(s.Context.Indicators, ","),
		keyContextBudget:   strconv.Itoa(s.Context.CharBudget),
		keyContextTurnCap:  strconv.Itoa(s.Context.TurnCap),
		keyContextRecent:   strconv.Itoa(s.Context.RecentTurns),
	}
}

// maskSecret keeps the last four characters of a key.
func maskSecret(v string) string {
	if v == "" {
		return ""
	}
	if len(v) <= 4 {
		return "****"
	}
	return "****" + v[len(v)-4:]
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
