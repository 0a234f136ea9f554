package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/citeqa/internal/core/domain"
	"github.com/custodia-labs/citeqa/internal/core/ports/driven"
	"github.com/custodia-labs/citeqa/internal/core/ports/driving"
	"github.com/custodia-labs/citeqa/internal/logger"
)

// Ensure HealthService implements the interface.
var _ driving.HealthService = (*HealthService)(nil)

// HealthService checks the AI providers and the vector store.
type HealthService struct {
	settings  *domain.Settings
	validator driven.AIConfigValidator
	store     driven.VectorStore
}

// NewHealthService creates a health service. A nil store is reported as a
// failed check rather than skipped.
func NewHealthService(
	settings *domain.Settings,
	validator driven.AIConfigValidator,
	store driven.VectorStore,
) *HealthService {
	return &HealthService{settings: settings, validator: validator, store: store}
}

// Check runs the embedding, LLM and store checks in that order.
func (s *HealthService) Check(ctx context.Context) domain.HealthReport {
	logger.Section("Doctor")
	report := domain.HealthReport{
		Checks: []domain.HealthCheck{
			s.checkEmbedding(),
			s.checkLLM(),
			s.checkStore(ctx),
		},
	}
	for _, c := range report.Checks {
		logger.Debug("%s: %s %s", c.Name, c.Status, c.Detail)
	}
	return report
}

func (s *HealthService) checkEmbedding() domain.HealthCheck {
	check := domain.HealthCheck{Name: "embedding"}
	cfg := s.settings.Embedding
	if !cfg.IsConfigured() {
		check.Status = domain.CheckFail
		check.Detail = fmt.Sprintf("provider %q is not configured", cfg.Provider)
		return check
	}
	if err := s.validator.ValidateEmbedding(&cfg); err != nil {
		check.Status = domain.CheckFail
		check.Detail = err.Error()
		return check
	}
	check.Status = domain.CheckOK
	check.Detail = fmt.Sprintf("%s %s", cfg.Provider, cfg.Model)
	return check
}

func (s *HealthService) checkLLM() domain.HealthCheck {
	check := domain.HealthCheck{Name: "llm"}
	cfg := s.settings.LLM
	if !cfg.IsConfigured() {
		// Retrieval still works without an LLM.
		check.Status = domain.CheckWarn
		check.Detail = fmt.Sprintf("provider %q is not configured; ask and chat are unavailable", cfg.Provider)
		return check
	}
	if err := s.validator.ValidateLLM(&cfg); err != nil {
		check.Status = domain.CheckFail
		check.Detail = err.Error()
		return check
	}
	check.Status = domain.CheckOK
	check.Detail = fmt.Sprintf("%s %s", cfg.Provider, cfg.Model)
	return check
}

func (s *HealthService) checkStore(ctx context.Context) domain.HealthCheck {
	check := domain.HealthCheck{Name: "store"}
	if s.store == nil {
		check.Status = domain.CheckFail
		check.Detail = "vector store is not open"
		return check
	}
	names, err := s.store.ListCollectionNames(ctx)
	if err != nil {
		check.Status = domain.CheckFail
		check.Detail = err.Error()
		return check
	}
	check.Status = domain.CheckOK
	check.Detail = fmt.Sprintf("%d collections", len(names))
	return check
}
