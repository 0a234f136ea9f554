package ai

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/citeqa/internal/core/domain"
	"github.com/custodia-labs/citeqa/internal/core/ports/driven"
)

// Ensure the decorators implement the interfaces.
var (
	_ driven.EmbeddingService = (*RateLimitedEmbedding)(nil)
	_ driven.LLMService       = (*RateLimitedLLM)(nil)
)

// newLimiter returns nil when limiting is disabled.
func newLimiter(settings domain.RateLimitSettings) *rate.Limiter {
	if settings.RequestsPerSecond <= 0 {
		return nil
	}
	burst := settings.Burst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(settings.RequestsPerSecond), burst)
}

func wait(ctx context.Context, limiter *rate.Limiter) error {
	if limiter == nil {
		return nil
	}
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
	}
	return nil
}

// RateLimitedEmbedding throttles requests to an embedding provider.
// One EmbedBatch call counts as one request.
type RateLimitedEmbedding struct {
	driven.EmbeddingService
	limiter *rate.Limiter
}

// NewRateLimitedEmbedding wraps svc. A zero rate returns svc unchanged.
func NewRateLimitedEmbedding(svc driven.EmbeddingService, settings domain.RateLimitSettings) driven.EmbeddingService {
	limiter := newLimiter(settings)
	if limiter == nil {
		return svc
	}
	return &RateLimitedEmbedding{EmbeddingService: svc, limiter: limiter}
}

// Embed waits for a token before delegating.
func (r *RateLimitedEmbedding) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := wait(ctx, r.limiter); err != nil {
		return nil, err
	}
	return r.EmbeddingService.Embed(ctx, text)
}

// EmbedBatch waits for a token before delegating.
func (r *RateLimitedEmbedding) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := wait(ctx, r.limiter); err != nil {
		return nil, err
	}
	return r.EmbeddingService.EmbedBatch(ctx, texts)
}

// RateLimitedLLM throttles completion requests to an LLM provider.
type RateLimitedLLM struct {
	driven.LLMService
	limiter *rate.Limiter
}

// NewRateLimitedLLM wraps svc. A zero rate returns svc unchanged.
func NewRateLimitedLLM(svc driven.LLMService, settings domain.RateLimitSettings) driven.LLMService {
	limiter := newLimiter(settings)
	if limiter == nil {
		return svc
	}
	return &RateLimitedLLM{LLMService: svc, limiter: limiter}
}

// Complete waits for a token before delegating.
func (r *RateLimitedLLM) Complete(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	if err := wait(ctx, r.limiter); err != nil {
		return "", err
	}
	return r.LLMService.Complete(ctx, prompt, opts)
}
