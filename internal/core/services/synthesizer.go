package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/citeqa/internal/core/domain"
	"github.com/custodia-labs/citeqa/internal/core/ports/driven"
	"github.com/custodia-labs/citeqa/internal/core/ports/driving"
	"github.com/custodia-labs/citeqa/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// EmptyResponse is the answer returned when retrieval finds nothing.
const EmptyResponse = "Empty Response"

// minContextChars is the smallest context slice sent per prompt, so that
// synthesis always makes progress when templates are large.
const minContextChars = 256

// contextJoiner separates passages packed into one prompt.
const contextJoiner = "\n\n"

// SynthesisConfig configures a QueryService.
type SynthesisConfig struct {
	// TopK is the number of passages retrieved per query.
	TopK int

	// MaxPromptChars is the character budget for one rendered prompt.
	MaxPromptChars int

	// FallbackURL is reported for sources without a document_url.
	FallbackURL string

	// Context configures the follow-up heuristic.
	Context ContextOptions

	// Generate is passed to every completion call.
	Generate driven.GenerateOptions
}

// QueryService answers questions by retrieving cited passages and running
// compact/refine synthesis over them.
type QueryService struct {
	retriever driving.RetrievalService
	prompts   templateResolver
	llm       driven.LLMService
	cfg       SynthesisConfig
}

// templateResolver is the part of the prompt service used for synthesis.
type templateResolver interface {
	GetActive(ctx context.Context, name string) (domain.Template, error)
}

// NewQueryService creates a new query service.
func NewQueryService(
	retriever driving.RetrievalService,
	prompts templateResolver,
	llm driven.LLMService,
	cfg SynthesisConfig,
) *QueryService {
	if cfg.TopK <= 0 {
		cfg.TopK = domain.DefaultTopK
	}
	if cfg.MaxPromptChars <= 0 {
		cfg.MaxPromptChars = domain.DefaultMaxPromptChars
	}
	if cfg.FallbackURL == "" {
		cfg.FallbackURL = domain.DefaultFallbackURL
	}
	if cfg.Context.CharBudget <= 0 {
		cfg.Context = ContextOptionsFromSettings(domain.ContextSettings{})
	}
	return &QueryService{
		retriever: retriever,
		prompts:   prompts,
		llm:       llm,
		cfg:       cfg,
	}
}

// Answer synthesises a cited answer to query from collection.
// history holds the turns before the current question.
func (s *QueryService) Answer(
	ctx context.Context, query, collection string, history []domain.ConversationTurn,
) (domain.Answer, error) {
	logger.Section("Answer")

	if strings.TrimSpace(query) == "" {
		return domain.Answer{}, fmt.Errorf("%w: query is empty", domain.ErrValidation)
	}

	decision := AssembleQuery(history, query, s.cfg.Context)
	logger.Debug("Context: use=%t followup=%t new_topics=%v window=%d",
		decision.UseContext, decision.HasFollowup, decision.NewTopics, len(decision.Window))

	nodes, err := s.retriever.Retrieve(ctx, decision.Query, collection, s.cfg.TopK)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Answer{}, err
		}
		return domain.Answer{}, fmt.Errorf("%w: %w", domain.ErrSynthesisFailure, err)
	}

	sources := make([]domain.SourceInfo, len(nodes))
	for i, node := range nodes {
		sources[i] = domain.SourceInfoFromMetadata(node.Chunk.Metadata, s.cfg.FallbackURL)
	}

	if len(nodes) == 0 {
		logger.Warn("No passages retrieved from %q", collection)
		return domain.Answer{Text: EmptyResponse, Sources: sources}, nil
	}

	text, err := s.synthesize(ctx, decision.Query, nodes)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("%w: %w", domain.ErrSynthesisFailure, err)
	}

	return domain.Answer{
		Text:             text,
		SourceNodesCount: len(nodes),
		Sources:          sources,
	}, nil
}

// synthesize runs compact/refine over the annotated passages: the first
// batch that fits the prompt budget goes through the qa template, and each
// further batch refines the previous answer.
func (s *QueryService) synthesize(ctx context.Context, query string, nodes []domain.ScoredChunk) (string, error) {
	if s.llm == nil {
		return "", domain.ErrLLMUnavailable
	}

	qa, err := s.prompts.GetActive(ctx, domain.PromptQA)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", domain.PromptQA, err)
	}
	refine, err := s.prompts.GetActive(ctx, domain.PromptRefine)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", domain.PromptRefine, err)
	}
	logger.Debug("Templates: %s=%s v%d, %s=%s v%d",
		qa.Name, qa.Kind, qa.Version, refine.Name, refine.Kind, refine.Version)

	texts := make([]string, len(nodes))
	for i, node := range nodes {
		texts[i] = node.Chunk.Text
	}
	packer := &contextPacker{pending: texts}

	overhead := utf8.RuneCountInString(renderQA(qa.Text, "", query))
	batch := packer.next(s.cfg.MaxPromptChars - overhead)
	answer, err := s.llm.Complete(ctx, renderQA(qa.Text, batch, query), s.cfg.Generate)
	if err != nil {
		return "", fmt.Errorf("complete qa prompt: %w", err)
	}
	answer = strings.TrimSpace(answer)

	for round := 1; packer.more(); round++ {
		overhead = utf8.RuneCountInString(renderRefine(refine.Text, query, answer, ""))
		batch = packer.next(s.cfg.MaxPromptChars - overhead)
		logger.Debug("Refine round %d (%d chars of context)", round, utf8.RuneCountInString(batch))

		refined, err := s.llm.Complete(ctx, renderRefine(refine.Text, query, answer, batch), s.cfg.Generate)
		if err != nil {
			return "", fmt.Errorf("complete refine prompt (round %d): %w", round, err)
		}
		if refined = strings.TrimSpace(refined); refined != "" {
			answer = refined
		}
	}

	return answer, nil
}

// contextPacker hands out passages in order, packing as many as fit into
// each batch. A passage longer than a whole batch is split across batches.
type contextPacker struct {
	pending []string
}

func (p *contextPacker) more() bool {
	return len(p.pending) > 0
}

// next returns the next batch of at most limit characters.
func (p *contextPacker) next(limit int) string {
	if limit < minContextChars {
		limit = minContextChars
	}

	var b strings.Builder
	used := 0
	for len(p.pending) > 0 {
		text := p.pending[0]
		size := utf8.RuneCountInString(text)
		sep := 0
		if used > 0 {
			sep = utf8.RuneCountInString(contextJoiner)
		}

		if used+sep+size <= limit {
			if sep > 0 {
				b.WriteString(contextJoiner)
			}
			b.WriteString(text)
			used += sep + size
			p.pending = p.pending[1:]
			continue
		}

		if used == 0 {
			head, tail := splitRunes(text, limit)
			b.WriteString(head)
			p.pending[0] = tail
		}
		break
	}
	return b.String()
}

// splitRunes splits s after n runes.
func splitRunes(s string, n int) (string, string) {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos], s[pos:]
		}
		i++
	}
	return s, ""
}
