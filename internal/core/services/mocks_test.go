package services

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/citeqa/internal/core/domain"
	"github.com/custodia-labs/citeqa/internal/core/ports/driven"
)

// --- Mock implementations ---

const mockDims = 32

// mockEmbedder implements driven.EmbeddingService with a bag-of-words
// hash, so texts sharing words score as similar.
type mockEmbedder struct {
	err        error
	failOnCall int64 // 1-based EmbedBatch call that fails, 0 for never
	calls      atomic.Int64
	embedded   atomic.Int64
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	return bagOfWords(text), nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	n := m.calls.Add(1)
	if m.err != nil || (m.failOnCall > 0 && n == m.failOnCall) {
		if m.err != nil {
			return nil, m.err
		}
		return nil, errors.New("embedding backend unavailable")
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = bagOfWords(t)
	}
	m.embedded.Add(int64(len(texts)))
	return out, nil
}

func (m *mockEmbedder) Dimensions() int              { return mockDims }
func (m *mockEmbedder) ModelName() string            { return "mock-embed" }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                 { return nil }

func bagOfWords(text string) []float32 {
	v := make([]float32, mockDims)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,?!:;[]()")
		if word == "" {
			continue
		}
		h := fnv.New32a()
		_, _ = h.Write([]byte(word))
		v[h.Sum32()%mockDims]++
	}
	v[0] += 0.01
	return v
}

// mockLLM implements driven.LLMService, recording every prompt.
type mockLLM struct {
	mu        sync.Mutex
	prompts   []string
	responses []string
	err       error
}

func (m *mockLLM) Complete(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	if len(m.responses) == 0 {
		return "answer", nil
	}
	i := min(len(m.prompts)-1, len(m.responses)-1)
	return m.responses[i], nil
}

func (m *mockLLM) ModelName() string            { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

func (m *mockLLM) recorded() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// mockFileSource implements driven.FileSource over an in-memory tree.
type mockFileSource struct {
	files map[string]string
	reads atomic.Int64
}

func (m *mockFileSource) List(_ context.Context, root string, extensions []string) ([]string, error) {
	allowed := make(map[string]bool)
	for _, ext := range extensions {
		allowed[strings.ToLower(ext)] = true
	}
	found := false
	var out []string
	for path := range m.files {
		if !strings.HasPrefix(path, root+"/") {
			continue
		}
		found = true
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
		if allowed[ext] {
			out = append(out, path)
		}
	}
	if !found {
		return nil, domain.ErrNotFound
	}
	sort.Strings(out)
	return out, nil
}

func (m *mockFileSource) Read(_ context.Context, path string) ([]byte, error) {
	m.reads.Add(1)
	content, ok := m.files[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return []byte(content), nil
}

// mockNormalisers implements driven.NormaliserRegistry. Content is split
// into pages on form feeds; content starting with "CORRUPT" fails.
type mockNormalisers struct{}

func (mockNormalisers) Normalise(_ context.Context, raw *domain.RawDocument) ([]domain.Page, error) {
	text := string(raw.Content)
	if strings.HasPrefix(text, "CORRUPT") {
		return nil, errors.New("malformed document")
	}
	var pages []domain.Page
	for i, part := range strings.Split(text, "\f") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		pages = append(pages, domain.Page{Label: strconv.Itoa(i + 1), Text: part})
	}
	return pages, nil
}

func (mockNormalisers) Register(_ driven.Normaliser) {}

func (mockNormalisers) SupportedExtensions() []string { return []string{"pdf", "docx", "xlsx"} }

// mockChunker implements driven.Chunker with one chunk per page.
type mockChunker struct {
	seq atomic.Int64
}

func (m *mockChunker) Name() string { return "mock" }

func (m *mockChunker) Chunk(_ context.Context, raw *domain.RawDocument, pages []domain.Page) ([]domain.DocumentChunk, error) {
	out := make([]domain.DocumentChunk, 0, len(pages))
	for _, p := range pages {
		out = append(out, domain.DocumentChunk{
			ID:   fmt.Sprintf("%s-%s-%d", raw.Name, p.Label, m.seq.Add(1)),
			Text: p.Text,
			Metadata: map[string]any{
				domain.MetaFileName:  raw.Name,
				domain.MetaFilePath:  raw.Path,
				domain.MetaPageLabel: p.Label,
			},
		})
	}
	return out, nil
}

// stubRetriever implements driving.RetrievalService with canned results.
type stubRetriever struct {
	nodes   []domain.ScoredChunk
	err     error
	queries []string
}

func (s *stubRetriever) Retrieve(_ context.Context, query, _ string, _ int) ([]domain.ScoredChunk, error) {
	s.queries = append(s.queries, query)
	return s.nodes, s.err
}

// stubQuery implements driving.QueryService.
type stubQuery struct {
	answer    domain.Answer
	err       error
	histories [][]domain.ConversationTurn
}

func (s *stubQuery) Answer(
	_ context.Context, _, _ string, history []domain.ConversationTurn,
) (domain.Answer, error) {
	s.histories = append(s.histories, history)
	return s.answer, s.err
}
