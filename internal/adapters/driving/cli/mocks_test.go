package cli

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/citeqa/internal/core/domain"
	"github.com/custodia-labs/citeqa/internal/core/ports/driving"
)

// mockIngestion implements driving.IngestionService.
type mockIngestion struct {
	result     domain.IngestResult
	err        error
	lastReq    domain.IngestRequest
	files      []string
	fileErrs   map[string]error
	backfilled string
	catalog    []domain.CatalogRecord
	docs       []string
	removed    string
}

func (m *mockIngestion) Ingest(_ context.Context, req domain.IngestRequest) (domain.IngestResult, error) {
	m.lastReq = req
	return m.result, m.err
}

func (m *mockIngestion) IngestFile(
	_ context.Context, path, _, _, _ string,
) (domain.IngestResult, error) {
	m.files = append(m.files, path)
	for suffix, err := range m.fileErrs {
		if strings.HasSuffix(path, suffix) {
			return domain.IngestResult{}, err
		}
	}
	return domain.IngestResult{ChunksAdded: 2}, nil
}

func (m *mockIngestion) BackfillURLs(_ context.Context, _, url string) (int, error) {
	m.backfilled = url
	return 3, m.err
}

func (m *mockIngestion) ApplyCatalog(
	_ context.Context, _ string, records []domain.CatalogRecord,
) (domain.CatalogResult, error) {
	m.catalog = records
	return domain.CatalogResult{UpdatedFiles: 1, UpdatedChunks: 4, Missing: []string{"gone.pdf"}}, m.err
}

func (m *mockIngestion) ListDocuments(context.Context, string) ([]string, error) {
	return m.docs, m.err
}

func (m *mockIngestion) RemoveDocument(_ context.Context, _, name string) (int, error) {
	m.removed = name
	return 5, m.err
}

func (m *mockIngestion) ListCollections(context.Context) ([]string, error) {
	return []string{"doc_store_v1"}, m.err
}

// mockQuery implements driving.QueryService.
type mockQuery struct {
	answer     domain.Answer
	err        error
	query      string
	collection string
}

func (m *mockQuery) Answer(
	_ context.Context, query, collection string, _ []domain.ConversationTurn,
) (domain.Answer, error) {
	m.query = query
	m.collection = collection
	return m.answer, m.err
}

// mockRetrieval implements driving.RetrievalService.
type mockRetrieval struct {
	chunks []domain.ScoredChunk
	topK   int
}

func (m *mockRetrieval) Retrieve(_ context.Context, _, _ string, topK int) ([]domain.ScoredChunk, error) {
	m.topK = topK
	return m.chunks, nil
}

// mockChat implements driving.ChatService.
type mockChat struct {
	answer   domain.Answer
	sessions []domain.ChatSession
	turns    []domain.ConversationTurn
	askedIn  string
	deleted  string
}

func (m *mockChat) StartSession(_ context.Context, owner string) (domain.ChatSession, error) {
	return domain.ChatSession{ID: "sess-new", Owner: owner}, nil
}

func (m *mockChat) Ask(_ context.Context, sessionID, _, _ string) (domain.Answer, error) {
	m.askedIn = sessionID
	return m.answer, nil
}

func (m *mockChat) Sessions(context.Context, string) ([]domain.ChatSession, error) {
	return m.sessions, nil
}

func (m *mockChat) Turns(context.Context, string) ([]domain.ConversationTurn, error) {
	return m.turns, nil
}

func (m *mockChat) DeleteSession(_ context.Context, id string) error {
	m.deleted = id
	return nil
}

// mockPrompts implements driving.PromptService.
type mockPrompts struct {
	versions  []domain.SystemPromptVersion
	created   []string
	activated []string
	updatedID string
	content   *string
	imported  []domain.PromptSeed
	err       error
}

func (m *mockPrompts) Create(_ context.Context, name, content, desc string) (domain.SystemPromptVersion, error) {
	if m.err != nil {
		return domain.SystemPromptVersion{}, m.err
	}
	m.created = append(m.created, content)
	return domain.SystemPromptVersion{ID: "p1", Name: name, Version: 1, Content: content, Description: desc}, nil
}

func (m *mockPrompts) Update(
	_ context.Context, id string, content, _ *string,
) (domain.SystemPromptVersion, error) {
	m.updatedID = id
	m.content = content
	return domain.SystemPromptVersion{ID: "p2", Name: domain.PromptQA, Version: 2}, nil
}

func (m *mockPrompts) Activate(_ context.Context, name string, version int) error {
	m.activated = append(m.activated, fmt.Sprintf("%s@%d", name, version))
	return m.err
}

func (m *mockPrompts) Delete(context.Context, string) error {
	return m.err
}

func (m *mockPrompts) Get(_ context.Context, id string) (*domain.SystemPromptVersion, error) {
	for i := range m.versions {
		if m.versions[i].ID == id {
			return &m.versions[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockPrompts) List(context.Context, string) ([]domain.SystemPromptVersion, error) {
	return m.versions, nil
}

func (m *mockPrompts) Import(_ context.Context, seeds []domain.PromptSeed) ([]domain.SystemPromptVersion, error) {
	m.imported = seeds
	out := make([]domain.SystemPromptVersion, len(seeds))
	for i, s := range seeds {
		out[i] = domain.SystemPromptVersion{Name: s.Name, Version: i + 1}
	}
	return out, nil
}

func (m *mockPrompts) GetActive(_ context.Context, name string) (domain.Template, error) {
	switch name {
	case domain.PromptQA, domain.PromptRefine:
		return domain.BuiltinTemplate(name, "text of "+name), nil
	}
	return domain.Template{}, domain.ErrNotFound
}

// mockSettings implements driving.SettingsService.
type mockSettings struct {
	entries []domain.SettingEntry
	set     map[string]string
	keys    map[domain.AIProvider]string
}

func (m *mockSettings) Get() (*domain.Settings, error) {
	s := domain.DefaultSettings()
	return &s, nil
}

func (m *mockSettings) Entries() ([]domain.SettingEntry, error) {
	return m.entries, nil
}

func (m *mockSettings) Set(key, value string) error {
	if m.set == nil {
		m.set = map[string]string{}
	}
	m.set[key] = value
	return nil
}

func (m *mockSettings) SetAPIKey(provider domain.AIProvider, key string) error {
	if key == "" {
		return domain.ErrValidation
	}
	if m.keys == nil {
		m.keys = map[domain.AIProvider]string{}
	}
	m.keys[provider] = key
	return nil
}

func (m *mockSettings) ConfigPath() string {
	return "/tmp/citeqa/config.toml"
}

// mockHealth implements driving.HealthService.
type mockHealth struct {
	report domain.HealthReport
}

func (m *mockHealth) Check(context.Context) domain.HealthReport {
	return m.report
}

var (
	_ driving.IngestionService = (*mockIngestion)(nil)
	_ driving.QueryService     = (*mockQuery)(nil)
	_ driving.RetrievalService = (*mockRetrieval)(nil)
	_ driving.ChatService      = (*mockChat)(nil)
	_ driving.PromptService    = (*mockPrompts)(nil)
	_ driving.SettingsService  = (*mockSettings)(nil)
	_ driving.HealthService    = (*mockHealth)(nil)
)

// setupTestServices installs s, resets flag state and returns a buffer
// capturing command output. Everything is restored when the test ends.
func setupTestServices(t *testing.T, s *Services) *bytes.Buffer {
	t.Helper()
	if s.Settings == nil {
		settings := domain.DefaultSettings()
		s.Settings = &settings
	}
	SetServices(s)
	SetBootstrap(nil)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)

	t.Cleanup(func() {
		SetServices(nil)
		SetBootstrap(nil)
		cleanup = nil
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)

		resetFlags(rootCmd)
	})
	return buf
}

func execute(args ...string) error {
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(context.Background())
}

// resetFlags restores every flag under cmd to its default and clears
// its changed state, so one test's flags do not leak into the next.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}
