package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/citeqa/internal/adapters/driving/cli"
	"github.com/custodia-labs/citeqa/internal/core/domain"
)

func TestWire_BuildsAllServices(t *testing.T) {
	dir := t.TempDir()

	svc, cleanup, err := wire(context.Background(), cli.BootstrapOptions{ConfigDir: dir, TopK: 9})
	require.NoError(t, err)
	require.NotNil(t, cleanup)
	defer func() { assert.NoError(t, cleanup()) }()

	assert.NotNil(t, svc.Settings)
	assert.NotNil(t, svc.SettingsService)
	assert.NotNil(t, svc.Ingestion)
	assert.NotNil(t, svc.Retrieval)
	assert.NotNil(t, svc.Query)
	assert.NotNil(t, svc.Chat)
	assert.NotNil(t, svc.Prompts)
	assert.NotNil(t, svc.Health)
	assert.NotNil(t, svc.Watch)
	assert.Equal(t, 9, svc.Settings.Retrieval.TopK)

	_, err = os.Stat(filepath.Join(dir, "data", "citeqa.db"))
	assert.NoError(t, err)
}

func TestWire_PromptsPersistAcrossRuns(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	svc, cleanup, err := wire(ctx, cli.BootstrapOptions{ConfigDir: dir})
	require.NoError(t, err)
	v, err := svc.Prompts.Create(ctx, domain.PromptQA, "Context: {context_str}\nQ: {query_str}", "")
	require.NoError(t, err)
	require.NoError(t, svc.Prompts.Activate(ctx, domain.PromptQA, v.Version))
	require.NoError(t, cleanup())

	svc, cleanup, err = wire(ctx, cli.BootstrapOptions{ConfigDir: dir})
	require.NoError(t, err)
	defer func() { assert.NoError(t, cleanup()) }()

	tmpl, err := svc.Prompts.GetActive(ctx, domain.PromptQA)
	require.NoError(t, err)
	assert.Equal(t, v.Version, tmpl.Version)
}
