package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBar_NilStyles(t *testing.T) {
	bar := NewBar(nil, nil)

	require.NotNil(t, bar)
	assert.NotNil(t, bar.styles)
	assert.NotNil(t, bar.keymap)
	assert.Equal(t, StateReady, bar.State())
}

func TestBar_View(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(*Bar)
		contains []string
	}{
		{
			name:     "ready shows collection and hints",
			setup:    func(b *Bar) { b.SetCollection("doc_store_v1") },
			contains: []string{"Ready", "doc_store_v1", "enter: send", "esc: quit"},
		},
		{
			name: "thinking shows spinner",
			setup: func(b *Bar) {
				b.SetState(StateThinking)
				b.SetSpinner("*")
			},
			contains: []string{"* Thinking..."},
		},
		{
			name: "error shows message",
			setup: func(b *Bar) {
				b.SetState(StateError)
				b.SetMessage("llm unavailable")
			},
			contains: []string{"Error: llm unavailable"},
		},
		{
			name:     "error without message",
			setup:    func(b *Bar) { b.SetState(StateError) },
			contains: []string{"Error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := NewBar(nil, nil)
			bar.SetWidth(120)
			tt.setup(bar)

			view := bar.View()
			for _, want := range tt.contains {
				assert.Contains(t, view, want)
			}
		})
	}
}

func TestBar_Clear(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetState(StateError)
	bar.SetMessage("boom")

	bar.Clear()

	assert.Equal(t, StateReady, bar.State())
	assert.Empty(t, bar.Message())
}
