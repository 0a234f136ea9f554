package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/citeqa/internal/core/domain"
)

func TestHistoryStore_SessionLifecycle(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	hs := store.HistoryStore()
	ctx := context.Background()

	sess, err := hs.CreateSession(ctx, "alex", "")
	require.NoError(t, err)
	require.NoError(t, hs.UpdateTitle(ctx, sess.ID, "What is PDRI?"))

	got, err := hs.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "alex", got.Owner)
	assert.Equal(t, "What is PDRI?", got.Title)

	_, err = hs.Append(ctx, sess.ID, domain.RoleUser, "What is PDRI?")
	require.NoError(t, err)
	_, err = hs.Append(ctx, sess.ID, domain.RoleAssistant, "A scoring tool.")
	require.NoError(t, err)

	turns, err := hs.Turns(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, domain.RoleUser, turns[0].Role)
	assert.Equal(t, "A scoring tool.", turns[1].Content)
	assert.Equal(t, sess.ID, turns[1].SessionID)

	require.NoError(t, hs.DeleteSession(ctx, sess.ID))
	_, err = hs.GetSession(ctx, sess.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = hs.Turns(ctx, sess.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	var remaining int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM chat_messages").Scan(&remaining))
	assert.Zero(t, remaining)
}

func TestHistoryStore_ListSessionsByRecency(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	hs := store.HistoryStore()
	ctx := context.Background()

	older, err := hs.CreateSession(ctx, "alex", "older")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	newer, err := hs.CreateSession(ctx, "alex", "newer")
	require.NoError(t, err)
	_, err = hs.CreateSession(ctx, "sam", "someone else")
	require.NoError(t, err)

	sessions, err := hs.ListSessions(ctx, "alex")
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, newer.ID, sessions[0].ID)

	time.Sleep(5 * time.Millisecond)
	_, err = hs.Append(ctx, older.ID, domain.RoleUser, "bump")
	require.NoError(t, err)

	sessions, err = hs.ListSessions(ctx, "alex")
	require.NoError(t, err)
	assert.Equal(t, older.ID, sessions[0].ID)
}

func TestHistoryStore_MissingSession(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	hs := store.HistoryStore()
	ctx := context.Background()

	_, err := hs.Append(ctx, "missing", domain.RoleUser, "hello")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, hs.UpdateTitle(ctx, "missing", "title"), domain.ErrNotFound)
	assert.ErrorIs(t, hs.DeleteSession(ctx, "missing"), domain.ErrNotFound)
}

func TestHistoryStore_AppendRejectsUnknownRole(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	hs := store.HistoryStore()
	ctx := context.Background()
	sess, err := hs.CreateSession(ctx, "alex", "")
	require.NoError(t, err)

	_, err = hs.Append(ctx, sess.ID, domain.Role("system"), "hello")

	assert.ErrorIs(t, err, domain.ErrValidation)
}
