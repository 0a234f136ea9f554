package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/citeqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/citeqa/internal/core/domain"
)

func TestChatService_AskRecordsTurns(t *testing.T) {
	query := &stubQuery{answer: domain.Answer{Text: "PDRI is a scoring tool."}}
	svc := NewChatService(memory.NewHistoryStore(), query)
	ctx := context.Background()

	sess, err := svc.StartSession(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultOwner, sess.Owner)

	answer, err := svc.Ask(ctx, sess.ID, "docs", "What is PDRI?")
	require.NoError(t, err)
	assert.Equal(t, "PDRI is a scoring tool.", answer.Text)

	_, err = svc.Ask(ctx, sess.ID, "docs", "How is it used?")
	require.NoError(t, err)

	turns, err := svc.Turns(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, turns, 4)
	assert.Equal(t, domain.RoleUser, turns[0].Role)
	assert.Equal(t, domain.RoleAssistant, turns[1].Role)

	// Each call sees only the turns before its own question.
	require.Len(t, query.histories, 2)
	assert.Empty(t, query.histories[0])
	assert.Len(t, query.histories[1], 2)
}

func TestChatService_TitleFromFirstQuestion(t *testing.T) {
	svc := NewChatService(memory.NewHistoryStore(), &stubQuery{})
	ctx := context.Background()
	sess, err := svc.StartSession(ctx, "alex")
	require.NoError(t, err)

	long := strings.Repeat("q", 80)
	_, err = svc.Ask(ctx, sess.ID, "docs", long)
	require.NoError(t, err)
	_, err = svc.Ask(ctx, sess.ID, "docs", "second question")
	require.NoError(t, err)

	sessions, err := svc.Sessions(ctx, "alex")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, strings.Repeat("q", 50)+"...", sessions[0].Title)
}

func TestChatService_FailureRecordsErrorTurn(t *testing.T) {
	query := &stubQuery{err: errors.New("model offline")}
	svc := NewChatService(memory.NewHistoryStore(), query)
	ctx := context.Background()
	sess, err := svc.StartSession(ctx, "")
	require.NoError(t, err)

	_, err = svc.Ask(ctx, sess.ID, "docs", "What is PDRI?")
	require.Error(t, err)

	turns, err := svc.Turns(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, domain.RoleAssistant, turns[1].Role)
	assert.Equal(t, "Error: model offline", turns[1].Content)
}

func TestChatService_AskValidation(t *testing.T) {
	svc := NewChatService(memory.NewHistoryStore(), &stubQuery{})
	ctx := context.Background()

	_, err := svc.Ask(ctx, "missing", "docs", "question")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	sess, err := svc.StartSession(ctx, "")
	require.NoError(t, err)
	_, err = svc.Ask(ctx, sess.ID, "docs", " ")
	assert.ErrorIs(t, err, domain.ErrValidation)

	turns, err := svc.Turns(ctx, sess.ID)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestChatService_DeleteSession(t *testing.T) {
	svc := NewChatService(memory.NewHistoryStore(), &stubQuery{})
	ctx := context.Background()
	sess, err := svc.StartSession(ctx, "")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteSession(ctx, sess.ID))

	_, err = svc.Turns(ctx, sess.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteSession(ctx, sess.ID), domain.ErrNotFound)
}
