package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/citeqa/internal/core/domain"
	"github.com/custodia-labs/citeqa/internal/core/ports/driven"
)

// historyStore implements driven.HistoryStore.
type historyStore struct {
	store *Store
}

var _ driven.HistoryStore = (*historyStore)(nil)

// CreateSession starts a new session.
func (s *historyStore) CreateSession(ctx context.Context, owner, title string) (domain.ChatSession, error) {
	now := time.Now().UTC()
	sess := domain.ChatSession{
		ID:        uuid.New().String(),
		Owner:     owner,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO chat_sessions (id, owner, title, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, sess.ID, sess.Owner, sess.Title, sess.CreatedAt, sess.UpdatedAt)
	if err != nil {
		return domain.ChatSession{}, fmt.Errorf("creating session: %w", err)
	}
	return sess, nil
}

// GetSession retrieves a session by ID.
func (s *historyStore) GetSession(ctx context.Context, id string) (*domain.ChatSession, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, owner, title, created_at, updated_at
		FROM chat_sessions WHERE id = ?
	`, id)
	return scanSession(row)
}

// ListSessions returns the owner's sessions, most recently updated first.
func (s *historyStore) ListSessions(ctx context.Context, owner string) ([]domain.ChatSession, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, owner, title, created_at, updated_at
		FROM chat_sessions WHERE owner = ?
		ORDER BY updated_at DESC
	`, owner)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.ChatSession //nolint:prealloc // size unknown from query
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}
	return sessions, nil
}

// UpdateTitle renames a session.
func (s *historyStore) UpdateTitle(ctx context.Context, id, title string) error {
	res, err := s.store.db.ExecContext(ctx,
		"UPDATE chat_sessions SET title = ? WHERE id = ?", title, id)
	if err != nil {
		return fmt.Errorf("updating session title: %w", err)
	}
	return requireAffected(res, "session", id)
}

// Turns returns a session's turns in creation order.
func (s *historyStore) Turns(ctx context.Context, sessionID string) ([]domain.ConversationTurn, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, session_id, role, content, created_at
		FROM chat_messages WHERE session_id = ?
		ORDER BY seq
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}
	defer rows.Close()

	var turns []domain.ConversationTurn //nolint:prealloc // size unknown from query
	for rows.Next() {
		var turn domain.ConversationTurn
		var role string
		var createdAt sql.NullTime
		if err := rows.Scan(&turn.ID, &turn.SessionID, &role, &turn.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		turn.Role = domain.Role(role)
		turn.CreatedAt = timeOrZero(createdAt)
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating turns: %w", err)
	}
	return turns, nil
}

// Append records a turn and bumps the session's updated_at.
func (s *historyStore) Append(
	ctx context.Context, sessionID string, role domain.Role, content string,
) (domain.ConversationTurn, error) {
	if !role.IsValid() {
		return domain.ConversationTurn{}, fmt.Errorf("%w: invalid role %q", domain.ErrValidation, role)
	}

	turn := domain.ConversationTurn{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.ConversationTurn{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	res, err := tx.ExecContext(ctx,
		"UPDATE chat_sessions SET updated_at = ? WHERE id = ?", turn.CreatedAt, sessionID)
	if err != nil {
		return domain.ConversationTurn{}, fmt.Errorf("touching session: %w", err)
	}
	if err := requireAffected(res, "session", sessionID); err != nil {
		return domain.ConversationTurn{}, err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO chat_messages (id, session_id, role, content, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, turn.ID, turn.SessionID, string(turn.Role), turn.Content, turn.CreatedAt); err != nil {
		return domain.ConversationTurn{}, fmt.Errorf("inserting turn: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.ConversationTurn{}, fmt.Errorf("committing turn: %w", err)
	}
	return turn, nil
}

// DeleteSession removes a session and its turns.
func (s *historyStore) DeleteSession(ctx context.Context, id string) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	res, err := tx.ExecContext(ctx, "DELETE FROM chat_sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	if err := requireAffected(res, "session", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM chat_messages WHERE session_id = ?", id); err != nil {
		return fmt.Errorf("deleting turns: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing delete: %w", err)
	}
	return nil
}

// scanSession scans a chat session row.
func scanSession(row rowScanner) (*domain.ChatSession, error) {
	var sess domain.ChatSession
	var createdAt, updatedAt sql.NullTime
	if err := row.Scan(&sess.ID, &sess.Owner, &sess.Title, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning session: %w", err)
	}
	sess.CreatedAt = timeOrZero(createdAt)
	sess.UpdatedAt = timeOrZero(updatedAt)
	return &sess, nil
}

// requireAffected returns domain.ErrNotFound when res changed no rows.
func requireAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, domain.ErrNotFound)
	}
	return nil
}
