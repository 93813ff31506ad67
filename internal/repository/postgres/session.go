package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dtroode/agentconsole/internal/model"
)

var _ model.SessionStore = (*SessionRepository)(nil)

type SessionRepository struct {
	db *Connection
}

func NewSessionRepository(db *Connection) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, session model.Session) error {
	const query = `
        INSERT INTO sessions (
            id, subject, access_token, refresh_token, access_expires_at, created_at, updated_at
        ) VALUES ($1,$2,$3,$4,$5,NOW(),NOW())
    `

	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}

	_, err := r.db.Exec(ctx, query,
		session.ID, session.Subject, session.Tokens.Access, session.Tokens.Refresh, session.AccessExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, id uuid.UUID) (model.Session, error) {
	const query = `
        SELECT id, subject, access_token, refresh_token, access_expires_at, created_at, updated_at, ended_at
        FROM sessions WHERE id = $1
    `
	var s model.Session
	err := r.db.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.Subject, &s.Tokens.Access, &s.Tokens.Refresh, &s.AccessExpiresAt,
		&s.CreatedAt, &s.UpdatedAt, &s.EndedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Session{}, model.ErrNotFound
		}
		return model.Session{}, fmt.Errorf("failed to get session: %w", err)
	}
	return s, nil
}

// ReplaceTokens writes both tokens in a single UPDATE; ended sessions are not touched.
func (r *SessionRepository) ReplaceTokens(ctx context.Context, id uuid.UUID, pair model.TokenPair, accessExpiresAt *time.Time) error {
	const query = `
        UPDATE sessions
        SET access_token = $2, refresh_token = $3, access_expires_at = $4, updated_at = NOW()
        WHERE id = $1 AND ended_at IS NULL
    `
	tag, err := r.db.Exec(ctx, query, id, pair.Access, pair.Refresh, accessExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to replace session tokens: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *SessionRepository) End(ctx context.Context, id uuid.UUID) error {
	const query = `
        UPDATE sessions SET ended_at = NOW(), updated_at = NOW()
        WHERE id = $1 AND ended_at IS NULL
    `
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// EndIdle ends every active session not updated since before.
func (r *SessionRepository) EndIdle(ctx context.Context, before time.Time) (int64, error) {
	const query = `
        UPDATE sessions SET ended_at = NOW(), updated_at = NOW()
        WHERE ended_at IS NULL AND updated_at < $1
    `
	tag, err := r.db.Exec(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to end idle sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
