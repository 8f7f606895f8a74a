package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TokenRepository is the append-only blacklist of invalidated session
// tokens. Entries are never removed in-band; token lifetime is short.
type TokenRepository interface {
	Blacklist(ctx context.Context, token string, userID int64) error
	IsBlacklisted(ctx context.Context, token string) (bool, error)
}

type tokenRepository struct {
	pool *pgxpool.Pool
}

func NewTokenRepository(pool *pgxpool.Pool) TokenRepository {
	return &tokenRepository{pool: pool}
}

func (r *tokenRepository) Blacklist(ctx context.Context, token string, userID int64) error {
	const q = `INSERT INTO token_blacklist (token, user_id) VALUES ($1, $2) ON CONFLICT (token) DO NOTHING`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, token, userID)
	return err
}

func (r *tokenRepository) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM token_blacklist WHERE token = $1)`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var exists bool
	err := r.pool.QueryRow(ctx, q, token).Scan(&exists)
	return exists, err
}
