package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-auth/internal/model"
)

type TokenRepository struct {
	pool *pgxpool.Pool
}

func NewTokenRepository(pool *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{pool: pool}
}

func (r *TokenRepository) FindByUser(ctx context.Context, userID string) (model.RefreshTokenRecord, error) {
	var rec model.RefreshTokenRecord
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, refresh_token, ip, user_agent, is_valid, created_at
		 FROM refresh_tokens WHERE user_id = $1`, userID).
		Scan(&rec.UserID, &rec.RefreshToken, &rec.IP, &rec.UserAgent,
			&rec.IsValid, &rec.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.RefreshTokenRecord{}, model.ErrTokenNotFound
	}
	if err != nil {
		return model.RefreshTokenRecord{}, fmt.Errorf("find refresh token record: %w", err)
	}
	return rec, nil
}

// CreateIfAbsent inserts the record unless one already exists for the user,
// and returns whichever record ends up stored. Two concurrent first logins
// race on the user_id primary key instead of on a read-then-write, so the
// one-record-per-user invariant holds.
func (r *TokenRepository) CreateIfAbsent(ctx context.Context, rec model.RefreshTokenRecord) (model.RefreshTokenRecord, error) {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO refresh_tokens (user_id, refresh_token, ip, user_agent, is_valid, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id) DO NOTHING`,
		rec.UserID, rec.RefreshToken, rec.IP, rec.UserAgent, rec.IsValid, rec.CreatedAt)
	if err != nil {
		return model.RefreshTokenRecord{}, fmt.Errorf("create refresh token record: %w", err)
	}

	if tag.RowsAffected() == 0 {
		// Lost the race; adopt the record the winner stored.
		return r.FindByUser(ctx, rec.UserID)
	}
	return rec, nil
}

// DeleteByUser removes the user's record. Deleting an absent record is not an
// error, logout is idempotent.
func (r *TokenRepository) DeleteByUser(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM refresh_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete refresh token record: %w", err)
	}
	return nil
}

// Invalidate flips is_valid to false, the operator revocation path. The
// record stays in place so subsequent logins fail until it is deleted.
func (r *TokenRepository) Invalidate(ctx context.Context, userID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE refresh_tokens SET is_valid = false WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("invalidate refresh token record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTokenNotFound
	}
	return nil
}
