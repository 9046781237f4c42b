package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// TokenRepo is the refresh token ledger.  Rows are keyed by the SHA-256 hash
// of the token; a token is valid only while its row exists and has not
// expired.  Rows are never updated in place.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Store inserts a refresh token hash row.
func (r *TokenRepo) Store(ctx context.Context, userID, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, exp.UTC())
	return err
}

// Exists reports whether a row for tokenHash exists and expires after now.
// Expired rows that the sweep has not removed yet count as absent.
func (r *TokenRepo) Exists(ctx context.Context, tokenHash string, now time.Time) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM refresh_tokens WHERE token_hash=? AND expires_at>? LIMIT 1",
		tokenHash, now.UTC()).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes the row for tokenHash.  Deleting a missing row is not an error.
func (r *TokenRepo) Delete(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE token_hash=?", tokenHash)
	return err
}

// DeleteAllForUser revokes every refresh token of userID.
func (r *TokenRepo) DeleteAllForUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE user_id=?", userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteExpired removes rows that expired at or before now.
func (r *TokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE expires_at<=?", now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
