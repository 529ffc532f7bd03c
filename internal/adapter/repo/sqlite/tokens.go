package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"time"

	"github.com/cxyfer/oj-catalog/internal/domain"
)

// TokenRepository implements domain.TokenRepository against Pools.
type TokenRepository struct {
	pools *Pools
}

// NewTokenRepository constructs a TokenRepository.
func NewTokenRepository(pools *Pools) *TokenRepository {
	return &TokenRepository{pools: pools}
}

// ValidateToken reports whether token is an active bearer credential,
// bumping last_used_at on success.
func (r *TokenRepository) ValidateToken(ctx context.Context, token string) (bool, error) {
	var exists int
	err := r.pools.RW.QueryRowContext(ctx,
		`SELECT 1 FROM api_tokens WHERE token = ? AND is_active = 1`, token,
	).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	_, _ = r.pools.RW.ExecContext(ctx,
		`UPDATE api_tokens SET last_used_at = ? WHERE token = ?`, time.Now().Unix(), token)
	return true, nil
}

// ListTokens returns every token, most recently created first.
func (r *TokenRepository) ListTokens(ctx context.Context) ([]domain.APIToken, error) {
	rows, err := r.pools.RW.QueryContext(ctx,
		`SELECT token, label, created_at, last_used_at, is_active FROM api_tokens ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.APIToken
	for rows.Next() {
		var t domain.APIToken
		var isActive int
		if err := rows.Scan(&t.Token, &t.Label, &t.CreatedAt, &t.LastUsedAt, &isActive); err != nil {
			return nil, err
		}
		t.IsActive = isActive != 0
		out = append(out, t)
	}
	return out, rows.Err()
}

// CreateToken mints a new random 32-byte hex bearer token.
func (r *TokenRepository) CreateToken(ctx context.Context, label *string) (*domain.APIToken, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	token := hex.EncodeToString(buf)
	now := time.Now().Unix()

	if _, err := r.pools.RW.ExecContext(ctx,
		`INSERT INTO api_tokens (token, label, created_at, is_active) VALUES (?, ?, ?, 1)`,
		token, label, now,
	); err != nil {
		return nil, err
	}

	return &domain.APIToken{Token: token, Label: label, CreatedAt: now, IsActive: true}, nil
}

// RevokeToken deactivates an active token, reporting whether one existed.
func (r *TokenRepository) RevokeToken(ctx context.Context, token string) (bool, error) {
	res, err := r.pools.RW.ExecContext(ctx,
		`UPDATE api_tokens SET is_active = 0 WHERE token = ? AND is_active = 1`, token)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
