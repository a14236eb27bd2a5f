package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/otayori/internal/apperror"
	"github.com/sakif/otayori/internal/model"
)

// ReplaceToken deletes every token row and inserts tok, inside one transaction.
//
// If the INSERT fails the DELETE is rolled back too, so a failed rotation
// leaves the previous token in place instead of leaving zero tokens.
func (db *DB) ReplaceToken(ctx context.Context, tok *model.AccessToken) error {
	tok.ID = xid.New().String()
	tok.CreatedAt = time.Now().UTC()
	tok.IsActive = true

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning token rotation: %w", err)
	}
	// Rollback after a successful Commit is a no-op.
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM access_tokens`); err != nil {
		return fmt.Errorf("sqlite: purging access tokens: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO access_tokens (id, token, created_at, is_active) VALUES (?, ?, ?, ?)`,
		tok.ID,
		tok.Token,
		tok.CreatedAt,
		tok.IsActive,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting access token: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing token rotation: %w", err)
	}
	return nil
}

// CurrentToken returns the newest active token.
func (db *DB) CurrentToken(ctx context.Context) (*model.AccessToken, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, token, created_at, is_active
		 FROM access_tokens
		 WHERE is_active = 1
		 ORDER BY created_at DESC
		 LIMIT 1`,
	)
	tok, err := scanToken(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("access token", "current")
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting current token: %w", err)
	}
	return tok, nil
}

// FindActiveToken looks up an active token by value.
func (db *DB) FindActiveToken(ctx context.Context, token string) (*model.AccessToken, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, token, created_at, is_active
		 FROM access_tokens
		 WHERE token = ? AND is_active = 1`,
		token,
	)
	tok, err := scanToken(row)
	if errors.Is(err, sql.ErrNoRows) {
		// The token value is a secret; keep it out of the error message.
		return nil, apperror.NotFound("access token", "(redacted)")
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: finding token: %w", err)
	}
	return tok, nil
}

func scanToken(row *sql.Row) (*model.AccessToken, error) {
	var tok model.AccessToken
	if err := row.Scan(&tok.ID, &tok.Token, &tok.CreatedAt, &tok.IsActive); err != nil {
		return nil, err
	}
	return &tok, nil
}
