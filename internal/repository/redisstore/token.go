package redisstore

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/xid"

	"github.com/sakif/otayori/internal/apperror"
	"github.com/sakif/otayori/internal/model"
)

// ReplaceToken purges the stored token and writes tok in one MULTI/EXEC,
// so no reader ever observes the gap between the two.
func (s *Store) ReplaceToken(ctx context.Context, tok *model.AccessToken) error {
	tok.ID = xid.New().String()
	tok.CreatedAt = time.Now().UTC()
	tok.IsActive = true

	doc, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("redisstore: encoding token: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.tokenKey())
		pipe.Set(ctx, s.tokenKey(), doc, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redisstore: replacing token: %w", err)
	}
	return nil
}

// CurrentToken returns the stored token if it is active.
func (s *Store) CurrentToken(ctx context.Context) (*model.AccessToken, error) {
	tok, err := s.loadToken(ctx)
	if err != nil {
		return nil, err
	}
	if tok == nil || !tok.IsActive {
		return nil, apperror.NotFound("access token", "current")
	}
	return tok, nil
}

// FindActiveToken returns the stored token when it is active and equals token.
func (s *Store) FindActiveToken(ctx context.Context, token string) (*model.AccessToken, error) {
	tok, err := s.loadToken(ctx)
	if err != nil {
		return nil, err
	}
	if tok == nil || !tok.IsActive || subtle.ConstantTimeCompare([]byte(tok.Token), []byte(token)) != 1 {
		return nil, apperror.NotFound("access token", "(redacted)")
	}
	return tok, nil
}

// loadToken returns the token document, or nil when none has been issued.
func (s *Store) loadToken(ctx context.Context) (*model.AccessToken, error) {
	raw, err := s.client.Get(ctx, s.tokenKey()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redisstore: reading token: %w", err)
	}

	var tok model.AccessToken
	if err := json.Unmarshal(raw, &tok); err != nil {
		return nil, fmt.Errorf("redisstore: decoding token: %w", err)
	}
	return &tok, nil
}
