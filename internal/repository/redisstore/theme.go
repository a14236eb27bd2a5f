package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/xid"

	"github.com/sakif/otayori/internal/apperror"
	"github.com/sakif/otayori/internal/model"
	"github.com/sakif/otayori/internal/repository"
)

// CreateTheme writes the theme document and indexes it in one MULTI/EXEC.
func (s *Store) CreateTheme(ctx context.Context, theme *model.Theme) error {
	theme.ID = xid.New().String()
	theme.CreatedAt = time.Now().UTC()
	theme.IsActive = true

	doc, err := json.Marshal(theme)
	if err != nil {
		return fmt.Errorf("redisstore: encoding theme: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.themeKey(theme.ID), doc, 0)
		pipe.ZAdd(ctx, s.themesIndex(), redis.Z{
			Score:  float64(theme.CreatedAt.UnixMicro()),
			Member: theme.ID,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("redisstore: creating theme: %w", err)
	}
	return nil
}

// ListActiveThemes loads every theme document newest-first and filters in Go.
// There is no secondary index on is_active or the dates; theme counts for a
// school programme are small enough to scan.
func (s *Store) ListActiveThemes(ctx context.Context, filter repository.ThemeFilter) ([]model.Theme, error) {
	ids, err := s.client.ZRevRange(ctx, s.themesIndex(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redisstore: listing theme ids: %w", err)
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.themeKey(id)
	}

	all, err := loadDocs[model.Theme](ctx, s.client, keys)
	if err != nil {
		return nil, fmt.Errorf("redisstore: loading themes: %w", err)
	}

	themes := make([]model.Theme, 0, len(all))
	for _, t := range all {
		if !t.IsActive {
			continue
		}
		if filter.OpenOn != nil && !t.OpenOn(*filter.OpenOn) {
			continue
		}
		themes = append(themes, t)
	}
	return themes, nil
}

// DeactivateTheme sets is_active=false on an existing document.
// Deactivating an inactive theme rewrites the same value and succeeds.
func (s *Store) DeactivateTheme(ctx context.Context, id string) error {
	err := updateDoc(ctx, s.client, s.themeKey(id), func(t *model.Theme) {
		t.IsActive = false
	})
	if errors.Is(err, redis.Nil) {
		return apperror.NotFound("theme", id)
	}
	if err != nil {
		return fmt.Errorf("redisstore: deactivating theme %s: %w", id, err)
	}
	return nil
}
