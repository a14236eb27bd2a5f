package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/xid"

	"github.com/sakif/otayori/internal/model"
)

// CreateMessage writes the message document and indexes it.
func (s *Store) CreateMessage(ctx context.Context, msg *model.Message) error {
	msg.ID = xid.New().String()
	msg.CreatedAt = time.Now().UTC()
	msg.IsRead = false

	doc, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("redisstore: encoding message: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.messageKey(msg.ID), doc, 0)
		pipe.ZAdd(ctx, s.messagesIndex(), redis.Z{
			Score:  float64(msg.CreatedAt.UnixMicro()),
			Member: msg.ID,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("redisstore: creating message: %w", err)
	}
	return nil
}

// ListStaffMessages loads all messages newest-first, then the distinct themes
// they reference, and joins the titles in Go. A theme id with no document
// (never created) leaves ThemeTitle nil.
func (s *Store) ListStaffMessages(ctx context.Context) ([]model.StaffMessage, error) {
	ids, err := s.client.ZRevRange(ctx, s.messagesIndex(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redisstore: listing message ids: %w", err)
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.messageKey(id)
	}

	messages, err := loadDocs[model.Message](ctx, s.client, keys)
	if err != nil {
		return nil, fmt.Errorf("redisstore: loading messages: %w", err)
	}

	titles, err := s.themeTitles(ctx, messages)
	if err != nil {
		return nil, err
	}

	out := make([]model.StaffMessage, len(messages))
	for i, m := range messages {
		out[i] = model.StaffMessage{Message: m}
		if m.ThemeID != nil {
			if title, ok := titles[*m.ThemeID]; ok {
				out[i].ThemeTitle = &title
			}
		}
	}
	return out, nil
}

// themeTitles maps theme id → title for every theme the messages reference.
func (s *Store) themeTitles(ctx context.Context, messages []model.Message) (map[string]string, error) {
	seen := make(map[string]bool)
	var keys []string
	for _, m := range messages {
		if m.ThemeID == nil || seen[*m.ThemeID] {
			continue
		}
		seen[*m.ThemeID] = true
		keys = append(keys, s.themeKey(*m.ThemeID))
	}

	themes, err := loadDocs[model.Theme](ctx, s.client, keys)
	if err != nil {
		return nil, fmt.Errorf("redisstore: loading message themes: %w", err)
	}

	titles := make(map[string]string, len(themes))
	for _, t := range themes {
		titles[t.ID] = t.Title
	}
	return titles, nil
}

// MarkMessageRead sets is_read=true. A missing document is not an error.
func (s *Store) MarkMessageRead(ctx context.Context, id string) error {
	err := updateDoc(ctx, s.client, s.messageKey(id), func(m *model.Message) {
		m.IsRead = true
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redisstore: marking message %s read: %w", id, err)
	}
	return nil
}
