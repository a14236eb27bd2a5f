package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/otayori/internal/apperror"
	"github.com/sakif/otayori/internal/model"
	"github.com/sakif/otayori/internal/repository"
)

// =========================================================================
// FAKE STORE
// =========================================================================

// errStorage stands in for any driver failure.
var errStorage = errors.New("disk on fire")

// fakeStore is an in-memory repository.Store. Records are kept in insertion
// order; list methods walk them backwards to get newest-first.
//
// Setting failWith makes every method return that error, which is how the
// tests drive the storage-failure paths.
type fakeStore struct {
	mu       sync.Mutex
	themes   []model.Theme
	messages []model.Message
	tokens   []model.AccessToken
	failWith error
}

var _ repository.Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore { return &fakeStore{} }

func (f *fakeStore) CreateTheme(_ context.Context, theme *model.Theme) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	theme.ID = xid.New().String()
	theme.CreatedAt = time.Now().UTC()
	theme.IsActive = true
	f.themes = append(f.themes, *theme)
	return nil
}

func (f *fakeStore) ListActiveThemes(_ context.Context, filter repository.ThemeFilter) ([]model.Theme, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := []model.Theme{}
	for i := len(f.themes) - 1; i >= 0; i-- {
		t := f.themes[i]
		if !t.IsActive {
			continue
		}
		if filter.OpenOn != nil && !t.OpenOn(*filter.OpenOn) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeStore) DeactivateTheme(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	for i := range f.themes {
		if f.themes[i].ID == id {
			f.themes[i].IsActive = false
			return nil
		}
	}
	return apperror.NotFound("theme", id)
}

func (f *fakeStore) CreateMessage(_ context.Context, msg *model.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	msg.ID = xid.New().String()
	msg.CreatedAt = time.Now().UTC()
	msg.IsRead = false
	f.messages = append(f.messages, *msg)
	return nil
}

func (f *fakeStore) ListStaffMessages(_ context.Context) ([]model.StaffMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := []model.StaffMessage{}
	for i := len(f.messages) - 1; i >= 0; i-- {
		sm := model.StaffMessage{Message: f.messages[i]}
		if sm.ThemeID != nil {
			for _, t := range f.themes {
				if t.ID == *sm.ThemeID {
					title := t.Title
					sm.ThemeTitle = &title
				}
			}
		}
		out = append(out, sm)
	}
	return out, nil
}

func (f *fakeStore) MarkMessageRead(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	for i := range f.messages {
		if f.messages[i].ID == id {
			f.messages[i].IsRead = true
		}
	}
	return nil
}

func (f *fakeStore) ReplaceToken(_ context.Context, tok *model.AccessToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	tok.ID = xid.New().String()
	tok.CreatedAt = time.Now().UTC()
	tok.IsActive = true
	f.tokens = []model.AccessToken{*tok}
	return nil
}

func (f *fakeStore) CurrentToken(_ context.Context) (*model.AccessToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	if len(f.tokens) == 0 {
		return nil, apperror.NotFound("access token", "current")
	}
	tok := f.tokens[len(f.tokens)-1]
	return &tok, nil
}

func (f *fakeStore) FindActiveToken(_ context.Context, token string) (*model.AccessToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, tok := range f.tokens {
		if tok.Token == token && tok.IsActive {
			return &tok, nil
		}
	}
	return nil, apperror.NotFound("access token", "(redacted)")
}

func (f *fakeStore) Ping(context.Context) error { return f.failWith }
func (f *fakeStore) Close() error               { return nil }

// =========================================================================
// HELPERS
// =========================================================================

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func strPtr(s string) *string { return &s }
