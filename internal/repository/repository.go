// Package repository declares the persistence contract the services depend on.
//
// Two engines implement it: repository/sqlite (embedded relational) and
// repository/redisstore (JSON documents in Redis). Services only ever see these
// interfaces, so the engine is picked once, in server.New, from config.
package repository

import (
	"context"

	"github.com/sakif/otayori/internal/model"
)

// ThemeFilter narrows ListActiveThemes. The zero value means "every active theme".
type ThemeFilter struct {
	// OpenOn, when set, keeps only themes whose date window contains that day.
	OpenOn *model.Date
}

type ThemeRepository interface {
	// CreateTheme fills in ID and CreatedAt and stores the theme as active.
	CreateTheme(ctx context.Context, theme *model.Theme) error
	// ListActiveThemes returns active themes, newest first.
	ListActiveThemes(ctx context.Context, filter ThemeFilter) ([]model.Theme, error)
	// DeactivateTheme soft-deletes a theme. apperror.ErrNotFound if it never existed;
	// deactivating an already inactive theme succeeds.
	DeactivateTheme(ctx context.Context, id string) error
}

type MessageRepository interface {
	// CreateMessage fills in ID and CreatedAt and stores the message unread.
	CreateMessage(ctx context.Context, msg *model.Message) error
	// ListStaffMessages returns every message with its theme title, newest first.
	ListStaffMessages(ctx context.Context) ([]model.StaffMessage, error)
	// MarkMessageRead sets is_read. Unknown ids are a silent no-op.
	MarkMessageRead(ctx context.Context, id string) error
}

type TokenRepository interface {
	// ReplaceToken removes every stored token and stores tok in one atomic step.
	ReplaceToken(ctx context.Context, tok *model.AccessToken) error
	// CurrentToken returns the newest active token, or apperror.ErrNotFound.
	CurrentToken(ctx context.Context) (*model.AccessToken, error)
	// FindActiveToken returns the active token equal to token, or apperror.ErrNotFound.
	FindActiveToken(ctx context.Context, token string) (*model.AccessToken, error)
}

// Store is the full capability set one storage engine provides.
type Store interface {
	ThemeRepository
	MessageRepository
	TokenRepository
	// Ping reports whether the engine is reachable.
	Ping(ctx context.Context) error
	Close() error
}
