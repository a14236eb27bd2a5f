package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/otayori/internal/apperror"
	"github.com/sakif/otayori/internal/model"
	"github.com/sakif/otayori/internal/repository"
)

// CreateTheme inserts a new, active theme.
//
// The ID is an xid: 20 URL-safe characters, time-sortable, and cheap to
// validate (xid.FromString), which is how the service tells a malformed id
// from an unknown one.
func (db *DB) CreateTheme(ctx context.Context, theme *model.Theme) error {
	theme.ID = xid.New().String()
	theme.CreatedAt = time.Now().UTC()
	theme.IsActive = true

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO themes (id, title, description, start_date, end_date, created_at, is_active)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		theme.ID,
		theme.Title,
		theme.Description,
		nullableDate(theme.StartDate),
		nullableDate(theme.EndDate),
		theme.CreatedAt,
		theme.IsActive,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating theme: %w", err)
	}

	return nil
}

// ListActiveThemes returns active themes, newest first.
//
// With filter.OpenOn set, the date window is checked in SQL. Both bounds are
// inclusive and NULL means "no bound":
//
//	(start_date IS NULL OR start_date <= today) AND (end_date IS NULL OR end_date >= today)
//
// rowid breaks ties between themes created within the same clock tick.
func (db *DB) ListActiveThemes(ctx context.Context, filter repository.ThemeFilter) ([]model.Theme, error) {
	query := `SELECT id, title, description, start_date, end_date, created_at, is_active
		 FROM themes
		 WHERE is_active = 1`
	var args []any

	if filter.OpenOn != nil {
		today := filter.OpenOn.String()
		query += ` AND (start_date IS NULL OR start_date <= ?)
		 AND (end_date IS NULL OR end_date >= ?)`
		args = append(args, today, today)
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing themes: %w", err)
	}
	defer rows.Close()

	themes := []model.Theme{}
	for rows.Next() {
		var t model.Theme
		if err := rows.Scan(
			&t.ID, &t.Title, &t.Description,
			&t.StartDate, &t.EndDate,
			&t.CreatedAt, &t.IsActive,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning theme row: %w", err)
		}
		themes = append(themes, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating themes: %w", err)
	}

	return themes, nil
}

// DeactivateTheme flips is_active to false.
//
// SQLite counts a row as "changed" whenever the WHERE clause matches, even if
// is_active was already 0. So RowsAffected == 0 means the id really does not
// exist, and repeating the call on an inactive theme is a success.
func (db *DB) DeactivateTheme(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE themes SET is_active = 0 WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deactivating theme %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("theme", id)
	}

	return nil
}

// nullableDate turns an optional date into a TEXT value or NULL.
func nullableDate(d *model.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}
