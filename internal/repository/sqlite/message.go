package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/otayori/internal/model"
)

// CreateMessage stores a new, unread message.
func (db *DB) CreateMessage(ctx context.Context, msg *model.Message) error {
	msg.ID = xid.New().String()
	msg.CreatedAt = time.Now().UTC()
	msg.IsRead = false

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO messages (id, sender_name, radio_name, school_class, theme_id, content,
		                       share_name, share_class, share_theme, ip_address, created_at, is_read)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.ID,
		msg.SenderName,
		msg.RadioName,
		msg.SchoolClass,
		msg.ThemeID,
		msg.Content,
		msg.ShareName,
		msg.ShareClass,
		msg.ShareTheme,
		msg.IPAddress,
		msg.CreatedAt,
		msg.IsRead,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating message: %w", err)
	}

	return nil
}

// ListStaffMessages returns every message with its theme title, newest first.
//
// LEFT JOIN keeps messages whose theme_id is NULL or points at nothing;
// t.title is then NULL and scans into a nil ThemeTitle. Deactivated themes
// still contribute their title.
func (db *DB) ListStaffMessages(ctx context.Context) ([]model.StaffMessage, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT m.id, m.sender_name, m.radio_name, m.school_class, m.theme_id, m.content,
		        m.share_name, m.share_class, m.share_theme, m.ip_address, m.created_at, m.is_read,
		        t.title
		 FROM messages m
		 LEFT JOIN themes t ON t.id = m.theme_id
		 ORDER BY m.created_at DESC, m.rowid DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing messages: %w", err)
	}
	defer rows.Close()

	messages := []model.StaffMessage{}
	for rows.Next() {
		var m model.StaffMessage
		if err := rows.Scan(
			&m.ID, &m.SenderName, &m.RadioName, &m.SchoolClass, &m.ThemeID, &m.Content,
			&m.ShareName, &m.ShareClass, &m.ShareTheme, &m.IPAddress, &m.CreatedAt, &m.IsRead,
			&m.ThemeTitle,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning message row: %w", err)
		}
		messages = append(messages, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating messages: %w", err)
	}

	return messages, nil
}

// MarkMessageRead sets is_read = 1. An unknown id updates nothing and is not
// an error.
func (db *DB) MarkMessageRead(ctx context.Context, id string) error {
	_, err := db.conn.ExecContext(ctx,
		`UPDATE messages SET is_read = 1 WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: marking message %s read: %w", id, err)
	}
	return nil
}
