package model

import (
	"fmt"
	"time"
)

// Message is one student submission ("お便り").
//
// Only IsRead changes after creation. The three Share* flags record what the
// student agreed may be shown publicly; staff and teacher views still see
// every field.
type Message struct {
	ID          string    `json:"id"`
	SenderName  *string   `json:"sender_name"`
	RadioName   string    `json:"radio_name"`
	SchoolClass *string   `json:"school_class"`
	ThemeID     *string   `json:"theme_id"`
	Content     string    `json:"content"`
	ShareName   bool      `json:"share_name"`
	ShareClass  bool      `json:"share_class"`
	ShareTheme  bool      `json:"share_theme"`
	IPAddress   *string   `json:"ip_address"`
	CreatedAt   time.Time `json:"created_at"`
	IsRead      bool      `json:"is_read"`
}

// StaffMessage is a Message with its theme's title joined in.
// ThemeTitle is nil when the message has no theme or the theme id dangles.
type StaffMessage struct {
	Message
	ThemeTitle *string `json:"theme_title"`
}

// MessageLog is the teacher's audit projection of a message.
type MessageLog struct {
	ID          string    `json:"id"`
	SenderName  *string   `json:"sender_name"`
	RadioName   string    `json:"radio_name"`
	SchoolClass *string   `json:"school_class"`
	Content     string    `json:"content"`
	IPAddress   *string   `json:"ip_address"`
	CreatedAt   time.Time `json:"created_at"`
	ThemeTitle  *string   `json:"theme_title"`
}

// Log reduces a staff row to the audit projection.
func (m StaffMessage) Log() MessageLog {
	return MessageLog{
		ID:          m.ID,
		SenderName:  m.SenderName,
		RadioName:   m.RadioName,
		SchoolClass: m.SchoolClass,
		Content:     m.Content,
		IPAddress:   m.IPAddress,
		CreatedAt:   m.CreatedAt,
		ThemeTitle:  m.ThemeTitle,
	}
}

// SchoolClassLabel builds the display string for a year/class pair,
// e.g. ("2", "B") → "2年B組". Either part missing yields nil.
func SchoolClassLabel(year, class string) *string {
	if year == "" || class == "" {
		return nil
	}
	label := fmt.Sprintf("%s年%s組", year, class)
	return &label
}
