// Package model defines the data structures used throughout the application.
//
// JSON TAGS:
// The HTTP API speaks snake_case ("radio_name", "is_read"), so every exported
// field carries an explicit `json:"..."` tag. Optional values are pointers:
// a nil *string encodes as JSON null, which is how the front-end tells
// "not given" apart from "given but empty".
package model

import "time"

// Theme is a topic students can write in to, with an optional open window.
//
// Themes are never hard-deleted. Staff "delete" flips IsActive to false and
// the row (and any message pointing at it) stays.
type Theme struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	StartDate   *Date     `json:"start_date"`
	EndDate     *Date     `json:"end_date"`
	CreatedAt   time.Time `json:"created_at"`
	IsActive    bool      `json:"is_active"`
}

// OpenOn reports whether the theme accepts messages on the given day.
//
// Both bounds are inclusive and a missing bound means "unbounded":
//
//	active && (start == nil || start <= today) && (end == nil || end >= today)
func (t *Theme) OpenOn(today Date) bool {
	if !t.IsActive {
		return false
	}
	if t.StartDate != nil && t.StartDate.After(today) {
		return false
	}
	if t.EndDate != nil && t.EndDate.Before(today) {
		return false
	}
	return true
}
