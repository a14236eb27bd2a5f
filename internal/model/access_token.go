package model

import "time"

// AccessToken is the single shared secret that unlocks the staff page.
// At most one row exists; issuing a new token replaces it.
type AccessToken struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
	IsActive  bool      `json:"is_active"`
}
