package domain

import "time"

// Session describes an authenticated browser session carried in the session cookie.
type Session struct {
	UserID    int64
	Roles     []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
