package domain

import "time"

// Session describes an issued bearer token.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *User
}
