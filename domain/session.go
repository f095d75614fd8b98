package domain

import "time"

// Session is a server-side authentication record stored in Redis and bound
// to the "sid" cookie. It carries the same identity fields as a signed token
// so both mechanisms resolve to an equivalent caller.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"is_admin"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Session) IsExpired(reference time.Time) bool {
	if s == nil {
		return true
	}
	if reference.IsZero() {
		reference = time.Now()
	}
	return !s.ExpiresAt.After(reference)
}

// Identity returns the caller shape carried by this session.
func (s *Session) Identity() *Identity {
	if s == nil {
		return nil
	}
	return &Identity{ID: s.UserID, Email: s.Email, IsAdmin: s.IsAdmin}
}
