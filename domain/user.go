package domain

import "time"

// User represents a registered account. The password is kept only as a
// bcrypt hash and is never serialized into API responses.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Identity returns the caller shape derived from this account.
func (u *User) Identity() *Identity {
	if u == nil {
		return nil
	}
	return &Identity{ID: u.ID, Email: u.Email, IsAdmin: u.IsAdmin}
}
