package domain

// Identity is the caller shape shared by both authentication mechanisms.
// Session-based and token-based requests must resolve to the same value type
// so downstream policy code never cares how the caller authenticated.
type Identity struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}
