package transport

// RegisterRequest carries a new account registration. There is deliberately
// no admin field here; admin rights are granted out of band.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest carries login credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TaskCreateRequest carries a full task payload. DueDate is a string in one
// of the accepted wire formats and is validated downstream.
type TaskCreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"due_date"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	AssignedTo  string `json:"assigned_to"`
}

// TaskUpdateRequest carries a partial update. Absent fields stay nil and are
// left untouched. An empty assigned_to is also treated as no change, since
// reassignment always names a user.
type TaskUpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	DueDate     *string `json:"due_date"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
	AssignedTo  *string `json:"assigned_to"`
}

// UserResponse is the public account shape. The password hash never leaves
// the domain layer.
type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsAdmin  bool   `json:"is_admin"`
}

// LoginResponse is returned on successful login alongside the session cookie.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// MessageResponse wraps a human-readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}
