package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhub/backend/domain"
	"github.com/taskhub/backend/repository/memory"
	"github.com/taskhub/backend/usecase/auth"
)

func newUseCase(t *testing.T) (*auth.UseCase, *memory.UserRepository, *memory.SessionRepository) {
	t.Helper()
	users := memory.NewUserRepository()
	sessions := memory.NewSessionRepository()
	uc := auth.New(users, sessions, auth.Config{
		Secret:     "test-secret",
		TokenTTL:   time.Hour,
		SessionTTL: time.Hour,
	}, nil)
	return uc, users, sessions
}

func TestValidateRegistration(t *testing.T) {
	cases := []struct {
		name     string
		username string
		email    string
		password string
		wantMsg  string
	}{
		{"valid", "alice", "alice@example.com", "secret1", ""},
		{"missing username", "  ", "alice@example.com", "secret1", "Username is required"},
		{"missing email", "alice", "", "secret1", "Please provide all required fields"},
		{"missing password", "alice", "alice@example.com", "", "Please provide all required fields"},
		{"weak password", "alice", "alice@example.com", "123", "Password is too weak"},
		{"bad email", "alice", "not-an-email", "secret1", "Invalid email format"},
		{"email without tld", "alice", "alice@example", "secret1", "Invalid email format"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := auth.ValidateRegistration(tc.username, tc.email, tc.password)
			if tc.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tc.wantMsg, err.Error())
			assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
		})
	}
}

func TestRegisterNormalizesEmail(t *testing.T) {
	uc, users, _ := newUseCase(t)

	user, err := uc.Register(context.Background(), auth.RegisterInput{
		Username: "alice",
		Email:    "  Test@Example.com ",
		Password: "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, "test@example.com", user.Email)
	assert.NotEqual(t, "secret1", user.PasswordHash)

	stored, err := users.GetByEmail(context.Background(), "test@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.ID)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	uc, _, _ := newUseCase(t)
	ctx := context.Background()

	_, err := uc.Register(ctx, auth.RegisterInput{Username: "alice", Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = uc.Register(ctx, auth.RegisterInput{Username: "alice2", Email: "ALICE@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, domain.ErrUserExists)

	_, err = uc.Register(ctx, auth.RegisterInput{Username: "alice", Email: "other@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, domain.ErrUserExists)
}

func TestLoginRoundTrip(t *testing.T) {
	uc, _, _ := newUseCase(t)
	ctx := context.Background()

	registered, err := uc.Register(ctx, auth.RegisterInput{
		Username: "alice",
		Email:    "Test@Example.com",
		Password: "secret1",
	})
	require.NoError(t, err)

	// Case-insensitive email lookup.
	session, err := uc.Login(ctx, "test@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, session.UserID)
	assert.NotEmpty(t, session.Token)
	assert.True(t, session.ExpiresAt.After(time.Now()))

	ident, err := uc.ResolveSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, ident.ID)

	ident, err = uc.VerifyToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, ident.ID)
	assert.Equal(t, "test@example.com", ident.Email)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	uc, _, _ := newUseCase(t)
	ctx := context.Background()

	_, err := uc.Register(ctx, auth.RegisterInput{Username: "alice", Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = uc.Login(ctx, "alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	// Unknown email is indistinguishable from a wrong password.
	_, err = uc.Login(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestVerifyTokenRejectsTampering(t *testing.T) {
	uc, _, _ := newUseCase(t)
	other := auth.New(memory.NewUserRepository(), memory.NewSessionRepository(), auth.Config{
		Secret:   "different-secret",
		TokenTTL: time.Hour,
	}, nil)

	user := &domain.User{ID: "u1", Email: "alice@example.com"}
	token, err := other.IssueToken(user)
	require.NoError(t, err)

	_, err = uc.VerifyToken(token)
	assert.ErrorIs(t, err, domain.ErrInvalidAuth)

	_, err = uc.VerifyToken("not.a.token")
	assert.ErrorIs(t, err, domain.ErrInvalidAuth)

	_, err = uc.VerifyToken("")
	assert.ErrorIs(t, err, domain.ErrInvalidAuth)
}

func TestGetSessionEvictsExpired(t *testing.T) {
	uc, _, sessions := newUseCase(t)
	ctx := context.Background()

	stale := &domain.Session{
		ID:        "stale",
		UserID:    "u1",
		CreatedAt: time.Now().Add(-2 * time.Hour),
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, sessions.Save(ctx, stale))

	_, err := uc.GetSession(ctx, "stale")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	// The expired record is gone after the failed lookup.
	_, err = sessions.Get(ctx, "stale")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestLogout(t *testing.T) {
	uc, _, sessions := newUseCase(t)
	ctx := context.Background()

	_, err := uc.Register(ctx, auth.RegisterInput{Username: "alice", Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)
	session, err := uc.Login(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, uc.Logout(ctx, session.ID))
	_, err = sessions.Get(ctx, session.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
