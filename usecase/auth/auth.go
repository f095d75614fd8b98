// Package auth implements credential verification and the two parallel
// authentication mechanisms: stateless JWT bearer tokens for API clients and
// Redis-backed sessions for browser clients. Both resolve to the same
// domain.Identity downstream.
package auth

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskhub/backend/domain"
	"github.com/taskhub/backend/repository"
)

// MinPasswordLength is the weakest password the API accepts.
const MinPasswordLength = 6

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Config carries the signing secret and lifetimes for both mechanisms.
type Config struct {
	Secret     string
	TokenTTL   time.Duration
	SessionTTL time.Duration
}

type UseCase struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	cfg      Config
	logger   *zap.Logger
}

func New(users repository.UserRepository, sessions repository.SessionRepository, cfg Config, logger *zap.Logger) *UseCase {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = time.Hour
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:    users,
		sessions: sessions,
		cfg:      cfg,
		logger:   logger,
	}
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// NormalizeEmail trims and lowercases an email so lookups and uniqueness
// checks are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateRegistration applies the registration rules. The email passed in
// should already be normalized.
func ValidateRegistration(username, email, password string) error {
	if strings.TrimSpace(username) == "" {
		return domain.NewError(domain.ErrCodeInvalid, "Username is required")
	}
	if email == "" || password == "" {
		return domain.NewError(domain.ErrCodeInvalid, "Please provide all required fields")
	}
	if len(password) < MinPasswordLength {
		return domain.NewError(domain.ErrCodeInvalid, "Password is too weak")
	}
	if !emailPattern.MatchString(email) {
		return domain.NewError(domain.ErrCodeInvalid, "Invalid email format")
	}
	return nil
}

// Register validates and creates an account. The password is stored only as
// a bcrypt hash. New accounts never carry admin rights; the flag is set out
// of band by an operator.
func (uc *UseCase) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	email := NormalizeEmail(input.Email)
	username := strings.TrimSpace(input.Username)

	if err := ValidateRegistration(username, email, input.Password); err != nil {
		return nil, err
	}

	if err := uc.checkAvailable(ctx, username, email); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "failed to hash password", err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	}

	if err := uc.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (uc *UseCase) checkAvailable(ctx context.Context, username, email string) error {
	if _, err := uc.users.GetByEmail(ctx, email); err == nil {
		return domain.ErrUserExists
	} else if !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		return err
	}
	if _, err := uc.users.GetByUsername(ctx, username); err == nil {
		return domain.ErrUserExists
	} else if !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		return err
	}
	return nil
}

// Login verifies credentials and issues both a signed token and a
// server-side session carrying the same identity. Unknown email and wrong
// password are indistinguishable to the caller.
func (uc *UseCase) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "Please provide all required fields")
	}

	user, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	// bcrypt's compare is constant-time over the derived key.
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := uc.IssueToken(user)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "failed to sign token", err)
	}

	now := time.Now()
	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Username:  user.Username,
		Email:     user.Email,
		IsAdmin:   user.IsAdmin,
		Token:     token,
		CreatedAt: now,
		ExpiresAt: now.Add(uc.cfg.SessionTTL),
	}

	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Logout destroys the server-side session. Issued tokens stay valid until
// they expire; there is no server-side revocation in this design.
func (uc *UseCase) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return uc.sessions.Delete(ctx, sessionID)
}

// GetSession loads a live session, evicting it when already expired.
func (uc *UseCase) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsExpired(time.Now()) {
		if err := uc.sessions.Delete(ctx, sessionID); err != nil {
			uc.logger.Warn("failed to evict expired session", zap.Error(err))
		}
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// ResolveSession returns the identity bound to a live session.
func (uc *UseCase) ResolveSession(ctx context.Context, sessionID string) (*domain.Identity, error) {
	session, err := uc.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return session.Identity(), nil
}
