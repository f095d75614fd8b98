package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/taskhub/backend/domain"
)

// IssueToken signs a JWT carrying the identity fields. Tokens are stateless:
// once issued they stay valid until the exp claim passes.
func (uc *UseCase) IssueToken(user *domain.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"id":       user.ID,
		"email":    user.Email,
		"is_admin": user.IsAdmin,
		"iat":      now.Unix(),
		"exp":      now.Add(uc.cfg.TokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(uc.cfg.Secret))
}

// VerifyToken checks signature and expiry and extracts the caller identity.
// Any failure collapses into ErrInvalidAuth so callers cannot probe which
// check rejected the token.
func (uc *UseCase) VerifyToken(tokenString string) (*domain.Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrInvalidAuth
		}
		return []byte(uc.cfg.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, domain.ErrInvalidAuth
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, domain.ErrInvalidAuth
	}
	id, _ := claims["id"].(string)
	if id == "" {
		return nil, domain.ErrInvalidAuth
	}
	email, _ := claims["email"].(string)
	isAdmin, _ := claims["is_admin"].(bool)

	return &domain.Identity{ID: id, Email: email, IsAdmin: isAdmin}, nil
}
