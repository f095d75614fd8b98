package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/taskhub/backend/api/transport"
	"github.com/taskhub/backend/domain"
	"github.com/taskhub/backend/repository/memory"
	authUC "github.com/taskhub/backend/usecase/auth"
)

func newAuth(t *testing.T) (*authUC.UseCase, *domain.Session) {
	t.Helper()
	uc := authUC.New(memory.NewUserRepository(), memory.NewSessionRepository(), authUC.Config{
		Secret:     "test-secret",
		TokenTTL:   time.Hour,
		SessionTTL: time.Hour,
	}, nil)

	ctx := context.Background()
	_, err := uc.Register(ctx, authUC.RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "secret1",
	})
	require.NoError(t, err)

	session, err := uc.Login(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)
	return uc, session
}

func invoke(resolver *IdentityResolver, ctx *fasthttp.RequestCtx) (called bool, ident *domain.Identity) {
	handler := resolver.Require(func(ctx *fasthttp.RequestCtx) {
		called = true
		ident, _ = ctx.UserValue(IdentityKey).(*domain.Identity)
	})
	handler(ctx)
	return called, ident
}

func decodeEnvelope(t *testing.T, ctx *fasthttp.RequestCtx) transport.Envelope {
	t.Helper()
	var env transport.Envelope
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &env))
	return env
}

func TestRequireWithoutCredentials(t *testing.T) {
	uc, _ := newAuth(t)
	resolver := NewIdentityResolver(uc, nil, nil)

	ctx := &fasthttp.RequestCtx{}
	called, _ := invoke(resolver, ctx)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, ctx.Response.StatusCode())
	env := decodeEnvelope(t, ctx)
	assert.Equal(t, "Authentication required", env.Error)
}

func TestRequireWithInvalidToken(t *testing.T) {
	uc, _ := newAuth(t)
	resolver := NewIdentityResolver(uc, nil, nil)

	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.Set("Authorization", "Bearer garbage")
	called, _ := invoke(resolver, ctx)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, ctx.Response.StatusCode())
	env := decodeEnvelope(t, ctx)
	assert.Equal(t, "Invalid authentication", env.Error)
}

func TestRequireWithBearerToken(t *testing.T) {
	uc, session := newAuth(t)
	resolver := NewIdentityResolver(uc, nil, nil)

	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.Set("Authorization", "Bearer "+session.Token)
	called, ident := invoke(resolver, ctx)

	assert.True(t, called)
	require.NotNil(t, ident)
	assert.Equal(t, session.UserID, ident.ID)
	assert.Equal(t, "alice@example.com", ident.Email)
}

func TestRequireWithSessionCookie(t *testing.T) {
	uc, session := newAuth(t)
	resolver := NewIdentityResolver(uc, nil, nil)

	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetCookie(SessionCookie, session.ID)
	called, ident := invoke(resolver, ctx)

	assert.True(t, called)
	require.NotNil(t, ident)
	assert.Equal(t, session.UserID, ident.ID)
}

func TestStaleCookieFallsThroughToToken(t *testing.T) {
	uc, session := newAuth(t)
	resolver := NewIdentityResolver(uc, nil, nil)

	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetCookie(SessionCookie, "no-such-session")
	ctx.Request.Header.Set("Authorization", "Bearer "+session.Token)
	called, ident := invoke(resolver, ctx)

	assert.True(t, called)
	require.NotNil(t, ident)
	assert.Equal(t, session.UserID, ident.ID)
}
