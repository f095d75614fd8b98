// Package middleware wires the dual-mode authentication in front of
// protected routes. A session cookie is tried first, then a bearer token;
// whichever succeeds stores the resolved identity on the request context.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/taskhub/backend/api/transport"
	"github.com/taskhub/backend/domain"
	"github.com/taskhub/backend/pkg/httpcontext"
	authUC "github.com/taskhub/backend/usecase/auth"
)

// IdentityKey is the fasthttp user value under which the resolved caller
// identity is stored. It matches the key the handlers read.
const IdentityKey = "identity"

// SessionCookie is the browser session cookie name.
const SessionCookie = "sid"

type IdentityResolver struct {
	auth    *authUC.UseCase
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func NewIdentityResolver(auth *authUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *IdentityResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdentityResolver{
		auth:    auth,
		adapter: adapter,
		logger:  logger,
	}
}

// Require authenticates the request before invoking next. The cookie path
// falls through to the bearer path when no live session is found, so a stale
// cookie does not lock out a client presenting a valid token.
func (r *IdentityResolver) Require(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if ident := r.fromSession(ctx); ident != nil {
			ctx.SetUserValue(IdentityKey, ident)
			next(ctx)
			return
		}

		header := string(ctx.Request.Header.Peek("Authorization"))
		if header == "" {
			r.reject(ctx, domain.ErrAuthRequired)
			return
		}

		ident, err := r.auth.VerifyToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			r.reject(ctx, domain.ErrInvalidAuth)
			return
		}

		ctx.SetUserValue(IdentityKey, ident)
		next(ctx)
	}
}

func (r *IdentityResolver) fromSession(ctx *fasthttp.RequestCtx) *domain.Identity {
	sid := string(ctx.Request.Header.Cookie(SessionCookie))
	if sid == "" {
		return nil
	}

	reqCtx, cancel := r.requestContext(ctx)
	defer cancel()

	ident, err := r.auth.ResolveSession(reqCtx, sid)
	if err != nil {
		if !domain.IsDomainError(err, domain.ErrCodeNotFound) {
			r.logger.Warn("session lookup failed", zap.Error(err))
		}
		return nil
	}
	return ident
}

func (r *IdentityResolver) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	if r.adapter != nil {
		return r.adapter.Attach(ctx)
	}
	return context.WithCancel(context.Background())
}

func (r *IdentityResolver) reject(ctx *fasthttp.RequestCtx, err *domain.Error) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(http.StatusUnauthorized)
	body, _ := json.Marshal(transport.NewError(string(err.Code), err.Message, nil))
	ctx.SetBody(body)
}
