package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/taskhub/backend/api/transport"
	"github.com/taskhub/backend/domain"
	"github.com/taskhub/backend/pkg/httpcontext"
	authUC "github.com/taskhub/backend/usecase/auth"
	userUC "github.com/taskhub/backend/usecase/user"
)

// SessionCookie is the browser session cookie name.
const SessionCookie = "sid"

type UserHandler struct {
	baseHandler
	auth  *authUC.UseCase
	users *userUC.UseCase
}

func NewUserHandler(auth *authUC.UseCase, users *userUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		baseHandler: newBaseHandler(adapter, logger),
		auth:        auth,
		users:       users,
	}
}

func userResponse(u *domain.User) transport.UserResponse {
	return transport.UserResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		IsAdmin:  u.IsAdmin,
	}
}

// @Summary Register a new account
// @Tags users
// @Router /api/v1/users/register [post]
func (h *UserHandler) Register(ctx *fasthttp.RequestCtx) {
	var req transport.RegisterRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondInvalidPayload(ctx)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.auth.Register(stdCtx, authUC.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, userResponse(user))
}

// @Summary Log in with email and password
// @Tags users
// @Router /api/v1/users/login [post]
func (h *UserHandler) Login(ctx *fasthttp.RequestCtx) {
	var req transport.LoginRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondInvalidPayload(ctx)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	session, err := h.auth.Login(stdCtx, req.Email, req.Password)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	h.setSessionCookie(ctx, session)
	h.respondSuccess(ctx, http.StatusOK, transport.LoginResponse{
		Token: session.Token,
		User: transport.UserResponse{
			ID:       session.UserID,
			Username: session.Username,
			Email:    session.Email,
			IsAdmin:  session.IsAdmin,
		},
	})
}

// @Summary Destroy the current session
// @Tags users
// @Router /api/v1/users/logout [post]
func (h *UserHandler) Logout(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if sid := string(ctx.Request.Header.Cookie(SessionCookie)); sid != "" {
		if err := h.auth.Logout(stdCtx, sid); err != nil {
			h.logger.Warn("failed to destroy session", zap.Error(err))
		}
	}
	h.clearSessionCookie(ctx)
	h.respondSuccess(ctx, http.StatusOK, transport.MessageResponse{Message: "Logged out successfully"})
}

// @Summary Report the current session
// @Tags users
// @Router /api/v1/users/session-status [get]
func (h *UserHandler) SessionStatus(ctx *fasthttp.RequestCtx) {
	sid := string(ctx.Request.Header.Cookie(SessionCookie))
	if sid == "" {
		h.respondError(ctx, domain.ErrAuthRequired)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	session, err := h.auth.GetSession(stdCtx, sid)
	if err != nil {
		// An unknown or expired session is an authentication failure
		// on this route, not a missing resource.
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			err = domain.ErrInvalidAuth
		}
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, session)
}

// @Summary Search accounts
// @Tags users
// @Router /api/v1/users [get]
func (h *UserHandler) Search(ctx *fasthttp.RequestCtx) {
	ident := h.identity(ctx)
	if ident == nil {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	users, err := h.users.Search(stdCtx, ident, string(ctx.QueryArgs().Peek("query")))
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	out := make([]transport.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, userResponse(&users[i]))
	}
	h.respondSuccess(ctx, http.StatusOK, out)
}

// @Summary Delete an account
// @Tags users
// @Router /api/v1/users/{id} [delete]
func (h *UserHandler) Delete(ctx *fasthttp.RequestCtx) {
	ident := h.identity(ctx)
	if ident == nil {
		return
	}

	id, _ := ctx.UserValue("id").(string)
	if id == "" {
		h.respondError(ctx, domain.NewError(domain.ErrCodeInvalid, "missing user id"))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.users.Delete(stdCtx, ident, id); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusAccepted, transport.MessageResponse{Message: "User deleted successfully"})
}

func (h *UserHandler) setSessionCookie(ctx *fasthttp.RequestCtx, session *domain.Session) {
	c := fasthttp.AcquireCookie()
	defer fasthttp.ReleaseCookie(c)
	c.SetKey(SessionCookie)
	c.SetValue(session.ID)
	c.SetPath("/")
	c.SetHTTPOnly(true)
	c.SetSameSite(fasthttp.CookieSameSiteLaxMode)
	c.SetExpire(session.ExpiresAt)
	ctx.Response.Header.SetCookie(c)
}

func (h *UserHandler) clearSessionCookie(ctx *fasthttp.RequestCtx) {
	c := fasthttp.AcquireCookie()
	defer fasthttp.ReleaseCookie(c)
	c.SetKey(SessionCookie)
	c.SetValue("")
	c.SetPath("/")
	c.SetHTTPOnly(true)
	c.SetExpire(fasthttp.CookieExpireDelete)
	ctx.Response.Header.SetCookie(c)
}
