package handler

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
	taskUC "github.com/taskhub/backend/usecase/task"
	userUC "github.com/taskhub/backend/usecase/user"
)

type env struct {
	users    *memory.UserRepository
	tasks    *memory.TaskRepository
	sessions *memory.SessionRepository

	user *UserHandler
	task *TaskHandler
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		users:    memory.NewUserRepository(),
		tasks:    memory.NewTaskRepository(),
		sessions: memory.NewSessionRepository(),
	}

	auth := authUC.New(e.users, e.sessions, authUC.Config{
		Secret:     "test-secret",
		TokenTTL:   time.Hour,
		SessionTTL: time.Hour,
	}, nil)
	tasks := taskUC.New(e.tasks, e.users, nil, nil, nil)
	users := userUC.New(e.users, e.tasks, nil)

	e.user = NewUserHandler(auth, users, nil, nil)
	e.task = NewTaskHandler(tasks, nil, nil)
	return e
}

func request(method, uri string, body []byte) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	if body != nil {
		ctx.Request.SetBody(body)
	}
	return ctx
}

func asIdentity(ctx *fasthttp.RequestCtx, ident *domain.Identity) *fasthttp.RequestCtx {
	ctx.SetUserValue(IdentityKey, ident)
	return ctx
}

func decode(t *testing.T, ctx *fasthttp.RequestCtx) transport.Envelope {
	t.Helper()
	var envelope transport.Envelope
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &envelope))
	return envelope
}

func dataField(t *testing.T, envelope transport.Envelope, key string) interface{} {
	t.Helper()
	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok, "data is not an object: %v", envelope.Data)
	return data[key]
}

func seedIdentity(t *testing.T, e *env, id string, admin bool) *domain.Identity {
	t.Helper()
	require.NoError(t, e.users.Create(context.Background(), &domain.User{
		ID:       id,
		Username: id,
		Email:    id + "@example.com",
		IsAdmin:  admin,
	}))
	return &domain.Identity{ID: id, Email: id + "@example.com", IsAdmin: admin}
}

func TestRegisterEndpoint(t *testing.T) {
	e := newEnv(t)

	body := []byte(`{"username":"alice","email":"Alice@Example.com","password":"secret1"}`)
	ctx := request(http.MethodPost, "/api/v1/users/register", body)
	e.user.Register(ctx)

	assert.Equal(t, http.StatusCreated, ctx.Response.StatusCode())
	envelope := decode(t, ctx)
	assert.Equal(t, "success", envelope.Status)
	assert.Equal(t, "alice@example.com", dataField(t, envelope, "email"))
	assert.NotContains(t, string(ctx.Response.Body()), "password")
}

func TestRegisterDuplicate(t *testing.T) {
	e := newEnv(t)
	body := []byte(`{"username":"alice","email":"alice@example.com","password":"secret1"}`)

	e.user.Register(request(http.MethodPost, "/api/v1/users/register", body))
	ctx := request(http.MethodPost, "/api/v1/users/register", body)
	e.user.Register(ctx)

	assert.Equal(t, http.StatusConflict, ctx.Response.StatusCode())
	envelope := decode(t, ctx)
	assert.Equal(t, "User already exists", envelope.Error)
}

func TestRegisterWeakPassword(t *testing.T) {
	e := newEnv(t)

	body := []byte(`{"username":"alice","email":"alice@example.com","password":"123"}`)
	ctx := request(http.MethodPost, "/api/v1/users/register", body)
	e.user.Register(ctx)

	assert.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode())
	envelope := decode(t, ctx)
	assert.Equal(t, "Password is too weak", envelope.Error)
}

func TestRegisterNeverGrantsAdmin(t *testing.T) {
	e := newEnv(t)
	seedIdentity(t, e, "owner", false)

	task, err := e.tasks.Create(context.Background(), &domain.Task{
		Title: "private", CreatedBy: "owner", AssignedTo: "owner",
	})
	require.NoError(t, err)

	body := []byte(`{"username":"mallory","email":"mallory@example.com","password":"secret1","is_admin":true}`)
	ctx := request(http.MethodPost, "/api/v1/users/register", body)
	e.user.Register(ctx)
	require.Equal(t, http.StatusCreated, ctx.Response.StatusCode())

	stored, err := e.users.GetByEmail(context.Background(), "mallory@example.com")
	require.NoError(t, err)
	assert.False(t, stored.IsAdmin)

	ctx = asIdentity(request(http.MethodGet, "/api/v1/tasks/"+task.ID, nil), stored.Identity())
	ctx.SetUserValue("id", task.ID)
	e.task.Get(ctx)
	assert.Equal(t, http.StatusForbidden, ctx.Response.StatusCode())
}

func TestLoginSetsSessionCookie(t *testing.T) {
	e := newEnv(t)
	e.user.Register(request(http.MethodPost, "/api/v1/users/register",
		[]byte(`{"username":"alice","email":"alice@example.com","password":"secret1"}`)))

	ctx := request(http.MethodPost, "/api/v1/users/login",
		[]byte(`{"email":"ALICE@example.com","password":"secret1"}`))
	e.user.Login(ctx)

	require.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	envelope := decode(t, ctx)
	assert.NotEmpty(t, dataField(t, envelope, "token"))

	cookie := fasthttp.AcquireCookie()
	defer fasthttp.ReleaseCookie(cookie)
	cookie.SetKey(SessionCookie)
	require.True(t, ctx.Response.Header.Cookie(cookie))
	assert.NotEmpty(t, cookie.Value())
	assert.True(t, cookie.HTTPOnly())
}

func TestLoginBadCredentials(t *testing.T) {
	e := newEnv(t)
	e.user.Register(request(http.MethodPost, "/api/v1/users/register",
		[]byte(`{"username":"alice","email":"alice@example.com","password":"secret1"}`)))

	ctx := request(http.MethodPost, "/api/v1/users/login",
		[]byte(`{"email":"alice@example.com","password":"nope"}`))
	e.user.Login(ctx)

	assert.Equal(t, http.StatusUnauthorized, ctx.Response.StatusCode())
	envelope := decode(t, ctx)
	assert.Equal(t, "Invalid credentials", envelope.Error)
}

func TestSessionStatusWithoutCookie(t *testing.T) {
	e := newEnv(t)

	ctx := request(http.MethodGet, "/api/v1/users/session-status", nil)
	e.user.SessionStatus(ctx)

	assert.Equal(t, http.StatusUnauthorized, ctx.Response.StatusCode())
	envelope := decode(t, ctx)
	assert.Equal(t, "Authentication required", envelope.Error)
}

func TestUserSearchRequiresAdmin(t *testing.T) {
	e := newEnv(t)
	ident := seedIdentity(t, e, "plain", false)

	ctx := asIdentity(request(http.MethodGet, "/api/v1/users?query=a", nil), ident)
	e.user.Search(ctx)

	assert.Equal(t, http.StatusForbidden, ctx.Response.StatusCode())
	envelope := decode(t, ctx)
	assert.Equal(t, "Admin access required", envelope.Error)
}

func TestUserDeleteConflict(t *testing.T) {
	e := newEnv(t)
	admin := seedIdentity(t, e, "root", true)
	seedIdentity(t, e, "victim", false)

	_, err := e.tasks.Create(context.Background(), &domain.Task{Title: "ref", CreatedBy: "victim", AssignedTo: "victim"})
	require.NoError(t, err)

	ctx := asIdentity(request(http.MethodDelete, "/api/v1/users/victim", nil), admin)
	ctx.SetUserValue("id", "victim")
	e.user.Delete(ctx)

	assert.Equal(t, http.StatusConflict, ctx.Response.StatusCode())
	envelope := decode(t, ctx)
	assert.Equal(t, "User is referenced by existing tasks", envelope.Error)
}

func TestTaskListRejectsBadPage(t *testing.T) {
	e := newEnv(t)
	ident := seedIdentity(t, e, "alice", false)

	for _, uri := range []string{
		"/api/v1/tasks?page=abc",
		"/api/v1/tasks?page=0",
		"/api/v1/tasks?page=-2",
	} {
		ctx := asIdentity(request(http.MethodGet, uri, nil), ident)
		e.task.List(ctx)

		assert.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode(), "uri %s", uri)
		envelope := decode(t, ctx)
		assert.Equal(t, "invalid page", envelope.Error, "uri %s", uri)
	}
}

func TestTaskListDefaultsPage(t *testing.T) {
	e := newEnv(t)
	ident := seedIdentity(t, e, "alice", false)

	ctx := asIdentity(request(http.MethodGet, "/api/v1/tasks", nil), ident)
	e.task.List(ctx)

	require.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	envelope := decode(t, ctx)
	assert.EqualValues(t, 1, dataField(t, envelope, "currentPage"))
}

func TestTaskCreateEndpoint(t *testing.T) {
	e := newEnv(t)
	ident := seedIdentity(t, e, "alice", false)

	body := []byte(`{"title":"Ship release","due_date":"2026-09-15","priority":"High"}`)
	ctx := asIdentity(request(http.MethodPost, "/api/v1/tasks", body), ident)
	e.task.Create(ctx)

	require.Equal(t, http.StatusCreated, ctx.Response.StatusCode())
	envelope := decode(t, ctx)
	assert.Equal(t, "Ship release", dataField(t, envelope, "title"))
	assert.Equal(t, "alice", dataField(t, envelope, "assigned_to"))
	assert.Equal(t, domain.StatusNotStarted, dataField(t, envelope, "status"))
}

func TestTaskUpdateAccepted(t *testing.T) {
	e := newEnv(t)
	ident := seedIdentity(t, e, "alice", false)

	created, err := e.tasks.Create(context.Background(), &domain.Task{
		Title: "orig", Status: domain.StatusNotStarted, Priority: domain.PriorityLow,
		CreatedBy: "alice", AssignedTo: "alice",
	})
	require.NoError(t, err)

	body := []byte(`{"status":"In Progress"}`)
	ctx := asIdentity(request(http.MethodPut, "/api/v1/tasks/"+created.ID, body), ident)
	ctx.SetUserValue("id", created.ID)
	e.task.Update(ctx)

	require.Equal(t, http.StatusAccepted, ctx.Response.StatusCode())
	envelope := decode(t, ctx)
	assert.Equal(t, domain.StatusInProgress, dataField(t, envelope, "status"))
	assert.Equal(t, "orig", dataField(t, envelope, "title"))
}

func TestTaskDeleteAccepted(t *testing.T) {
	e := newEnv(t)
	ident := seedIdentity(t, e, "alice", false)

	created, err := e.tasks.Create(context.Background(), &domain.Task{
		Title: "doomed", CreatedBy: "alice", AssignedTo: "alice",
	})
	require.NoError(t, err)

	ctx := asIdentity(request(http.MethodDelete, "/api/v1/tasks/"+created.ID, nil), ident)
	ctx.SetUserValue("id", created.ID)
	e.task.Delete(ctx)

	require.Equal(t, http.StatusAccepted, ctx.Response.StatusCode())
	envelope := decode(t, ctx)
	assert.Equal(t, "Task deleted successfully", dataField(t, envelope, "message"))
}

func TestTaskAccessDenied(t *testing.T) {
	e := newEnv(t)
	seedIdentity(t, e, "owner", false)
	stranger := seedIdentity(t, e, "stranger", false)

	created, err := e.tasks.Create(context.Background(), &domain.Task{
		Title: "private", CreatedBy: "owner", AssignedTo: "owner",
	})
	require.NoError(t, err)

	ctx := asIdentity(request(http.MethodGet, "/api/v1/tasks/"+created.ID, nil), stranger)
	ctx.SetUserValue("id", created.ID)
	e.task.Get(ctx)

	assert.Equal(t, http.StatusForbidden, ctx.Response.StatusCode())
	envelope := decode(t, ctx)
	assert.Equal(t, "Not authorized to access this task", envelope.Error)
}

func TestTaskNotFound(t *testing.T) {
	e := newEnv(t)
	ident := seedIdentity(t, e, "alice", false)

	ctx := asIdentity(request(http.MethodGet, "/api/v1/tasks/missing", nil), ident)
	ctx.SetUserValue("id", "missing")
	e.task.Get(ctx)

	assert.Equal(t, http.StatusNotFound, ctx.Response.StatusCode())
	envelope := decode(t, ctx)
	assert.Equal(t, "Task not found", envelope.Error)
}
