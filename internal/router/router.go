package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/taskhub/backend/api/handler"
)

type Handlers struct {
	User   *apiHandler.UserHandler
	Task   *apiHandler.TaskHandler
	Health *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// User routes
	r.POST("/api/v1/users/register", handlers.User.Register)
	r.POST("/api/v1/users/login", handlers.User.Login)
	r.POST("/api/v1/users/logout", handlers.User.Logout)
	r.GET("/api/v1/users/session-status", handlers.User.SessionStatus)

	// Admin routes
	r.GET("/api/v1/users", authMiddleware(handlers.User.Search))
	r.DELETE("/api/v1/users/{id}", authMiddleware(handlers.User.Delete))

	// Task routes
	r.GET("/api/v1/tasks", authMiddleware(handlers.Task.List))
	r.POST("/api/v1/tasks", authMiddleware(handlers.Task.Create))
	r.GET("/api/v1/tasks/{id}", authMiddleware(handlers.Task.Get))
	r.PUT("/api/v1/tasks/{id}", authMiddleware(handlers.Task.Update))
	r.DELETE("/api/v1/tasks/{id}", authMiddleware(handlers.Task.Delete))
	r.POST("/api/v1/tasks/{id}/attachment", authMiddleware(handlers.Task.Attach))
	r.DELETE("/api/v1/tasks/{id}/attachment", authMiddleware(handlers.Task.Detach))

	return r
}
