// Package httpapi wires middleware and route handlers onto a gin engine.
package httpapi

import (
	"github.com/finboard/finboard/internal/completion"
	"github.com/finboard/finboard/internal/config"
	"github.com/finboard/finboard/internal/httpapi/envelope"
	"github.com/finboard/finboard/internal/httpapi/handlers"
	"github.com/finboard/finboard/internal/permissions"
	"github.com/finboard/finboard/internal/quota"
	"github.com/finboard/finboard/internal/store"

	"github.com/gin-gonic/gin"
)

// Deps carries everything the route handlers need.
type Deps struct {
	Store         *store.Store
	JWT           config.JWTConfig
	Tracker       *quota.Tracker
	Completions   *completion.Client
	AdminUsername string
}

// RegisterRoutes registers middleware, public routes, and the token-gated
// API surface.
func RegisterRoutes(r *gin.Engine, deps Deps) {
	r.Use(corsMiddleware())
	r.Use(requestLogMiddleware())
	r.Use(recoveryMiddleware())

	r.NoRoute(func(c *gin.Context) {
		envelope.Fail(c, envelope.CodeNotFound, "接口不存在", gin.H{
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	healthHandler := handlers.NewHealthHandler()
	r.GET("/api/health", healthHandler.Health)

	authHandler := handlers.NewAuthHandler(deps.Store, deps.JWT)
	r.POST("/api/login", authHandler.Login)

	authed := r.Group("/api")
	authed.Use(authMiddleware(deps.Store, deps.JWT))

	authed.GET("/user/info", authHandler.UserInfo)

	itemHandler := handlers.NewItemHandler(deps.Store)
	authed.GET("/items", itemHandler.List)
	authed.POST("/items", itemHandler.Create)
	authed.GET("/items/:id", itemHandler.Get)
	authed.PUT("/items/:id", itemHandler.Update)
	authed.DELETE("/items/:id", itemHandler.Delete)

	userHandler := handlers.NewUserHandler(deps.Store, deps.AdminUsername)
	users := authed.Group("/users")
	users.Use(requireCapability(permissions.CapUsers))
	users.GET("", userHandler.List)
	users.POST("", userHandler.Create)
	users.GET("/:id", userHandler.Get)
	users.PUT("/:id", userHandler.Update)
	users.DELETE("/:id", userHandler.Delete)

	chatHandler := handlers.NewChatHandler(deps.Store, deps.Tracker, deps.Completions)
	chat := authed.Group("/chat")
	chat.Use(requireCapability(permissions.CapAI))
	chat.POST("", chatHandler.Complete)
	chat.GET("/history", chatHandler.GetHistory)
	chat.PUT("/history", chatHandler.PutHistory)
	chat.DELETE("/history", chatHandler.DeleteHistory)

	requestHandler := handlers.NewAccessRequestHandler(deps.Store)
	authed.POST("/ai/requests", requireCapability(permissions.CapAI), requestHandler.Create)
	authed.GET("/ai/requests", requireAdmin(), requestHandler.List)
	authed.PUT("/ai/requests/:id/approve", requireAdmin(), requestHandler.Approve)
	authed.PUT("/ai/requests/:id/reject", requireAdmin(), requestHandler.Reject)

	balanceHandler := handlers.NewBalanceHandler(deps.Store)
	authed.POST("/balance/upload", balanceHandler.Upload)
	authed.GET("/balance/list", balanceHandler.List)
	authed.GET("/balance/:id", balanceHandler.Get)
	authed.DELETE("/balance/:id", balanceHandler.Delete)
}
