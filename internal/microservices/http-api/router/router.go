package router

import (
	"inboxhub/internal/config"
	"inboxhub/internal/microservices/http-api/handler"
	"inboxhub/internal/microservices/http-api/middleware"
	"inboxhub/internal/microservices/http-api/service"
	"inboxhub/internal/microservices/websocket"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Deps is everything the HTTP surface needs, built once in main.
type Deps struct {
	Config        *config.Config
	Logger        *logrus.Logger
	Auth          service.AuthService
	Inbox         service.InboxService
	Notifications service.NotificationService
	Hub           *websocket.Hub
	HealthChecks  map[string]handler.HealthCheck
}

// New builds the gin engine with all routes under the configured API prefix.
func New(d Deps) *gin.Engine {
	if d.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(d.Config.CORSOrigins))

	health := handler.NewHealthHandler(d.Config.AppName, d.Config.AppVersion, d.HealthChecks)
	r.GET("/", health.Root)
	r.GET("/health", health.Health)

	api := r.Group(d.Config.APIPrefix)

	// the websocket stays outside Timeout, it authenticates itself
	api.GET("/notifications/ws", websocket.WSHandler(d.Hub, d.Auth, d.Logger, d.Config.CORSOrigins))

	api.Use(middleware.Timeout(d.Config.RequestTimeout))
	requireAuth := middleware.AuthMiddleware(d.Auth)

	authHandler := handler.NewAuthHandler(d.Auth)
	limiter := middleware.NewIPRateLimiter(d.Config.AuthRateLimit, d.Config.AuthRateBurst)
	auth := api.Group("/auth")
	{
		auth.POST("/register", limiter.Middleware(), authHandler.Register)
		auth.POST("/login", limiter.Middleware(), authHandler.Login)
		auth.POST("/refresh", limiter.Middleware(), authHandler.Refresh)
		auth.GET("/me", requireAuth, authHandler.Me)
		auth.PUT("/me/status", requireAuth, authHandler.UpdateStatus)
		auth.POST("/logout", requireAuth, authHandler.Logout)
	}

	handler.NewNotificationHandler(d.Inbox).RegisterRoutes(api.Group("/notifications", requireAuth))
	handler.NewAdminNotificationHandler(d.Notifications).
		RegisterRoutes(api.Group("/admin/notifications", requireAuth, middleware.RequireAdmin()))

	return r
}
