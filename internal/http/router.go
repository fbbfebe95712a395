package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"auth-portal/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas.
// El orden en las rutas protegidas es fijo: SessionAuth primero, el chequeo
// de permisos después.
func NewRouter(
	logger *zap.Logger,
	sessions *service.SessionService,
	authH *AuthHandler,
	permH *PermissionHandler,
	userH *UserHandler,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	auth := r.Group("/auth")
	auth.POST("/login", authH.Login)
	auth.POST("/logout", authH.Logout)
	auth.GET("/me", SessionAuth(logger, sessions), authH.WhoAmI)

	r.GET("/permissions", SessionAuth(logger, sessions), permH.List)

	users := r.Group("/users", SessionAuth(logger, sessions))
	users.POST("", RequirePermissions("CREATE_USER"), userH.Create)
	users.GET("", RequirePermissions("READ_USER"), userH.List)
	users.PUT("/:id", RequirePermissions("UPDATE_USER"), userH.UpdatePassword)
	users.DELETE("/:id", RequirePermissions("DELETE_USER"), userH.Delete)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
