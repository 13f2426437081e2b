package httptransport

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	sloggin "github.com/samber/slog-gin"
	"github.com/yoryor/auth-service/internal/transport/http/handler"
	"github.com/yoryor/auth-service/internal/transport/http/middleware"
)

func NewRouter(logger *slog.Logger, authHandler *handler.AuthHandler, jwtKey []byte) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())

	auth := r.Group("/auth")
	auth.POST("/authenticate", authHandler.Authenticate)

	protected := auth.Group("", middleware.Auth(jwtKey))
	protected.POST("/complete-registration", authHandler.CompleteRegistration)
	protected.GET("/me", authHandler.Me)

	return r
}
