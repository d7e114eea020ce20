// Package api is the HTTP transport for the assistant.
package api

import (
	"time"

	"github.com/gin-gonic/gin"
)

type RouterOptions struct {
	Asker          Asker
	AllowedOrigins []string
	AuthUserHeader string
	RequestTimeout time.Duration
}

// NewRouter wires the middleware chain and the routes.
func NewRouter(opts RouterOptions) *gin.Engine {
	header := opts.AuthUserHeader
	if header == "" {
		header = "X-User-Id"
	}

	r := gin.New()
	r.Use(
		RequestIDMiddleware(),
		RecoveryMiddleware(),
		LoggingMiddleware(),
		MetricsMiddleware(),
		CORSMiddleware(opts.AllowedOrigins),
	)

	r.GET("/healthz", healthz)
	r.GET("/metrics", MetricsHandler())

	assistant := NewAssistantHandler(opts.Asker)
	g := r.Group("/api/assistant", AuthMiddleware(header), TimeoutMiddleware(opts.RequestTimeout))
	g.POST("/ask", assistant.Ask)

	return r
}
