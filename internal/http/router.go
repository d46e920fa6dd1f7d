package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/advisormatch-backend/internal/http/handlers"
	httpMW "github.com/yungbote/advisormatch-backend/internal/http/middleware"
	"github.com/yungbote/advisormatch-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	SearchHandler  *httpH.SearchHandler
	ExploreHandler *httpH.ExploreHandler
	HealthHandler  *httpH.HealthHandler

	RateLimit gin.HandlerFunc
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("advisormatch"))
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		if cfg.RateLimit != nil {
			api.Use(cfg.RateLimit)
		}

		// Search
		if cfg.SearchHandler != nil {
			api.POST("/search", cfg.SearchHandler.Search)
			api.POST("/search/explain", cfg.SearchHandler.Explain)
		}

		// Exploration
		if cfg.ExploreHandler != nil {
			api.POST("/explore/start", cfg.ExploreHandler.Start)
			api.POST("/explore/respond", cfg.ExploreHandler.Respond)
			api.POST("/explore/finish", cfg.ExploreHandler.Finish)
		}
	}

	return r
}
