package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/hoosuem8800/portal-api/internal/handler"
	"github.com/hoosuem8800/portal-api/internal/middleware"
	"github.com/hoosuem8800/portal-api/pkg/logger"
	"github.com/hoosuem8800/portal-api/pkg/metrics"
)

// Handler is anything that can attach its routes to a group.
type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Config struct {
	RateLimit rate.Limit
	RateBurst int
	CORS      middleware.CORSConfig
	Timeout   middleware.TimeoutConfig
}

type Router struct {
	engine *gin.Engine
}

func New(
	cfg Config,
	log *logger.Logger,
	m *metrics.Metrics,
	auth *middleware.AuthMiddleware,
	health *handler.HealthHandler,
	authH Handler,
	protected ...Handler,
) *Router {
	engine := gin.New()

	engine.Use(middleware.Recovery(log))
	engine.Use(middleware.RequestID())
	engine.Use(middleware.RequestLogger(log))
	engine.Use(middleware.ErrorHandler(log))
	engine.Use(middleware.CORS(cfg.CORS))
	engine.Use(middleware.Timeout(cfg.Timeout))
	engine.Use(middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  cfg.RateLimit,
		Burst: cfg.RateBurst,
	}).RateLimit())
	engine.Use(middleware.Metrics(m))

	engine.GET("/health", health.Health)
	engine.GET("/ready", health.Ready)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := engine.Group("/api/v1")
	authH.RegisterRoutes(v1)

	secured := v1.Group("")
	secured.Use(auth.Authenticate())
	for _, h := range protected {
		h.RegisterRoutes(secured)
	}

	return &Router{engine: engine}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
