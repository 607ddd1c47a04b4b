package router

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/polyclinic-api/internal/handler"
	appointmenthandler "github.com/jwalitptl/polyclinic-api/internal/handler/appointment"
	authhandler "github.com/jwalitptl/polyclinic-api/internal/handler/auth"
	servicehandler "github.com/jwalitptl/polyclinic-api/internal/handler/service"
	"github.com/jwalitptl/polyclinic-api/internal/middleware"
)

type Router struct {
	engine       *gin.Engine
	auth         *middleware.AuthMiddleware
	authH        *authhandler.Handler
	serviceH     *servicehandler.Handler
	appointmentH *appointmenthandler.Handler
	healthH      *handler.HealthHandler
	limiter      *middleware.RateLimiter
	metrics      *routerMetrics
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	errorTotal      *prometheus.CounterVec
}

type Config struct {
	RateLimit     rate.Limit
	RateBurst     int
	Timeout       time.Duration
	CORSConfig    middleware.CORSConfig
	MetricsPrefix string
	Registerer    prometheus.Registerer
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	authH *authhandler.Handler,
	serviceH *servicehandler.Handler,
	appointmentH *appointmenthandler.Handler,
	healthH *handler.HealthHandler,
	config Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	registerValidations()

	engine := gin.New()

	r := &Router{
		engine:       engine,
		auth:         auth,
		authH:        authH,
		serviceH:     serviceH,
		appointmentH: appointmentH,
		healthH:      healthH,
		metrics:      initRouterMetrics(config.MetricsPrefix, config.Registerer),
	}

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		r.metricsMiddleware(),
		middleware.Timeout(middleware.TimeoutConfig{Duration: config.Timeout}),
	)

	engine.Use(middleware.CORS(config.CORSConfig))

	r.limiter = middleware.NewRateLimiter(config.RateLimit, config.RateBurst)
	engine.Use(r.limiter.RateLimit())

	return r
}

// Close stops the router's background helpers. Call it after the HTTP
// server has shut down.
func (r *Router) Close() {
	r.limiter.Stop()
}

func (r *Router) Setup() {
	r.engine.GET("/health", r.healthH.Health)
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.engine.Group("/api/v1")

	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	api.POST("/auth/login", r.authH.Login)

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	r.setupProtectedRoutes(protected)
}

func (r *Router) setupProtectedRoutes(rg *gin.RouterGroup) {
	services := rg.Group("/services")
	{
		services.GET("", r.serviceH.ListServices)
		services.POST("", r.serviceH.CreateService)
		services.GET("/:id", r.serviceH.GetService)
		services.POST("/:id/activate", r.serviceH.ActivateService)
		services.POST("/:id/deactivate", r.serviceH.DeactivateService)
		services.POST("/:id/responsible", r.serviceH.AssignResponsible)
		services.GET("/:id/slots", r.serviceH.ListSlots)
		services.GET("/:id/appointments", r.serviceH.ListAppointments)
		services.GET("/:id/stats", r.serviceH.GetStats)
	}

	appointments := rg.Group("/appointments")
	{
		appointments.POST("", r.appointmentH.BookAppointment)
		appointments.GET("", r.appointmentH.ListByDate)
		appointments.GET("/:id", r.appointmentH.GetAppointment)
		appointments.POST("/:id/cancel", r.appointmentH.CancelAppointment)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func initRouterMetrics(prefix string, registerer prometheus.Registerer) *routerMetrics {
	m := &routerMetrics{
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: prefix + "_request_duration_seconds",
				Help: "Duration of HTTP requests in seconds",
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		errorTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_errors_total",
				Help: "Total number of HTTP errors",
			},
			[]string{"method", "path", "type"},
		),
	}

	if registerer != nil {
		registerer.MustRegister(m.requestDuration, m.requestTotal, m.errorTotal)
	}
	return m
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()

		c.Next()

		status := fmt.Sprintf("%d", c.Writer.Status())
		duration := time.Since(start).Seconds()

		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()

		if c.Writer.Status() >= 400 {
			r.metrics.errorTotal.WithLabelValues(c.Request.Method, path, "http").Inc()
		}
	}
}
