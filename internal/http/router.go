package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/geocoder89/eventdesk/internal/cache"
	"github.com/geocoder89/eventdesk/internal/http/handlers"
	"github.com/geocoder89/eventdesk/internal/http/middlewares"
	"github.com/geocoder89/eventdesk/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type RouterDeps struct {
	Env     string
	Log     *slog.Logger
	Prom    *observability.Prom
	Metrics prometheus.Gatherer

	Events    handlers.EventsStore
	Attendees handlers.AttendeesStore
	Importer  handlers.EventImporter
	Cache     cache.Store

	// nil when there is no database to ping
	Ping func(ctx context.Context) error

	MaxUploadBytes     int64
	CORSAllowedOrigins []string
	RateLimitPerMinute int
}

func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	log := deps.Log
	if log == nil {
		log = slog.Default()
	}

	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(deps.CORSAllowedOrigins))
	r.Use(otelgin.Middleware("eventdesk"))

	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}

	limiter := middlewares.NewRateLimiter(deps.RateLimitPerMinute, time.Minute)

	// health
	h := handlers.NewHealthHandler(deps.Ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	gatherer := deps.Metrics
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// Wire up handlers
	eventsHandler := handlers.NewEventsHandler(deps.Events, deps.Cache, log)
	attendeesHandler := handlers.NewAttendeesHandler(deps.Attendees, deps.Prom, log)
	importsHandler := handlers.NewImportsHandler(deps.Importer, deps.Cache, log)

	api := r.Group("/api")
	api.Use(limiter.RateLimiterMiddleware(middlewares.KeyByIP))

	api.GET("/events", eventsHandler.ListEvents)
	api.GET("/events/:id", eventsHandler.GetEventByID)
	api.GET("/events/:id/attendees", attendeesHandler.ListByEvent)
	api.GET("/events/:id/tickets", attendeesHandler.TicketsReport)

	// uploads are multipart, so they skip RequireJSON
	api.POST("/import/events", middlewares.MaxBodyBytes(deps.MaxUploadBytes), importsHandler.ImportEvents)

	writes := api.Group("")
	writes.Use(middlewares.RequireJSON())

	writes.POST("/events", eventsHandler.CreateEvent)
	writes.PUT("/events/:id", eventsHandler.UpdateEvent)
	writes.DELETE("/events/:id", eventsHandler.DeleteEvent)
	writes.POST("/events/:id/attendees", attendeesHandler.Register)
	writes.PUT("/attendees/:id", attendeesHandler.Update)

	return r
}
