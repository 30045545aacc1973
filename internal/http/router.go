package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/eventlyhq/evently/internal/auth"
	"github.com/eventlyhq/evently/internal/cache"
	"github.com/eventlyhq/evently/internal/config"
	"github.com/eventlyhq/evently/internal/http/handlers"
	"github.com/eventlyhq/evently/internal/http/middlewares"
	"github.com/eventlyhq/evently/internal/notifications"
	"github.com/eventlyhq/evently/internal/observability"
	"github.com/eventlyhq/evently/internal/repo/postgres"
	"github.com/eventlyhq/evently/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const serviceName = "evently-api"

// Deps carries everything the router wires together. cmd/api builds it
// once on boot.
type Deps struct {
	Cfg      config.Config
	Log      *slog.Logger
	Pool     *pgxpool.Pool
	Cache    *cache.Cache
	Prom     *observability.Prom
	PromReg  *prometheus.Registry
	Notifier notifications.Notifier
}

func NewRouter(deps Deps) *gin.Engine {
	if deps.Cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// middleware, outermost first
	r.Use(gin.Recovery())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(deps.Cfg.CORSOrigins))
	r.Use(middlewares.MaxBodyBytes(1 << 20)) // 1 MiB
	r.Use(middlewares.RequireJSON())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	r.Use(otelgin.Middleware(serviceName))

	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}

	// repositories
	eventsRepo := postgres.NewEventsRepo(deps.Pool, deps.Prom)
	attendeesRepo := postgres.NewAttendeesRepo(deps.Pool, deps.Prom)
	registrationsRepo := postgres.NewRegistrationsRepo(deps.Pool, deps.Prom)
	jobsRepo := postgres.NewJobsRepo(deps.Pool, deps.Prom)

	// services
	eventSvc := service.NewEventService(eventsRepo, registrationsRepo, deps.Cache, deps.Notifier, deps.Log)
	attendeeSvc := service.NewAttendeeService(attendeesRepo, registrationsRepo, deps.Cache, deps.Log)
	registrationSvc := service.NewRegistrationService(registrationsRepo, eventsRepo, jobsRepo, deps.Cache, deps.Notifier, deps.Log)

	// health probes
	dbPing := func() error {
		if deps.Pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return deps.Pool.Ping(ctx)
	}

	redisPing := func() error {
		if deps.Cache == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return deps.Cache.Ping(ctx)
	}

	health := handlers.NewHealthHandler(dbPing, redisPing)
	r.GET("/health", health.Readyz)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	if deps.PromReg != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.PromReg, promhttp.HandlerOpts{})))
	}

	// rate limit writes per client; reads stay unthrottled
	writeLimiter := middlewares.NewRateLimiter(30, time.Minute)
	limited := writeLimiter.RateLimiterMiddleware(middlewares.KeyByIdentityOrIP)

	eventsHandler := handlers.NewEventsHandler(eventSvc)
	attendeesHandler := handlers.NewAttendeesHandler(attendeeSvc)
	registrationHandler := handlers.NewRegistrationHandler(registrationSvc)

	r.POST("/events", limited, eventsHandler.CreateEvent)
	r.GET("/events", eventsHandler.ListEvents)
	r.GET("/events/stats/most-registrations", eventsHandler.MostRegistrations)
	r.GET("/events/:id", eventsHandler.GetEventById)
	r.PATCH("/events/:id", limited, eventsHandler.UpdateEvent)
	r.DELETE("/events/:id", limited, eventsHandler.DeleteEvent)

	r.POST("/attendees", limited, attendeesHandler.CreateAttendee)
	r.GET("/attendees", attendeesHandler.ListAttendees)
	r.GET("/attendees/:id", attendeesHandler.GetAttendeeById)
	r.DELETE("/attendees/:id", limited, attendeesHandler.DeleteAttendee)

	r.POST("/registrations", limited, registrationHandler.Register)
	r.GET("/registrations/event/:eventId", registrationHandler.ListForEvent)
	r.GET("/registrations/stats/:eventId", registrationHandler.Stats)
	r.DELETE("/registrations/:id", limited, registrationHandler.Cancel)

	// admin surface: login + job queue visibility
	jwtManager := auth.NewManager(deps.Cfg.JWTSecret, deps.Cfg.JWTAccessTTL)
	authHandler := handlers.NewAuthHandler(jwtManager, deps.Cfg.AdminEmail, deps.Cfg.AdminPasswordHash)

	loginLimiter := middlewares.NewRateLimiter(10, time.Minute)
	r.POST("/auth/login", loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.Login)

	authMW := middlewares.NewAuthMiddleware(jwtManager)
	adminJobs := handlers.NewAdminJobsHandler(jobsRepo)

	admin := r.Group("/admin", authMW.RequireAuth(), authMW.RequireAdmin())
	admin.GET("/jobs", adminJobs.ListJobs)
	admin.POST("/jobs/:id/requeue", adminJobs.RequeueJob)

	return r
}
