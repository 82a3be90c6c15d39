package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/campushub/campusevents/internal/auth"
	"github.com/campushub/campusevents/internal/cache"
	"github.com/campushub/campusevents/internal/config"
	"github.com/campushub/campusevents/internal/domain/user"
	"github.com/campushub/campusevents/internal/http/handlers"
	"github.com/campushub/campusevents/internal/http/middlewares"
	"github.com/campushub/campusevents/internal/jobs"
	"github.com/campushub/campusevents/internal/observability"
	"github.com/campushub/campusevents/internal/repo/postgres"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

func NewRouter(log *slog.Logger, pool *pgxpool.Pool, rdb *redis.Client, cfg config.Config) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	r.Use(otelgin.Middleware("campusevents-api"))
	r.Use(prom.GinHandleMiddleware())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(12 << 20))

	// repositories
	usersRepo := postgres.NewUsersRepo(pool, prom)
	eventsRepo := postgres.NewEventsRepo(pool, prom)
	jobsRepo := postgres.NewJobsRepo(pool, prom)

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.SessionTTL())
	enqueuer := jobs.NewEnqueuer(jobsRepo)

	authMW := middlewares.NewAuthMiddleware(jwtManager, usersRepo)

	// bursty credential endpoints share one limiter
	loginLimiter := middlewares.NewRateLimiter(10, time.Minute, rdb)

	ping := func(ctx context.Context) error {
		if pool == nil {
			return nil
		}
		return pool.Ping(ctx)
	}

	healthHandler := handlers.NewHealthHandler(ping)
	authHandler := handlers.NewAuthHandler(usersRepo, jwtManager, enqueuer, cfg)
	studentsHandler := handlers.NewStudentsHandler(usersRepo)
	eventsHandler := handlers.NewEventsHandler(eventsRepo, usersRepo, cache.New(5*time.Second))

	r.GET("/healthz", healthHandler.Healthz)
	r.GET("/readyz", healthHandler.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", middlewares.RequireJSON(), authHandler.Register)
		authGroup.POST("/verifyEmail",
			middlewares.RequireJSON(),
			loginLimiter.Middleware(middlewares.KeyByIP),
			authHandler.VerifyEmail)
		authGroup.POST("/signin",
			middlewares.RequireJSON(),
			loginLimiter.Middleware(middlewares.KeyByIP),
			authHandler.SignIn)
		authGroup.POST("/logout", authHandler.Logout)

		authGroup.GET("/user", authMW.RequireAuth(), authHandler.GetUser)

		faculty := authGroup.Group("")
		faculty.Use(authMW.RequireAuth(), authMW.RequireRole(user.RoleFaculty))
		{
			faculty.PUT("/verify-student/:id", studentsHandler.VerifyStudent)
			faculty.PUT("/unverify-student/:id", studentsHandler.UnverifyStudent)
			faculty.GET("/students", studentsHandler.ListVerified)
			faculty.GET("/student/email/:email", studentsHandler.GetByEmail)
			faculty.GET("/student/:identifier", studentsHandler.GetByIdentifier)
		}
	}

	r.GET("/events", eventsHandler.ListEvents)
	r.GET("/events/:id", eventsHandler.GetEventByID)
	r.GET("/events/:id/image", eventsHandler.GetEventImage)
	r.POST("/events", authMW.RequireAuth(), eventsHandler.CreateEvent)
	r.PUT("/events/:id", authMW.RequireAuth(), eventsHandler.UpdateEvent)
	r.DELETE("/events/:id", authMW.RequireAuth(), eventsHandler.DeleteEvent)

	log.Info("router initialized", "env", cfg.Env)

	return r
}
