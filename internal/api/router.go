package api

import (
	"context"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/99minutos/todo-system/internal/api/handler"
	"github.com/99minutos/todo-system/internal/api/middleware"
	"github.com/99minutos/todo-system/internal/core/ports"
	"github.com/99minutos/todo-system/internal/core/service"
	mongorepo "github.com/99minutos/todo-system/internal/infrastructure/db/mongo"
	redisstore "github.com/99minutos/todo-system/internal/infrastructure/db/redis"
	"github.com/99minutos/todo-system/internal/pkg/config"

	_ "github.com/99minutos/todo-system/internal/docs"
)

// Services groups the collaborators the HTTP layer depends on.
type Services struct {
	Auth     ports.AuthService
	Verifier ports.TokenVerifier
	Todos    ports.TodoService
	Checks   map[string]handler.Check
}

// Options tunes the ambient middleware.
type Options struct {
	Logger      zerolog.Logger
	CORSOrigins []string
	// Registry receives the HTTP metrics and backs /metrics. Defaults to the
	// global Prometheus registry.
	Registry *prometheus.Registry
}

// NewRouter wires the Mongo and Redis backed services and returns the Echo
// instance with all routes registered. rdb may be nil.
func NewRouter(db *mongo.Database, rdb *redis.Client, cfg *config.Config, log zerolog.Logger) *echo.Echo {
	authService := service.NewAuthService(mongorepo.NewUserRepository(db), cfg.JWTSecret, cfg.JWTTTL, log)

	var idem ports.IdempotencyStore
	var redisCheck handler.Check
	if rdb != nil {
		idem = redisstore.NewIdempotencyStore(rdb)
		redisCheck = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	todoService := service.NewTodoService(mongorepo.NewTodoRepository(db), idem, log)

	return NewServer(Services{
		Auth:     authService,
		Verifier: authService,
		Todos:    todoService,
		Checks: map[string]handler.Check{
			"mongodb": func(ctx context.Context) error {
				return db.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
			},
			"redis": redisCheck,
		},
	}, Options{Logger: log, CORSOrigins: cfg.CORSOrigins})
}

// NewServer registers routes and middleware around already-built services.
func NewServer(svc Services, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(opts.Logger)

	var registerer prometheus.Registerer = prometheus.DefaultRegisterer
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if opts.Registry != nil {
		registerer, gatherer = opts.Registry, opts.Registry
	}

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger(opts.Logger))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: origins,
		AllowHeaders: []string{
			echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept,
			echo.HeaderAuthorization, handler.HeaderIdempotencyKey,
		},
		ExposeHeaders: []string{handler.HeaderIdempotentReplayed},
	}))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "todo_api",
		Registerer: registerer,
	}))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(svc.Auth)
	todoHandler := handler.NewTodoHandler(svc.Todos)
	healthHandler := handler.NewHealthHandler(svc.Checks)
	authMiddleware := middleware.Auth(svc.Verifier)

	apiGroup := e.Group("/api")

	// --- Auth routes ---
	apiGroup.POST("/auth/register", authHandler.Register)
	apiGroup.POST("/auth/login", authHandler.Login)

	// --- Todo routes (bearer token required) ---
	todos := apiGroup.Group("/todos", authMiddleware)
	todos.POST("", todoHandler.Create)
	todos.GET("", todoHandler.List)
	todos.PUT("/:id", todoHandler.Update)
	todos.DELETE("/:id", todoHandler.Delete)

	// --- Health probes, metrics and docs (no auth required) ---
	e.GET("/health", healthHandler.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", healthHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestLogger writes one zerolog entry per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			switch {
			case v.Status >= 500:
				evt = log.Error().Err(v.Error)
			case v.Error != nil:
				evt = log.Warn().Err(v.Error)
			}
			evt.
				Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}
