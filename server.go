package main

import (
	"fmt"
	"net/http"
	_ "net/http/pprof"

	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"pageCraftNN/handlers"
	"pageCraftNN/internal/config"
	"pageCraftNN/internal/schema"
	"pageCraftNN/internal/transform"
	"pageCraftNN/middleware"
	"pageCraftNN/services"
)

type app struct {
	cfg            *config.AppConfig
	logger         *zap.Logger
	registry       *prometheus.Registry
	limiter        *middleware.RateLimiter
	processHandler *handlers.ProcessHandler
}

func newProcessService(cfg *config.AppConfig, logger *zap.Logger, observers ...services.Observer) *services.ProcessService {
	validator := schema.NewValidator(cfg.Transform.MaxDepth)
	transformer := transform.New(transform.Options{
		Color:    cfg.Transform.Color,
		MaxDepth: cfg.Transform.MaxDepth,
	})
	return services.NewProcessService(validator, transformer, logger, observers...)
}

func newApp(cfg *config.AppConfig, logger *zap.Logger) *app {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	middleware.InitPrometheus(registry)
	metrics := services.NewTransformMetrics(registry)

	processService := newProcessService(cfg, logger, services.LogObserver(logger), metrics.Observe)

	return &app{
		cfg:            cfg,
		logger:         logger,
		registry:       registry,
		limiter:        middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		processHandler: handlers.NewProcessHandler(processService, logger),
	}
}

func (a *app) handler() http.Handler {
	r := mux.NewRouter()

	standardRouter := r.PathPrefix("/").Subrouter()
	standardRouter.Use(middleware.RequestIDMiddleware)
	standardRouter.Use(middleware.ClientIPMiddleware(a.cfg.RateLimit.TrustForwardedFor))
	standardRouter.Use(middleware.Logger(a.logger))
	standardRouter.Use(middleware.MonitorMiddleware)
	standardRouter.Use(a.limiter.Middleware)

	metricsHandler := promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})
	standardRouter.Handle("/metrics", middleware.BasicAuthMiddleware(a.cfg.Metrics.User, a.cfg.Metrics.Pass)(metricsHandler)).Methods("GET")
	standardRouter.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(a.cfg.PprofSecret)(http.DefaultServeMux))

	standardRouter.HandleFunc("/", a.processHandler.Root).Methods("GET")
	standardRouter.HandleFunc("/health", a.processHandler.Health).Methods("GET")

	process := middleware.BodyLimitMiddleware(a.cfg.MaxBodyBytes)(http.HandlerFunc(a.processHandler.Process))
	standardRouter.Handle("/process", process).Methods("POST")

	corsHandler := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins(a.cfg.AllowedOrigins),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", middleware.RequestIDHeader}),
		gorillaHandlers.ExposedHeaders([]string{"Content-Length", middleware.RequestIDHeader, "X-Items-Transformed", "X-Resolutions-Processed"}),
	)
	recovery := gorillaHandlers.RecoveryHandler(
		gorillaHandlers.RecoveryLogger(recoveryLogger{a.logger}),
		gorillaHandlers.PrintRecoveryStack(a.cfg.IsDevelopment()),
	)

	return recovery(corsHandler(r))
}

type recoveryLogger struct {
	logger *zap.Logger
}

func (l recoveryLogger) Println(v ...interface{}) {
	l.logger.Error("panic recovered", zap.String("panic", fmt.Sprint(v...)))
}
