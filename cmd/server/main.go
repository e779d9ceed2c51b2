package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kashiwade/menshen/internal/handlers"
	"github.com/kashiwade/menshen/internal/infrastructure/config"
	"github.com/kashiwade/menshen/internal/infrastructure/database"
	"github.com/kashiwade/menshen/internal/infrastructure/metrics"
	"github.com/kashiwade/menshen/internal/repositories/postgres"
	"github.com/kashiwade/menshen/internal/services/authorization"
	"github.com/kashiwade/menshen/pkg/cache"
	"github.com/kashiwade/menshen/pkg/cache/memorycache"
)

const defaultEnv = "dev"

func main() {
	env := os.Getenv("ENV")
	if env == "" {
		env = defaultEnv
	}

	if err := config.InitConfig(env); err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pg, err := database.NewPostgres(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pg.Close()

	log.Printf("Connected to database: %s@%s:%d/%s",
		cfg.Database.User,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Database)

	// Initialize repositories
	orgRepo := postgres.NewPostgresOrganizationRepository(pg.DB)
	userRepo := postgres.NewPostgresUserRepository(pg.DB)
	teamRepo := postgres.NewPostgresTeamRepository(pg.DB)
	policyRepo := postgres.NewPostgresPolicyRepository(pg.DB)

	// Initialize the decision pipeline
	aggregator := authorization.NewAggregator(userRepo, teamRepo, policyRepo)

	var authorizer authorization.AuthorizerInterface
	var decisionCache cache.Cache
	if cfg.Cache.Enabled {
		decisionCache, err = memorycache.New(&memorycache.Config{
			MaxSizeBytes: cfg.Cache.MaxMemoryBytes,
			DefaultTTL:   time.Duration(cfg.Cache.TTLSeconds) * time.Second,
		})
		if err != nil {
			log.Fatalf("Failed to create decision cache: %v", err)
		}
		defer decisionCache.Close()
		authorizer = authorization.NewAuthorizerWithCache(aggregator, decisionCache, time.Duration(cfg.Cache.TTLSeconds)*time.Second)
		log.Printf("Decision cache enabled: %d bytes, TTL %ds", cfg.Cache.MaxMemoryBytes, cfg.Cache.TTLSeconds)
	} else {
		authorizer = authorization.NewAuthorizer(aggregator)
	}

	// Initialize metrics
	collector := metrics.NewCollector()
	if decisionCache != nil {
		collector.SetCache(decisionCache)
	}
	exporter := metrics.NewPrometheusExporter(collector)

	// Build the HTTP API
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(metrics.Middleware(collector, exporter))

	api := e.Group("/api/v1")
	handlers.NewAuthorizationHandler(authorizer, collector, exporter).RegisterRoutes(api)
	handlers.NewOrganizationHandler(orgRepo).RegisterRoutes(api)
	handlers.NewUserHandler(userRepo, teamRepo, policyRepo).RegisterRoutes(api)
	handlers.NewTeamHandler(teamRepo, policyRepo).RegisterRoutes(api)
	handlers.NewPolicyHandler(policyRepo).RegisterRoutes(api)

	e.GET("/healthz", func(c echo.Context) error {
		if err := pg.HealthCheck(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Metrics server on its own port
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler: metricsMux,
	}

	// Refresh gauge metrics periodically
	updateDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				exporter.Update()
			case <-updateDone:
				return
			}
		}
	}()

	serverErrors := make(chan error, 2)
	go func() {
		log.Printf("HTTP server listening on :%d", cfg.Server.Port)
		if err := e.Start(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil && err != http.ErrServerClosed {
			serverErrors <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()
	go func() {
		log.Printf("Metrics server listening on :%d", cfg.Server.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- fmt.Errorf("metrics server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	select {
	case err := <-serverErrors:
		log.Fatalf("Server error: %v", err)
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
		log.Println("Initiating graceful shutdown...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		close(updateDone)

		if err := e.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down HTTP server: %v", err)
		}
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down metrics server: %v", err)
		}
		if err := pg.Close(); err != nil {
			log.Printf("Error closing database connection: %v", err)
		}

		log.Println("Shutdown complete")
	}
}
