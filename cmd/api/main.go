package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/clinicleads/internal/adapters/cache"
	"github.com/zatekoja/clinicleads/internal/adapters/database"
	"github.com/zatekoja/clinicleads/internal/adapters/events"
	"github.com/zatekoja/clinicleads/internal/adapters/generation"
	"github.com/zatekoja/clinicleads/internal/adapters/memory"
	"github.com/zatekoja/clinicleads/internal/adapters/seed"
	"github.com/zatekoja/clinicleads/internal/api/handlers"
	"github.com/zatekoja/clinicleads/internal/api/middleware"
	"github.com/zatekoja/clinicleads/internal/api/routes"
	"github.com/zatekoja/clinicleads/internal/application/services"
	"github.com/zatekoja/clinicleads/internal/domain/entities"
	"github.com/zatekoja/clinicleads/internal/domain/providers"
	"github.com/zatekoja/clinicleads/internal/domain/repositories"
	"github.com/zatekoja/clinicleads/internal/infrastructure/clients/gemini"
	"github.com/zatekoja/clinicleads/internal/infrastructure/clients/openai"
	"github.com/zatekoja/clinicleads/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/clinicleads/internal/infrastructure/clients/redis"
	"github.com/zatekoja/clinicleads/internal/infrastructure/observability"
	"github.com/zatekoja/clinicleads/internal/quiz"
	"github.com/zatekoja/clinicleads/pkg/config"
	"github.com/zatekoja/clinicleads/pkg/secrets"
)

func main() {
	// Secrets from Vault land in the environment before configuration is read.
	config.LoadEnvFile()
	vaultCtx, vaultCancel := context.WithTimeout(context.Background(), 10*time.Second)
	vaultResult, vaultErr := secrets.Apply(vaultCtx, secrets.ConfigFromEnv())
	vaultCancel()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Env)
	observability.SetLevel(cfg.LogLevel)

	if vaultErr != nil {
		log.Fatal().Err(vaultErr).Str("path", vaultResult.Path).Msg("failed to load secrets from Vault")
	}
	if vaultResult.Enabled {
		log.Info().Strs("keys", vaultResult.Loaded).Int("skipped", vaultResult.Skipped).Msg("secrets loaded from Vault")
	}

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	var profiles []*entities.DoctorProfile
	if cfg.Storage.SeedFile != "" {
		profiles, err = seed.LoadDoctors(cfg.Storage.SeedFile)
		if err != nil {
			log.Fatal().Err(err).Str("file", cfg.Storage.SeedFile).Msg("failed to load doctor seed file")
		}
	}

	checks := map[string]handlers.HealthCheck{}
	store := setupStorage(ctx, cfg, profiles, checks)
	defer store.close()

	catalog := quiz.Builtin()
	generator, closeGenerator := setupGenerator(ctx, &cfg.Generation)
	defer closeGenerator()

	sessions := services.NewSessionRegistry(cfg.Session.MaxSize, cfg.Session.TTL)
	contentStore := services.NewContentStore(store.contents, catalog)
	landingPages := services.NewLandingPageService(store.doctors, contentStore, generator, catalog, sessions, cfg.Generation.Timeout+30*time.Second).
		WithEventBus(store.events)

	router := routes.NewRouter(
		handlers.NewLandingPageHandler(landingPages),
		handlers.NewStatusStreamHandler(landingPages, 2*time.Second).WithEventBus(store.events),
		handlers.NewHealthHandler(checks),
		middleware.ParseOrigins(cfg.Server.AllowedOrigins),
		metrics,
	)

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Str("storage", cfg.Storage.Driver).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	log.Info().Msg("server stopped")
}

type storage struct {
	doctors  repositories.DoctorRepository
	contents repositories.LandingContentRepository
	events   providers.EventBus
	closers  []func()
}

func (s *storage) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// setupStorage builds the repositories and page event bus for the
// configured driver and registers their health checks.
func setupStorage(ctx context.Context, cfg *config.Config, profiles []*entities.DoctorProfile, checks map[string]handlers.HealthCheck) *storage {
	if cfg.Storage.Driver == "memory" {
		log.Warn().Msg("using in-memory storage; landing content is lost on restart")
		bus := events.NewMemoryEventBus()
		return &storage{
			doctors:  memory.NewDoctorRepository(profiles...),
			contents: memory.NewLandingContentRepository(),
			events:   bus,
			closers:  []func(){func() { _ = bus.Close() }},
		}
	}

	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	checks["postgres"] = pgClient.Ping

	if cfg.Storage.AutoMigrate {
		if err := database.EnsureSchema(ctx, pgClient.DB(), "postgres"); err != nil {
			log.Fatal().Err(err).Msg("failed to apply database schema")
		}
	}

	doctorAdapter := database.NewDoctorAdapterWithDB(pgClient.DB(), "postgres")
	for _, profile := range profiles {
		if err := doctorAdapter.Save(ctx, profile); err != nil {
			log.Fatal().Err(err).Str("doctor_id", profile.ID).Msg("failed to seed doctor profile")
		}
	}

	s := &storage{
		doctors:  doctorAdapter,
		contents: database.NewLandingContentAdapter(pgClient),
		closers:  []func(){func() { pgClient.Close() }},
	}

	// Wrap with caching if Redis is available
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, running without cache")
		} else {
			s.closers = append(s.closers, func() { redisClient.Close() })
			checks["redis"] = redisClient.Ping

			cacheProvider := cache.NewRedisAdapter(redisClient)
			s.doctors = database.NewCachedDoctorAdapter(s.doctors, cacheProvider)
			s.contents = database.NewCachedLandingContentAdapter(s.contents, cacheProvider, int(cfg.Redis.ContentTTL.Seconds()))
			s.events = events.NewRedisEventBus(redisClient)
			log.Info().Msg("repositories wrapped with Redis cache")
		}
	}

	if s.events == nil {
		s.events = events.NewMemoryEventBus()
	}
	bus := s.events
	s.closers = append(s.closers, func() { _ = bus.Close() })
	return s
}

// setupGenerator builds the configured completion provider behind a circuit
// breaker. Without credentials it returns nil and pages that need
// generation answer with a configuration error.
func setupGenerator(ctx context.Context, cfg *config.GenerationConfig) (providers.CompletionProvider, func()) {
	var (
		inner   providers.CompletionProvider
		closeFn = func() {}
	)

	switch cfg.Provider {
	case "gemini":
		client, err := gemini.NewClient(ctx, cfg)
		if err != nil {
			logGeneratorUnavailable(err)
			return nil, closeFn
		}
		inner = client
		closeFn = func() { _ = client.Close() }
	default:
		client, err := openai.NewClient(cfg)
		if err != nil {
			logGeneratorUnavailable(err)
			return nil, closeFn
		}
		inner = client
		closeFn = client.Close
	}

	log.Info().Str("provider", inner.Name()).Msg("content generation enabled")
	return generation.NewBreakerProvider(inner, cfg.BreakerThreshold, cfg.BreakerCooldown), closeFn
}

func logGeneratorUnavailable(err error) {
	if errors.Is(err, providers.ErrGeneratorNotConfigured) {
		log.Warn().Err(err).Msg("content generation disabled: no credentials configured")
		return
	}
	log.Fatal().Err(err).Msg("failed to initialize content generation")
}
