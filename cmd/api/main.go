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

	"github.com/virtuefdn/medbridge/backend/internal/adapters/cache"
	"github.com/virtuefdn/medbridge/backend/internal/adapters/catalog"
	"github.com/virtuefdn/medbridge/backend/internal/adapters/search"
	"github.com/virtuefdn/medbridge/backend/internal/api/handlers"
	"github.com/virtuefdn/medbridge/backend/internal/api/middleware"
	"github.com/virtuefdn/medbridge/backend/internal/api/routes"
	"github.com/virtuefdn/medbridge/backend/internal/application/services"
	"github.com/virtuefdn/medbridge/backend/internal/domain/providers"
	"github.com/virtuefdn/medbridge/backend/internal/domain/repositories"
	"github.com/virtuefdn/medbridge/backend/internal/infrastructure/clients/groq"
	"github.com/virtuefdn/medbridge/backend/internal/infrastructure/clients/postgres"
	"github.com/virtuefdn/medbridge/backend/internal/infrastructure/clients/redis"
	"github.com/virtuefdn/medbridge/backend/internal/infrastructure/clients/typesense"
	"github.com/virtuefdn/medbridge/backend/internal/infrastructure/observability"
	"github.com/virtuefdn/medbridge/backend/pkg/config"
	"github.com/virtuefdn/medbridge/backend/pkg/secrets"
)

func main() {

	// Hydrate environment from Vault before reading configuration
	vaultCfg := secrets.LoadVaultConfigFromEnv("")
	if vaultCfg.Enabled {
		vaultCtx, vaultCancel := context.WithTimeout(context.Background(), vaultCfg.Timeout)
		result, err := secrets.ApplyVaultSecrets(vaultCtx, vaultCfg)
		vaultCancel()
		if err != nil {
			log.Printf("Warning: Failed to load Vault secrets: %v", err)
		} else {
			log.Printf("Loaded %d secrets from Vault path %s", result.Loaded, result.Path)
		}
	}

	// Load configuration

	cfg, err := config.Load()

	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	var shutdown func(context.Context) error
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err = observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Printf("Warning: Failed to set up OpenTelemetry: %v", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Printf("Error shutting down OpenTelemetry: %v", err)
				}
			}()
			log.Println("OpenTelemetry initialized successfully")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}

	// Load the facility catalog. The catalog is built once at start-up
	// and every agent reads from the same immutable table.
	var source repositories.FacilitySource
	switch cfg.Catalog.Source {
	case "postgres":
		pgClient, err := postgres.NewClient(&cfg.Database)
		if err != nil {
			log.Fatalf("Failed to initialize PostgreSQL client: %v", err)
		}
		defer pgClient.Close()
		log.Println("PostgreSQL client initialized successfully")
		source = catalog.NewPostgresSource(pgClient)
	default:
		source = catalog.NewCSVSource(cfg.Catalog.CSVPath)
	}

	rows, err := source.LoadAll(ctx)
	if err != nil {
		log.Fatalf("Failed to load facility catalog: %v", err)
	}
	table := catalog.Build(rows)
	log.Printf("Facility catalog loaded: %d facilities", table.Len())

	// Initialize Redis client
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Printf("Warning: Failed to initialize Redis client: %v", err)
		// Continue without Redis - the application can work without caching
	} else {
		defer redisClient.Close()
		log.Println("Redis client initialized successfully")
	}

	var cacheProvider providers.CacheProvider
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
	}

	// Initialize Typesense client
	typesenseClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		log.Printf("Warning: Failed to initialize Typesense client: %v", err)
		typesenseClient = nil
	} else {
		log.Println("Typesense client initialized successfully")
	}

	var vectorRepo repositories.VectorSearchRepository
	if typesenseClient != nil {
		adapter := search.NewVectorAdapter(typesenseClient)
		if err := adapter.EnsureSchema(context.Background()); err != nil {
			log.Printf("Warning: Failed to init Typesense schema: %v", err)
		}
		vectorRepo = adapter
	}

	// Initialize Groq client for synthesis and LLM intent fallback
	var groqClient *groq.Client
	if cfg.Groq.APIKey == "" {
		log.Println("Warning: GROQ_API_KEY is not set; running without LLM synthesis")
	} else {
		groqClient, err = groq.NewClient(&cfg.Groq)
		if err != nil {
			log.Printf("Warning: Failed to initialize Groq client: %v", err)
		}
	}

	// Initialize agents

	agents := []services.Agent{
		services.NewTabularService(table),
		services.NewValidatorService(table),
		services.NewGeospatialService(table, cfg.Engine.CoverageGridMinDeg),
		services.NewPlannerService(table),
	}
	if vectorRepo != nil {
		agents = append(agents, services.NewRetrieverService(vectorRepo, cfg.Engine.VectorSearchTimeout))
	} else {
		log.Println("Warning: semantic agent disabled (Typesense unavailable)")
	}

	var classifier providers.IntentClassifier
	var synthesizer providers.Synthesizer
	if groqClient != nil {
		classifier = groqClient
		synthesizer = groqClient
	}

	supervisor := services.NewSupervisorService(classifier, cfg.Engine.SupervisorLLMEnabled)

	orchestrator := services.NewOrchestratorService(
		supervisor,
		agents,
		synthesizer,
		cacheProvider,
		cfg.Engine.QueryCacheTTL,
		metrics,
	)

	planner := services.NewPlannerService(table)
	geospatial := services.NewGeospatialService(table, cfg.Engine.CoverageGridMinDeg)

	// Initialize handlers

	queryHandler := handlers.NewQueryHandler(orchestrator)

	catalogHandler := handlers.NewCatalogHandler(table)

	planningHandler := handlers.NewPlanningHandler(planner, geospatial, table)

	statusHandler := handlers.NewStatusHandler(table, typesenseClient, cfg.Catalog.Source, groqClient != nil)

	// Initialize cache middleware
	var cacheMiddleware *middleware.CacheMiddleware
	if cacheProvider != nil {
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider)
		log.Println("Cache middleware initialized successfully")
	}

	// Set up router

	router := routes.NewRouter(
		queryHandler,
		catalogHandler,
		planningHandler,
		statusHandler,
		cacheMiddleware,
		metrics,
	)

	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}

	log.Println("Server stopped")
}
