package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
	"github.com/studyforge/tutorai/internal/api/handlers"
	"github.com/studyforge/tutorai/internal/config"
	"github.com/studyforge/tutorai/internal/database"
	"github.com/studyforge/tutorai/internal/jobs"
	"github.com/studyforge/tutorai/internal/provider"
	"github.com/studyforge/tutorai/internal/repository"
	"github.com/studyforge/tutorai/internal/server"
	"github.com/studyforge/tutorai/internal/service"
	"github.com/studyforge/tutorai/internal/storage"
	"github.com/studyforge/tutorai/internal/telemetry"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the tutorai API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.SentryDSN != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	log.Println("connected to database")

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	chapterRepo := repository.NewChapterRepository(pool)

	var archiver service.DocumentArchiver
	if cfg.HasS3() {
		archive, err := storage.NewDocumentArchive(ctx, storage.ArchiveConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return fmt.Errorf("failed to create document archive: %w", err)
		}
		if err := archive.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure archive bucket: %w", err)
		}
		log.Printf("document archive bucket '%s' ready", cfg.S3Bucket)
		archiver = archive
	}

	var embeddingClient service.EmbeddingClient
	var backfillWorker *jobs.Worker
	if cfg.HasEmbeddings() {
		embeddingClient = provider.NewEmbeddingClientWithConfig(provider.EmbeddingConfig{
			APIKey:  cfg.EmbeddingAPIKey,
			BaseURL: cfg.EmbeddingBaseURL,
		})
		backfill := jobs.NewEmbeddingBackfill(chapterRepo, embeddingClient)
		backfillWorker = jobs.NewWorker(backfill, cfg.BackfillInterval)
		go backfillWorker.Start(ctx)
		log.Println("embedding backfill worker started")
	}

	generator := buildGenerator(cfg)
	if generator == nil {
		log.Println("no generation provider configured, answers will quote passages verbatim")
	}

	ingestionSvc := service.NewIngestionService(chapterRepo, embeddingClient, archiver)
	semantic := service.NewSemanticRetriever(embeddingClient)
	guard := service.NewTopicGuard(service.DefaultTopicRules(), chapterRepo)
	askSvc := service.NewAskService(chapterRepo, guard, semantic, generator)

	routerCfg := server.RouterConfig{
		ChapterHandler: handlers.NewChapterHandler(ingestionSvc, chapterRepo),
		AskHandler:     handlers.NewAskHandler(askSvc),
	}

	router := server.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if backfillWorker != nil {
		backfillWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

// buildGenerator assembles the provider fallback chain from config.
// Returns nil when no provider has credentials.
func buildGenerator(cfg *config.Config) service.Generator {
	var pools []service.ProviderPool
	for _, name := range cfg.ProviderOrder {
		switch name {
		case "openai":
			if cfg.HasOpenAI() {
				pools = append(pools, service.ProviderPool{
					Provider:    provider.NewOpenAIProvider("openai", cfg.OpenAIBaseURL, cfg.OpenAIChatModel),
					Credentials: cfg.OpenAIAPIKeys,
				})
			}
		case "dashscope":
			if cfg.HasDashScope() {
				pools = append(pools, service.ProviderPool{
					Provider:    provider.NewDashScopeProvider(cfg.DashScopeBaseURL, cfg.DashScopeModel),
					Credentials: cfg.DashScopeAPIKeys,
				})
			}
		default:
			log.Printf("unknown provider %q in provider order, skipping", name)
		}
	}

	if len(pools) == 0 {
		return nil
	}
	return service.NewGenerationOrchestrator(pools, cfg.AttemptTimeout)
}

func runMigrations(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
