package main

import (
	"fmt"
	"log"
	"time"

	"parsearena/internal/config"
	"parsearena/internal/handler"
	"parsearena/internal/orchestrator"
	"parsearena/internal/pricing"
	"parsearena/internal/provider"
	"parsearena/internal/provider/extendai"
	"parsearena/internal/provider/landingai"
	"parsearena/internal/provider/llamaindex"
	"parsearena/internal/provider/reducto"
	"parsearena/internal/provider/unstructured"
	"parsearena/internal/repository/postgres"
	"parsearena/internal/router"
	"parsearena/internal/service"
	s3storage "parsearena/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	battleRepo := postgres.NewBattleRepo(db)

	// Initialize storage
	docStore, err := s3storage.NewDocumentStore(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize document store: %w", err)
	}

	// Initialize provider registry and orchestrator
	registry, err := provider.NewRegistry(
		llamaindex.New(&cfg.Providers.LlamaIndex),
		reducto.New(&cfg.Providers.Reducto),
		landingai.New(&cfg.Providers.LandingAI),
		extendai.New(&cfg.Providers.ExtendAI),
		unstructured.New(&cfg.Providers.Unstructured),
	)
	if err != nil {
		return fmt.Errorf("failed to build provider registry: %w", err)
	}
	orch := orchestrator.New(registry)

	// Load the static pricing table
	table, err := pricing.LoadTable(cfg.Pricing.TablePath)
	if err != nil {
		return fmt.Errorf("failed to load pricing table: %w", err)
	}
	resolver := pricing.NewResolver(table)

	// Initialize services
	parseSvc := service.NewParseService(docStore, orch, resolver)
	docSvc := service.NewDocumentService(docStore, cfg.S3.MaxFileSizeMB)
	battleSvc := service.NewBattleService(
		docStore, battleRepo, orch, resolver,
		time.Duration(cfg.Battle.TimeoutSecs)*time.Second,
		cfg.Battle.HistoryPageSize,
		nil,
	)

	// Initialize handlers
	parseH := handler.NewParseHandler(parseSvc)
	docH := handler.NewDocumentHandler(docSvc)
	battleH := handler.NewBattleHandler(battleSvc)
	healthH := handler.NewHealthHandler(db, registry.IDs())

	// Setup router
	r := router.Setup(parseH, docH, battleH, healthH, cfg.CORS.AllowedOrigins)

	log.Printf("Server starting on %s", cfg.Server.Port)
	if err := r.Run(cfg.Server.Port); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}
