package main

import (
	"fmt"
	"log"

	"oshikake/internal/config"
	"oshikake/internal/extract"
	_ "oshikake/internal/extract/bedrock"
	_ "oshikake/internal/extract/claude"
	_ "oshikake/internal/extract/gemini"
	"oshikake/internal/handler"
	"oshikake/internal/imageprep"
	"oshikake/internal/repository/postgres"
	"oshikake/internal/router"
	"oshikake/internal/service"
	s3storage "oshikake/internal/storage/s3"
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
	orderRepo := postgres.NewOrderRepo(db)

	// Initialize storage
	s3Client, err := s3storage.NewS3Client(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	// Initialize the extraction chain (providers, fallback, retry)
	extractor, err := extract.BuildChain(&cfg.Extractor)
	if err != nil {
		return fmt.Errorf("failed to build extractor chain: %w", err)
	}
	repairer := extract.NewRepairer(cfg.Extractor.CategoryPolicy)
	normalizer := imageprep.New(cfg.Normalizer)

	// Initialize services
	ingestSvc := service.NewIngestService(s3Client, orderRepo, extractor, repairer, normalizer, &cfg.S3, &cfg.Batch)
	orderSvc := service.NewOrderService(orderRepo, s3Client, &cfg.S3)

	// Initialize handlers
	ingestH := handler.NewIngestHandler(ingestSvc)
	orderH := handler.NewOrderHandler(orderSvc)
	healthH := handler.NewHealthHandler(db)

	// Setup router
	r := router.Setup(ingestH, orderH, healthH)

	log.Printf("Server starting on %s", cfg.Server.Port)
	if err := r.Run(cfg.Server.Port); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}
