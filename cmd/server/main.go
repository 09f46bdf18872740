package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/tgo/sage/internal/config"
	"github.com/tgo/sage/internal/database"
	"github.com/tgo/sage/internal/handler"
	"github.com/tgo/sage/internal/service"
	"github.com/tgo/sage/internal/task"
	"github.com/tgo/sage/internal/vectorstore"
)

func main() {
	// Load .env file if exists
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	ctx := context.Background()

	embeddingSvc := service.NewEmbeddingService(
		cfg.OpenAIAPIKey,
		cfg.OpenAIBaseURL,
		cfg.EmbeddingModel,
		cfg.EmbeddingDimensions,
	)

	// The vector store is process-wide; running without it is not an
	// option.
	store, err := vectorstore.Initialize(ctx, db, embeddingSvc)
	if err != nil {
		log.Fatalf("Failed to initialize vector store: %v", err)
	}

	ai, err := service.NewAIService(ctx, cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.ChatModel)
	if err != nil {
		log.Fatalf("Failed to initialize chat model: %v", err)
	}

	runner := task.NewRunner(cfg.IngestQueueSize)
	runner.Start()
	defer runner.Stop()

	r := handler.SetupRouter(cfg, db, store, ai, runner)

	addr := cfg.Host + ":" + cfg.Port
	log.Printf("Sage service starting on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
