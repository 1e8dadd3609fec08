package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"studytube-backend/internal/config"
	"studytube-backend/internal/database"
	"studytube-backend/internal/pipeline"
	"studytube-backend/internal/repository"
	"studytube-backend/internal/services"
	"studytube-backend/internal/worker"
)

// The worker is the queue-mode consumer: it drains queue:content-processing
// and runs the same pipeline the server runs inline.
func main() {
	log.Println("Starting StudyTube Worker...")

	cfg := config.Load()
	if cfg.RedisURL == "" {
		log.Fatal("✗ Worker requires REDIS_URL")
	}

	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	redisClient, err := database.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClient.Close()
	log.Println("✓ Redis connected")

	contentRepo := repository.NewContentRepo(pool)
	jobRepo := repository.NewJobRepo(pool)

	youtubeService := services.NewYouTubeService()
	fetcher := services.NewTranscriptFetcher(youtubeService, services.NewRemoteTranscriptSource(cfg.TranscriptServiceURL))

	embedder, err := services.NewGeminiEmbedder(context.Background(), cfg.GeminiAPIKey, cfg.GeminiEmbedModel)
	if err != nil {
		log.Fatalf("✗ Gemini embedder initialization failed: %v", err)
	}
	defer embedder.Close()

	vectorStore, err := services.NewPineconeStore(cfg.PineconeAPIKey, cfg.PineconeIndexHost, cfg.PineconeNamespace)
	if err != nil {
		log.Fatalf("✗ Pinecone initialization failed: %v", err)
	}

	proc := pipeline.New(
		jobRepo,
		contentRepo,
		fetcher,
		services.NewEmbeddingService(embedder),
		vectorStore,
		cfg.ChunkWords,
	)

	workerPool := worker.NewPool(redisClient, proc, cfg.WorkerCount)
	workerPool.Start()
	log.Printf("✓ Worker pool started (%d goroutines)", cfg.WorkerCount)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down...")
	workerPool.Stop()
}
