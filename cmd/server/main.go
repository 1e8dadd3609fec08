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

	"studytube-backend/internal/config"
	"studytube-backend/internal/database"
	"studytube-backend/internal/handlers"
	"studytube-backend/internal/middleware"
	"studytube-backend/internal/pipeline"
	"studytube-backend/internal/repository"
	"studytube-backend/internal/router"
	"studytube-backend/internal/services"
)

func main() {
	log.Println("Starting StudyTube Backend...")

	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	redisClient, err := database.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		log.Println("✓ Redis connected")
	}

	// Repositories
	contentRepo := repository.NewContentRepo(pool)
	jobRepo := repository.NewJobRepo(pool)
	spaceRepo := repository.NewSpaceRepo(pool)
	userContentRepo := repository.NewUserContentRepo(pool)

	// Services
	youtubeService := services.NewYouTubeService()
	fetcher := services.NewTranscriptFetcher(youtubeService, services.NewRemoteTranscriptSource(cfg.TranscriptServiceURL))

	embedder, err := services.NewGeminiEmbedder(context.Background(), cfg.GeminiAPIKey, cfg.GeminiEmbedModel)
	if err != nil {
		log.Fatalf("✗ Gemini embedder initialization failed: %v", err)
	}
	defer embedder.Close()
	log.Println("✓ Gemini embedder initialized")

	vectorStore, err := services.NewPineconeStore(cfg.PineconeAPIKey, cfg.PineconeIndexHost, cfg.PineconeNamespace)
	if err != nil {
		log.Fatalf("✗ Pinecone initialization failed: %v", err)
	}
	log.Println("✓ Pinecone vector store initialized")

	proc := pipeline.New(
		jobRepo,
		contentRepo,
		fetcher,
		services.NewEmbeddingService(embedder),
		vectorStore,
		cfg.ChunkWords,
	)

	// Dispatch mode is resolved once here; the enqueuer never inspects the
	// environment itself.
	var dispatcher pipeline.Dispatcher
	mode := cfg.ResolveMode()
	if mode == config.ModeQueue {
		if redisClient == nil {
			log.Fatalf("✗ PROCESSING_MODE=queue requires REDIS_URL")
		}
		dispatcher = pipeline.NewQueueDispatcher(redisClient)
	} else {
		dispatcher = pipeline.NewInlineDispatcher(proc)
	}
	log.Printf("✓ Processing mode: %s", mode)

	enqueuer := pipeline.NewEnqueuer(jobRepo, dispatcher)

	// Handlers
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	contentHandler := handlers.NewContentHandler(contentRepo, userContentRepo, spaceRepo, enqueuer, youtubeService)
	jobHandler := handlers.NewJobHandler(jobRepo, userContentRepo)

	r := router.New(jwtAuth, contentHandler, jobHandler, cfg.FrontendURL)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ StudyTube Backend ready on http://localhost:%s", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
