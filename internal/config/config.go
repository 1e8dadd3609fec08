package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Processing modes. Inline runs the pipeline synchronously inside the
// submission request; queue pushes a message for a separate worker process.
const (
	ModeInline = "inline"
	ModeQueue  = "queue"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL string

	// Redis (optional; absence selects inline mode)
	RedisURL string

	// Explicit processing mode override ("inline" | "queue"); empty = auto
	ProcessingMode string

	// JWT
	JWTSecret string

	// Gemini embeddings
	GeminiAPIKey       string
	GeminiEmbedModel   string
	EmbeddingDimension int

	// Pinecone
	PineconeAPIKey    string
	PineconeIndexHost string
	PineconeNamespace string

	// Transcript fallback service
	TranscriptServiceURL string

	// Chunking
	ChunkWords int

	// Worker
	WorkerCount int

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:                 getEnvOrDefault("PORT", "8080"),
		Env:                  getEnvOrDefault("ENV", "development"),
		DatabaseURL:          mustGetEnv("DATABASE_URL"),
		RedisURL:             getEnvOrDefault("REDIS_URL", ""),
		ProcessingMode:       getEnvOrDefault("PROCESSING_MODE", ""),
		JWTSecret:            mustGetEnv("JWT_SECRET"),
		GeminiAPIKey:         mustGetEnv("GEMINI_API_KEY"),
		GeminiEmbedModel:     getEnvOrDefault("GEMINI_EMBED_MODEL", "text-embedding-004"),
		EmbeddingDimension:   getEnvAsIntOrDefault("EMBEDDING_DIMENSION", 768),
		PineconeAPIKey:       getEnvOrDefault("PINECONE_API_KEY", ""),
		PineconeIndexHost:    getEnvOrDefault("PINECONE_INDEX_HOST", ""),
		PineconeNamespace:    getEnvOrDefault("PINECONE_NAMESPACE", "youtube-content"),
		TranscriptServiceURL: getEnvOrDefault("TRANSCRIPT_SERVICE_URL", ""),
		ChunkWords:           getEnvAsIntOrDefault("CHUNK_WORDS", 300),
		WorkerCount:          getEnvAsIntOrDefault("WORKER_COUNT", 5),
		FrontendURL:          getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	return cfg
}

// ResolveMode picks the processing mode once at startup: an explicit override
// wins, otherwise queue mode iff a Redis connection is configured.
func (c *Config) ResolveMode() string {
	switch c.ProcessingMode {
	case ModeInline, ModeQueue:
		return c.ProcessingMode
	}
	if c.RedisURL != "" {
		return ModeQueue
	}
	return ModeInline
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}
