package services

import (
	"context"
	"fmt"
	"log"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"studytube-backend/internal/models"
)

// Embedder maps text to a fixed-dimension vector.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

type GeminiEmbedder struct {
	client *genai.Client
	model  *genai.EmbeddingModel
}

func NewGeminiEmbedder(ctx context.Context, apiKey, modelName string) (*GeminiEmbedder, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiEmbedder{
		client: client,
		model:  client.EmbeddingModel(modelName),
	}, nil
}

func (e *GeminiEmbedder) Close() {
	e.client.Close()
}

func (e *GeminiEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, err
	}
	if resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("embedding model returned empty vector")
	}
	return resp.Embedding.Values, nil
}

// EmbeddingReport accumulates per-chunk outcomes so callers and tests can
// observe degraded coverage instead of silently losing it.
type EmbeddingReport struct {
	Succeeded int
	Failed    int
	Errors    []string
}

type EmbeddingService struct {
	embedder Embedder
}

func NewEmbeddingService(embedder Embedder) *EmbeddingService {
	return &EmbeddingService{embedder: embedder}
}

// EmbedChunks calls the embedding model once per chunk and pairs each vector
// with the synthetic ID "{videoID}-chunk-{index}". A failed chunk is dropped
// from the output and recorded in the report; it never aborts the batch.
func (s *EmbeddingService) EmbedChunks(ctx context.Context, videoID string, chunks []models.TranscriptChunk) ([]Vector, EmbeddingReport) {
	vectors := make([]Vector, 0, len(chunks))
	report := EmbeddingReport{}

	for i, chunk := range chunks {
		values, err := s.embedder.EmbedText(ctx, chunk.Text)
		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("chunk %d: %v", i, err))
			log.Printf("Embedding failed for %s chunk %d: %v", videoID, i, err)
			continue
		}

		vectors = append(vectors, Vector{
			ID:     fmt.Sprintf("%s-chunk-%d", videoID, i),
			Values: values,
			Metadata: map[string]interface{}{
				"video_id":   videoID,
				"text":       chunk.Text,
				"start_time": chunk.StartTime,
				"end_time":   chunk.EndTime,
			},
		})
		report.Succeeded++
	}

	return vectors, report
}
