package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// MaxUpsertBatchSize is the provider limit on vectors per upsert request.
const MaxUpsertBatchSize = 100

type Vector struct {
	ID       string                 `json:"id"`
	Values   []float32              `json:"values"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

type VectorMatch struct {
	ID       string                 `json:"id"`
	Score    float64                `json:"score"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// VectorStore is a namespaced vector index supporting batched upsert and
// metadata-filtered top-K query.
type VectorStore interface {
	Upsert(ctx context.Context, vectors []Vector) error
	Query(ctx context.Context, vector []float32, topK int, filter map[string]interface{}) ([]VectorMatch, error)
}

// PineconeStore talks to a Pinecone index over its data-plane REST API.
// The namespace is fixed at construction; all vectors land in it.
type PineconeStore struct {
	apiKey     string
	indexHost  string
	namespace  string
	httpClient *http.Client
}

func NewPineconeStore(apiKey, indexHost, namespace string) (*PineconeStore, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("pinecone API key is required")
	}
	if indexHost == "" {
		return nil, fmt.Errorf("pinecone index host is required")
	}

	host := indexHost
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}

	return &PineconeStore{
		apiKey:     apiKey,
		indexHost:  strings.TrimRight(host, "/"),
		namespace:  namespace,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (s *PineconeStore) Upsert(ctx context.Context, vectors []Vector) error {
	if len(vectors) == 0 {
		return nil
	}
	if len(vectors) > MaxUpsertBatchSize {
		return fmt.Errorf("upsert batch of %d exceeds provider limit %d", len(vectors), MaxUpsertBatchSize)
	}

	body := map[string]interface{}{
		"vectors":   vectors,
		"namespace": s.namespace,
	}

	var resp struct {
		UpsertedCount int `json:"upsertedCount"`
	}
	return s.post(ctx, "/vectors/upsert", body, &resp)
}

func (s *PineconeStore) Query(ctx context.Context, vector []float32, topK int, filter map[string]interface{}) ([]VectorMatch, error) {
	body := map[string]interface{}{
		"vector":          vector,
		"topK":            topK,
		"namespace":       s.namespace,
		"includeMetadata": true,
	}
	if len(filter) > 0 {
		body["filter"] = filter
	}

	var resp struct {
		Matches []VectorMatch `json:"matches"`
	}
	if err := s.post(ctx, "/query", body, &resp); err != nil {
		return nil, err
	}
	return resp.Matches, nil
}

func (s *PineconeStore) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.indexHost+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Api-Key", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("pinecone request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("pinecone %s returned status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode pinecone response: %w", err)
		}
	}
	return nil
}

// UpsertReport accumulates per-batch outcomes; a failed batch never aborts
// the remaining ones.
type UpsertReport struct {
	BatchesSucceeded int
	BatchesFailed    int
	VectorsUpserted  int
	Errors           []string
}

// UpsertInBatches writes vectors in provider-sized batches, collecting
// failures instead of stopping at the first one.
func UpsertInBatches(ctx context.Context, store VectorStore, vectors []Vector) UpsertReport {
	report := UpsertReport{}

	for start := 0; start < len(vectors); start += MaxUpsertBatchSize {
		end := start + MaxUpsertBatchSize
		if end > len(vectors) {
			end = len(vectors)
		}
		batch := vectors[start:end]

		if err := store.Upsert(ctx, batch); err != nil {
			report.BatchesFailed++
			report.Errors = append(report.Errors, fmt.Sprintf("batch %d-%d: %v", start, end, err))
			log.Printf("Vector upsert batch %d-%d failed: %v", start, end, err)
			continue
		}
		report.BatchesSucceeded++
		report.VectorsUpserted += len(batch)
	}

	return report
}
