package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

// fakeVectorStore records batches and optionally fails selected ones.
type fakeVectorStore struct {
	batches     [][]Vector
	failBatches map[int]bool
}

func (f *fakeVectorStore) Upsert(ctx context.Context, vectors []Vector) error {
	idx := len(f.batches)
	f.batches = append(f.batches, vectors)
	if f.failBatches[idx] {
		return fmt.Errorf("index unreachable")
	}
	return nil
}

func (f *fakeVectorStore) Query(ctx context.Context, vector []float32, topK int, filter map[string]interface{}) ([]VectorMatch, error) {
	return nil, nil
}

func makeVectors(n int) []Vector {
	vectors := make([]Vector, n)
	for i := range vectors {
		vectors[i] = Vector{ID: fmt.Sprintf("v-%d", i), Values: []float32{1, 2}}
	}
	return vectors
}

func TestUpsertInBatches_SplitsAtProviderLimit(t *testing.T) {
	store := &fakeVectorStore{}
	report := UpsertInBatches(context.Background(), store, makeVectors(250))

	if len(store.batches) != 3 {
		t.Fatalf("Expected 3 batches for 250 vectors, got %d", len(store.batches))
	}
	if len(store.batches[0]) != 100 || len(store.batches[1]) != 100 || len(store.batches[2]) != 50 {
		t.Errorf("Unexpected batch sizes: %d, %d, %d",
			len(store.batches[0]), len(store.batches[1]), len(store.batches[2]))
	}
	if report.BatchesSucceeded != 3 || report.VectorsUpserted != 250 {
		t.Errorf("Unexpected report: %+v", report)
	}
}

func TestUpsertInBatches_FailedBatchDoesNotAbort(t *testing.T) {
	store := &fakeVectorStore{failBatches: map[int]bool{1: true}}
	report := UpsertInBatches(context.Background(), store, makeVectors(250))

	if len(store.batches) != 3 {
		t.Fatalf("Expected all 3 batches attempted, got %d", len(store.batches))
	}
	if report.BatchesSucceeded != 2 || report.BatchesFailed != 1 {
		t.Errorf("Unexpected report: %+v", report)
	}
	if report.VectorsUpserted != 150 {
		t.Errorf("Expected 150 vectors upserted, got %d", report.VectorsUpserted)
	}
	if len(report.Errors) != 1 {
		t.Errorf("Expected 1 recorded error, got %v", report.Errors)
	}
}

func TestUpsertInBatches_Empty(t *testing.T) {
	store := &fakeVectorStore{}
	report := UpsertInBatches(context.Background(), store, nil)
	if len(store.batches) != 0 || report.BatchesSucceeded != 0 {
		t.Errorf("Expected no requests for empty input, got %+v", report)
	}
}

func TestPineconeStore_Upsert(t *testing.T) {
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/vectors/upsert" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Api-Key") != "test-key" {
			t.Errorf("Missing Api-Key header")
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"upsertedCount":2}`))
	}))
	defer server.Close()

	store, err := NewPineconeStore("test-key", server.URL, "youtube-content")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	vectors := []Vector{
		{ID: "a-chunk-0", Values: []float32{1}, Metadata: map[string]interface{}{"video_id": "a"}},
		{ID: "a-chunk-1", Values: []float32{2}},
	}
	if err := store.Upsert(context.Background(), vectors); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if gotBody["namespace"] != "youtube-content" {
		t.Errorf("Expected namespace in request, got %v", gotBody["namespace"])
	}
	sent, _ := gotBody["vectors"].([]interface{})
	if len(sent) != 2 {
		t.Errorf("Expected 2 vectors in request, got %d", len(sent))
	}
}

func TestPineconeStore_UpsertRejectsOversizedBatch(t *testing.T) {
	store, err := NewPineconeStore("test-key", "http://localhost:1", "ns")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := store.Upsert(context.Background(), makeVectors(101)); err == nil {
		t.Error("Expected error for batch over provider limit")
	}
}

func TestPineconeStore_QueryFilter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)

		filter, _ := body["filter"].(map[string]interface{})
		if filter["video_id"] != "vid123" {
			t.Errorf("Expected video_id filter, got %v", body["filter"])
		}
		if body["includeMetadata"] != true {
			t.Errorf("Expected includeMetadata true")
		}

		w.Write([]byte(`{"matches":[{"id":"vid123-chunk-0","score":0.92,"metadata":{"text":"hello"}}]}`))
	}))
	defer server.Close()

	store, _ := NewPineconeStore("test-key", server.URL, "ns")
	matches, err := store.Query(context.Background(), []float32{0.5}, 5, map[string]interface{}{"video_id": "vid123"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(matches) != 1 || matches[0].ID != "vid123-chunk-0" || matches[0].Score != 0.92 {
		t.Errorf("Unexpected matches: %v", matches)
	}
}

func TestPineconeStore_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"index melted"}`))
	}))
	defer server.Close()

	store, _ := NewPineconeStore("test-key", server.URL, "ns")
	err := store.Upsert(context.Background(), makeVectors(1))
	if err == nil {
		t.Fatal("Expected error for 500 response")
	}
}
