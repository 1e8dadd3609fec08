package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"studytube-backend/internal/middleware"
	"studytube-backend/internal/models"
)

type fakeContentStore struct {
	byYoutubeID map[string]*models.YoutubeContent
	byContentID map[uuid.UUID]*models.YoutubeContent
	created     int
}

func newFakeContentStore() *fakeContentStore {
	return &fakeContentStore{
		byYoutubeID: make(map[string]*models.YoutubeContent),
		byContentID: make(map[uuid.UUID]*models.YoutubeContent),
	}
}

func (s *fakeContentStore) CreateYoutubeContent(ctx context.Context, yc *models.YoutubeContent) error {
	yc.ContentID = uuid.New()
	s.byYoutubeID[yc.YoutubeID] = yc
	s.byContentID[yc.ContentID] = yc
	s.created++
	return nil
}

func (s *fakeContentStore) GetByYoutubeID(ctx context.Context, youtubeID string) (*models.YoutubeContent, error) {
	return s.byYoutubeID[youtubeID], nil
}

func (s *fakeContentStore) GetByContentID(ctx context.Context, contentID uuid.UUID) (*models.YoutubeContent, error) {
	return s.byContentID[contentID], nil
}

type fakeGrantStore struct {
	grants map[string]bool
}

func newFakeGrantStore() *fakeGrantStore {
	return &fakeGrantStore{grants: make(map[string]bool)}
}

func grantKey(userID, contentID uuid.UUID) string {
	return userID.String() + "/" + contentID.String()
}

func (s *fakeGrantStore) Grant(ctx context.Context, userID, contentID uuid.UUID) error {
	s.grants[grantKey(userID, contentID)] = true
	return nil
}

func (s *fakeGrantStore) Exists(ctx context.Context, userID, contentID uuid.UUID) (bool, error) {
	return s.grants[grantKey(userID, contentID)], nil
}

type fakeSpaceStore struct {
	defaults map[uuid.UUID]*models.Space
	contents map[uuid.UUID][]uuid.UUID
}

func newFakeSpaceStore() *fakeSpaceStore {
	return &fakeSpaceStore{
		defaults: make(map[uuid.UUID]*models.Space),
		contents: make(map[uuid.UUID][]uuid.UUID),
	}
}

func (s *fakeSpaceStore) EnsureDefault(ctx context.Context, userID uuid.UUID) (*models.Space, error) {
	if sp, ok := s.defaults[userID]; ok {
		return sp, nil
	}
	sp := &models.Space{ID: uuid.New(), UserID: userID, Name: "My Space"}
	s.defaults[userID] = sp
	return sp, nil
}

func (s *fakeSpaceStore) GetOwned(ctx context.Context, spaceID, userID uuid.UUID) (*models.Space, error) {
	sp := s.defaults[userID]
	if sp == nil || sp.ID != spaceID {
		return nil, nil
	}
	return sp, nil
}

func (s *fakeSpaceStore) AddContent(ctx context.Context, spaceID, contentID uuid.UUID) error {
	s.contents[spaceID] = append(s.contents[spaceID], contentID)
	return nil
}

type fakeEnqueuer struct {
	calls  int
	jobIDs map[uuid.UUID]uuid.UUID
	err    error
}

func newFakeEnqueuer() *fakeEnqueuer {
	return &fakeEnqueuer{jobIDs: make(map[uuid.UUID]uuid.UUID)}
}

func (e *fakeEnqueuer) Enqueue(ctx context.Context, contentID uuid.UUID, youtubeID, youtubeURL string) (uuid.UUID, error) {
	e.calls++
	if e.err != nil {
		return uuid.Nil, e.err
	}
	if id, ok := e.jobIDs[contentID]; ok {
		return id, nil
	}
	id := uuid.New()
	e.jobIDs[contentID] = id
	return id, nil
}

type fakeMetadata struct{}

func (fakeMetadata) GetVideoMetadata(ctx context.Context, videoID string) (string, string, string) {
	return "Test Video", "Test Channel", "https://img.youtube.com/vi/" + videoID + "/maxresdefault.jpg"
}

type contentFixture struct {
	content  *fakeContentStore
	grants   *fakeGrantStore
	spaces   *fakeSpaceStore
	enqueuer *fakeEnqueuer
	router   chi.Router
}

func newContentFixture() *contentFixture {
	f := &contentFixture{
		content:  newFakeContentStore(),
		grants:   newFakeGrantStore(),
		spaces:   newFakeSpaceStore(),
		enqueuer: newFakeEnqueuer(),
	}
	handler := NewContentHandler(f.content, f.grants, f.spaces, f.enqueuer, fakeMetadata{})

	r := chi.NewRouter()
	r.Post("/content", handler.Submit)
	r.Get("/content/{id}", handler.GetContent)
	r.Post("/content/{id}/reprocess", handler.Reprocess)
	f.router = r
	return f
}

func (f *contentFixture) do(t *testing.T, userID uuid.UUID, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reqBody bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&reqBody).Encode(body); err != nil {
			t.Fatalf("Failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &reqBody)
	req = req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, userID))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

const testWatchURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

func TestSubmitNewVideo(t *testing.T) {
	f := newContentFixture()
	userID := uuid.New()

	rec := f.do(t, userID, "POST", "/content", models.SubmitContentRequest{YoutubeURL: testWatchURL})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp models.SubmitContentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.YoutubeID != "dQw4w9WgXcQ" {
		t.Errorf("Expected youtube_id dQw4w9WgXcQ, got %s", resp.YoutubeID)
	}
	if resp.Title != "Test Video" {
		t.Errorf("Expected resolved title, got %q", resp.Title)
	}
	if resp.JobID == nil {
		t.Error("Expected a job_id for content with no transcript")
	}
	if f.content.created != 1 {
		t.Errorf("Expected 1 content row created, got %d", f.content.created)
	}
	if granted, _ := f.grants.Exists(context.Background(), userID, resp.ContentID); !granted {
		t.Error("Expected submitter to be granted access")
	}
	if len(f.spaces.contents[resp.SpaceID]) != 1 {
		t.Errorf("Expected content linked to space, got %d links", len(f.spaces.contents[resp.SpaceID]))
	}
}

func TestSubmitSameVideoTwiceSameUser(t *testing.T) {
	f := newContentFixture()
	userID := uuid.New()

	first := f.do(t, userID, "POST", "/content", models.SubmitContentRequest{YoutubeURL: testWatchURL})
	second := f.do(t, userID, "POST", "/content", models.SubmitContentRequest{YoutubeURL: testWatchURL})
	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Fatalf("Expected both submissions to succeed, got %d and %d", first.Code, second.Code)
	}

	var r1, r2 models.SubmitContentResponse
	json.Unmarshal(first.Body.Bytes(), &r1)
	json.Unmarshal(second.Body.Bytes(), &r2)

	if r1.ContentID != r2.ContentID {
		t.Errorf("Expected same content ID on resubmission, got %s and %s", r1.ContentID, r2.ContentID)
	}
	if f.content.created != 1 {
		t.Errorf("Expected 1 content row, got %d", f.content.created)
	}
	if r1.JobID == nil || r2.JobID == nil || *r1.JobID != *r2.JobID {
		t.Errorf("Expected the active job to be reused, got %v and %v", r1.JobID, r2.JobID)
	}
}

func TestSubmitSameVideoDifferentUsers(t *testing.T) {
	f := newContentFixture()
	alice := uuid.New()
	bob := uuid.New()

	first := f.do(t, alice, "POST", "/content", models.SubmitContentRequest{YoutubeURL: testWatchURL})
	second := f.do(t, bob, "POST", "/content", models.SubmitContentRequest{YoutubeURL: testWatchURL})

	var r1, r2 models.SubmitContentResponse
	json.Unmarshal(first.Body.Bytes(), &r1)
	json.Unmarshal(second.Body.Bytes(), &r2)

	if r1.ContentID != r2.ContentID {
		t.Errorf("Expected shared content row, got %s and %s", r1.ContentID, r2.ContentID)
	}
	if f.content.created != 1 {
		t.Errorf("Expected 1 content row, got %d", f.content.created)
	}
	for _, userID := range []uuid.UUID{alice, bob} {
		if granted, _ := f.grants.Exists(context.Background(), userID, r1.ContentID); !granted {
			t.Errorf("Expected user %s to be granted access", userID)
		}
	}
	if r1.SpaceID == r2.SpaceID {
		t.Error("Expected each user to get their own default space")
	}
}

func TestSubmitReusedTranscriptSkipsProcessing(t *testing.T) {
	f := newContentFixture()

	// Seed content that already has a transcript.
	seeded := &models.YoutubeContent{
		YoutubeID: "dQw4w9WgXcQ",
		Title:     "Seeded Video",
		SourceURL: testWatchURL,
		Transcript: []models.TranscriptChunk{
			{Text: "hello world", StartTime: 0, EndTime: 2},
		},
	}
	f.content.CreateYoutubeContent(context.Background(), seeded)

	rec := f.do(t, uuid.New(), "POST", "/content", models.SubmitContentRequest{YoutubeURL: testWatchURL})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var resp models.SubmitContentResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)

	if resp.JobID != nil {
		t.Errorf("Expected null job_id for reused transcript, got %v", resp.JobID)
	}
	if resp.Title != "Seeded Video" {
		t.Errorf("Expected seeded title to be kept, got %q", resp.Title)
	}
	if f.enqueuer.calls != 0 {
		t.Errorf("Expected no enqueue for reused transcript, got %d calls", f.enqueuer.calls)
	}
}

func TestSubmitInvalidURL(t *testing.T) {
	f := newContentFixture()

	rec := f.do(t, uuid.New(), "POST", "/content", models.SubmitContentRequest{YoutubeURL: "https://example.com/video/abc"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rec.Code)
	}

	var resp models.ErrorResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("Expected code VALIDATION_ERROR, got %s", resp.Error.Code)
	}
}

func TestSubmitUnknownSpace(t *testing.T) {
	f := newContentFixture()
	spaceID := uuid.New()

	rec := f.do(t, uuid.New(), "POST", "/content", models.SubmitContentRequest{YoutubeURL: testWatchURL, SpaceID: &spaceID})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404 for unowned space, got %d", rec.Code)
	}
	if f.content.created != 0 {
		t.Errorf("Expected no content created, got %d", f.content.created)
	}
}

func TestSubmitProcessingFailure(t *testing.T) {
	f := newContentFixture()
	f.enqueuer.err = fmt.Errorf("Transcript not found")

	rec := f.do(t, uuid.New(), "POST", "/content", models.SubmitContentRequest{YoutubeURL: testWatchURL})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status 500, got %d", rec.Code)
	}

	var resp models.ErrorResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Error.Code != "PROCESSING_FAILED" {
		t.Errorf("Expected code PROCESSING_FAILED, got %s", resp.Error.Code)
	}
}

func TestGetContentRequiresGrant(t *testing.T) {
	f := newContentFixture()
	owner := uuid.New()

	rec := f.do(t, owner, "POST", "/content", models.SubmitContentRequest{YoutubeURL: testWatchURL})
	var created models.SubmitContentResponse
	json.Unmarshal(rec.Body.Bytes(), &created)

	got := f.do(t, owner, "GET", "/content/"+created.ContentID.String(), nil)
	if got.Code != http.StatusOK {
		t.Errorf("Expected owner to read content, got %d", got.Code)
	}

	stranger := f.do(t, uuid.New(), "GET", "/content/"+created.ContentID.String(), nil)
	if stranger.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for ungranted user, got %d", stranger.Code)
	}
}

func TestReprocess(t *testing.T) {
	f := newContentFixture()
	userID := uuid.New()

	rec := f.do(t, userID, "POST", "/content", models.SubmitContentRequest{YoutubeURL: testWatchURL})
	var created models.SubmitContentResponse
	json.Unmarshal(rec.Body.Bytes(), &created)

	resp := f.do(t, userID, "POST", "/content/"+created.ContentID.String()+"/reprocess", nil)
	if resp.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d: %s", resp.Code, resp.Body.String())
	}

	var body map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body["job_id"] == "" {
		t.Error("Expected job_id in reprocess response")
	}
}

func TestReprocessAlreadyProcessed(t *testing.T) {
	f := newContentFixture()
	userID := uuid.New()

	seeded := &models.YoutubeContent{
		YoutubeID:  "dQw4w9WgXcQ",
		SourceURL:  testWatchURL,
		Transcript: []models.TranscriptChunk{{Text: "done", StartTime: 0, EndTime: 1}},
	}
	f.content.CreateYoutubeContent(context.Background(), seeded)
	f.grants.Grant(context.Background(), userID, seeded.ContentID)

	rec := f.do(t, userID, "POST", "/content/"+seeded.ContentID.String()+"/reprocess", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("Expected status 409, got %d", rec.Code)
	}

	var resp models.ErrorResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Error.Code != "ALREADY_PROCESSED" {
		t.Errorf("Expected code ALREADY_PROCESSED, got %s", resp.Error.Code)
	}
	if f.enqueuer.calls != 0 {
		t.Errorf("Expected no enqueue, got %d calls", f.enqueuer.calls)
	}
}
