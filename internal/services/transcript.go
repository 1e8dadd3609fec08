package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"studytube-backend/internal/models"
)

// TranscriptSource maps a video ID to ordered caption segments.
type TranscriptSource interface {
	FetchSegments(ctx context.Context, videoID string) ([]models.TranscriptSegment, error)
}

// captionLibrarySource adapts YouTubeService's caption-track extraction.
type captionLibrarySource struct {
	yt *YouTubeService
}

func (s *captionLibrarySource) FetchSegments(ctx context.Context, videoID string) ([]models.TranscriptSegment, error) {
	return s.yt.GetCaptionSegments(ctx, videoID)
}

// RemoteTranscriptSource calls an external transcript service over HTTP.
type RemoteTranscriptSource struct {
	baseURL    string
	httpClient *http.Client
}

func NewRemoteTranscriptSource(baseURL string) *RemoteTranscriptSource {
	return &RemoteTranscriptSource{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *RemoteTranscriptSource) FetchSegments(ctx context.Context, videoID string) ([]models.TranscriptSegment, error) {
	if s.baseURL == "" {
		return nil, fmt.Errorf("transcript service URL is not configured")
	}

	url := fmt.Sprintf("%s/transcripts/%s", s.baseURL, videoID)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build transcript request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcript service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transcript service returned status %d", resp.StatusCode)
	}

	var payload struct {
		Segments []models.TranscriptSegment `json:"segments"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode transcript response: %w", err)
	}

	if len(payload.Segments) == 0 {
		return nil, fmt.Errorf("transcript service returned no segments")
	}
	return payload.Segments, nil
}

// TranscriptFetcher tries the caption library first and a remote service on
// failure. Both failing is a valid "no transcript" outcome, not an error;
// missing or non-English captions land here rather than crashing the caller.
type TranscriptFetcher struct {
	primary  TranscriptSource
	fallback TranscriptSource
}

func NewTranscriptFetcher(yt *YouTubeService, fallback TranscriptSource) *TranscriptFetcher {
	return &TranscriptFetcher{
		primary:  &captionLibrarySource{yt: yt},
		fallback: fallback,
	}
}

// NewTranscriptFetcherFromSources wires explicit sources, used by tests.
func NewTranscriptFetcherFromSources(primary, fallback TranscriptSource) *TranscriptFetcher {
	return &TranscriptFetcher{primary: primary, fallback: fallback}
}

func (f *TranscriptFetcher) FetchTranscript(ctx context.Context, videoID string) []models.TranscriptSegment {
	segments, err := f.primary.FetchSegments(ctx, videoID)
	if err == nil && len(segments) > 0 {
		return segments
	}
	if err != nil {
		log.Printf("Primary transcript source failed for %s: %v", videoID, err)
	}

	if f.fallback == nil {
		return nil
	}

	segments, err = f.fallback.FetchSegments(ctx, videoID)
	if err != nil {
		log.Printf("Fallback transcript source failed for %s: %v", videoID, err)
		return nil
	}
	return segments
}
