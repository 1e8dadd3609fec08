package services

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	urlpkg "net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	yt "github.com/kkdai/youtube/v2"

	"studytube-backend/internal/models"
)

// YouTubeService resolves video metadata and extracts time-aligned captions
// through the youtube library's caption tracks.
type YouTubeService struct {
	httpClient *http.Client
	ytClient   *yt.Client
}

type timedTextXML struct {
	XMLName xml.Name  `xml:"transcript"`
	Texts   []textXML `xml:"text"`
}

type textXML struct {
	Start string `xml:"start,attr"`
	Dur   string `xml:"dur,attr"`
	Text  string `xml:",chardata"`
}

func NewYouTubeService() *YouTubeService {
	return &YouTubeService{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		ytClient:   &yt.Client{},
	}
}

// GetCaptionSegments fetches the caption track for a video and parses it into
// ordered segments with start/duration offsets. Prefers English tracks.
func (s *YouTubeService) GetCaptionSegments(ctx context.Context, videoID string) ([]models.TranscriptSegment, error) {
	video, err := s.ytClient.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch video metadata: %w", err)
	}

	if len(video.CaptionTracks) == 0 {
		return nil, fmt.Errorf("no caption tracks available for video %s", videoID)
	}

	track := video.CaptionTracks[0]
	for _, t := range video.CaptionTracks {
		if strings.HasPrefix(t.LanguageCode, "en") {
			track = t
			break
		}
	}

	req, err := http.NewRequestWithContext(ctx, "GET", track.BaseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build caption request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch captions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("caption fetch returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read captions: %w", err)
	}

	segments, err := ParseCaptionsXML(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse captions XML: %w", err)
	}
	return segments, nil
}

// ParseCaptionsXML decodes a timedtext document into transcript segments.
func ParseCaptionsXML(data []byte) ([]models.TranscriptSegment, error) {
	var tt timedTextXML
	if err := xml.Unmarshal(data, &tt); err != nil {
		return nil, err
	}

	var segments []models.TranscriptSegment
	for _, t := range tt.Texts {
		text := strings.TrimSpace(html.UnescapeString(t.Text))
		if text == "" {
			continue
		}

		start, _ := strconv.ParseFloat(t.Start, 64)
		dur, _ := strconv.ParseFloat(t.Dur, 64)
		segments = append(segments, models.TranscriptSegment{
			Text:     text,
			Start:    start,
			Duration: dur,
		})
	}

	if len(segments) == 0 {
		return nil, fmt.Errorf("captions XML empty")
	}
	return segments, nil
}

// GetVideoMetadata resolves title/channel/thumbnail via the oEmbed endpoint,
// with static fallbacks when the call fails.
func (s *YouTubeService) GetVideoMetadata(ctx context.Context, videoID string) (title, channel, thumbnail string) {
	title = "YouTube Video"
	channel = "YouTube Channel"
	thumbnail = "https://img.youtube.com/vi/" + videoID + "/maxresdefault.jpg"

	oembedURL := "https://www.youtube.com/oembed?url=https://www.youtube.com/watch?v=" + videoID + "&format=json"
	req, err := http.NewRequestWithContext(ctx, "GET", oembedURL, nil)
	if err != nil {
		return
	}

	resp, err := s.httpClient.Do(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		if resp != nil {
			resp.Body.Close()
		}
		return
	}
	defer resp.Body.Close()

	var oembed struct {
		Title        string `json:"title"`
		AuthorName   string `json:"author_name"`
		ThumbnailURL string `json:"thumbnail_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&oembed); err != nil {
		return
	}

	if oembed.Title != "" {
		title = oembed.Title
	}
	if oembed.AuthorName != "" {
		channel = oembed.AuthorName
	}
	if oembed.ThumbnailURL != "" {
		thumbnail = oembed.ThumbnailURL
	}
	return
}

// ExtractVideoID pulls the 11-character video ID out of the URL forms users
// paste: watch?v=, /embed/, /shorts/, /v/ and youtu.be short links.
func ExtractVideoID(url string) string {
	parsed, err := urlpkg.Parse(url)
	if err == nil {
		host := strings.ToLower(parsed.Host)
		path := strings.Trim(parsed.Path, "/")

		if strings.Contains(host, "youtube.com") {
			if v := parsed.Query().Get("v"); len(v) == 11 {
				return v
			}

			parts := strings.Split(path, "/")
			if len(parts) >= 2 {
				switch parts[0] {
				case "shorts", "embed", "v":
					if len(parts[1]) == 11 {
						return parts[1]
					}
				}
			}
		}

		if strings.Contains(host, "youtu.be") {
			if len(path) >= 11 {
				candidate := strings.Split(path, "/")[0]
				if len(candidate) == 11 {
					return candidate
				}
			}
		}
	}

	// Fallback regex for unusual URL forms
	re := regexp.MustCompile(`(?:v=|\/v\/|youtu\.be\/|embed\/|shorts\/)([a-zA-Z0-9_-]{11})`)
	if m := re.FindStringSubmatch(url); len(m) > 1 {
		return m[1]
	}

	return ""
}
