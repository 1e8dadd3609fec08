package models

import (
	"time"

	"github.com/google/uuid"
)

const ContentTypeYoutube = "youtube"

type Content struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"` // "youtube"
	CreatedAt time.Time `json:"created_at"`
}

// YoutubeContent is the type-specific payload owned 1:1 by a Content row.
// YoutubeID is unique and is the dedup key across users.
type YoutubeContent struct {
	ContentID    uuid.UUID         `json:"content_id"`
	YoutubeID    string            `json:"youtube_id"`
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	ThumbnailURL string            `json:"thumbnail_url"`
	SourceURL    string            `json:"source_url"`
	Transcript   []TranscriptChunk `json:"transcript"` // empty until processing completes
}

// TranscriptSegment is one raw caption line as returned by a transcript source.
type TranscriptSegment struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`    // seconds
	Duration float64 `json:"duration"` // seconds
}

// TranscriptChunk is a word-bounded contiguous slice of segments, the unit of
// embedding and the shape persisted on youtube_content.transcript.
type TranscriptChunk struct {
	Text      string  `json:"text"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

type Space struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type UserContent struct {
	UserID    uuid.UUID `json:"user_id"`
	ContentID uuid.UUID `json:"content_id"`
	CreatedAt time.Time `json:"created_at"`
}

type SpaceContent struct {
	SpaceID   uuid.UUID `json:"space_id"`
	ContentID uuid.UUID `json:"content_id"`
	CreatedAt time.Time `json:"created_at"`
}

type SubmitContentRequest struct {
	YoutubeURL string     `json:"youtube_url"`
	SpaceID    *uuid.UUID `json:"space_id,omitempty"`
}

type SubmitContentResponse struct {
	SpaceID      uuid.UUID  `json:"space_id"`
	ContentID    uuid.UUID  `json:"content_id"`
	YoutubeID    string     `json:"youtube_id"`
	Title        string     `json:"title"`
	ThumbnailURL string     `json:"thumbnail_url"`
	JobID        *uuid.UUID `json:"job_id"`
}
