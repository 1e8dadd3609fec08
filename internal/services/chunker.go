package services

import (
	"strings"

	"studytube-backend/internal/models"
)

const DefaultChunkWords = 300

// ChunkTranscript groups contiguous segments into word-bounded chunks. A
// chunk closes once its accumulated word count reaches maxWords or the input
// is exhausted; segment boundaries are never split. Chunk text is the
// space-joined segment text, start is the first segment's offset and end is
// the last segment's offset plus duration. Deterministic for a given input.
func ChunkTranscript(segments []models.TranscriptSegment, maxWords int) []models.TranscriptChunk {
	if maxWords <= 0 {
		maxWords = DefaultChunkWords
	}

	chunks := []models.TranscriptChunk{}
	var (
		texts     []string
		wordCount int
		startTime float64
		endTime   float64
	)

	flush := func() {
		if len(texts) == 0 {
			return
		}
		chunks = append(chunks, models.TranscriptChunk{
			Text:      strings.Join(texts, " "),
			StartTime: startTime,
			EndTime:   endTime,
		})
		texts = nil
		wordCount = 0
	}

	for _, seg := range segments {
		if len(texts) == 0 {
			startTime = seg.Start
		}
		texts = append(texts, seg.Text)
		endTime = seg.Start + seg.Duration
		wordCount += len(strings.Fields(seg.Text))

		if wordCount >= maxWords {
			flush()
		}
	}
	flush()

	return chunks
}
