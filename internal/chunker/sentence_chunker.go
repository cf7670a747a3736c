package chunker

import (
	"fmt"
	"regexp"
	"strings"

	"pdfchat/internal/domain"
)

var sentenceRe = regexp.MustCompile(`[^.!?]+[.!?]+`)

// SentenceChunker groups consecutive sentences into windows that share
// overlapSentences sentences with the previous window.
type SentenceChunker struct {
	size    int
	overlap int
}

// NewSentenceChunker clamps overlap below size so every window advances.
func NewSentenceChunker(sentencesPerChunk, overlapSentences int) *SentenceChunker {
	if sentencesPerChunk <= 0 {
		sentencesPerChunk = 5
	}
	overlapSentences = min(max(overlapSentences, 0), sentencesPerChunk-1)
	return &SentenceChunker{size: sentencesPerChunk, overlap: overlapSentences}
}

func (c *SentenceChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	// PDF text arrives with hard line breaks inside sentences
	sentences := splitSentences(strings.Join(strings.Fields(document.Content), " "))
	if len(sentences) == 0 {
		return nil, nil
	}

	step := c.size - c.overlap
	var chunks []domain.Chunk
	for start := 0; ; start += step {
		end := min(start+c.size, len(sentences))
		idx := len(chunks)
		chunks = append(chunks, domain.Chunk{
			DocumentID: document.ID,
			ChunkID:    fmt.Sprintf("%s:%d", document.ID, idx),
			Source:     document.Name,
			Text:       strings.Join(sentences[start:end], " "),
			Index:      idx,
		})
		if end == len(sentences) {
			return chunks, nil
		}
	}
}

// splitSentences keeps trailing text that has no terminal punctuation.
func splitSentences(text string) []string {
	var out []string
	last := 0
	for _, loc := range sentenceRe.FindAllStringIndex(text, -1) {
		if s := strings.TrimSpace(text[loc[0]:loc[1]]); s != "" {
			out = append(out, s)
		}
		last = loc[1]
	}
	if tail := strings.TrimSpace(text[last:]); tail != "" {
		out = append(out, tail)
	}
	return out
}
