package service

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"pdfchat/internal/domain"
)

var wordRe = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`)

// lexicalSearch ranks chunks by the Ochiai coefficient of their word sets
// against the question. It is used when vector scores carry no signal.
func lexicalSearch(chunks []domain.Chunk, question string, topK int) []domain.SearchResult {
	q := wordSet(question)
	out := make([]domain.SearchResult, 0, len(chunks))
	for _, ch := range chunks {
		if score := ochiai(q, wordSet(ch.Text)); score > 0 {
			out = append(out, domain.SearchResult{Chunk: ch, Score: score})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out
}

func wordSet(s string) map[string]struct{} {
	words := wordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// ochiai is |A∩B| / sqrt(|A||B|).
func ochiai(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	return float64(inter) / math.Sqrt(float64(len(a))*float64(len(b)))
}
