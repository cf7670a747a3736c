package tfidf

import (
	"context"
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"
)

var (
	errEmptyCorpus = errors.New("tfidf: empty corpus")
	errNoTokens    = errors.New("tfidf: no tokens found in corpus")
	errNotPrepared = errors.New("tfidf: embedder not prepared")

	tokenPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`)
)

// Embedder implements a TF-IDF vectorizer. It needs no model server, which
// makes it the offline choice for embedder.provider "tfidf".
type Embedder struct {
	mu    sync.RWMutex
	terms map[string]int
	idf   []float64
	stop  map[string]struct{}
}

// NewEmbedder creates an unprepared TF-IDF embedder.
func NewEmbedder() *Embedder {
	return &Embedder{stop: stopwords()}
}

func (e *Embedder) Name() string { return "tfidf" }

// CorpusDependent reports that vectors change whenever the corpus changes,
// so callers must re-fit and re-embed all chunks after each ingest.
func (e *Embedder) CorpusDependent() bool { return true }

// Prepare builds the vocabulary and smoothed IDF weights from the corpus.
func (e *Embedder) Prepare(corpus []string) error {
	if len(corpus) == 0 {
		return errEmptyCorpus
	}
	df := make(map[string]int)
	for _, text := range corpus {
		for tok := range e.uniqueTokens(text) {
			df[tok]++
		}
	}
	if len(df) == 0 {
		return errNoTokens
	}

	vocab := make([]string, 0, len(df))
	for term := range df {
		vocab = append(vocab, term)
	}
	sort.Strings(vocab)

	n := float64(len(corpus))
	terms := make(map[string]int, len(vocab))
	idf := make([]float64, len(vocab))
	for i, term := range vocab {
		terms[term] = i
		idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	e.mu.Lock()
	e.terms, e.idf = terms, idf
	e.mu.Unlock()
	return nil
}

func (e *Embedder) Dimension() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.idf)
}

// Embed returns the L2-normalized TF-IDF vector of text. Unknown terms are
// ignored, so text sharing no vocabulary yields a zero vector.
func (e *Embedder) Embed(_ context.Context, text string) ([]float64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.terms == nil {
		return nil, errNotPrepared
	}

	vec := make([]float64, len(e.idf))
	counts := make(map[int]int)
	total := 0
	for _, tok := range e.tokens(text) {
		if idx, ok := e.terms[tok]; ok {
			counts[idx]++
			total++
		}
	}
	if total == 0 {
		return vec, nil
	}
	var norm float64
	for idx, c := range counts {
		v := float64(c) / float64(total) * e.idf[idx]
		vec[idx] = v
		norm += v * v
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
	return vec, nil
}

func (e *Embedder) tokens(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, skip := e.stop[t]; !skip {
			out = append(out, t)
		}
	}
	return out
}

func (e *Embedder) uniqueTokens(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range e.tokens(text) {
		set[t] = struct{}{}
	}
	return set
}

func stopwords() map[string]struct{} {
	words := strings.Fields(`a an the and or but if then else for to of in on at by with as is are
		was were be been being it this that these those from up down over under again further than
		so such into about between through during before after above below out off own same too
		very can will just don should now what which who how do does did`)
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
