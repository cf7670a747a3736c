package summarizer

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

var (
	sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]+`)
	wordPattern     = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
)

// FrequencySummarizer picks the sentences whose words occur most often in
// the document. It is used for the short status shown after an upload.
type FrequencySummarizer struct {
	stopwords map[string]struct{}
}

func NewFrequencySummarizer() *FrequencySummarizer {
	return &FrequencySummarizer{stopwords: defaultStopwords()}
}

// Summarize returns up to maxSentences sentences in document order.
func (s *FrequencySummarizer) Summarize(text string, maxSentences int) (string, error) {
	if maxSentences <= 0 {
		maxSentences = 3
	}
	text = strings.Join(strings.Fields(text), " ")
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return "", nil
	}

	freq := map[string]float64{}
	var top float64
	for _, sent := range sentences {
		for _, tok := range s.words(sent) {
			freq[tok]++
			if freq[tok] > top {
				top = freq[tok]
			}
		}
	}

	type scored struct {
		idx   int
		score float64
	}
	ranked := make([]scored, len(sentences))
	for i, sent := range sentences {
		words := s.words(sent)
		var sum float64
		for _, w := range words {
			sum += freq[w] / top
		}
		if len(words) > 0 {
			sum /= math.Sqrt(float64(len(words)))
		}
		ranked[i] = scored{i, sum}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	if maxSentences > len(ranked) {
		maxSentences = len(ranked)
	}

	picked := make([]int, maxSentences)
	for i := range picked {
		picked[i] = ranked[i].idx
	}
	sort.Ints(picked)
	out := make([]string, len(picked))
	for i, idx := range picked {
		out[i] = sentences[idx]
	}
	return strings.Join(out, " "), nil
}

func splitSentences(text string) []string {
	var out []string
	end := 0
	for _, loc := range sentencePattern.FindAllStringIndex(text, -1) {
		if s := strings.TrimSpace(text[loc[0]:loc[1]]); s != "" {
			out = append(out, s)
		}
		end = loc[1]
	}
	if tail := strings.TrimSpace(text[end:]); tail != "" {
		out = append(out, tail)
	}
	return out
}

func (s *FrequencySummarizer) words(text string) []string {
	all := wordPattern.FindAllString(strings.ToLower(text), -1)
	out := all[:0]
	for _, w := range all {
		if _, stop := s.stopwords[w]; !stop {
			out = append(out, w)
		}
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	words := strings.Fields(`a an the and or but if then else for to of in on at by with as is are
		was were be been being it its this that these those from up down over under again further
		than so such into about between through during before after above below out off own same
		too very can will just don should now i you he she we they not no`)
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
