package service

import (
	"fmt"
	"strings"

	"pdfchat/internal/domain"
)

func buildPrompt(question string, results []domain.SearchResult) string {
	var b strings.Builder
	b.WriteString("You are a helpful assistant answering questions about the user's uploaded PDF documents.\n")
	b.WriteString("Use only the context below. If the answer is not in the context, say you don't know.\n\n")
	b.WriteString("<context>\n")
	for i, r := range results {
		fmt.Fprintf(&b, "[%d] (%s)\n%s\n\n", i+1, r.Chunk.Source, r.Chunk.Text)
	}
	b.WriteString("</context>\n\n")
	fmt.Fprintf(&b, "Question: %s\nAnswer:", question)
	return b.String()
}
