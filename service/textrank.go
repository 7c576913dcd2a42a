package service

import (
	"context"
	"strings"

	textrank "github.com/DavidBelicza/TextRank/v2"
)

// textRankStrategy is the local extractive fallback: no credentials, no
// network, works on whatever the transcript contains.
type textRankStrategy struct {
	sentenceCount int
}

func (s *textRankStrategy) Name() string {
	return "textrank"
}

func (s *textRankStrategy) Available() bool {
	return true
}

func (s *textRankStrategy) Summarize(_ context.Context, text string) (string, error) {
	tr := textrank.NewTextRank()
	rule := textrank.NewDefaultRule()
	language := textrank.NewDefaultLanguage()
	algorithm := textrank.NewDefaultAlgorithm()

	tr.Populate(text, language, rule)
	tr.Ranking(algorithm)

	sentences := textrank.FindSentencesByRelationWeight(tr, s.sentenceCount)
	if len(sentences) == 0 {
		// Too short or untokenizable input: the text is its own summary.
		return strings.TrimSpace(text), nil
	}

	parts := make([]string, 0, len(sentences))
	for _, sentence := range sentences {
		parts = append(parts, strings.TrimSpace(sentence.Value))
	}
	return strings.Join(parts, "\n"), nil
}
