package analysis

import (
	"strings"

	"github.com/onecore/docintake/internal/core/domain"
)

var positiveWords = []string{"bueno", "excelente", "positivo", "satisfactorio", "feliz"}

var negativeWords = []string{"malo", "negativo", "problema", "queja", "insatisfecho"}

// SentimentOf compares fixed positive/negative word occurrence counts.
// Ties resolve to neutral.
func SentimentOf(text string) domain.Sentiment {
	lower := strings.ToLower(text)

	posScore := 0
	for _, w := range positiveWords {
		posScore += strings.Count(lower, w)
	}
	negScore := 0
	for _, w := range negativeWords {
		negScore += strings.Count(lower, w)
	}

	switch {
	case posScore > negScore:
		return domain.SentimentPositive
	case negScore > posScore:
		return domain.SentimentNegative
	default:
		return domain.SentimentNeutral
	}
}

// Summarize joins the first maxSentences period-delimited non-empty
// fragments. '.' is the only sentence delimiter; abbreviations are not
// special-cased.
func Summarize(text string, maxSentences int) string {
	var sentences []string
	for _, s := range strings.Split(text, ".") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		sentences = append(sentences, s)
		if len(sentences) == maxSentences {
			break
		}
	}
	return strings.Join(sentences, ". ")
}

// describe flattens newlines and truncates to maxChars characters.
func describe(text string, maxChars int) string {
	runes := []rune(text)
	if len(runes) > maxChars {
		runes = runes[:maxChars]
	}
	return strings.ReplaceAll(string(runes), "\n", " ")
}
