package sentiment

import (
	"strings"

	"github.com/alejandrodnm/fxarb/internal/domain"
	"github.com/alejandrodnm/fxarb/internal/ports"
)

// Vocabulario financiero mínimo. Suficiente para titulares macro; el matiz
// fino es trabajo del backend prescored.
var (
	positiveKeywords = []string{
		"surge", "jump", "rise", "gain", "increase", "growth", "expansion",
		"boom", "rally", "soar", "climb", "advance", "bullish", "optimistic",
		"beat expectations", "exceed", "strong", "robust", "positive",
	}

	negativeKeywords = []string{
		"fall", "drop", "decline", "decrease", "plunge", "crash", "slump",
		"weak", "recession", "downturn", "bearish", "pessimistic", "concern",
		"miss expectations", "disappoint", "worse", "negative", "poor",
	}
)

// KeywordScorer puntúa texto contando keywords financieras positivas y
// negativas. Rápido, sin dependencias y determinista.
type KeywordScorer struct{}

var _ ports.SentimentScorer = KeywordScorer{}

// NewKeywordScorer crea un KeywordScorer.
func NewKeywordScorer() KeywordScorer {
	return KeywordScorer{}
}

// ScoreText devuelve (positivas − negativas) / total, en [-1, 1].
// Texto sin keywords puntúa 0 (neutro).
func (KeywordScorer) ScoreText(text string) float64 {
	lower := strings.ToLower(text)

	var pos, neg int
	for _, kw := range positiveKeywords {
		if strings.Contains(lower, kw) {
			pos++
		}
	}
	for _, kw := range negativeKeywords {
		if strings.Contains(lower, kw) {
			neg++
		}
	}

	total := pos + neg
	if total == 0 {
		return 0
	}
	return float64(pos-neg) / float64(total)
}

// ScoreArticles agrega los scores de varios artículos.
func (k KeywordScorer) ScoreArticles(articles []ports.Article) domain.SentimentResult {
	return aggregate(articles, k.ScoreText)
}
