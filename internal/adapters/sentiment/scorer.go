// Package sentiment convierte noticias en un score de confianza para el
// boost de probabilidad. El backend se elige en configuración; los modelos
// ML (FinBERT y similares) quedan fuera como colaborador externo y entran
// por el backend prescored.
package sentiment

import (
	"fmt"
	"math"

	"github.com/alejandrodnm/fxarb/internal/domain"
	"github.com/alejandrodnm/fxarb/internal/ports"
)

// New devuelve el scorer configurado. Métodos válidos: "keywords", "prescored".
func New(method string) (ports.SentimentScorer, error) {
	switch method {
	case "keywords":
		return NewKeywordScorer(), nil
	case "prescored":
		return PrescoredScorer{}, nil
	default:
		return nil, fmt.Errorf("sentiment.New: unknown method %q", method)
	}
}

// PrescoredScorer usa los scores que la fuente de noticias ya trae calculados
// (p.ej. Alpha Vantage). Texto sin score previo puntúa neutro.
type PrescoredScorer struct{}

func (PrescoredScorer) ScoreText(string) float64 { return 0 }

func (p PrescoredScorer) ScoreArticles(articles []ports.Article) domain.SentimentResult {
	return aggregate(articles, p.ScoreText)
}

// aggregate puntúa cada artículo (score precalculado si existe, texto si no)
// y agrega: media de los scores y confianza basada en el acuerdo entre
// artículos — a menor desviación típica, mayor confianza. Un solo artículo
// recibe confianza moderada (0.5).
func aggregate(articles []ports.Article, scoreText func(string) float64) domain.SentimentResult {
	var scores []float64
	for _, a := range articles {
		if a.Score != nil {
			scores = append(scores, *a.Score)
			continue
		}
		text := a.Title + " " + a.Description
		if len(text) <= 1 {
			continue
		}
		scores = append(scores, scoreText(text))
	}

	if len(scores) == 0 {
		return domain.SentimentResult{}
	}

	var sum float64
	for _, s := range scores {
		sum += s
	}
	avg := sum / float64(len(scores))

	confidence := 0.5
	if len(scores) > 1 {
		confidence = math.Max(0, 1-stddev(scores, avg))
	}

	return domain.SentimentResult{
		AverageSentiment: avg,
		Confidence:       confidence,
		ArticleCount:     len(scores),
	}
}

// stddev es la desviación típica muestral.
func stddev(xs []float64, mean float64) float64 {
	var sq float64
	for _, x := range xs {
		sq += (x - mean) * (x - mean)
	}
	return math.Sqrt(sq / float64(len(xs)-1))
}
