package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/fxarb/internal/domain"
)

// Article es una noticia a puntuar. Score != nil si la fuente ya la trae puntuada.
type Article struct {
	Title       string
	Description string
	Source      string
	PublishedAt time.Time
	Score       *float64
}

// SentimentScorer convierte texto en un score de sentiment.
// La implementación concreta se elige en configuración, no por feature
// probing en runtime.
type SentimentScorer interface {
	// ScoreText puntúa un texto en [-1, 1].
	ScoreText(text string) float64

	// ScoreArticles agrega los scores de varios artículos con una confianza
	// basada en el acuerdo entre ellos.
	ScoreArticles(articles []Article) domain.SentimentResult
}

// NewsProvider obtiene artículos recientes para un conjunto de keywords.
type NewsProvider interface {
	FetchNews(ctx context.Context, keywords []string, since time.Time, maxResults int) ([]Article, error)
}
