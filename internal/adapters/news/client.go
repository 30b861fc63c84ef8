// Package news obtiene artículos recientes para las keywords de un mercado.
package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/alejandrodnm/fxarb/internal/ports"
)

const (
	defaultBaseURL = "https://newsapi.org/v2"

	// El tier gratuito permite 100 requests/día; un limiter conservador
	// evita quemarlo en un arranque con watchlist grande.
	requestsPerMin = 5
)

// Client es el HTTP client de noticias con rate limiting.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	limiter *rate.Limiter
}

var _ ports.NewsProvider = (*Client)(nil)

// NewClient crea un Client. Si baseURL está vacío usa NewsAPI.
func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		limiter: rate.NewLimiter(rate.Every(time.Minute/requestsPerMin), 2),
	}
}

type newsResponse struct {
	Status   string `json:"status"`
	Articles []struct {
		Title       string    `json:"title"`
		Description string    `json:"description"`
		PublishedAt time.Time `json:"publishedAt"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

// FetchNews devuelve hasta maxResults artículos publicados desde `since`
// que mencionan alguna de las keywords.
func (c *Client) FetchNews(ctx context.Context, keywords []string, since time.Time, maxResults int) ([]ports.Article, error) {
	if len(keywords) == 0 {
		return nil, nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("news.FetchNews: rate limiter: %w", err)
	}

	q := url.Values{}
	q.Set("q", strings.Join(keywords, " OR "))
	q.Set("from", since.UTC().Format("2006-01-02"))
	q.Set("sortBy", "publishedAt")
	q.Set("pageSize", fmt.Sprintf("%d", maxResults))
	q.Set("language", "en")
	q.Set("apiKey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/everything?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("news.FetchNews: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("news.FetchNews: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("news.FetchNews: status %d", resp.StatusCode)
	}

	var decoded newsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("news.FetchNews: decode: %w", err)
	}

	articles := make([]ports.Article, 0, len(decoded.Articles))
	for _, a := range decoded.Articles {
		articles = append(articles, ports.Article{
			Title:       a.Title,
			Description: a.Description,
			Source:      a.Source.Name,
			PublishedAt: a.PublishedAt,
		})
	}
	return articles, nil
}
