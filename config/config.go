package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del bot. Se construye una vez en el
// arranque y se pasa por valor a cada componente: no hay settings globales.
type Config struct {
	Bot       BotConfig       `yaml:"bot"`
	Feed      FeedConfig      `yaml:"feed"`
	Venue     VenueConfig     `yaml:"venue"`
	Sentiment SentimentConfig `yaml:"sentiment"`
	Storage   StorageConfig   `yaml:"storage"`
	Log       LogConfig       `yaml:"log"`
	Watchlist []WatchEntry    `yaml:"watchlist"`
}

// BotConfig controla el comportamiento de los loops del orquestador.
type BotConfig struct {
	PollingIntervalSeconds   int     `yaml:"polling_interval_seconds"`
	SentimentIntervalSeconds int     `yaml:"sentiment_interval_seconds"`
	VWAPLevels               int     `yaml:"vwap_levels"`
	RiskFreeRate             float64 `yaml:"risk_free_rate"`
	ArbThreshold             float64 `yaml:"arb_threshold"`
	MaxSentimentBoost        float64 `yaml:"max_sentiment_boost"`
	DefaultQuantity          float64 `yaml:"default_quantity"`
}

// FeedConfig contiene el endpoint del feed de market data.
type FeedConfig struct {
	WSURL string `yaml:"ws_url"`
}

// VenueConfig contiene el acceso al venue de ejecución.
type VenueConfig struct {
	Name                string `yaml:"name"`
	BaseURL             string `yaml:"base_url"`
	AccountID           string `yaml:"account_id"`
	AllowLiveExecution  bool   `yaml:"allow_live_execution"`
	QuoteTimeoutSeconds int    `yaml:"quote_timeout_seconds"`
}

// SentimentConfig controla la capa de sentiment.
// Method elige el backend en configuración — sin feature probing en runtime.
type SentimentConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Method       string `yaml:"method"` // keywords | prescored
	NewsAPIURL   string `yaml:"news_api_url"`
	NewsAPIKey   string `yaml:"news_api_key"`
	MaxResults   int    `yaml:"max_results"`
	LookbackDays int    `yaml:"lookback_days"`
}

// StorageConfig controla dónde se persiste el ledger.
type StorageConfig struct {
	DSN     string `yaml:"dsn"`      // ruta al archivo SQLite, o ":memory:"
	CSVPath string `yaml:"csv_path"` // destino del export
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// WatchEntry es un mercado monitorizado: el id en el feed y los parámetros
// del contrato equivalente en el venue de ejecución.
type WatchEntry struct {
	Description string   `yaml:"description"`
	MarketID    string   `yaml:"market_id"`
	Keywords    []string `yaml:"keywords"`
	SymbolRoot  string   `yaml:"symbol_root"`
	Strike      float64  `yaml:"strike"`
	Expiry      string   `yaml:"expiry"` // YYYY-MM-DD
	IsYes       bool     `yaml:"is_yes"`
	Quantity    float64  `yaml:"quantity"`
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// PollingInterval devuelve el intervalo del loop de señal/ejecución.
func (c *Config) PollingInterval() time.Duration {
	return time.Duration(c.Bot.PollingIntervalSeconds) * time.Second
}

// SentimentInterval devuelve el intervalo del loop de sentiment.
func (c *Config) SentimentInterval() time.Duration {
	return time.Duration(c.Bot.SentimentIntervalSeconds) * time.Second
}

// QuoteTimeout devuelve la ventana máxima de espera por una cotización.
func (c *Config) QuoteTimeout() time.Duration {
	return time.Duration(c.Venue.QuoteTimeoutSeconds) * time.Second
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("NEWS_API_KEY"); v != "" {
		cfg.Sentiment.NewsAPIKey = v
	}
	if v := os.Getenv("VENUE_ACCOUNT_ID"); v != "" {
		cfg.Venue.AccountID = v
	}
	if v := os.Getenv("ALLOW_LIVE_EXECUTION"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Venue.AllowLiveExecution = b
		}
	}
	if v := os.Getenv("RISK_FREE_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Bot.RiskFreeRate = f
		}
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Bot.PollingIntervalSeconds <= 0 {
		cfg.Bot.PollingIntervalSeconds = 60
	}
	if cfg.Bot.SentimentIntervalSeconds <= 0 {
		// El sentiment cambia mucho más despacio que el book
		cfg.Bot.SentimentIntervalSeconds = 600
	}
	if cfg.Bot.VWAPLevels <= 0 {
		cfg.Bot.VWAPLevels = 3
	}
	if cfg.Bot.RiskFreeRate <= 0 {
		cfg.Bot.RiskFreeRate = 0.045
	}
	if cfg.Bot.ArbThreshold <= 0 {
		cfg.Bot.ArbThreshold = 0.02
	}
	if cfg.Bot.MaxSentimentBoost <= 0 {
		cfg.Bot.MaxSentimentBoost = 0.20
	}
	if cfg.Bot.DefaultQuantity <= 0 {
		cfg.Bot.DefaultQuantity = 10
	}
	if cfg.Feed.WSURL == "" {
		cfg.Feed.WSURL = "wss://ws-subscriptions-clob.polymarket.com/ws"
	}
	if cfg.Venue.Name == "" {
		cfg.Venue.Name = "ForecastEx"
	}
	if cfg.Venue.BaseURL == "" {
		cfg.Venue.BaseURL = "https://localhost:5000/v1/api"
	}
	if cfg.Venue.QuoteTimeoutSeconds <= 0 {
		cfg.Venue.QuoteTimeoutSeconds = 5
	}
	if cfg.Sentiment.Method == "" {
		cfg.Sentiment.Method = "keywords"
	}
	if cfg.Sentiment.MaxResults <= 0 {
		cfg.Sentiment.MaxResults = 5
	}
	if cfg.Sentiment.LookbackDays <= 0 {
		cfg.Sentiment.LookbackDays = 3
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "data/trades.db"
	}
	if cfg.Storage.CSVPath == "" {
		cfg.Storage.CSVPath = "data/trades.csv"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
