// Package bot orquesta las tres capas del sistema: señal (books → VWAP),
// sentiment (noticias → boost) y ejecución (spread → intents).
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/alejandrodnm/fxarb/config"
	"github.com/alejandrodnm/fxarb/internal/books"
	"github.com/alejandrodnm/fxarb/internal/domain"
	"github.com/alejandrodnm/fxarb/internal/execution"
	"github.com/alejandrodnm/fxarb/internal/ports"
)

const (
	reconnectWait = 2 * time.Second
	snapshotWait  = 3 * time.Second
)

// signal es el estado compartido de un mercado entre los tres loops.
type signal struct {
	probability float64
	updatedAt   time.Time
	sentiment   *domain.SentimentResult
	sentimentAt time.Time
}

// Bot ejecuta los loops periódicos contra un mapa de señales compartido.
//
// El mapa lo escriben el loop de señal y el de sentiment y lo lee el de
// ejecución, así que todo acceso va protegido por el RWMutex — nada de
// last-writer-wins sin lock.
type Bot struct {
	cfg config.Config

	store       *books.Store
	feed        ports.Feed
	evaluator   *execution.Evaluator
	coordinator *execution.Coordinator // nil = analysis-only
	ledger      ports.Ledger
	scorer      ports.SentimentScorer // nil = sentiment deshabilitado
	news        ports.NewsProvider
	notifier    ports.Notifier

	mu      sync.RWMutex
	signals map[string]signal
}

// New crea el Bot con todas las dependencias inyectadas.
// coordinator nil significa analysis-only: se evalúa pero no se ejecuta.
func New(
	cfg config.Config,
	store *books.Store,
	feed ports.Feed,
	evaluator *execution.Evaluator,
	coordinator *execution.Coordinator,
	ledger ports.Ledger,
	scorer ports.SentimentScorer,
	news ports.NewsProvider,
	notifier ports.Notifier,
) *Bot {
	return &Bot{
		cfg:         cfg,
		store:       store,
		feed:        feed,
		evaluator:   evaluator,
		coordinator: coordinator,
		ledger:      ledger,
		scorer:      scorer,
		news:        news,
		notifier:    notifier,
		signals:     make(map[string]signal),
	}
}

// Run arranca el feed y los loops periódicos, y bloquea hasta que el contexto
// se cancele. La parada es cooperativa: cada loop observa el contexto en el
// borde de su iteración y las llamadas remotas en vuelo terminan solas.
func (b *Bot) Run(ctx context.Context) error {
	slog.Info("bot starting",
		"markets", len(b.cfg.Watchlist),
		"polling_interval", b.cfg.PollingInterval(),
		"sentiment", b.scorer != nil,
		"execution", b.coordinator != nil,
	)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		b.runFeed(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		b.runLoop(ctx, "signal", b.cfg.PollingInterval(), b.signalCycle)
	}()

	if b.scorer != nil && b.news != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.runLoop(ctx, "sentiment", b.cfg.SentimentInterval(), b.sentimentCycle)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		b.runLoop(ctx, "execution", b.cfg.PollingInterval(), b.executionCycle)
	}()

	wg.Wait()
	b.shutdown()
	return nil
}

// RunOnce ejecuta un único ciclo completo: conecta el feed, espera el primer
// snapshot de cada mercado, corre señal → sentiment → ejecución y sale.
func (b *Bot) RunOnce(ctx context.Context) error {
	feedCtx, stopFeed := context.WithCancel(ctx)
	defer stopFeed()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		b.runFeed(feedCtx)
	}()

	// Margen para recibir los snapshots iniciales del book.
	b.wait(ctx, snapshotWait)

	b.signalCycle(ctx)
	if b.scorer != nil && b.news != nil {
		b.sentimentCycle(ctx)
	}
	b.executionCycle(ctx)

	stopFeed()
	wg.Wait()
	b.shutdown()
	return ctx.Err()
}

// runFeed mantiene la sesión del feed: conecta, suscribe la watchlist y
// escucha. Tras una desconexión reintenta con espera fija; el orden de
// mensajes no se conserva entre sesiones, pero el primer mensaje tras
// resuscribir es un snapshot completo que resetea el book.
func (b *Bot) runFeed(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		if err := b.feed.Connect(ctx); err != nil {
			slog.Warn("feed connect failed", "err", err)
			b.wait(ctx, reconnectWait)
			continue
		}

		subscribed := 0
		for _, entry := range b.cfg.Watchlist {
			if err := b.feed.Subscribe(ctx, entry.MarketID); err != nil {
				slog.Warn("subscribe failed", "market", entry.MarketID, "err", err)
				continue
			}
			subscribed++
		}
		slog.Info("feed subscribed", "markets", subscribed)

		if err := b.feed.Listen(ctx); err != nil && ctx.Err() == nil {
			slog.Warn("feed disconnected, reconnecting", "err", err)
		}
		if ctx.Err() != nil {
			return
		}
		b.wait(ctx, reconnectWait)
	}
}

// runLoop ejecuta cycle una vez y luego a cada tick hasta cancelación.
func (b *Bot) runLoop(ctx context.Context, name string, interval time.Duration, cycle func(ctx context.Context)) {
	slog.Info("loop started", "loop", name, "interval", interval)

	cycle(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("loop stopped", "loop", name)
			return
		case <-ticker.C:
			cycle(ctx)
		}
	}
}

// signalCycle refresca la probabilidad VWAP de cada mercado de la watchlist.
func (b *Bot) signalCycle(ctx context.Context) {
	for _, entry := range b.cfg.Watchlist {
		if ctx.Err() != nil {
			return
		}

		vwap, ok := b.store.VWAP(entry.MarketID, b.cfg.Bot.VWAPLevels)
		if !ok {
			// Sin liquidez o sin snapshot todavía: sin señal este ciclo.
			slog.Debug("no VWAP available", "market", entry.MarketID)
			continue
		}

		b.mu.Lock()
		sig := b.signals[entry.MarketID]
		sig.probability = vwap
		sig.updatedAt = time.Now().UTC()
		b.signals[entry.MarketID] = sig
		b.mu.Unlock()

		slog.Debug("signal updated", "market", entry.Description, "probability", fmt.Sprintf("%.4f", vwap))
	}
}

// sentimentCycle refresca el sentiment de cada mercado con noticias recientes.
// Los fallos por mercado se loguean y no interrumpen el resto del ciclo.
func (b *Bot) sentimentCycle(ctx context.Context) {
	since := time.Now().AddDate(0, 0, -b.cfg.Sentiment.LookbackDays)

	for _, entry := range b.cfg.Watchlist {
		if ctx.Err() != nil {
			return
		}
		if len(entry.Keywords) == 0 {
			continue
		}

		articles, err := b.news.FetchNews(ctx, entry.Keywords, since, b.cfg.Sentiment.MaxResults)
		if err != nil {
			slog.Warn("news fetch failed", "market", entry.Description, "err", err)
			continue
		}
		if len(articles) == 0 {
			continue
		}

		result := b.scorer.ScoreArticles(articles)

		b.mu.Lock()
		sig := b.signals[entry.MarketID]
		sig.sentiment = &result
		sig.sentimentAt = time.Now().UTC()
		b.signals[entry.MarketID] = sig
		b.mu.Unlock()

		slog.Info("sentiment updated",
			"market", entry.Description,
			"sentiment", fmt.Sprintf("%+.2f", result.AverageSentiment),
			"confidence", fmt.Sprintf("%.2f", result.Confidence),
			"articles", result.ArticleCount,
		)
	}
}

// executionCycle evalúa cada mercado y ejecuta los intents que superen el
// threshold. El fallo de un mercado nunca aborta la evaluación del resto.
func (b *Bot) executionCycle(ctx context.Context) {
	for _, entry := range b.cfg.Watchlist {
		if ctx.Err() != nil {
			return
		}
		if err := b.evaluateMarket(ctx, entry); err != nil {
			slog.Warn("market evaluation failed", "market", entry.Description, "err", err)
		}
	}
}

// evaluateMarket evalúa un mercado: señal → boost → spread → ejecución.
func (b *Bot) evaluateMarket(ctx context.Context, entry config.WatchEntry) error {
	b.mu.RLock()
	sig, ok := b.signals[entry.MarketID]
	b.mu.RUnlock()
	if !ok || sig.updatedAt.IsZero() {
		return nil // sin señal todavía
	}

	pBase := sig.probability
	boosted := pBase
	if sig.sentiment != nil && b.scorer != nil {
		boosted = domain.BoostProbability(
			pBase,
			sig.sentiment.AverageSentiment,
			sig.sentiment.Confidence,
			b.cfg.Bot.MaxSentimentBoost,
		)
	}
	b.notifier.NotifySignal(ctx, entry.Description, pBase, boosted)

	days, err := daysToExpiry(entry.Expiry)
	if err != nil {
		return fmt.Errorf("bot.evaluateMarket: %w", err)
	}

	quantity := entry.Quantity
	if quantity <= 0 {
		quantity = b.cfg.Bot.DefaultQuantity
	}

	right := domain.RightNo
	if entry.IsYes {
		right = domain.RightYes
	}

	intent, found, err := b.evaluator.Evaluate(ctx, execution.Request{
		Description:  entry.Description,
		SymbolRoot:   entry.SymbolRoot,
		Strike:       entry.Strike,
		Expiry:       strings.ReplaceAll(entry.Expiry, "-", ""),
		Right:        right,
		PBase:        boosted,
		DaysToExpiry: days,
		Quantity:     quantity,
	})
	if err != nil {
		return fmt.Errorf("bot.evaluateMarket: evaluate: %w", err)
	}
	if !found {
		return nil
	}

	if b.coordinator == nil {
		slog.Info("analysis-only: intent not executed", "market", entry.Description, "limit_price", intent.LimitPrice)
		return nil
	}

	id, err := b.coordinator.ExecuteIntent(ctx, intent)
	if err != nil {
		// El record ya quedó FAILED en el ledger; el proceso continúa.
		return fmt.Errorf("bot.evaluateMarket: execute intent %d: %w", id, err)
	}
	return nil
}

// shutdown exporta el ledger y muestra el PnL final.
func (b *Bot) shutdown() {
	// Contexto propio: el de Run ya está cancelado.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	b.feed.Close()

	if b.ledger == nil {
		return
	}
	if b.cfg.Storage.CSVPath != "" {
		if err := b.ledger.ExportCSV(ctx, b.cfg.Storage.CSVPath); err != nil {
			slog.Warn("final CSV export failed", "err", err)
		}
	}
	report, err := b.ledger.PnL(ctx, "")
	if err != nil {
		slog.Warn("final PnL failed", "err", err)
		return
	}
	b.notifier.NotifyPnL(ctx, report)
}

// wait duerme respetando el contexto.
func (b *Bot) wait(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// daysToExpiry calcula los días hasta una fecha YYYY-MM-DD, mínimo 0.
func daysToExpiry(expiry string) (int, error) {
	t, err := time.Parse("2006-01-02", expiry)
	if err != nil {
		return 0, fmt.Errorf("parse expiry %q: %w", expiry, err)
	}
	days := int(time.Until(t).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return days, nil
}
