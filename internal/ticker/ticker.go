// Package ticker polls the price feed in the background and publishes
// updates for the websocket hub to broadcast.
package ticker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/user/cryptofolio/internal/pricefeed"
)

// PriceUpdate is a single broadcast price point.
type PriceUpdate struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
	Ts     int64   `json:"ts"` // Unix timestamp milliseconds
}

var symbols = []string{"BTC"}

// Ticker periodically fetches prices and pushes them to Updates.
type Ticker struct {
	prices   *pricefeed.Client
	interval time.Duration
	log      *zap.Logger

	// Updates carries price points for broadcast. Buffered so a slow
	// consumer cannot stall the poll loop.
	Updates chan PriceUpdate
}

func New(prices *pricefeed.Client, interval time.Duration, log *zap.Logger) *Ticker {
	return &Ticker{
		prices:   prices,
		interval: interval,
		log:      log,
		Updates:  make(chan PriceUpdate, 100),
	}
}

// Start runs the poll loop until ctx is cancelled.
func (t *Ticker) Start(ctx context.Context) {
	t.log.Info("starting price ticker", zap.Duration("interval", t.interval))
	go t.run(ctx)
}

func (t *Ticker) run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			close(t.Updates)
			return
		case <-ticker.C:
			t.poll(ctx)
		}
	}
}

func (t *Ticker) poll(ctx context.Context) {
	quotes, err := t.prices.Prices(ctx, symbols)
	if err != nil {
		// Broadcast gaps are fine; the next tick retries.
		t.log.Warn("price poll failed", zap.Error(err))
		return
	}

	for _, symbol := range symbols {
		update := PriceUpdate{
			Symbol: symbol,
			Price:  quotes[symbol].PriceUSD,
			Ts:     time.Now().UnixMilli(),
		}
		// Non-blocking send to avoid blocking the poll loop if full.
		select {
		case t.Updates <- update:
		default:
			t.log.Warn("price update channel full, dropping update", zap.String("symbol", symbol))
		}
	}
}
