package solstice

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
)

// DefaultPriceInterval is how often the price watcher refreshes by default.
const DefaultPriceInterval = 30 * time.Second

// PriceSource derives the current market price of a token through the RPC
// client. How the price is derived (oracle account, pool state) is the
// implementation's business.
type PriceSource interface {
	CurrentPrice(ctx context.Context, client *rpc.Client, token string) (float64, error)
}

// PriceWatcher periodically refreshes token prices through the session's
// resolved endpoint, persists them to the local store when one is attached,
// and notifies the frontend through OnPrice. An unresolved endpoint or a
// failed fetch skips the affected cycle; the watcher itself only stops when
// its context is cancelled.
type PriceWatcher struct {
	Session *Session
	Source  PriceSource
	Tokens  []string

	// Interval between refreshes; zero means DefaultPriceInterval.
	Interval time.Duration

	// OnPrice is called after each successful refresh of one token.
	OnPrice func(token string, price float64)
}

// Run polls until ctx is cancelled. It refreshes once immediately, then on
// every interval tick. Run blocks; start it on its own goroutine.
func (w *PriceWatcher) Run(ctx context.Context) {
	interval := w.Interval
	if interval <= 0 {
		interval = DefaultPriceInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		w.refresh(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *PriceWatcher) refresh(ctx context.Context) {
	client, err := w.Session.RPC()
	if err != nil {
		w.Session.Logger.Debug("price refresh skipped", "error", err)
		return
	}

	for _, token := range w.Tokens {
		price, err := w.Source.CurrentPrice(ctx, client, token)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.Session.Logger.Warn("fetching price", "token", token, "error", err)
			continue
		}
		if w.Session.Repo != nil {
			if err := w.Session.Repo.UpsertPrice(token, price); err != nil {
				w.Session.Logger.Warn("caching price", "token", token, "error", err)
			}
		}
		if w.OnPrice != nil {
			w.OnPrice(token, price)
		}
	}
}
