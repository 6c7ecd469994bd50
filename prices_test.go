package solstice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
)

type priceSourceFunc func(ctx context.Context, client *rpc.Client, token string) (float64, error)

func (f priceSourceFunc) CurrentPrice(ctx context.Context, client *rpc.Client, token string) (float64, error) {
	return f(ctx, client, token)
}

func TestPriceWatcher_Run(t *testing.T) {
	t.Run("should fetch, cache and notify", func(t *testing.T) {
		repo := newFakeRepo()
		session, _ := setupSession(t, "json_rpc_url: https://api.mainnet-beta.solana.com\n",
			WithRepository(repo),
		)
		if err := session.Open(context.Background()); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		notified := make(chan float64, 1)
		watcher := &PriceWatcher{
			Session:  session,
			Tokens:   []string{"SOL"},
			Interval: 5 * time.Millisecond,
			Source: priceSourceFunc(func(_ context.Context, client *rpc.Client, token string) (float64, error) {
				if client == nil {
					t.Errorf("wanted a resolved rpc client, got nil")
				}
				if token != "SOL" {
					t.Errorf("\nwanted:\n%q\ngot:\n%q", "SOL", token)
				}
				return 142.5, nil
			}),
			OnPrice: func(token string, price float64) {
				select {
				case notified <- price:
				default:
				}
			},
		}

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			watcher.Run(ctx)
			close(done)
		}()

		select {
		case price := <-notified:
			if price != 142.5 {
				t.Fatalf("\nwanted:\n%v\ngot:\n%v", 142.5, price)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("\nwanted:\na price notification\ngot:\ntimeout")
		}

		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatalf("\nwanted:\nwatcher to stop on cancel\ngot:\nstill running")
		}

		prices, err := repo.GetPrices()
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if prices["SOL"] != 142.5 {
			t.Fatalf("\nwanted:\n%v cached for SOL\ngot:\n%v", 142.5, prices["SOL"])
		}
	})

	t.Run("an unresolved endpoint should skip the cycle, not stop the watcher", func(t *testing.T) {
		session, _ := setupSession(t, "")
		if err := session.Open(context.Background()); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		fetched := false
		watcher := &PriceWatcher{
			Session:  session,
			Tokens:   []string{"SOL"},
			Interval: 5 * time.Millisecond,
			Source: priceSourceFunc(func(context.Context, *rpc.Client, string) (float64, error) {
				fetched = true
				return 0, nil
			}),
		}

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			watcher.Run(ctx)
			close(done)
		}()

		time.Sleep(30 * time.Millisecond)
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatalf("\nwanted:\nwatcher to stop on cancel\ngot:\nstill running")
		}

		if fetched {
			t.Fatalf("\nwanted:\nno fetch without a resolved endpoint\ngot:\na fetch")
		}
	})

	t.Run("a failing source should not kill the loop", func(t *testing.T) {
		repo := newFakeRepo()
		session, _ := setupSession(t, "json_rpc_url: https://api.mainnet-beta.solana.com\n",
			WithRepository(repo),
		)
		if err := session.Open(context.Background()); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		calls := make(chan struct{}, 4)
		watcher := &PriceWatcher{
			Session:  session,
			Tokens:   []string{"SOL"},
			Interval: 5 * time.Millisecond,
			Source: priceSourceFunc(func(context.Context, *rpc.Client, string) (float64, error) {
				select {
				case calls <- struct{}{}:
				default:
				}
				return 0, errors.New("oracle account not found")
			}),
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go watcher.Run(ctx)

		for range 2 {
			select {
			case <-calls:
			case <-time.After(2 * time.Second):
				t.Fatalf("\nwanted:\nthe watcher to keep polling after an error\ngot:\ntimeout")
			}
		}
	})
}
