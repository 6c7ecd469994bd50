package domain

import "time"

// Price is the cached market price for one token symbol.
type Price struct {
	Token     string    `db:"token"`
	Price     float64   `db:"price"`
	UpdatedAt time.Time `db:"updated_at"`
}

// PriceRepository defines the persistence operations for the token price
// cache kept by the price watcher.
type PriceRepository interface {
	// UpsertPrice stores the latest price for a token, replacing any
	// previous value.
	UpsertPrice(token string, price float64) error

	// GetPrice returns the cached price for one token.
	GetPrice(token string) (Price, error)

	// GetPrices returns all cached prices keyed by token symbol.
	GetPrices() (map[string]float64, error)
}
