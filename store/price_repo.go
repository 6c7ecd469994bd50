package store

import (
	"fmt"
	"time"

	"github.com/ferrhat-ae/solstice/domain"
)

var _ domain.PriceRepository = (*Repository)(nil)

// UpsertPrice implements the domain.PriceRepository interface.
// It replaces any previously cached price for the token.
func (repo *Repository) UpsertPrice(token string, price float64) error {
	query := `INSERT INTO price (token, price, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(token) DO UPDATE SET price = excluded.price, updated_at = excluded.updated_at`
	_, err := repo.dbConn.Exec(query, token, price, time.Now())

	if err != nil {
		return fmt.Errorf("upserting price for %s: %w", token, err)
	}

	return nil
}

// GetPrice implements the domain.PriceRepository interface.
func (repo *Repository) GetPrice(token string) (domain.Price, error) {
	var price domain.Price
	query := `SELECT token, price, updated_at FROM price WHERE token = ?`
	err := repo.dbConn.Get(&price, query, token)

	if err != nil {
		return domain.Price{}, fmt.Errorf("getting price for %s: %w", token, err)
	}

	return price, nil
}

// GetPrices implements the domain.PriceRepository interface.
// It returns all cached prices keyed by token symbol.
func (repo *Repository) GetPrices() (map[string]float64, error) {
	var prices []domain.Price
	query := `SELECT token, price, updated_at FROM price`
	if err := repo.dbConn.Select(&prices, query); err != nil {
		return nil, fmt.Errorf("getting prices: %w", err)
	}

	result := make(map[string]float64, len(prices))
	for _, price := range prices {
		result[price.Token] = price.Price
	}

	return result, nil
}
