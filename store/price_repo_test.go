package store

import (
	"testing"
)

func TestPriceRepo_UpsertPrice(t *testing.T) {
	t.Run("should insert a new price", func(t *testing.T) {
		repo, teardown := setupTestStore(t)
		defer teardown()

		if err := repo.UpsertPrice("SOL", 142.5); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		got, err := repo.GetPrice("SOL")
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if got.Price != 142.5 {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", 142.5, got.Price)
		}
		if got.Token != "SOL" {
			t.Fatalf("\nwanted:\n%q\ngot:\n%q", "SOL", got.Token)
		}
	})

	t.Run("should replace an existing price", func(t *testing.T) {
		repo, teardown := setupTestStore(t)
		defer teardown()

		if err := repo.UpsertPrice("SOL", 142.5); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if err := repo.UpsertPrice("SOL", 151.25); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		got, err := repo.GetPrice("SOL")
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if got.Price != 151.25 {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", 151.25, got.Price)
		}

		var count int
		if err := repo.dbConn.Get(&count, "SELECT COUNT(*) FROM price WHERE token = ?", "SOL"); err != nil {
			t.Fatalf("counting price rows: %v", err)
		}
		if count != 1 {
			t.Fatalf("\nwanted:\n1 row\ngot:\n%d", count)
		}
	})
}

func TestPriceRepo_GetPrice(t *testing.T) {
	t.Run("should fail for a token that was never cached", func(t *testing.T) {
		repo, teardown := setupTestStore(t)
		defer teardown()

		if _, err := repo.GetPrice("wSOL"); err == nil {
			t.Fatalf("\nwanted:\nan error\ngot:\nnil")
		}
	})
}

func TestPriceRepo_GetPrices(t *testing.T) {
	t.Run("should return an empty map on a fresh store", func(t *testing.T) {
		repo, teardown := setupTestStore(t)
		defer teardown()

		got, err := repo.GetPrices()
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if len(got) != 0 {
			t.Fatalf("\nwanted:\n0\ngot:\n%d", len(got))
		}
	})

	t.Run("should return all cached prices", func(t *testing.T) {
		repo, teardown := setupTestStore(t)
		defer teardown()

		if err := repo.UpsertPrice("SOL", 142.5); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if err := repo.UpsertPrice("mSOL", 160.1); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		got, err := repo.GetPrices()
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if len(got) != 2 {
			t.Fatalf("\nwanted:\n2\ngot:\n%d", len(got))
		}
		if got["SOL"] != 142.5 || got["mSOL"] != 160.1 {
			t.Fatalf("\nwanted:\nSOL=142.5 mSOL=160.1\ngot:\n%v", got)
		}
	})
}
