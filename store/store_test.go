package store

import (
	"os"
	"testing"
)

func setupTestStore(t *testing.T) (*Repository, func()) {
	t.Helper()

	tempFile, err := os.CreateTemp(t.TempDir(), "test_*.db")
	if err != nil {
		t.Fatalf("os.CreateTemp() failed: %v", err)
	}
	tempFile.Close()

	dbConn, err := New(tempFile.Name())
	if err != nil {
		t.Fatalf("store.New() failed: %v", err)
	}

	repo := NewRepo(dbConn)

	teardown := func() {
		repo.Close()
		os.Remove(tempFile.Name())
	}

	return repo, teardown
}

func TestNew(t *testing.T) {
	t.Run("should create the schema on a fresh file", func(t *testing.T) {
		repo, teardown := setupTestStore(t)
		defer teardown()

		for _, table := range []string{"activity", "price"} {
			var count int
			err := repo.dbConn.Get(&count, "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table)
			if err != nil {
				t.Fatalf("checking for table %s: %v", table, err)
			}
			if count != 1 {
				t.Fatalf("\nwanted:\ntable %s to exist\ngot:\nmissing", table)
			}
		}
	})

	t.Run("should reopen an existing store without error", func(t *testing.T) {
		tempFile, err := os.CreateTemp(t.TempDir(), "test_*.db")
		if err != nil {
			t.Fatalf("os.CreateTemp() failed: %v", err)
		}
		tempFile.Close()

		first, err := New(tempFile.Name())
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		first.Close()

		second, err := New(tempFile.Name())
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		second.Close()
	})
}
