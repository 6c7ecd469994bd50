package store

import (
	"embed"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Repository is the receiver for the activity-log and price-cache methods
// implementing the repository interfaces defined in the domain package.
type Repository struct {
	dbConn *sqlx.DB // dbConn is the active store connection.
}

// NewRepo initializes a new Repository with the given sqlx.DB connection.
func NewRepo(db *sqlx.DB) *Repository {
	return &Repository{
		dbConn: db,
	}
}

// Close terminates the database connection.
func (repo *Repository) Close() error {
	err := repo.dbConn.Close()
	if err != nil {
		return fmt.Errorf("closing store : %w", err)
	}
	return nil
}

// New opens the local store's SQLite file and applies all pending
// migrations, returning a ready-to-use connection or an error if the
// connection or migrations fail.
//
// The `name` parameter should be the file path for the SQLite database.
func New(name string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite", name)
	if err != nil {
		return nil, fmt.Errorf("connecting to store : %w", err)
	}

	// The session is the store's only client, so a single connection is
	// enough and keeps SQLite write contention out of the picture.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA busy_timeout = 5000;",
		"PRAGMA foreign_keys = ON;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %q: %w", pragma, err)
		}
	}

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(string(goose.DialectSQLite3)); err != nil {
		return nil, fmt.Errorf("setting dialect for migrations : %w", err)
	}

	if err := goose.Up(db.DB, "migrations"); err != nil {
		return nil, fmt.Errorf("applying migration : %w", err)
	}
	return db, nil
}
