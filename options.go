package solstice

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ferrhat-ae/solstice/store"
)

// WithConfigDir loads the configuration from the given directory. Load
// failures (missing file, bad YAML, missing db_path) surface from New, since
// nothing useful can happen without them resolved.
func WithConfigDir(dir string) func(*Session) error {
	return func(session *Session) error {
		cfg, err := LoadConfig(dir)
		if err != nil {
			return err
		}
		session.configDir = dir
		session.Config = cfg
		return nil
	}
}

// WithConfigStore attaches an already-loaded configuration store.
func WithConfigStore(cfg *Store) func(*Session) error {
	return func(session *Session) error {
		if cfg == nil {
			return errors.New("config store is nil")
		}
		session.Config = cfg
		session.configDir = cfg.ConfigDir()
		return nil
	}
}

// WithLogger sets the session logger. A nil logger falls back to
// slog.Default so logging calls stay safe.
func WithLogger(logger *slog.Logger) func(*Session) error {
	return func(session *Session) error {
		if logger == nil {
			logger = slog.Default()
		}
		session.Logger = logger
		return nil
	}
}

// WithDatabaseOpener sets the collaborator that opens the sys account
// database. Required before Open.
func WithDatabaseOpener(opener DatabaseOpener) func(*Session) error {
	return func(session *Session) error {
		if opener == nil {
			return errors.New("database opener is nil")
		}
		session.dbOpener = opener
		return nil
	}
}

// WithDeviceOpener sets the collaborator that connects to hardware signing
// devices. Without one, resolving a device URI fails with
// ErrDeviceUnreachable.
func WithDeviceOpener(opener DeviceOpener) func(*Session) error {
	return func(session *Session) error {
		session.deviceOpener = opener
		return nil
	}
}

// WithDeviceTimeout bounds how long signer resolution waits for a hardware
// device before reporting ErrDeviceUnreachable.
func WithDeviceTimeout(timeout time.Duration) func(*Session) error {
	return func(session *Session) error {
		if timeout <= 0 {
			return errors.New("device timeout must be positive")
		}
		session.deviceTimeout = timeout
		return nil
	}
}

// WithRepository attaches a local store for the activity log and price
// cache. The session works without one; activity recording is skipped.
func WithRepository(repo Repository) func(*Session) error {
	return func(session *Session) error {
		session.Repo = repo
		return nil
	}
}

// WithLocalStore opens (or creates) the sqlite local store at the given
// path, applies migrations, and attaches it to the session. The session
// closes it on Close.
func WithLocalStore(path string) func(*Session) error {
	return func(session *Session) error {
		conn, err := store.New(path)
		if err != nil {
			return fmt.Errorf("opening local store %s: %w", path, err)
		}
		session.Repo = store.NewRepo(conn)
		return nil
	}
}
