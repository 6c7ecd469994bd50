// Package solstice is the configuration and signer resolution core for a
// desktop wallet frontend. It unifies three independently-overridable
// settings — the account database location, the JSON-RPC endpoint, and the
// signing authority — validates them before any network or device I/O, and
// presents a single Session the frontend reads from without caring where
// each value originated.
//
// The core functionality includes:
//   - Layered settings: persisted config file values with session-only
//     overrides that never touch the file on disk
//   - Lazy, invalidation-driven resolution of the RPC client and the signer,
//     with independent Unresolved/Resolved/Stale tracking per resolver
//   - Uniform signing over local keypair files and hardware devices behind
//     one opaque handle
//   - An exclusive lock on the account database directory for the lifetime
//     of the session
//   - A sqlite-backed local store for the activity log and token price cache
//
// The account database, the RPC wire protocol, and the device wire protocol
// are consumed through narrow collaborator interfaces and never implemented
// here. Resolution calls may block on file or device I/O; frontends should
// dispatch them to a background worker rather than their event loop.
package solstice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/google/uuid"

	"github.com/ferrhat-ae/solstice/domain"
)

// State is the lifecycle position of a Session.
type State int

const (
	// StateUninitialized means Open has not succeeded yet.
	StateUninitialized State = iota
	// StateDatabaseOpen means the account database is open but the session
	// is not yet serving resolutions. Transient: Open moves straight on to
	// StateReady.
	StateDatabaseOpen
	// StateReady means endpoint and signer resolution may proceed.
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateDatabaseOpen:
		return "database open"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// ResolveState tracks one resolver's cached handle independently of the
// other: Unresolved (nothing cached), Resolved (handle cached and current),
// Stale (the backing setting changed since the handle was built).
type ResolveState int

const (
	ResolveUnresolved ResolveState = iota
	ResolveResolved
	ResolveStale
)

func (s ResolveState) String() string {
	switch s {
	case ResolveUnresolved:
		return "unresolved"
	case ResolveResolved:
		return "resolved"
	case ResolveStale:
		return "stale"
	default:
		return "unknown"
	}
}

// Database is the handle to an open sys account database. The on-disk
// format and mutation logic belong to the opener; the core only reads
// account records through it and closes it at session end.
type Database interface {
	Accounts(ctx context.Context) ([]domain.TrackedAccount, error)
	Close() error
}

// DatabaseOpener opens the sys account database found in a directory.
type DatabaseOpener interface {
	Open(ctx context.Context, path string) (Database, error)
}

// Repository defines the local store operations consumed by the session: the
// activity log and the token price cache. Implemented by the store package.
type Repository interface {
	InsertActivity(activity domain.Activity) error
	GetActivities(limit int) ([]domain.Activity, error)
	CountActivities() (int64, error)
	UpsertPrice(token string, price float64) error
	GetPrice(token string) (domain.Price, error)
	GetPrices() (map[string]float64, error)
	Close() error
}

// Session composes the resolved configuration into the single view the
// frontend consumes: one database location (immutable once open), one
// endpoint, one signer. Changing the endpoint or signer setting invalidates
// only that resolver's cached handle.
type Session struct {
	mu sync.Mutex

	Logger *slog.Logger // Structured logger; never nil after New
	Config *Store       // Configuration store; loaded by Open when nil
	Repo   Repository   // Optional local store for activity and prices

	dbOpener      DatabaseOpener
	deviceOpener  DeviceOpener
	deviceTimeout time.Duration
	configDir     string

	state State
	db    Database
	lock  *dbLock

	endpoint      EndpointResolver
	endpointState ResolveState

	resolver    *SignerResolver
	signer      SignerHandle
	signerState ResolveState

	signMu sync.Mutex // one in-flight signing operation at a time
}

// New creates a Session and applies the provided options. The session is
// StateUninitialized until Open succeeds.
func New(options ...func(*Session) error) (*Session, error) {
	session := &Session{
		Logger:        slog.Default(),
		deviceTimeout: DefaultDeviceTimeout,
	}
	if err := session.WithOptions(options...); err != nil {
		return nil, err
	}
	return session, nil
}

// WithOptions applies a series of configuration functions to the session.
func (session *Session) WithOptions(options ...func(*Session) error) error {
	for _, option := range options {
		if err := option(session); err != nil {
			return fmt.Errorf("applying option on solstice: %w", err)
		}
	}
	return nil
}

// Open performs the startup sequence: load the configuration (unless a store
// was attached already), take the exclusive lock on the database directory,
// and open the account database through the collaborator. This is the single
// fatal class — no other operation is well-defined without an open database,
// so any failure here leaves the session StateUninitialized.
func (session *Session) Open(ctx context.Context) error {
	session.mu.Lock()
	defer session.mu.Unlock()

	if session.state != StateUninitialized {
		return nil
	}
	if session.dbOpener == nil {
		return errors.New("no database opener configured")
	}

	if session.Config == nil {
		dir := session.configDir
		if dir == "" {
			var err error
			if dir, err = DefaultConfigDir(); err != nil {
				return err
			}
		}
		store, err := LoadConfig(dir)
		if err != nil {
			return err
		}
		session.Config = store
	}

	path := session.Config.DatabasePath()
	lock, err := acquireLock(path)
	if err != nil {
		return err
	}

	db, err := session.dbOpener.Open(ctx, path)
	if err != nil {
		lock.release()
		return fmt.Errorf("opening account database at %s: %w", path, err)
	}

	session.lock = lock
	session.db = db
	session.state = StateDatabaseOpen
	session.resolver = NewSignerResolver(session.deviceOpener, session.deviceTimeout)
	session.endpointState = ResolveUnresolved
	session.signerState = ResolveUnresolved
	session.state = StateReady

	session.Logger.Info("account database opened", "path", path)
	session.logActivity(domain.ActivityDatabase, "account database opened", map[string]any{"path": path})
	return nil
}

// State returns the session lifecycle state.
func (session *Session) State() State {
	session.mu.Lock()
	defer session.mu.Unlock()
	return session.state
}

// EndpointState returns the endpoint resolver sub-state.
func (session *Session) EndpointState() ResolveState {
	session.mu.Lock()
	defer session.mu.Unlock()
	return session.endpointState
}

// SignerState returns the signer resolver sub-state.
func (session *Session) SignerState() ResolveState {
	session.mu.Lock()
	defer session.mu.Unlock()
	return session.signerState
}

// DB returns the open account database handle.
func (session *Session) DB() (Database, error) {
	session.mu.Lock()
	defer session.mu.Unlock()
	if session.db == nil {
		return nil, ErrDatabaseNotOpen
	}
	return session.db, nil
}

// RPC returns the RPC client for the current endpoint setting, resolving it
// on first use and after invalidation. Resolution is syntactic only — a
// missing setting fails with ErrNotConfigured, a malformed URL with
// ErrInvalidEndpoint, and neither touches the network.
func (session *Session) RPC() (*rpc.Client, error) {
	session.mu.Lock()
	defer session.mu.Unlock()

	if session.state != StateReady {
		return nil, ErrDatabaseNotOpen
	}
	if session.endpointState == ResolveResolved {
		return session.endpoint.Client(), nil
	}

	client, err := session.endpoint.Resolve(session.Config.EndpointSetting())
	if err != nil {
		session.endpointState = ResolveUnresolved
		session.logActivity(domain.ActivityEndpoint, fmt.Sprintf("endpoint resolution failed: %v", err), nil)
		return nil, err
	}

	session.endpointState = ResolveResolved
	session.Logger.Info("endpoint resolved")
	session.logActivity(domain.ActivityEndpoint, "endpoint resolved", nil)
	return client, nil
}

// Signer returns the signing handle for the current authority setting,
// resolving it on first use and after invalidation. Resolution does real
// I/O — reading a keypair file or opening a device connection — and may
// block up to the device timeout; call it from a background worker, not the
// frontend event loop. The session lock is not held across that I/O, so
// overrides, endpoint use and Close stay responsive while a slow device is
// being waited on. Cancelling ctx aborts the resolution, releases any
// partially-opened connection, and leaves the sub-state as it was.
func (session *Session) Signer(ctx context.Context) (SignerHandle, error) {
	for {
		session.mu.Lock()
		if session.state != StateReady {
			session.mu.Unlock()
			return nil, ErrDatabaseNotOpen
		}
		if session.signerState == ResolveResolved && session.signer != nil {
			handle := session.signer
			session.mu.Unlock()
			return handle, nil
		}
		resolver := session.resolver
		setting := session.Config.SignerSetting()
		session.mu.Unlock()

		handle, err := resolver.Resolve(ctx, setting)

		session.mu.Lock()
		if session.state != StateReady {
			// Session closed while we were resolving.
			session.mu.Unlock()
			if handle != nil {
				handle.Close()
			}
			return nil, ErrDatabaseNotOpen
		}
		if settingChanged(setting, session.Config.SignerSetting()) {
			// The setting moved under us; the outcome is outdated.
			// Discard it and resolve the current setting.
			session.mu.Unlock()
			if handle != nil {
				handle.Close()
			}
			continue
		}
		if err != nil {
			if ctx.Err() == nil {
				session.signerState = ResolveUnresolved
			}
			session.mu.Unlock()
			session.logActivity(domain.ActivitySigner, fmt.Sprintf("signer resolution failed: %v", err), nil)
			return nil, err
		}
		if session.signerState == ResolveResolved && session.signer != nil {
			// A concurrent call won the publish; keep its handle.
			cached := session.signer
			session.mu.Unlock()
			handle.Close()
			return cached, nil
		}

		session.signer = handle
		session.signerState = ResolveResolved
		session.mu.Unlock()

		address := handle.PublicKey().String()
		session.Logger.Info("signer resolved", "address", address)
		session.logActivity(domain.ActivitySigner, "signer resolved", map[string]any{"address": address})
		return handle, nil
	}
}

// settingChanged reports whether the effective value of a setting differs
// between two snapshots, treating presence itself as part of the value.
func settingChanged(before, after Setting[string]) bool {
	beforeValue, beforeErr := before.Value()
	afterValue, afterErr := after.Value()
	if (beforeErr == nil) != (afterErr == nil) {
		return true
	}
	return beforeValue != afterValue
}

// Sign produces a signature over the message with the current signer,
// resolving it first if needed. Signing is serialized per session — one
// in-flight signature at a time — because a hardware device connection is
// single-transaction.
func (session *Session) Sign(ctx context.Context, message []byte) (solana.Signature, error) {
	session.signMu.Lock()
	defer session.signMu.Unlock()

	signer, err := session.Signer(ctx)
	if err != nil {
		return solana.Signature{}, err
	}

	signature, err := signer.Sign(ctx, message)
	if err != nil {
		session.logActivity(domain.ActivitySigning, fmt.Sprintf("signing failed: %v", err), nil)
		return solana.Signature{}, fmt.Errorf("signing %d bytes: %w", len(message), err)
	}

	session.logActivity(domain.ActivitySigning, "message signed", map[string]any{
		"bytes":     len(message),
		"signature": signature.String(),
	})
	return signature, nil
}

// CachedRPC returns the currently resolved RPC client without triggering a
// resolution, or nil if the endpoint is Unresolved or Stale.
func (session *Session) CachedRPC() *rpc.Client {
	session.mu.Lock()
	defer session.mu.Unlock()
	if session.endpointState != ResolveResolved {
		return nil
	}
	return session.endpoint.Client()
}

// CachedSigner returns the currently resolved signing handle without
// triggering a resolution, or nil if the signer is Unresolved or Stale.
func (session *Session) CachedSigner() SignerHandle {
	session.mu.Lock()
	defer session.mu.Unlock()
	if session.signerState != ResolveResolved {
		return nil
	}
	return session.signer
}

// SetEndpointOverride records a session-only endpoint override and marks the
// endpoint Stale. The cached client is dropped; no resolution is attempted
// until the next use. The signer is untouched. Before a configuration is
// loaded there is nothing to layer an override onto; the call is ignored.
func (session *Session) SetEndpointOverride(url string) {
	session.mu.Lock()
	defer session.mu.Unlock()
	if session.Config == nil {
		session.Logger.Warn("endpoint override ignored: no configuration loaded")
		return
	}
	session.Config.SetEndpointOverride(url)
	session.invalidateEndpointLocked()
}

// ClearEndpointOverride reverts the endpoint setting to its persisted value
// and marks the endpoint Stale. Ignored before a configuration is loaded.
func (session *Session) ClearEndpointOverride() {
	session.mu.Lock()
	defer session.mu.Unlock()
	if session.Config == nil {
		return
	}
	session.Config.ClearEndpointOverride()
	session.invalidateEndpointLocked()
}

// SetSignerOverride records a session-only authority override and marks the
// signer Stale. The cached handle is closed — releasing any device
// connection — and dropped; no resolution is attempted until the next use.
// The endpoint is untouched. Before a configuration is loaded there is
// nothing to layer an override onto; the call is ignored.
func (session *Session) SetSignerOverride(raw string) {
	session.mu.Lock()
	defer session.mu.Unlock()
	if session.Config == nil {
		session.Logger.Warn("signer override ignored: no configuration loaded")
		return
	}
	session.Config.SetSignerOverride(raw)
	session.invalidateSignerLocked()
}

// ClearSignerOverride reverts the authority setting to its persisted value
// and marks the signer Stale. Ignored before a configuration is loaded.
func (session *Session) ClearSignerOverride() {
	session.mu.Lock()
	defer session.mu.Unlock()
	if session.Config == nil {
		return
	}
	session.Config.ClearSignerOverride()
	session.invalidateSignerLocked()
}

// InvalidateSigner drops the cached signing handle without changing the
// setting. Used after a signature attempt reports the device disconnected.
func (session *Session) InvalidateSigner() {
	session.mu.Lock()
	defer session.mu.Unlock()
	session.invalidateSignerLocked()
}

// InvalidateEndpoint drops the cached RPC client without changing the
// setting.
func (session *Session) InvalidateEndpoint() {
	session.mu.Lock()
	defer session.mu.Unlock()
	session.invalidateEndpointLocked()
}

func (session *Session) invalidateEndpointLocked() {
	if session.endpointState == ResolveResolved {
		session.endpointState = ResolveStale
	}
	session.endpoint.Invalidate()
}

func (session *Session) invalidateSignerLocked() {
	if session.signer != nil {
		if err := session.signer.Close(); err != nil {
			session.Logger.Warn("closing signer handle", "error", err)
		}
		session.signer = nil
	}
	if session.signerState == ResolveResolved {
		session.signerState = ResolveStale
	}
}

// Close releases the signer connection, the account database, the directory
// lock, and the local store, in that order. Safe to call on a session that
// never opened.
func (session *Session) Close() error {
	session.mu.Lock()
	defer session.mu.Unlock()

	var errs []error
	if session.signer != nil {
		if err := session.signer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing signer: %w", err))
		}
		session.signer = nil
		session.signerState = ResolveUnresolved
	}
	if session.db != nil {
		if err := session.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing account database: %w", err))
		}
		session.db = nil
	}
	if session.lock != nil {
		if err := session.lock.release(); err != nil {
			errs = append(errs, fmt.Errorf("releasing database lock: %w", err))
		}
		session.lock = nil
	}
	if session.Repo != nil {
		if err := session.Repo.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing store: %w", err))
		}
	}
	session.endpoint.Invalidate()
	session.endpointState = ResolveUnresolved
	session.state = StateUninitialized
	return errors.Join(errs...)
}

func (session *Session) logActivity(kind, message string, context map[string]any) {
	if session.Repo == nil {
		return
	}
	id, err := uuid.NewV7()
	if err != nil {
		session.Logger.Warn("creating activity id", "error", err)
		return
	}
	entry := domain.Activity{
		ID:        id,
		Kind:      kind,
		Message:   message,
		Context:   context,
		CreatedAt: time.Now(),
	}
	if err := session.Repo.InsertActivity(entry); err != nil {
		session.Logger.Warn("recording activity", "kind", kind, "error", err)
	}
}
