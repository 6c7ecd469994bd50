package solstice

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
)

// Recognized config file keys. Unknown keys are ignored for forward
// compatibility.
const (
	keyDatabasePath = "db_path"           // Directory holding the sys database data file
	keyEndpoint     = "json_rpc_url"      // JSON-RPC endpoint URL
	keyAuthority    = "authority_keypair" // Keypair file path or device URI
)

// Store holds the persisted configuration plus any in-session overrides.
// Overrides never touch the config file on disk; persisting changes is the
// frontend's responsibility, not performed here.
type Store struct {
	mu    sync.RWMutex
	viper *viper.Viper
	dir   string

	databasePath Setting[string]
	endpoint     Setting[string]
	authority    Setting[string]
}

// DefaultConfigDir returns the well-known config directory for the current
// user (e.g. ~/.config/solstice on Linux).
func DefaultConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating user config dir: %w", err)
	}
	return filepath.Join(base, "solstice"), nil
}

// LoadConfig reads config.yaml from the given directory. The db_path key is
// required: there is no way to override it before a database is open, so its
// absence fails the load with ErrMissingDatabasePath. The endpoint and
// authority keys are optional; their absence leaves the corresponding
// setting empty.
func LoadConfig(dir string) (*Store, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w in %s", ErrConfigNotFound, dir)
		}
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	store := &Store{
		viper:        v,
		dir:          dir,
		databasePath: NewSetting[string](keyDatabasePath, true),
		endpoint:     NewSetting[string](keyEndpoint, false),
		authority:    NewSetting[string](keyAuthority, false),
	}

	if value := v.GetString(keyDatabasePath); value != "" {
		store.databasePath.setPersisted(value)
	} else {
		return nil, fmt.Errorf("%s: %w", v.ConfigFileUsed(), ErrMissingDatabasePath)
	}
	if value := v.GetString(keyEndpoint); value != "" {
		store.endpoint.setPersisted(value)
	}
	if value := v.GetString(keyAuthority); value != "" {
		store.authority.setPersisted(value)
	}

	return store, nil
}

// ConfigDir returns the directory the config file was loaded from.
func (store *Store) ConfigDir() string {
	return store.dir
}

// DatabasePath returns the directory holding the sys database. Always
// present after a successful load and immutable for the session.
func (store *Store) DatabasePath() string {
	store.mu.RLock()
	defer store.mu.RUnlock()
	path, _ := store.databasePath.Value()
	return path
}

// EndpointSetting returns a snapshot of the json_rpc_url setting.
func (store *Store) EndpointSetting() Setting[string] {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return store.endpoint
}

// SignerSetting returns a snapshot of the authority_keypair setting.
func (store *Store) SignerSetting() Setting[string] {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return store.authority
}

// SetEndpointOverride records a session-only endpoint override. No
// validation happens here; the endpoint resolver validates on next use.
func (store *Store) SetEndpointOverride(url string) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.endpoint.setOverride(url)
}

// ClearEndpointOverride reverts the endpoint setting to its persisted value.
func (store *Store) ClearEndpointOverride() {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.endpoint.clearOverride()
}

// SetSignerOverride records a session-only authority override. The raw
// string is classified and validated by the signer resolver on next use.
func (store *Store) SetSignerOverride(raw string) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.authority.setOverride(raw)
}

// ClearSignerOverride reverts the authority setting to its persisted value.
func (store *Store) ClearSignerOverride() {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.authority.clearOverride()
}
