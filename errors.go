package solstice

import "errors"

// Configuration errors. Any of these concerning the database location is
// fatal to startup; the endpoint and signer variants leave the affected
// setting unresolved and are surfaced to the user for correction.
var (
	// ErrConfigNotFound means no config file exists at the expected location.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrConfigParse means the config file exists but is not valid YAML.
	ErrConfigParse = errors.New("config file could not be parsed")

	// ErrMissingDatabasePath means the required db_path key is absent or empty.
	ErrMissingDatabasePath = errors.New("db_path is required and missing from config")

	// ErrNotConfigured means a setting has neither a persisted value nor an
	// in-session override.
	ErrNotConfigured = errors.New("setting is not configured")

	// ErrInvalidEndpoint means the endpoint URL failed syntactic validation.
	ErrInvalidEndpoint = errors.New("invalid endpoint url")
)

// Signer errors. Never fatal to the process; they leave the signer
// unresolved and block only signing-dependent actions.
var (
	// ErrKeypairNotFound means the keypair file path does not exist.
	ErrKeypairNotFound = errors.New("keypair file not found")

	// ErrBadKeypair means the keypair file exists but does not hold a valid
	// ed25519 keypair.
	ErrBadKeypair = errors.New("malformed keypair file")

	// ErrDeviceUnreachable means no hardware device answered within the
	// configured timeout.
	ErrDeviceUnreachable = errors.New("signing device unreachable")

	// ErrDeviceRejected means a device is present but refused to expose a
	// signing key (locked device, wrong derivation path). Device openers
	// return errors wrapping this sentinel to distinguish refusal from
	// absence.
	ErrDeviceRejected = errors.New("signing device rejected the request")
)

// Session errors.
var (
	// ErrDatabaseNotOpen means an operation that requires an open account
	// database was attempted before Open succeeded.
	ErrDatabaseNotOpen = errors.New("account database is not open")

	// ErrDatabaseLocked means another process holds the exclusive lock on
	// the database directory.
	ErrDatabaseLocked = errors.New("account database is locked by another process")
)
