package solstice

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
)

// DeviceURIScheme is the prefix that marks an authority string as a hardware
// signing device rather than a keypair file path.
const DeviceURIScheme = "usb://"

// DefaultDeviceTimeout bounds how long a resolution waits for a hardware
// device to answer before reporting it unreachable.
const DefaultDeviceTimeout = 30 * time.Second

// SignerKind identifies how an authority string should be resolved.
type SignerKind int

const (
	// SignerLocalKeypair is a keypair file on the local filesystem.
	SignerLocalKeypair SignerKind = iota
	// SignerHardwareDevice is a signing device addressed by a device URI.
	SignerHardwareDevice
)

func (k SignerKind) String() string {
	switch k {
	case SignerLocalKeypair:
		return "local keypair"
	case SignerHardwareDevice:
		return "hardware device"
	default:
		return "unknown"
	}
}

// SignerSpec is a classified authority string. Exactly one of Path or URI is
// set, according to Kind.
type SignerSpec struct {
	Kind SignerKind
	Path string // keypair file path, set for SignerLocalKeypair
	URI  string // device URI, set for SignerHardwareDevice
}

// Classify inspects an authority string and tags it as a keypair file path
// or a device URI. Pure string inspection, no I/O, never fails: anything
// that does not carry the device URI scheme is treated as a file path.
func Classify(raw string) SignerSpec {
	if strings.HasPrefix(raw, DeviceURIScheme) {
		return SignerSpec{Kind: SignerHardwareDevice, URI: raw}
	}
	return SignerSpec{Kind: SignerLocalKeypair, Path: raw}
}

// SignerHandle is the capability produced by resolving a SignerSpec. Both
// signer kinds expose the same surface, so downstream consumers never care
// which kind they hold. A handle backed by a hardware device owns a live
// connection and is not safe for concurrent Sign calls; the Session
// serializes signing for exactly that reason.
type SignerHandle interface {
	// PublicKey returns the address the handle signs for.
	PublicKey() solana.PublicKey
	// Sign produces a signature over the message.
	Sign(ctx context.Context, message []byte) (solana.Signature, error)
	// Close releases any underlying device connection. Safe on local
	// keypair handles, where it is a no-op.
	Close() error
}

// DeviceSession is a live connection to a hardware signing device, provided
// by a DeviceOpener implementation. The wire protocol is the opener's
// business.
type DeviceSession interface {
	PublicKey() solana.PublicKey
	Sign(ctx context.Context, message []byte) (solana.Signature, error)
	Close() error
}

// DeviceOpener connects to hardware signing devices. Implementations should
// honor context cancellation and return errors wrapping ErrDeviceRejected
// when a device is present but refuses to expose a key, so refusal stays
// distinguishable from absence.
type DeviceOpener interface {
	Open(ctx context.Context, uri string) (DeviceSession, error)
}

// SignerResolver resolves classified authority specs into signing handles.
// Resolution does real I/O (file read or device connection) and is not
// idempotent for hardware devices — every call may reopen a connection, so
// callers cache the returned handle and only re-resolve after an explicit
// invalidation.
type SignerResolver struct {
	opener  DeviceOpener
	timeout time.Duration
}

// NewSignerResolver builds a resolver using the given device opener. A zero
// or negative timeout falls back to DefaultDeviceTimeout.
func NewSignerResolver(opener DeviceOpener, timeout time.Duration) *SignerResolver {
	if timeout <= 0 {
		timeout = DefaultDeviceTimeout
	}
	return &SignerResolver{opener: opener, timeout: timeout}
}

// Resolve classifies the effective authority string and resolves it.
func (r *SignerResolver) Resolve(ctx context.Context, setting Setting[string]) (SignerHandle, error) {
	raw, err := setting.Value()
	if err != nil {
		return nil, err
	}
	return r.ResolveSpec(ctx, Classify(raw))
}

// ResolveSpec resolves an already-classified spec.
func (r *SignerResolver) ResolveSpec(ctx context.Context, spec SignerSpec) (SignerHandle, error) {
	switch spec.Kind {
	case SignerLocalKeypair:
		return resolveKeypairFile(spec.Path)
	case SignerHardwareDevice:
		return r.resolveDevice(ctx, spec.URI)
	default:
		return nil, fmt.Errorf("unknown signer kind %d", spec.Kind)
	}
}

func resolveKeypairFile(path string) (SignerHandle, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrKeypairNotFound, path)
		}
		return nil, fmt.Errorf("reading keypair file %s: %w", path, err)
	}

	// Solana keygen files hold the 64-byte ed25519 keypair as a JSON array
	// of byte values.
	var values []int
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrBadKeypair, path, err)
	}
	if len(values) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w %s: want %d bytes, got %d", ErrBadKeypair, path, ed25519.PrivateKeySize, len(values))
	}
	key := make([]byte, ed25519.PrivateKeySize)
	for i, v := range values {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("%w %s: value %d out of byte range", ErrBadKeypair, path, v)
		}
		key[i] = byte(v)
	}

	derived := ed25519.NewKeyFromSeed(key[:ed25519.SeedSize])
	if !bytes.Equal(derived[ed25519.SeedSize:], key[ed25519.SeedSize:]) {
		return nil, fmt.Errorf("%w %s: public key does not match private half", ErrBadKeypair, path)
	}

	return &localSigner{key: solana.PrivateKey(key)}, nil
}

func (r *SignerResolver) resolveDevice(ctx context.Context, uri string) (SignerHandle, error) {
	if r.opener == nil {
		return nil, fmt.Errorf("%w: no device transport configured", ErrDeviceUnreachable)
	}

	openCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	session, err := r.opener.Open(openCtx, uri)
	if err != nil {
		if ctx.Err() != nil {
			// Caller backed out; nothing was opened.
			return nil, ctx.Err()
		}
		if errors.Is(err, ErrDeviceRejected) {
			return nil, fmt.Errorf("opening %s: %w", uri, err)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: no response from %s within %s", ErrDeviceUnreachable, uri, r.timeout)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrDeviceUnreachable, uri, err)
	}

	if ctx.Err() != nil {
		// Cancelled between open and hand-off: release the connection
		// rather than return a handle nobody owns.
		session.Close()
		return nil, ctx.Err()
	}

	return &deviceSigner{session: session}, nil
}

type localSigner struct {
	key solana.PrivateKey
}

func (s *localSigner) PublicKey() solana.PublicKey {
	return s.key.PublicKey()
}

func (s *localSigner) Sign(_ context.Context, message []byte) (solana.Signature, error) {
	return s.key.Sign(message)
}

func (s *localSigner) Close() error {
	return nil
}

type deviceSigner struct {
	session DeviceSession
}

func (s *deviceSigner) PublicKey() solana.PublicKey {
	return s.session.PublicKey()
}

func (s *deviceSigner) Sign(ctx context.Context, message []byte) (solana.Signature, error) {
	return s.session.Sign(ctx, message)
}

func (s *deviceSigner) Close() error {
	return s.session.Close()
}
