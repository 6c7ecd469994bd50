package solstice

import (
	"fmt"
	"net/url"
	"sync"

	"github.com/gagliardetto/solana-go/rpc"
)

// EndpointResolver turns the json_rpc_url setting into a live RPC client
// handle. Validation is purely syntactic; reachability is discovered on the
// first real call, which surfaces as a communication error rather than a
// resolution error. The constructed client is cached per URL string, so
// re-resolving an unchanged setting returns the same handle.
type EndpointResolver struct {
	mu     sync.Mutex
	url    string
	client *rpc.Client
}

// Resolve validates the effective URL of the setting and returns the RPC
// client handle for it. No network round trip happens here — rpc.New only
// builds the client.
func (r *EndpointResolver) Resolve(setting Setting[string]) (*rpc.Client, error) {
	raw, err := setting.Value()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.client != nil && r.url == raw {
		return r.client, nil
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidEndpoint, raw, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("%w %q: scheme must be http or https", ErrInvalidEndpoint, raw)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("%w %q: missing host", ErrInvalidEndpoint, raw)
	}

	r.url = raw
	r.client = rpc.New(raw)
	return r.client, nil
}

// Client returns the cached handle, or nil if nothing is currently resolved.
func (r *EndpointResolver) Client() *rpc.Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.client
}

// Invalidate drops the cached handle. The next Resolve call constructs a
// fresh client even for an identical URL string.
func (r *EndpointResolver) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.url = ""
	r.client = nil
}
