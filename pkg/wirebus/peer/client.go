package peer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/randalmurphal/wirebus/pkg/wirebus/event"
	buserrors "github.com/randalmurphal/wirebus/pkg/wirebus/errors"
)

// Wire paths of the three logical operations. The transport server mounts
// its routes on the same constants.
const (
	PathStatus     = "/status"
	PathEmit       = "/emit"
	PathEventNames = "/event-names"
)

// DefaultCallTimeout bounds each outbound call.
const DefaultCallTimeout = 5 * time.Second

// DefaultProbeTimeout bounds liveness probes.
const DefaultProbeTimeout = 2 * time.Second

// Client talks to exactly one remote node. Every call applies its own
// bounded timeout on top of the caller's context, so one slow peer in a
// fan-out delays only its own branch.
type Client struct {
	addr    string
	httpc   *http.Client
	secret  string
	timeout time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithSecret sets the shared secret sent on every request. The value is
// opaque to the client; it is handed to the peer's authentication hook as
// a bearer token.
func WithSecret(secret string) ClientOption {
	return func(c *Client) { c.secret = secret }
}

// WithHTTPClient sets the underlying HTTP client, usually to share one
// connection pool across all peers of a node.
func WithHTTPClient(httpc *http.Client) ClientOption {
	return func(c *Client) {
		if httpc != nil {
			c.httpc = httpc
		}
	}
}

// WithCallTimeout sets the per-call timeout. Default: DefaultCallTimeout.
func WithCallTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewClient creates a client for one peer's base address. The address is
// normalized; an address without a host fails.
func NewClient(addr string, opts ...ClientOption) (*Client, error) {
	canonical, err := Normalize(addr)
	if err != nil {
		return nil, fmt.Errorf("peer address: %w", err)
	}
	c := &Client{
		addr:    canonical,
		httpc:   &http.Client{},
		timeout: DefaultCallTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Address returns the peer's canonical base address.
func (c *Client) Address() string { return c.addr }

// IsAlive probes the peer's status operation within the given timeout
// (DefaultProbeTimeout when zero). Any transport failure, timeout, or
// malformed response yields false; IsAlive never returns an error.
func (c *Client) IsAlive(ctx context.Context, timeout time.Duration) bool {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var out StatusResponse
	if err := c.get(ctx, "status", PathStatus, &out); err != nil {
		return false
	}
	return out.Success
}

// Status fetches the peer's status snapshot.
func (c *Client) Status(ctx context.Context) (StatusSnapshot, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	var out StatusResponse
	if err := c.get(ctx, "status", PathStatus, &out); err != nil {
		return StatusSnapshot{}, err
	}
	if !out.Success {
		return StatusSnapshot{}, &buserrors.ProtocolError{
			Address: c.addr, Op: "status", Detail: "peer reported success=false",
		}
	}
	return out.Snapshot(), nil
}

// RemoteEmit delivers one envelope to the peer and returns whether the
// peer had at least one listener for it.
func (c *Client) RemoteEmit(ctx context.Context, env event.Envelope) (bool, error) {
	text, isSymbol := event.Encode(env.Name)
	body := EmitRequest{Event: text, Symbol: isSymbol, Args: env.Args}

	ctx, cancel := c.bound(ctx)
	defer cancel()

	var out EmitResponse
	if err := c.post(ctx, "emit", PathEmit, body, &out); err != nil {
		return false, err
	}
	if !out.Success {
		detail := out.Reason
		if detail == "" {
			detail = "peer rejected the emission"
		}
		return false, &buserrors.ProtocolError{Address: c.addr, Op: "emit", Detail: detail}
	}
	return out.HadListeners, nil
}

// RemoteEventNames fetches the display texts the peer listens on.
func (c *Client) RemoteEventNames(ctx context.Context) ([]string, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	var out EventNamesResponse
	if err := c.get(ctx, "event-names", PathEventNames, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, &buserrors.ProtocolError{
			Address: c.addr, Op: "event-names", Detail: "peer reported success=false",
		}
	}
	return out.Events, nil
}

func (c *Client) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

func (c *Client) get(ctx context.Context, op, path string, out any) error {
	return c.do(ctx, op, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, op, path string, body, out any) error {
	return c.do(ctx, op, http.MethodPost, path, body, out)
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &buserrors.SerializationError{Index: -1, Err: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.addr+path, reader)
	if err != nil {
		return &buserrors.TransportError{Address: c.addr, Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.secret != "" {
		req.Header.Set("Authorization", "Bearer "+c.secret)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return &buserrors.TransportError{Address: c.addr, Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &buserrors.TransportError{
			Address: c.addr, Op: op,
			Err: fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &buserrors.ProtocolError{
			Address: c.addr, Op: op, Detail: "unparseable response: " + err.Error(),
		}
	}
	return nil
}
