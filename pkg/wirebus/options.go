package wirebus

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/randalmurphal/wirebus/pkg/wirebus/config"
	buserrors "github.com/randalmurphal/wirebus/pkg/wirebus/errors"
	"github.com/randalmurphal/wirebus/pkg/wirebus/journal"
	"github.com/randalmurphal/wirebus/pkg/wirebus/peer"
)

// nodeConfig holds one node's configuration, merged from defaults and
// functional options at New and immutable afterwards.
type nodeConfig struct {
	name              string
	host              string
	port              int
	baseURL           string
	connectTo         string
	secret            string
	keepaliveInterval time.Duration
	probeTimeout      time.Duration
	callTimeout       time.Duration
	httpClient        *http.Client
	logger            *slog.Logger
	clock             clock.Clock
	journal           journal.Journal
	metricsEnabled    bool
	tracingEnabled    bool
}

// defaultNodeConfig returns the default node configuration.
func defaultNodeConfig() nodeConfig {
	return nodeConfig{
		host:              "0.0.0.0",
		keepaliveInterval: peer.DefaultSyncInterval,
		probeTimeout:      peer.DefaultProbeTimeout,
		callTimeout:       peer.DefaultCallTimeout,
	}
}

// Option configures a node at construction time.
type Option func(*nodeConfig)

// WithName sets the node's display name. It enriches the node's log lines
// and has no protocol meaning.
func WithName(name string) Option {
	return func(c *nodeConfig) {
		c.name = name
	}
}

// WithHost sets the host the transport binds to. Default: "0.0.0.0".
func WithHost(host string) Option {
	return func(c *nodeConfig) {
		c.host = host
	}
}

// WithPort sets the port the transport binds to. Port 0 (the default)
// binds a free port; the bound port feeds address resolution.
func WithPort(port int) Option {
	return func(c *nodeConfig) {
		if port >= 0 {
			c.port = port
		}
	}
}

// WithBaseURL sets the externally reachable address advertised to peers.
// It takes precedence over any address resolved from host and port.
func WithBaseURL(baseURL string) Option {
	return func(c *nodeConfig) {
		c.baseURL = baseURL
	}
}

// WithConnectTo sets the seed peer address used to join an existing bus.
// The seed is retried on every sync cycle that knows no remote peer.
func WithConnectTo(addr string) Option {
	return func(c *nodeConfig) {
		c.connectTo = addr
	}
}

// WithSecret sets the shared secret peers must present. The value is opaque
// to the core; the transport sends and checks it as a bearer token.
func WithSecret(secret string) Option {
	return func(c *nodeConfig) {
		c.secret = secret
	}
}

// WithKeepaliveInterval sets the period of the background peer sync loop.
// Default: peer.DefaultSyncInterval.
func WithKeepaliveInterval(d time.Duration) Option {
	return func(c *nodeConfig) {
		if d > 0 {
			c.keepaliveInterval = d
		}
	}
}

// WithProbeTimeout bounds each peer liveness probe.
// Default: peer.DefaultProbeTimeout.
func WithProbeTimeout(d time.Duration) Option {
	return func(c *nodeConfig) {
		if d > 0 {
			c.probeTimeout = d
		}
	}
}

// WithCallTimeout bounds each outbound peer call.
// Default: peer.DefaultCallTimeout.
func WithCallTimeout(d time.Duration) Option {
	return func(c *nodeConfig) {
		if d > 0 {
			c.callTimeout = d
		}
	}
}

// WithHTTPClient sets the HTTP client shared by every outbound peer call,
// so all branches of a fan-out draw from one connection pool.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *nodeConfig) {
		if httpc != nil {
			c.httpClient = httpc
		}
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *nodeConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock sets the clock driving the sync loop. Tests inject
// clock.NewMock() to step cycles deterministically.
func WithClock(clk clock.Clock) Option {
	return func(c *nodeConfig) {
		if clk != nil {
			c.clock = clk
		}
	}
}

// WithJournal sets the diagnostics journal. Default: a bounded in-memory
// journal. The node closes the journal during Close.
func WithJournal(j journal.Journal) Option {
	return func(c *nodeConfig) {
		if j != nil {
			c.journal = j
		}
	}
}

// WithMetrics enables OpenTelemetry metrics for dispatches, remote emits,
// and sync cycles. Disabled by default; when disabled a no-op recorder is
// used.
func WithMetrics(enabled bool) Option {
	return func(c *nodeConfig) {
		c.metricsEnabled = enabled
	}
}

// WithTracing enables OpenTelemetry spans around emissions and their
// per-peer branches. Disabled by default.
func WithTracing(enabled bool) Option {
	return func(c *nodeConfig) {
		c.tracingEnabled = enabled
	}
}

// FromConfig maps the recognized keys of a configuration file onto options:
// name, host, port, baseUrl, connectTo, secret, keepaliveInterval,
// probeTimeout, callTimeout, metrics, and tracing. Unknown keys are
// ignored; absent keys keep their current values, so FromConfig composes
// with other options in either order.
func FromConfig(cfg config.Config) Option {
	return func(c *nodeConfig) {
		c.name = cfg.String("name", c.name)
		c.host = cfg.String("host", c.host)
		c.port = cfg.Int("port", c.port)
		c.baseURL = cfg.String("baseUrl", c.baseURL)
		c.connectTo = cfg.String("connectTo", c.connectTo)
		c.secret = cfg.String("secret", c.secret)
		c.keepaliveInterval = cfg.Duration("keepaliveInterval", c.keepaliveInterval)
		c.probeTimeout = cfg.Duration("probeTimeout", c.probeTimeout)
		c.callTimeout = cfg.Duration("callTimeout", c.callTimeout)
		c.metricsEnabled = cfg.Bool("metrics", c.metricsEnabled)
		c.tracingEnabled = cfg.Bool("tracing", c.tracingEnabled)
	}
}

// OpenJournal builds the journal described by a configuration file's
// journal section:
//
//	journal:
//	  backend: sqlite        # "memory" (default) or "sqlite"
//	  path: /var/lib/bus.db  # required for sqlite
//	  limit: 512             # memory ring size, 0 for the default
//
// The caller hands the result to WithJournal; the node closes it on Close.
func OpenJournal(cfg config.Config) (journal.Journal, error) {
	section := cfg.Sub("journal")
	backend := section.String("backend", "memory")
	switch backend {
	case "memory":
		return journal.NewMemory(section.Int("limit", 0)), nil
	case "sqlite":
		path := section.String("path", "")
		if path == "" {
			return nil, &buserrors.ConfigError{
				Field:  "journal.path",
				Reason: "required for the sqlite backend",
			}
		}
		return journal.NewSQLite(path)
	default:
		return nil, &buserrors.ConfigError{
			Field:  "journal.backend",
			Reason: fmt.Sprintf("unknown backend %q", backend),
		}
	}
}
