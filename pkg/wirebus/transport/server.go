package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	"github.com/randalmurphal/wirebus/pkg/wirebus/peer"
)

// ErrAlreadyStarted is returned when Start is called on a running server.
var ErrAlreadyStarted = errors.New("transport: server already started")

// Backend is the node-side surface the HTTP interface exposes.
type Backend interface {
	// Status reports the node's current status snapshot.
	Status() peer.StatusSnapshot

	// DispatchWire delivers an event received from a peer to the local
	// listeners. It reports whether at least one listener ran.
	DispatchWire(event string, symbol bool, args []any) (bool, error)

	// EventNames lists the display texts of the events with local listeners.
	EventNames() []string
}

// ServerConfig holds the transport server settings.
type ServerConfig struct {
	// Host is the bind address. Empty binds all interfaces.
	Host string

	// Port is the TCP port to listen on. 0 picks a free port.
	Port int

	// Secret, when set, requires every request to carry
	// "Authorization: Bearer <secret>".
	Secret string

	// Logger receives request failures. May be nil.
	Logger *slog.Logger

	// OnError is invoked if the server stops serving for any reason other
	// than Shutdown. May be nil.
	OnError func(error)
}

// Server serves the node's bus over HTTP.
type Server struct {
	config  ServerConfig
	backend Backend
	engine  *gin.Engine
	httpSrv *http.Server
	ln      net.Listener
	started atomic.Bool
}

// NewServer creates a transport server for the given backend.
func NewServer(backend Backend, config ServerConfig) *Server {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		config:  config,
		backend: backend,
		engine:  engine,
	}

	if config.Secret != "" {
		engine.Use(requireSecret(config.Secret))
	}
	s.setupRoutes()

	return s
}

// setupRoutes configures the three bus routes.
func (s *Server) setupRoutes() {
	s.engine.GET(peer.PathStatus, s.handleStatus)
	s.engine.POST(peer.PathEmit, s.handleEmit)
	s.engine.GET(peer.PathEventNames, s.handleEventNames)
}

// Start binds the listener and begins serving in the background.
// It returns once the port is bound, so BoundPort is valid afterwards.
func (s *Server) Start() error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		s.started.Store(false)
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	s.ln = ln
	s.httpSrv = &http.Server{Handler: s.engine}

	go func() {
		err := s.httpSrv.Serve(ln)
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return
		}
		if s.config.Logger != nil {
			s.config.Logger.Error("transport stopped serving",
				slog.String("error", err.Error()))
		}
		if s.config.OnError != nil {
			s.config.OnError(err)
		}
	}()

	return nil
}

// BoundPort returns the port the listener is bound to, or 0 before Start.
func (s *Server) BoundPort() int {
	if s.ln == nil {
		return 0
	}
	if tcp, ok := s.ln.Addr().(*net.TCPAddr); ok {
		return tcp.Port
	}
	return 0
}

// Addr returns the listener's address, or "" before Start.
func (s *Server) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Shutdown gracefully stops the server, waiting for in-flight requests
// up to the context deadline. Calling Shutdown before Start is a no-op.
// A stopped server may be started again; Start binds a fresh listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	err := s.httpSrv.Shutdown(ctx)
	s.started.Store(false)
	return err
}
