package event

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	buserrors "github.com/randalmurphal/wirebus/pkg/wirebus/errors"
)

// ErrClosed is returned by Subscribe after the bus has been closed.
var ErrClosed = errors.New("bus is closed")

// Listener handles one dispatched event. A non-nil return is wrapped in a
// ListenerError and reported through the bus's error hook; it never stops
// the remaining listeners.
type Listener func(args ...any) error

// BusConfig configures bus behavior.
type BusConfig struct {
	// OnError is called once per failing listener with the wrapped
	// ListenerError. Default: warn through Logger.
	OnError func(name Name, err error)

	// Logger receives listener failures when OnError is unset.
	// Default: slog.Default().
	Logger *slog.Logger
}

// Bus is the in-process listener registry with synchronous dispatch.
// Listeners for a name run in registration order; a failing listener is
// isolated and the rest still run.
type Bus struct {
	config BusConfig

	mu   sync.RWMutex
	subs map[Name][]*Subscription

	nextID atomic.Uint64
	closed atomic.Bool
}

// NewBus creates a new bus.
func NewBus(config BusConfig) *Bus {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Bus{
		config: config,
		subs:   make(map[Name][]*Subscription),
	}
}

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	id   uint64
	name Name
	fn   Listener
	bus  *Bus
}

// Name returns the identifier the subscription listens on.
func (s *Subscription) Name() Name { return s.name }

// Unsubscribe removes the subscription from its bus. It is idempotent.
func (s *Subscription) Unsubscribe() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()

	list := s.bus.subs[s.name]
	for i, sub := range list {
		if sub.id == s.id {
			s.bus.subs[s.name] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(s.bus.subs[s.name]) == 0 {
		delete(s.bus.subs, s.name)
	}
}

// Subscribe registers a listener for a name and returns its handle.
// It fails only when the bus is closed.
func (b *Bus) Subscribe(name Name, fn Listener) (*Subscription, error) {
	if b.closed.Load() {
		return nil, ErrClosed
	}

	sub := &Subscription{
		id:   b.nextID.Add(1),
		name: name,
		fn:   fn,
		bus:  b,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[name] = append(b.subs[name], sub)
	return sub, nil
}

// Dispatch synchronously invokes every listener registered for name, in
// registration order, with the given arguments. The return value reports
// whether at least one listener existed, independent of listener failures.
// Dispatch never blocks on I/O and never returns an error; listener
// failures are isolated and reported through the error hook.
func (b *Bus) Dispatch(name Name, args ...any) bool {
	if b.closed.Load() {
		return false
	}

	b.mu.RLock()
	list := b.subs[name]
	snapshot := make([]*Subscription, len(list))
	copy(snapshot, list)
	b.mu.RUnlock()

	if len(snapshot) == 0 {
		return false
	}

	// Listeners run outside the lock so they may subscribe or
	// unsubscribe without deadlocking.
	for _, sub := range snapshot {
		b.invoke(sub, name, args)
	}
	return true
}

func (b *Bus) invoke(sub *Subscription, name Name, args []any) {
	defer func() {
		if r := recover(); r != nil {
			b.report(name, &buserrors.ListenerError{
				Event: name.Text(),
				Err:   recoveredError(r),
			})
		}
	}()

	if err := sub.fn(args...); err != nil {
		b.report(name, &buserrors.ListenerError{Event: name.Text(), Err: err})
	}
}

func (b *Bus) report(name Name, err error) {
	if b.config.OnError != nil {
		b.config.OnError(name, err)
		return
	}
	b.config.Logger.Warn("event listener failed",
		slog.String("event", name.Text()),
		slog.Bool("symbol", name.IsToken()),
		slog.String("error", err.Error()),
	)
}

func recoveredError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", r)
}

// ListenedNames returns every name with at least one listener, sorted by
// display text (plain names before tokens on ties) for stable snapshots.
func (b *Bus) ListenedNames() []Name {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]Name, 0, len(b.subs))
	for name := range b.subs {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if names[i].text != names[j].text {
			return names[i].text < names[j].text
		}
		return !names[i].IsToken() && names[j].IsToken()
	})
	return names
}

// WireNames returns the wire projection of ListenedNames.
func (b *Bus) WireNames() []WireName {
	names := b.ListenedNames()
	wire := make([]WireName, len(names))
	for i, n := range names {
		wire[i] = Wire(n)
	}
	return wire
}

// Close shuts the bus down: subsequent Subscribe fails with ErrClosed and
// Dispatch reports no listeners. Close is idempotent.
func (b *Bus) Close() {
	if !b.closed.CompareAndSwap(false, true) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = make(map[Name][]*Subscription)
}
