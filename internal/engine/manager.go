// internal/engine/manager.go
package engine

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/modbus-sampler/internal/metrics"
	mb "github.com/tamzrod/modbus-sampler/internal/modbus"
	"github.com/tamzrod/modbus-sampler/internal/session"
)

// DefaultRetryDelay is the wait between two dial attempts.
const DefaultRetryDelay = time.Second

// Resolver resolves a host name. *net.Resolver satisfies it.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// Dialer opens one connection, ONE attempt per call.
type Dialer interface {
	Dial(ctx context.Context, ep Endpoint) (Conn, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context, ep Endpoint) (Conn, error)

func (f DialerFunc) Dial(ctx context.Context, ep Endpoint) (Conn, error) { return f(ctx, ep) }

// TCPDialer dials Modbus TCP through the goburrow transport.
var TCPDialer Dialer = DialerFunc(func(ctx context.Context, ep Endpoint) (Conn, error) {
	c, err := mb.Dial(ctx, mb.Config{Endpoint: ep.Address(), Timeout: ep.Timeout})
	if err != nil {
		return nil, err
	}
	return c, nil
})

// Manager opens new connections with bounded retry or hands out the
// connection held in the slot.
type Manager struct {
	slot       *session.Slot[Conn]
	resolver   Resolver
	dialer     Dialer
	retryDelay time.Duration
	log        zerolog.Logger
	metrics    *metrics.Collector
}

type ManagerOption func(*Manager)

func WithResolver(r Resolver) ManagerOption { return func(m *Manager) { m.resolver = r } }
func WithDialer(d Dialer) ManagerOption { return func(m *Manager) { m.dialer = d } }
func WithRetryDelay(d time.Duration) ManagerOption { return func(m *Manager) { m.retryDelay = d } }

func WithManagerLogger(l zerolog.Logger) ManagerOption {
	return func(m *Manager) { m.log = l }
}

func WithManagerMetrics(c *metrics.Collector) ManagerOption {
	return func(m *Manager) { m.metrics = c }
}

func NewManager(slot *session.Slot[Conn], opts ...ManagerOption) *Manager {
	m := &Manager{
		slot:       slot,
		resolver:   net.DefaultResolver,
		dialer:     TCPDialer,
		retryDelay: DefaultRetryDelay,
		log:        zerolog.Nop(),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Acquire returns the connection an operation runs on.
// Reuse mode never dials; new mode dials and stores the result in the slot.
func (m *Manager) Acquire(ctx context.Context, op Operation) (Conn, error) {
	if op.UseExistingConnection {
		c, ok := m.slot.Get()
		if !ok {
			return nil, ErrNoExistingConnection
		}
		return c, nil
	}

	c, err := m.Dial(ctx, op.Endpoint, op.RetryCount)
	if err != nil {
		return nil, err
	}
	m.slot.Put(c)
	return c, nil
}

// Dial is the inner dial-only retry policy: retryCount+1 attempts in total.
// An unresolvable host stops immediately.
func (m *Manager) Dial(ctx context.Context, ep Endpoint, retryCount int) (Conn, error) {
	if retryCount < 0 {
		retryCount = 0
	}
	log := m.log.With().Str("endpoint", ep.Address()).Logger()

	var last error
	for attempt := 0; attempt <= retryCount; attempt++ {
		if _, err := m.resolver.LookupHost(ctx, ep.Host); err != nil {
			m.metrics.IncDial(metrics.OutcomeUnresolved)
			log.Error().Err(err).Msg("unknown host")
			return nil, fail(ErrUnresolvedHost, ep.Host)
		}

		c, err := m.dialer.Dial(ctx, ep)
		if err == nil {
			m.metrics.IncDial(metrics.OutcomeSuccess)
			log.Info().Int("attempt", attempt+1).Msg("connected to modbus server")
			return c, nil
		}

		m.metrics.IncDial(metrics.OutcomeFailed)
		log.Warn().Err(err).Int("attempt", attempt+1).Msg("connect attempt failed")
		last = err

		if attempt < retryCount {
			if err := wait(ctx, m.retryDelay); err != nil {
				return nil, fail(ErrConnectFailure, err)
			}
		}
	}

	return nil, fail(ErrConnectFailure, fmt.Sprintf("%s after %d attempts: %v", ep.Address(), retryCount+1, last))
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
