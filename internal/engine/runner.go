// internal/engine/runner.go
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tamzrod/modbus-sampler/internal/metrics"
	mb "github.com/tamzrod/modbus-sampler/internal/modbus"
	"github.com/tamzrod/modbus-sampler/internal/session"
)

// Runner is one sampler instance. It owns its close scheduler, so at most
// one deferred close is pending per Runner. Runners of the same test thread
// share one session.Vars and therefore one connection slot.
type Runner struct {
	ID   string
	Name string

	slot        *session.Slot[Conn]
	manager     *Manager
	scheduler   *Scheduler
	log         zerolog.Logger
	metrics     *metrics.Collector
	managerOpts []ManagerOption
}

type Option func(*Runner)

func WithName(name string) Option { return func(r *Runner) { r.Name = name } }
func WithLogger(l zerolog.Logger) Option { return func(r *Runner) { r.log = l } }
func WithMetrics(c *metrics.Collector) Option { return func(r *Runner) { r.metrics = c } }
func WithManagerOptions(o ...ManagerOption) Option {
	return func(r *Runner) { r.managerOpts = append(r.managerOpts, o...) }
}

func NewRunner(vars *session.Vars, opts ...Option) *Runner {
	r := &Runner{
		ID:  uuid.NewString(),
		log: zerolog.Nop(),
	}
	for _, o := range opts {
		o(r)
	}
	if r.Name == "" {
		r.Name = r.ID
	}

	r.log = r.log.With().Str("sampler", r.Name).Str("sampler_id", r.ID).Logger()
	r.slot = session.NewSlot[Conn](vars)

	mopts := append([]ManagerOption{
		WithManagerLogger(r.log),
		WithManagerMetrics(r.metrics),
	}, r.managerOpts...)
	r.manager = NewManager(r.slot, mopts...)
	r.scheduler = NewScheduler(r.slot, r.log, r.metrics)
	return r
}

// Scheduler exposes the sampler's close scheduler.
func (r *Runner) Scheduler() *Scheduler { return r.scheduler }

// Stop cancels a pending deferred close. Connections are left as they are.
func (r *Runner) Stop() { r.scheduler.Stop() }

// Run performs one read or write sample. It never returns an error:
// every failure becomes an unsuccessful Result.
func (r *Runner) Run(ctx context.Context, op Operation) Result {
	start := time.Now()
	log := r.log.With().Str("kind", string(op.Kind)).Logger()

	payload, err := r.run(ctx, log, op)

	res := Result{Successful: err == nil}
	switch {
	case err != nil:
		res.Message = "Error: " + err.Error()
		ev := log.Error().Err(err)
		if code, ok := mb.ExceptionCode(err); ok {
			ev = ev.Uint8("exception_code", code)
		}
		ev.Msg("modbus operation failed")
	case op.Kind.IsRead():
		res.Message = "Read operation successful."
		res.Payload = payload
	default:
		res.Message = "Write operation successful."
	}

	r.metrics.ObserveSample(r.Name, string(op.Kind), res.Successful, time.Since(start))
	return res
}

// run is the outer retry loop: acquire, validate, execute, attempt after
// attempt. Only transaction failures go round again, with no delay here.
// In new-connection mode every attempt dials afresh; the connection of a
// failed attempt is released before the next dial.
func (r *Runner) run(ctx context.Context, log zerolog.Logger, op Operation) ([]byte, error) {
	var (
		conn   Conn
		opened bool
	)
	defer func() {
		if opened {
			r.scheduler.Apply(conn, op.KeepAlive)
		}
	}()

	retries := op.RetryCount
	if retries < 0 {
		retries = 0
	}

	var err error
	for attempt := 0; attempt <= retries; attempt++ {
		if opened {
			if cerr := r.scheduler.CloseNow(conn); cerr != nil {
				log.Warn().Err(cerr).Msg("close of failed attempt's connection failed")
			}
			conn, opened = nil, false
		}

		var aerr error
		conn, aerr = r.manager.Acquire(ctx, op)
		if aerr != nil {
			// a failed transaction may have dropped the shared connection
			if attempt > 0 && errors.Is(aerr, ErrNoExistingConnection) {
				return nil, err
			}
			return nil, aerr
		}
		opened = !op.UseExistingConnection

		var payload []byte
		payload, err = r.attempt(log, conn, op)
		if err == nil {
			return payload, nil
		}

		log.Warn().Err(err).Int("attempt", attempt+1).Msg("attempt failed")
		if !retryable(err) {
			return nil, err
		}
	}
	return nil, err
}

func (r *Runner) attempt(log zerolog.Logger, c Conn, op Operation) ([]byte, error) {
	req, err := BuildRequest(op)
	if err != nil {
		return nil, err
	}

	if op.ResetOldValues && op.Kind.IsWrite() {
		reset, err := ResetRequest(op, req)
		if err != nil {
			return nil, err
		}
		// the real write reports the failure that matters
		if _, err := Execute(c, reset); err != nil {
			log.Warn().Err(err).Msg("reset of old values failed")
		}
	}

	log.Debug().Uint16("address", req.Address).Uint16("quantity", req.Quantity).Msg("executing")

	resp, err := Execute(c, req)
	if err != nil {
		return nil, err
	}
	return DecodePayload(op, resp)
}

// Connect opens a connection with the dial retry policy, stores it for
// later samplers and applies the keep-alive policy.
func (r *Runner) Connect(ctx context.Context, op Operation) Result {
	start := time.Now()

	c, err := r.manager.Dial(ctx, op.Endpoint, op.RetryCount)

	res := Result{Successful: err == nil}
	if err != nil {
		res.Message = "Error: " + err.Error()
		r.log.Error().Err(err).Msg("connect failed")
	} else {
		r.slot.Put(c)
		r.scheduler.Apply(c, op.KeepAlive)
		res.Message = "Connected to Modbus server."
	}

	r.metrics.ObserveSample(r.Name, "connect", res.Successful, time.Since(start))
	return res
}

// Close closes the connection held in the slot.
func (r *Runner) Close() Result {
	start := time.Now()

	closed, err := r.slot.CloseActive()

	var res Result
	switch {
	case err != nil:
		res.Message = "Error closing Modbus connection: " + err.Error()
		r.log.Error().Err(err).Msg("close failed")
	case !closed:
		res.Message = "Error: " + ErrNoActiveConnection.Error()
		r.log.Warn().Msg("no active modbus connection found")
	default:
		res.Successful = true
		res.Message = "Closed Modbus connection."
		r.log.Info().Msg("closed modbus connection")
	}

	r.metrics.ObserveSample(r.Name, "close", res.Successful, time.Since(start))
	return res
}

// ResultFromError turns a failure raised before a sampler could run,
// such as a malformed property, into a host result.
func ResultFromError(err error) Result {
	return Result{Message: "Error: " + err.Error()}
}
