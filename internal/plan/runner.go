// internal/plan/runner.go
package plan

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tamzrod/modbus-sampler/internal/config"
	"github.com/tamzrod/modbus-sampler/internal/engine"
	"github.com/tamzrod/modbus-sampler/internal/session"
)

// Runner drives a plan. Each thread owns its session variables, so
// samplers of one thread share a connection and threads never do.
type Runner struct {
	plan Plan
	log  zerolog.Logger
	opts []engine.Option
}

// New returns a plan runner. opts are applied to every sampler instance.
func New(p Plan, log zerolog.Logger, opts ...engine.Option) *Runner {
	return &Runner{plan: p, log: log, opts: opts}
}

// Run starts one goroutine per thread and emits every Sample on out.
// It returns when all threads finished or ctx is done, and closes out.
func (r *Runner) Run(ctx context.Context, out chan<- Sample) error {
	defer close(out)

	g, ctx := errgroup.WithContext(ctx)
	for t := 0; t < r.plan.Threads; t++ {
		th := r.newThread(t)
		g.Go(func() error {
			th.run(ctx, out)
			return nil
		})
	}
	return g.Wait()
}

type thread struct {
	id      int
	plan    Plan
	vars    *session.Vars
	runners []*engine.Runner
	log     zerolog.Logger
}

func (r *Runner) newThread(id int) *thread {
	log := r.log.With().Int("thread", id).Logger()
	th := &thread{
		id:   id,
		plan: r.plan,
		vars: session.NewVars(),
		log:  log,
	}

	// one sampler instance per step, as the host clones them per thread
	for _, st := range r.plan.Steps {
		opts := append([]engine.Option{
			engine.WithName(st.Name),
			engine.WithLogger(log),
		}, r.opts...)
		th.runners = append(th.runners, engine.NewRunner(th.vars, opts...))
	}
	return th
}

func (th *thread) run(ctx context.Context, out chan<- Sample) {
	defer th.shutdown()

	var tick <-chan time.Time
	if th.plan.Pacing > 0 {
		ticker := time.NewTicker(th.plan.Pacing)
		defer ticker.Stop()
		tick = ticker.C
	}

	for it := 0; it < th.plan.Iterations; it++ {
		if it > 0 && tick != nil {
			select {
			case <-ctx.Done():
				return
			case <-tick:
			}
		}

		for i, st := range th.plan.Steps {
			if ctx.Err() != nil {
				return
			}

			start := time.Now()
			res := th.exec(ctx, th.runners[i], st)

			s := Sample{
				Thread:    th.id,
				Iteration: it,
				Sampler:   st.Name,
				Type:      st.Type,
				At:        start,
				Elapsed:   time.Since(start),
				Result:    res,
			}

			select {
			case <-ctx.Done():
				return
			case out <- s:
			}
		}
	}
}

func (th *thread) exec(ctx context.Context, r *engine.Runner, st Step) engine.Result {
	if st.Err != nil {
		return engine.ResultFromError(st.Err)
	}

	switch st.Type {
	case config.TypeConnect:
		return r.Connect(ctx, st.Op)
	case config.TypeClose:
		return r.Close()
	default:
		return r.Run(ctx, st.Op)
	}
}

// shutdown drops pending deferred closes and closes whatever connection
// the thread still holds.
func (th *thread) shutdown() {
	for _, r := range th.runners {
		r.Stop()
	}

	closed, err := session.NewSlot[engine.Conn](th.vars).CloseActive()
	switch {
	case err != nil:
		th.log.Warn().Err(err).Msg("closing thread connection failed")
	case closed:
		th.log.Debug().Msg("thread connection closed")
	}
}
