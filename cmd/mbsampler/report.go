// cmd/mbsampler/report.go
package main

import (
	"sort"
	"time"

	"github.com/tamzrod/modbus-sampler/internal/plan"
)

// emit writes one sample line to stdout.
func emit(e *env, s plan.Sample) {
	ev := e.out.Info()
	if !s.Result.Successful {
		ev = e.out.Warn()
	}
	ev = ev.
		Int("thread", s.Thread).
		Int("iteration", s.Iteration).
		Str("sampler", s.Sampler).
		Bool("ok", s.Result.Successful).
		Dur("elapsed", s.Elapsed)
	if s.Result.Payload != nil {
		ev = ev.Str("payload", string(s.Result.Payload))
	}
	ev.Msg(s.Result.Message)
}

type samplerStats struct {
	ok, failed int
	total      time.Duration
}

type summary struct {
	failed int
	per    map[string]*samplerStats
	order  []string
}

func newSummary() *summary {
	return &summary{per: make(map[string]*samplerStats)}
}

func (s *summary) add(smp plan.Sample) {
	st, ok := s.per[smp.Sampler]
	if !ok {
		st = &samplerStats{}
		s.per[smp.Sampler] = st
		s.order = append(s.order, smp.Sampler)
	}
	if smp.Result.Successful {
		st.ok++
	} else {
		st.failed++
		s.failed++
	}
	st.total += smp.Elapsed
}

func (s *summary) log(e *env) {
	names := append([]string(nil), s.order...)
	sort.Strings(names)

	for _, name := range names {
		st := s.per[name]
		n := st.ok + st.failed
		e.log.Info().
			Str("sampler", name).
			Int("samples", n).
			Int("failed", st.failed).
			Dur("avg", st.total/time.Duration(n)).
			Msg("summary")
	}
}
