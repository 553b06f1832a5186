// cmd/mbsampler/commands.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tamzrod/modbus-sampler/internal/config"
	"github.com/tamzrod/modbus-sampler/internal/engine"
	"github.com/tamzrod/modbus-sampler/internal/plan"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <plan.yaml>",
		Short: "Run a test plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, ctx := newEnv()
			defer e.stop()

			// --------------------
			// Load + validate plan
			// --------------------

			cfg, err := config.Load(args[0])
			if err != nil {
				return fmt.Errorf("plan load failed: %w", err)
			}
			if err := config.Validate(cfg); err != nil {
				return fmt.Errorf("plan validation failed: %w", err)
			}
			config.Normalize(cfg)

			p := plan.FromConfig(cfg)
			e.log.Info().
				Int("threads", p.Threads).
				Int("iterations", p.Iterations).
				Int("samplers", len(p.Steps)).
				Msg("plan loaded")

			r := plan.New(p, e.log, engine.WithMetrics(e.metrics))

			out := make(chan plan.Sample)
			done := make(chan error, 1)
			go func() { done <- r.Run(ctx, out) }()

			sum := newSummary()
			for s := range out {
				emit(e, s)
				sum.add(s)
			}
			if err := <-done; err != nil {
				return err
			}

			sum.log(e)
			if sum.failed > 0 {
				return errSamplesFailed
			}
			return nil
		},
	}
}

// sampler flags shared by the one-shot commands
type samplerFlags struct {
	config.SamplerConfig
}

func (f *samplerFlags) bindConnection(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.IPAddress, "host", "127.0.0.1", "Modbus server host")
	fs.StringVar(&f.Port, "port", "502", "Modbus server port")
	fs.StringVar(&f.Timeout, "timeout", config.DefaultTimeout, "connect and response timeout in ms")
	fs.StringVar(&f.RetryCount, "retry", config.DefaultRetryCount, "retry count")
	fs.StringVar(&f.KeepAlive, "keep-alive", "-1", "keep-alive in ms (<0 close now, 0 keep open)")
}

func (f *samplerFlags) bindTransaction(cmd *cobra.Command, write bool) {
	fs := cmd.Flags()
	fs.StringVar(&f.Method, "method", "", "function, e.g. \"Read Holding Registers\" or \"Multiple Registers\"")
	fs.StringVar(&f.Address, "address", "0", "start address")
	fs.StringVar(&f.DataType, "data-type", "Integer", "Integer, Hexadecimal, Float, String or Boolean")
	_ = cmd.MarkFlagRequired("method")
	if write {
		fs.StringVar(&f.Value, "value", "", "comma-separated values")
		fs.StringVar(&f.Length, "length", "", "reset width for multiple writes")
		fs.BoolVar(&f.ResetOldValues, "reset", false, "write zero/false values before the write")
		_ = cmd.MarkFlagRequired("value")
	} else {
		fs.StringVar(&f.Length, "length", "1", "quantity to read")
	}
}

func newConnectCmd() *cobra.Command {
	f := &samplerFlags{}
	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Open and close one connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f.Name, f.Type = "connect", config.TypeConnect
			return runOnce(f.SamplerConfig)
		},
	}
	f.bindConnection(cmd)
	return cmd
}

func newReadCmd() *cobra.Command {
	f := &samplerFlags{}
	cmd := &cobra.Command{
		Use:   "read",
		Short: "Run one read sample on a new connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f.Name, f.Type = "read", config.TypeRead
			return runOnce(f.SamplerConfig)
		},
	}
	f.bindConnection(cmd)
	f.bindTransaction(cmd, false)
	return cmd
}

func newWriteCmd() *cobra.Command {
	f := &samplerFlags{}
	cmd := &cobra.Command{
		Use:   "write",
		Short: "Run one write sample on a new connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f.Name, f.Type = "write", config.TypeWrite
			return runOnce(f.SamplerConfig)
		},
	}
	f.bindConnection(cmd)
	f.bindTransaction(cmd, true)
	return cmd
}

// runOnce runs a one-sampler plan: one thread, one iteration.
func runOnce(s config.SamplerConfig) error {
	cfg := &config.Config{Plan: config.PlanConfig{Samplers: []config.SamplerConfig{s}}}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	config.Normalize(cfg)

	e, ctx := newEnv()
	defer e.stop()

	r := plan.New(plan.FromConfig(cfg), e.log, engine.WithMetrics(e.metrics))
	out := make(chan plan.Sample)
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx, out) }()

	failed := false
	for smp := range out {
		emit(e, smp)
		failed = failed || !smp.Result.Successful
	}
	if err := <-done; err != nil {
		return err
	}
	if failed {
		return errSamplesFailed
	}
	return nil
}
