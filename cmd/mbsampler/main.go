// cmd/mbsampler/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tamzrod/modbus-sampler/internal/metrics"
)

var (
	verbose     bool
	jsonOutput  bool
	metricsAddr string
)

// errSamplesFailed makes the process exit non-zero without printing twice.
var errSamplesFailed = errors.New("one or more samples failed")

func main() {
	rootCmd := &cobra.Command{
		Use:           "mbsampler",
		Short:         "Modbus/TCP load-test sampler",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "write logs and samples as JSON lines")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9102)")

	rootCmd.AddCommand(
		newRunCmd(),
		newConnectCmd(),
		newReadCmd(),
		newWriteCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errSamplesFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// env is what every command runs with.
type env struct {
	log     zerolog.Logger // diagnostics, stderr
	out     zerolog.Logger // samples, stdout
	metrics *metrics.Collector
	stop    func()
}

func newEnv() (*env, context.Context) {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	e := &env{
		log: newLogger(os.Stderr).Level(level),
		out: newLogger(os.Stdout),
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	e.stop = cancel

	if metricsAddr == "" {
		return e, ctx
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	e.metrics = metrics.New(reg)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.log.Error().Err(err).Str("addr", metricsAddr).Msg("metrics server failed")
		}
	}()
	e.log.Info().Str("addr", metricsAddr).Msg("serving metrics")

	e.stop = func() {
		sctx, scancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer scancel()
		_ = srv.Shutdown(sctx)
		cancel()
	}
	return e, ctx
}

func newLogger(w io.Writer) zerolog.Logger {
	if !jsonOutput {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}
