package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/formlab-dev/formlab/pkg/form"
	"github.com/formlab-dev/formlab/pkg/metrics"
	"github.com/formlab-dev/formlab/pkg/server"
	"github.com/formlab-dev/formlab/pkg/simulate"
)

func serveCmd() *cobra.Command {
	var (
		addr        string
		latency     time.Duration
		failureRate float64
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the demo HTTP server",
		Long: `Start the demo server with two registered forms.

Endpoints:
  POST /api/actions/{name}   validate and submit a form
  GET  /api/actions/{name}   current action state
  GET  /live                 websocket stream of state transitions
  GET  /metrics              Prometheus exposition
  GET  /healthz              liveness check

Examples:
  formlab serve
  formlab serve --addr=:9090 --latency=200ms
  formlab serve --failure-rate=0.5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(addr, latency, failureRate)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", ":8080", "Listen address")
	cmd.Flags().DurationVarP(&latency, "latency", "l", simulate.DefaultLatency, "Simulated backend latency")
	cmd.Flags().Float64VarP(&failureRate, "failure-rate", "f", simulate.DefaultFailureRate, "Injected failure probability [0,1]")

	return cmd
}

func runServe(addr string, latency time.Duration, failureRate float64) error {
	m := metrics.New()
	backend := simulate.New(
		simulate.WithLatency(latency),
		simulate.WithFailureRate(failureRate),
	)

	srv := server.New(server.Config{
		Addr:    addr,
		Backend: backend,
		Metrics: m,
	})
	srv.RegisterForm("updateProfile", form.Schema{
		"name":  {Required: true, MinLength: 2, MaxLength: 50},
		"email": {Required: true, Pattern: form.Email()},
	})
	srv.RegisterForm("addComment", form.Schema{
		"comment": {Required: true, MinLength: 1, MaxLength: 500},
	})

	header("serve")
	info("Listening on %s", addr)
	info("Backend latency %s, failure rate %.0f%%", latency, failureRate*100)
	if failureRate >= 1 {
		warn("Every submission will fail")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		fmt.Println("\n\n  Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return err
		}
		success("Server stopped")
		return nil
	}
}
