package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/formlab-dev/formlab/pkg/simulate"
)

func runCmd() *cobra.Command {
	var (
		count       int
		failureRate float64
		seed        int64
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a batch simulation against the fake backend",
		Long: `Fire a batch of calls at the simulated backend and report the
observed failure rate against the configured one.

Useful for sanity-checking the failure injection:

  formlab run --count=10000 --failure-rate=0.1 --seed=42`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(count, failureRate, seed)
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 10000, "Number of simulated calls")
	cmd.Flags().Float64VarP(&failureRate, "failure-rate", "f", simulate.DefaultFailureRate, "Injected failure probability [0,1]")
	cmd.Flags().Int64Var(&seed, "seed", 0, "RNG seed (0 uses the clock)")

	return cmd
}

func runBatch(count int, failureRate float64, seed int64) error {
	if count <= 0 {
		return fmt.Errorf("count must be positive, got %d", count)
	}

	opts := []simulate.Option{
		simulate.WithLatency(0),
		simulate.WithFailureRate(failureRate),
	}
	if seed != 0 {
		opts = append(opts, simulate.WithSeed(seed))
	}
	backend := simulate.New(opts...)

	header("run")
	info("Calls:        %d", count)
	info("Failure rate: %.2f", failureRate)

	start := time.Now()
	failures := 0
	var callErr *simulate.CallError
	for i := 0; i < count; i++ {
		_, err := backend.Call(context.Background(), "batch", map[string]any{"i": i})
		if err != nil {
			if !errors.As(err, &callErr) {
				return err
			}
			failures++
		}
	}

	observed := float64(failures) / float64(count)
	fmt.Println()
	info("Failures:  %d/%d", failures, count)
	info("Observed:  %.4f", observed)
	info("Elapsed:   %s", time.Since(start).Round(time.Millisecond))

	drift := observed - failureRate
	if drift < 0 {
		drift = -drift
	}
	if drift > 0.02 && count >= 1000 {
		warn("Observed rate drifts %.4f from configured", drift)
	} else {
		success("Failure injection on target")
	}
	return nil
}
