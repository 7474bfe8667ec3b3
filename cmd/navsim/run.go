package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/udisondev/navcore/internal/metrics"
	"github.com/udisondev/navcore/internal/pathfinding"
	"github.com/udisondev/navcore/internal/sim"
)

const (
	demoSize       = 48
	reportInterval = 5 * time.Second
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the simulation loop and serve metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func run(ctx context.Context) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	pf := pathfinding.New(cfg.Pathfinding.Facade(), metrics.New(reg))
	defer pf.UnloadAll()

	demo := sim.BuildDemo(pf, demoSize, cfg.Pathfinding.Voxel.VoxelSize, cfg.Pathfinding.Grid.CellSize)
	mgr := sim.NewTickManager(pf, cfg.Sim.TickInterval)
	seed := uint64(cfg.Sim.Seed)
	demo.Spawn(pf, mgr, cfg.Sim.Agents, rand.New(rand.NewPCG(seed, seed)))

	slog.Info("navsim starting",
		"pathfinding", pf.ID(),
		"agents", mgr.Count(),
		"tick_interval", cfg.Sim.TickInterval,
		"metrics_addr", cfg.Sim.MetricsAddr)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := mgr.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("sim tick manager: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(reportInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				report(mgr)
			}
		}
	})

	if cfg.Sim.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.Sim.MetricsAddr,
			Handler:           metricsMux(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			slog.Info("metrics server listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	report(mgr)
	slog.Info("navsim stopped", "ticks", mgr.Ticks())
	return nil
}

func metricsMux(reg *prometheus.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	return mux
}

// report logs how many agents are in each smart path state.
func report(mgr *sim.TickManager) {
	states := mgr.States()
	attrs := []any{"tick", mgr.Ticks(), "agents", mgr.Count()}
	for _, st := range []pathfinding.State{
		pathfinding.StateSearching,
		pathfinding.StateReady,
		pathfinding.StateFailed,
		pathfinding.StateInvalidated,
	} {
		attrs = append(attrs, st.String(), states[st])
	}
	slog.Info("sim status", attrs...)
}
