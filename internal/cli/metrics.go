// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/deepcognitive/deepcog-tui/internal/service"
)

// gaugeInterval matches the dashboard's resource refresh.
const gaugeInterval = 2 * time.Second

func newMetricsCommand(g *globalOptions) *cobra.Command {
	var (
		addr    string
		connect bool
	)
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Serve Prometheus metrics",
		Long: `Serve client metrics and the resource gauges on /metrics until interrupted.
With --connect the text stream is opened so its state is reported.`,
		Example: `  $ deepcog metrics --addr :9090
  $ curl -s localhost:9090/metrics | grep deepcog_`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := g.runtime(ctx, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			handler, err := metricsHandler(rt)
			if err != nil {
				return commandError("metrics", "register", err)
			}
			if connect {
				if err := connectSession(ctx, rt); err != nil {
					rt.Logger.Warn().Err(err).Msg("text stream connect failed")
				}
			}

			srv := &http.Server{
				Addr:              addr,
				Handler:           handler,
				ReadHeaderTimeout: 5 * time.Second,
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Serving metrics on http://%s/metrics\n", displayAddr(addr))
			return serveUntilDone(ctx, srv, rt)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":9090", "listen address")
	cmd.Flags().BoolVar(&connect, "connect", false, "connect the text stream")
	return cmd
}

// metricsHandler registers the resource gauges next to the client metrics
// and returns a mux serving them on /metrics.
func metricsHandler(rt *Runtime) (http.Handler, error) {
	reg := rt.Metrics.Registry()
	for _, c := range rt.Sampler.Collectors("deepcog") {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", rt.Metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		state := rt.Service.State()
		if state == service.StateClosed {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		fmt.Fprintln(w, state)
	})
	return mux, nil
}

// serveUntilDone runs srv, resampling the gauges, until ctx ends.
func serveUntilDone(ctx context.Context, srv *http.Server, rt *Runtime) error {
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	ticker := time.NewTicker(gaugeInterval)
	defer ticker.Stop()
	rt.Sampler.Sample()

	for {
		select {
		case err := <-errc:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return commandError("metrics", "serve", err)
		case <-ticker.C:
			rt.Sampler.Sample()
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		}
	}
}

func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
