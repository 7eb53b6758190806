package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Charana123/dcqueue/go-queue/logging"
	"github.com/Charana123/dcqueue/go-queue/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	notifySignals = signal.Notify
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve queue metrics until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := prometheus.NewRegistry()
			registry.MustRegister(
				a.stats,
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			quit := make(chan int)
			sv, err := server.NewServer(a.cfg.Metrics.Addr, registry, quit)
			if err != nil {
				return fmt.Errorf("metrics listener: %w", err)
			}
			sv.Serve()
			logging.Info("serving metrics", zap.Int("port", sv.GetServerPort()))
			fmt.Fprintf(cmd.OutOrStdout(), "listening on port %d\n", sv.GetServerPort())

			sig := make(chan os.Signal, 1)
			notifySignals(sig, syscall.SIGINT, syscall.SIGTERM)
			select {
			case <-sig:
			case <-cmd.Context().Done():
			}
			close(quit)
			return nil
		},
	}
}
