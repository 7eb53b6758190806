// Package commands holds the dcqueue command line.
package commands

import (
	"fmt"

	"github.com/Charana123/dcqueue/go-queue/config"
	"github.com/Charana123/dcqueue/go-queue/logging"
	"github.com/Charana123/dcqueue/go-queue/manifest"
	"github.com/Charana123/dcqueue/go-queue/queue"
	"github.com/Charana123/dcqueue/go-queue/stats"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app is the state shared by the subcommands of one invocation.
type app struct {
	cfgFile   string
	queueFile string

	cfg   *config.Config
	queue queue.FileQueue
	stats stats.Stats
}

// NewRootCmd builds the dcqueue command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "dcqueue",
		Short:         "Inspect a download queue manifest",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logging.Sync()
		},
	}
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file")
	root.PersistentFlags().StringVar(&a.queueFile, "queue", "", "queue manifest (bencode)")

	root.AddCommand(
		newInfoCmd(a),
		newDupeCmd(a),
		newMatchCmd(a),
		newPFSCmd(a),
		newBloomCmd(a),
		newServeCmd(a),
	)
	return root
}

func (a *app) load() error {
	cfg, err := config.Load(manifest.AppFS, a.cfgFile)
	if err != nil {
		return err
	}
	if err := logging.Init(cfg.Logging()); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	cfg.Apply()
	a.cfg = cfg

	a.queue = queue.NewFileQueue()
	a.stats = stats.NewStats(a.queue)
	if a.queueFile == "" {
		return nil
	}

	q, err := manifest.LoadQueue(manifest.AppFS, a.queueFile)
	if err != nil {
		return err
	}
	n, err := q.Populate(a.queue)
	if err != nil {
		return fmt.Errorf("%s: %w", a.queueFile, err)
	}
	logging.Info("queue loaded",
		zap.String("manifest", a.queueFile),
		zap.Int("items", n),
		zap.Int64("size", a.queue.Size()))
	return nil
}
