package commands

import (
	"encoding/hex"
	"fmt"
	"net"
	"time"

	"github.com/Charana123/dcqueue/go-queue/hash"
	"github.com/Charana123/dcqueue/go-queue/logging"
	"github.com/Charana123/dcqueue/go-queue/manifest"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print the number of queued files and the bytes still pending",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "items: %d\n", a.queue.Len())
			fmt.Fprintf(out, "size: %d\n", a.queue.Size())
			fmt.Fprintf(out, "users: %d\n", a.queue.Users().Cardinality())
			return nil
		},
	}
}

func newDupeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dupe TTH",
		Short: "Tell whether content is already queued or finished",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tth, err := hash.ParseTTH(args[0])
			if err != nil {
				return err
			}
			dupe := a.queue.IsFileQueued(tth).String()
			a.stats.RecordDupeCheck(dupe)
			fmt.Fprintln(cmd.OutOrStdout(), dupe)
			return nil
		},
	}
}

func newMatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "match LISTING",
		Short: "List queued files a remote file listing can supply",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := manifest.LoadListing(manifest.AppFS, args[0])
			if err != nil {
				return err
			}
			dl, err := l.Build()
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			matched := a.queue.MatchListing(dl)
			a.stats.RecordMatch(len(matched))
			logging.Info("listing matched",
				zap.String("user", dl.User),
				zap.Int("files", dl.GetRoot().FileCount()),
				zap.Int("matched", len(matched)))
			for _, si := range matched {
				fmt.Fprintln(cmd.OutOrStdout(), si.Item.GetTarget())
			}
			return nil
		},
	}
}

func newPFSCmd(a *app) *cobra.Command {
	var nowUnix int64
	var maxResults int

	cmd := &cobra.Command{
		Use:   "pfs",
		Short: "List partial sources due for a status query, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			if nowUnix != 0 {
				now = time.Unix(nowUnix, 0)
			}

			sources := a.queue.FindPFSSources(now, maxResults)
			a.stats.RecordPFSRun(len(sources))
			for _, ps := range sources {
				p := ps.Source.Partial
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\t%s\n",
					p.NextQueryTime.Unix(),
					ps.Source.User.CID,
					net.JoinHostPort(p.Ip, p.UdpPort),
					ps.Item.GetTarget())
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&nowUnix, "now", 0, "evaluate at this unix time instead of the current time")
	cmd.Flags().IntVar(&maxResults, "max", 0, "maximum number of sources (default pfs.max_results)")
	return cmd
}

func newBloomCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "bloom",
		Short: "Build the bloom filter of bundled content",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n := 0
			for _, qi := range a.queue.Items() {
				if qi.HasBundle() {
					n++
				}
			}

			h := a.cfg.Bloom.H
			k := a.cfg.Bloom.K
			if k == 0 {
				k = hash.GetK(n, h)
			}
			bloom := hash.NewHashBloom()
			bloom.Reset(k, int(hash.GetM(n, k)), h)
			a.queue.GetBloom(bloom)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "k=%d m=%d h=%d\n", bloom.K(), bloom.M(), bloom.H())
			fmt.Fprintln(out, hex.EncodeToString(bloom.Bytes()))
			return nil
		},
	}
}
