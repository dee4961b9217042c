package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/iconidentify/xgrabbot/internal/domain"
)

func newStatsCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the usage counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.grab.Stats(ctx)
			if err != nil {
				return err
			}
			return printStats(cmd.OutOrStdout(), stats)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Reset the usage counters to zero",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.grab.ResetStats(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Bot stats have been reset")
			return nil
		},
	})

	return cmd
}

func printStats(w io.Writer, s domain.Stats) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, name := range domain.CounterNames {
		fmt.Fprintf(tw, "%s\t%s\n", name, humanize.Comma(s.Get(name)))
	}
	return tw.Flush()
}
