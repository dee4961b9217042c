package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iconidentify/xgrabbot/internal/domain"
)

func newResolveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <text>",
		Short: "Print what the bot would answer to an inline query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			text := strings.Join(args, " ")
			ids, err := a.grab.ExtractTweetIDs(ctx, domain.Origin{}, text)
			if err != nil {
				return err
			}

			result, err := a.grab.DispatchInline(ctx, domain.Origin{}, ids)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
}
