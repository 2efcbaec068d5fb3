package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// trendCmd trend サブコマンド
var trendCmd = &cobra.Command{
	Use:   "trend SYMBOL",
	Short: "Print the latest trend of a ticker",
	Long: `Print increased, decreased or stable for a ticker. An unknown ticker is
ingested first. Failures are printed as a message, not returned as an error.

Examples:
  go run ./cmd/trendctl trend AAPL`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { _ = app.Close() }()

		fmt.Fprintln(cmd.OutOrStdout(), app.Trend.GetTrend(cmd.Context(), args[0]))
		return nil
	},
}
