package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	symboladapters "stock_trend/internal/feature/symbollist/adapters"
	symbolusecase "stock_trend/internal/feature/symbollist/usecase"
)

var preloadFile string

// preloadCmd preload サブコマンド
var preloadCmd = &cobra.Command{
	Use:   "preload [SYMBOL...]",
	Short: "Ingest tickers that are not stored yet",
	Long: `Ingest every ticker given as an argument, listed in --file, or configured
under preload.symbols / preload.symbols_file. Already ingested tickers are skipped.

Examples:
  go run ./cmd/trendctl preload AAPL MSFT
  go run ./cmd/trendctl preload --file configs/tickers.txt`,
	RunE: runPreload,
}

func init() {
	preloadCmd.Flags().StringVarP(&preloadFile, "file", "f", "", "ticker file, one symbol per line")
}

func runPreload(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	source := app.PreloadSource()
	if len(args) > 0 || preloadFile != "" {
		sources := symbolusecase.MultiSource{symbolusecase.StaticSource(args)}
		if preloadFile != "" {
			sources = append(sources, symboladapters.NewFileSource(preloadFile))
		}
		source = sources
	}

	symbols, err := source.Symbols(ctx)
	if err != nil {
		return err
	}
	if len(symbols) == 0 {
		return fmt.Errorf("no symbols to preload")
	}

	report := app.Trend.PreloadAll(ctx, symbols)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "requested: %d\n", report.Requested)
	fmt.Fprintf(out, "ingested:  %d %v\n", len(report.Ingested), report.Ingested)
	fmt.Fprintf(out, "skipped:   %d %v\n", len(report.Skipped), report.Skipped)
	fmt.Fprintf(out, "failed:    %d\n", len(report.Failed))
	for _, f := range report.Failed {
		fmt.Fprintf(out, "  %s: %v\n", f.Symbol, f.Err)
	}
	return nil
}
