package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/rxtech-lab/argo-options/internal/backtest/engine"
	engine_v1 "github.com/rxtech-lab/argo-options/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-options/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-options/internal/logger"
	"github.com/rxtech-lab/argo-options/internal/version"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// runAction loads the config and bar file, runs every strategy and prints a summary.
func runAction(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	dataPath := cmd.String("data")
	resultsPath := cmd.String("results")

	level, err := zapcore.ParseLevel(cmd.String("log-level"))
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	l, err := logger.NewLoggerWithLevel(level)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer l.Sync() //nolint:errcheck

	content, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	config, err := engine_v1.ParseConfig(string(content))
	if err != nil {
		return err
	}

	loc, err := config.Location()
	if err != nil {
		return err
	}

	ds, err := datasource.NewDataSource(":memory:", loc, l)
	if err != nil {
		return err
	}
	defer ds.Close()

	if err := ds.Initialize(dataPath); err != nil {
		return err
	}

	backtester := engine_v1.NewBacktestEngineV1WithLogger(l)
	if err := backtester.Initialize(string(content)); err != nil {
		return err
	}

	if err := backtester.SetDataSource(ds); err != nil {
		return err
	}

	quotesPath := cmd.String("quotes")
	if quotesPath == "" {
		quotesPath = config.Pricer.QuotesPath
	}

	if config.Pricer.Type == engine_v1.PricerTypeQuoteBook {
		if quotesPath == "" {
			return fmt.Errorf("pricer type %s needs a quotes file", engine_v1.PricerTypeQuoteBook)
		}

		book, err := ds.LoadQuotes(quotesPath, config.Symbol)
		if err != nil {
			return err
		}

		l.Info("Loaded option quotes", zap.String("path", quotesPath), zap.Int("quotes", book.Len()))

		if err := backtester.SetPricer(book); err != nil {
			return err
		}
	}

	if err := backtester.SetResultsFolder(resultsPath); err != nil {
		return err
	}

	var bar *progressbar.ProgressBar

	onStart := engine.OnBacktestStartCallback(func(runID string, totalStrategies int, totalDays int) error {
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetDescription(fmt.Sprintf("Backtesting %d strategies over %d days", totalStrategies, totalDays)),
			progressbar.OptionShowCount(),
		)

		return nil
	})
	onProcessData := engine.OnProcessDataCallback(func(current int, total int) error {
		bar.ChangeMax(total)

		return bar.Set(current)
	})

	result, err := backtester.Run(ctx, engine.LifecycleCallbacks{
		OnBacktestStart: &onStart,
		OnBacktestEnd:   nil,
		OnStrategyStart: nil,
		OnStrategyEnd:   nil,
		OnDayEnd:        nil,
		OnProcessData:   &onProcessData,
	})
	if bar != nil {
		_ = bar.Finish()
	}

	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	fmt.Println()
	fmt.Println(RenderSummary(result))

	if resultsPath != "" {
		fmt.Println(HelpStyle.Render("Results written to " + resultsPath))
	}

	return nil
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "backtest",
		Usage:   "Backtest intraday option strategies on underlying price bars",
		Version: version.GetVersion(),
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run every configured strategy and write the results",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "config",
						Aliases:  []string{"c"},
						Usage:    "Path to the backtest config `FILE`",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "Parquet or CSV file of underlying bars",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "quotes",
						Aliases:  []string{"q"},
						Usage:    "Parquet or CSV file of option closes, overrides pricer.quotes_path",
						Required: false,
					},
					&cli.StringFlag{
						Name:     "results",
						Aliases:  []string{"r"},
						Usage:    "Output directory for trades, equity and reports",
						Value:    "results",
						Required: false,
					},
					&cli.StringFlag{
						Name:     "log-level",
						Usage:    "Log level (debug, info, warn, error)",
						Value:    "warn",
						Required: false,
					},
				},
				Action: runAction,
			},
			{
				Name:  "schema",
				Usage: "Write the config JSON schema and a sample config",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "output",
						Aliases:  []string{"o"},
						Usage:    "Output directory",
						Value:    "config",
						Required: false,
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return WriteSchema(cmd.String("output"))
				},
			},
		},
	}
}

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
