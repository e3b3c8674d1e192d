package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"pepperwatch/internal/archive"
	"pepperwatch/internal/config"
	"pepperwatch/internal/domain"
	"pepperwatch/internal/forecast"
	"pepperwatch/internal/market"
	"pepperwatch/internal/predict"
	"pepperwatch/internal/series"
	"pepperwatch/internal/util"
	"pepperwatch/pkg/pepper"
)

const version = "0.1.0"

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: pepper-cli <command> [options]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  version                    Print the CLI version\n")
	fmt.Fprintf(os.Stderr, "  regions                    List known market regions\n")
	fmt.Fprintf(os.Stderr, "  latest                     Show the latest price per region\n")
	fmt.Fprintf(os.Stderr, "  history <region>           Show the recent price history\n")
	fmt.Fprintf(os.Stderr, "  backtest <region>          Show model accuracy over past days\n")
	fmt.Fprintf(os.Stderr, "  predict <region> <date>    Predict the price for a future date\n")
	fmt.Fprintf(os.Stderr, "  chat <message...>          Ask the market assistant\n")
	fmt.Fprintf(os.Stderr, "  export <region>            Archive the price history to Parquet\n")
	fmt.Fprintf(os.Stderr, "  predictions <region>       List predictions logged by this machine\n")
	fmt.Fprintf(os.Stderr, "\n")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	cmd, args := os.Args[1], os.Args[2:]

	if cmd == "version" {
		fmt.Printf("pepper-cli %s\n", version)
		return
	}

	cfg := loadConfig()
	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	client := pepper.NewClient(cfg.Backend.BaseURL, pepper.WithTimeout(cfg.Backend.Timeout()))
	orch := market.New(client, logger)
	workflow := predict.NewWorkflow(orch, forecast.SystemClock{}, logger,
		cfg.Forecast.MaxDaysAhead, cfg.Views.PredictContextDays)
	app := &cli{cfg: cfg, orch: orch, workflow: workflow}

	ctx := context.Background()
	var err error
	switch cmd {
	case "regions":
		err = app.regions()
	case "latest":
		err = app.latest(ctx, args)
	case "history":
		err = app.history(ctx, args)
	case "backtest":
		err = app.backtest(ctx, args)
	case "predict":
		err = app.predict(ctx, args)
	case "chat":
		err = app.chat(ctx, args)
	case "export":
		err = app.export(ctx, args)
	case "predictions":
		err = app.predictions(ctx, args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() *config.Config {
	cfgPath := "config/pepperwatch.yaml"
	if p := os.Getenv("PEPPER_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		// No config file is fine for the CLI; env overrides still apply.
		cfg = config.Default()
	}
	if cfg.Backend.BaseURL == "" {
		fmt.Fprintln(os.Stderr, "backend URL not configured: set PEPPER_BACKEND_URL or backend.base_url in", cfgPath)
		os.Exit(1)
	}
	return cfg
}

type cli struct {
	cfg      *config.Config
	orch     *market.Orchestrator
	workflow *predict.Workflow
}

// withRetry wraps fn with the shared retry helper when --retries asks for
// more than one attempt. Only transport failures are retried; a server that
// answered with an error will answer the same way again.
func withRetry(ctx context.Context, attempts int, fn func() error) error {
	if attempts <= 1 {
		return fn()
	}
	return util.Retry(ctx, attempts, 500*time.Millisecond, isTransient, fn)
}

func isTransient(err error) bool {
	var ne *pepper.NetworkError
	return errors.As(err, &ne)
}

func parseRegionArg(args []string) (domain.Region, []string, error) {
	if len(args) < 1 {
		return "", nil, fmt.Errorf("region required (one of: %s)", regionList())
	}
	region, err := domain.ParseRegion(args[0])
	if err != nil {
		return "", nil, err
	}
	return region, args[1:], nil
}

func regionList() string {
	var names []string
	for _, r := range domain.Regions() {
		names = append(names, string(r))
	}
	return strings.Join(names, ", ")
}

func (c *cli) regions() error {
	for _, r := range domain.Regions() {
		fmt.Printf("%-16s %s\n", r, r.DisplayName())
	}
	return nil
}

func (c *cli) latest(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("latest", flag.ExitOnError)
	viaChat := fs.Bool("via-chat", false, "derive the quote from the chat assistant instead of the price feed")
	retries := fs.Int("retries", 1, "attempts per request")
	fs.Parse(args)

	if *viaChat {
		for _, region := range domain.Regions() {
			var quote domain.LatestQuote
			err := withRetry(ctx, *retries, func() error {
				var err error
				quote, err = c.orch.LatestQuoteViaChat(ctx, region)
				return err
			})
			if err != nil {
				fmt.Printf("%-16s unavailable (%v)\n", region, err)
				continue
			}
			fmt.Printf("%-16s %12s  %s\n", region, series.FormatINR(quote.Price), quote.Date)
		}
		return nil
	}

	var quotes map[domain.Region]domain.LatestQuote
	err := withRetry(ctx, *retries, func() error {
		var err error
		quotes, err = c.orch.GetLatestPrices(ctx)
		return err
	})
	if err != nil {
		return err
	}
	for _, region := range domain.Regions() {
		q, ok := quotes[region]
		if !ok {
			fmt.Printf("%-16s no data\n", region)
			continue
		}
		fmt.Printf("%-16s %12s  %s\n", region, series.FormatINR(q.Price), q.Date)
	}
	return nil
}

func (c *cli) history(ctx context.Context, args []string) error {
	region, rest, err := parseRegionArg(args)
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	days := fs.Int("days", c.cfg.Views.OverviewDays, "days of history")
	retries := fs.Int("retries", 1, "attempts per request")
	fs.Parse(rest)

	var points []domain.PricePoint
	err = withRetry(ctx, *retries, func() error {
		var err error
		points, err = c.orch.GetHistorical(ctx, region, *days)
		return err
	})
	if err != nil {
		return err
	}
	for _, p := range points {
		fmt.Printf("%s  %12s\n", p.Date, series.FormatINR(p.Price))
	}
	return nil
}

func (c *cli) backtest(ctx context.Context, args []string) error {
	region, rest, err := parseRegionArg(args)
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("backtest", flag.ExitOnError)
	days := fs.Int("days", c.cfg.Views.BacktestDays, "days of backtest")
	retries := fs.Int("retries", 1, "attempts per request")
	fs.Parse(rest)

	var points []domain.BacktestPoint
	err = withRetry(ctx, *retries, func() error {
		var err error
		points, err = c.orch.GetBacktest(ctx, region, *days)
		return err
	})
	if err != nil {
		return err
	}
	fmt.Printf("%-12s %12s %12s %9s\n", "date", "actual", "predicted", "error%")
	for _, p := range points {
		errPct := 0.0
		if p.Actual != 0 {
			errPct = (p.Predicted - p.Actual) / p.Actual * 100
		}
		fmt.Printf("%-12s %12.2f %12.2f %+8.2f%%\n", p.Date, p.Actual, p.Predicted, errPct)
	}
	return nil
}

func (c *cli) predict(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: predict <region> <YYYY-MM-DD>")
	}

	// The workflow owns validation: the date must parse, lie after today,
	// and stay within the configured horizon. Nothing reaches the backend
	// otherwise.
	out, err := c.workflow.Run(ctx, predict.Input{Region: args[0], Date: args[1]})
	if err != nil {
		return err
	}

	res := out.Result
	fmt.Printf("%s on %s: %s  [%s]\n",
		res.Region.DisplayName(), series.FormatDateLong(res.TargetDate),
		series.FormatINR(res.PredictedPrice), out.Tier.Label())
	if out.ContextErr != nil {
		fmt.Printf("(recent history unavailable: %v)\n", out.ContextErr)
	} else if n := len(out.Series); n > 1 {
		// The last point is the prediction; everything before it is history.
		hist := out.Series[:n-1]
		first, last := hist[0], hist[len(hist)-1]
		fmt.Printf("context: %d days, %s to %s, last close %s\n",
			len(hist), first.Date, last.Date, series.FormatINR(last.Price))
	}
	c.logPrediction(ctx, res, out.Tier)
	return nil
}

// logPrediction records the prediction locally so it can be compared later
// against the price that materializes. Logging failures are not fatal.
func (c *cli) logPrediction(ctx context.Context, result domain.PredictionResult, tier forecast.Tier) {
	plog, err := archive.NewSQLiteLog(c.cfg.Archive.SQLitePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: prediction log unavailable: %v\n", err)
		return
	}
	defer plog.Close()
	rec := archive.PredictionRecord{
		Region:         result.Region,
		TargetDate:     result.TargetDate,
		PredictedPrice: result.PredictedPrice,
		Tier:           string(tier),
		CreatedAt:      time.Now().UTC().Format(time.RFC3339),
	}
	if err := plog.SavePrediction(ctx, rec); err != nil {
		fmt.Fprintf(os.Stderr, "warning: logging prediction: %v\n", err)
	}
}

func (c *cli) predictions(ctx context.Context, args []string) error {
	region, rest, err := parseRegionArg(args)
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("predictions", flag.ExitOnError)
	limit := fs.Int("limit", 20, "max rows")
	fs.Parse(rest)

	plog, err := archive.NewSQLiteLog(c.cfg.Archive.SQLitePath)
	if err != nil {
		return err
	}
	defer plog.Close()

	recs, err := plog.ListPredictions(ctx, region, *limit)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Println("no logged predictions")
		return nil
	}
	fmt.Printf("%-22s %-12s %12s  %s\n", "logged at", "target", "predicted", "tier")
	for _, rec := range recs {
		fmt.Printf("%-22s %-12s %12s  %s\n",
			rec.CreatedAt, rec.TargetDate, series.FormatINR(rec.PredictedPrice), rec.Tier)
	}
	return nil
}

func (c *cli) chat(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: chat <message...>")
	}
	reply, err := c.orch.Chat(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Println(reply)
	return nil
}

func (c *cli) export(ctx context.Context, args []string) error {
	region, rest, err := parseRegionArg(args)
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	days := fs.Int("days", c.cfg.Views.TableDays, "days of history to archive")
	dataDir := fs.String("data-dir", c.cfg.Archive.DataDir, "archive directory")
	fs.Parse(rest)

	points, err := c.orch.GetHistorical(ctx, region, *days)
	if err != nil {
		return err
	}
	arch := archive.NewParquetArchive(*dataDir)
	if err := arch.WritePrices(ctx, region, points); err != nil {
		return err
	}
	fmt.Printf("archived %d points for %s under %s\n", len(points), region, *dataDir)
	return nil
}
