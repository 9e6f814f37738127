package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"stockdesk/internal/config"
	"stockdesk/internal/dashboard"
	"stockdesk/internal/live"
	"stockdesk/internal/news"
	"stockdesk/internal/store"
	"stockdesk/internal/util"
	"stockdesk/pkg/stockdesk"
)

const version = "0.1.0"

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: stockdesk-cli [-config file] <command> [options]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  version                    Print the CLI version\n")
	fmt.Fprintf(os.Stderr, "  models                     List uploaded CSV models\n")
	fmt.Fprintf(os.Stderr, "  model <file>               Show one model\n")
	fmt.Fprintf(os.Stderr, "  upload <path>              Upload a CSV file\n")
	fmt.Fprintf(os.Stderr, "  delete <file>              Delete a model\n")
	fmt.Fprintf(os.Stderr, "  quote <symbol>             Fetch the current quote\n")
	fmt.Fprintf(os.Stderr, "  news                       Fetch market news\n")
	fmt.Fprintf(os.Stderr, "  snapshot <symbol>...       Quotes and news fetched concurrently\n")
	fmt.Fprintf(os.Stderr, "  watch [-n N] [-out dir] <symbol>\n")
	fmt.Fprintf(os.Stderr, "                             Stream live quotes, optionally recording to Parquet\n")
	fmt.Fprintf(os.Stderr, "  history [-since d] -data dir <symbol>\n")
	fmt.Fprintf(os.Stderr, "                             Print recorded quotes\n")
	fmt.Fprintf(os.Stderr, "\n")
}

func main() {
	flag.Usage = usage
	configPath := flag.String("config", "stockdesk.yaml", "path to config file (optional)")
	jsonOut := flag.Bool("json", false, "print raw JSON")
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(1)
	}
	cmd, args := flag.Arg(0), flag.Args()[1:]

	if cmd == "version" {
		fmt.Printf("stockdesk-cli %s\n", version)
		return
	}

	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "loading .env: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}
	logger := util.NewLoggerTo(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{
		cfg:    cfg,
		client: stockdesk.NewClient(cfg.Backend.BaseURL, stockdesk.WithTimeout(cfg.Backend.Timeout)),
		log:    logger,
		json:   *jsonOut,
	}

	logger.Debug("running command", "command", cmd, "backend", a.client.BaseURL())

	switch cmd {
	case "models":
		err = a.models(ctx)
	case "model":
		err = a.model(ctx, args)
	case "upload":
		err = a.upload(ctx, args)
	case "delete":
		err = a.delete(ctx, args)
	case "quote":
		err = a.quote(ctx, args)
	case "news":
		err = a.news(ctx)
	case "snapshot":
		err = a.snapshot(ctx, args)
	case "watch":
		err = a.watch(ctx, args)
	case "history":
		err = a.history(ctx, args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}

	if err != nil {
		logger.Error(cmd+" failed", "error", err)
		if errors.Is(err, stockdesk.ErrNotFound) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

type app struct {
	cfg    *config.Config
	client *stockdesk.Client
	log    *slog.Logger
	json   bool
}

var errUsage = errors.New("missing argument")

func oneArg(args []string, what string) (string, error) {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return "", fmt.Errorf("%w: %s", errUsage, what)
	}
	return args[0], nil
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ---------------------------------------------------------------------------
// CSV models
// ---------------------------------------------------------------------------

func (a *app) models(ctx context.Context) error {
	models, err := a.client.ListModels(ctx)
	if err != nil {
		return err
	}
	if a.json {
		return a.printJSON(models)
	}
	if len(models) == 0 {
		fmt.Println("no models")
		return nil
	}
	for _, m := range models {
		fmt.Printf("%-32s %-24s %8s\n", m.FileName, m.ModelType, dashboard.FormatFraction(m.Accuracy))
	}
	return nil
}

func (a *app) model(ctx context.Context, args []string) error {
	name, err := oneArg(args, "model file name")
	if err != nil {
		return err
	}
	m, err := a.client.GetModel(ctx, name)
	if err != nil {
		return err
	}
	return a.printModel(m)
}

func (a *app) upload(ctx context.Context, args []string) error {
	path, err := oneArg(args, "CSV path")
	if err != nil {
		return err
	}
	m, err := a.client.UploadFile(ctx, path)
	if err != nil {
		return err
	}
	a.log.Info("model uploaded", "fileName", m.FileName)
	return a.printModel(m)
}

func (a *app) delete(ctx context.Context, args []string) error {
	name, err := oneArg(args, "model file name")
	if err != nil {
		return err
	}
	if err := a.client.DeleteModel(ctx, name); err != nil {
		return err
	}
	fmt.Printf("deleted %s\n", name)
	return nil
}

func (a *app) printModel(m *stockdesk.Model) error {
	if a.json {
		return a.printJSON(m)
	}
	fmt.Printf("File:     %s\n", m.FileName)
	fmt.Printf("Columns:  %d\n", m.Metadata.Columns)
	fmt.Printf("Rows:     %s\n", dashboard.FormatInt(int64(m.Metadata.Rows)))
	if len(m.Headers) > 0 {
		fmt.Printf("Headers:  %s\n", strings.Join(m.Headers, ", "))
	}
	fmt.Printf("Type:     %s\n", m.ModelType)
	fmt.Printf("Accuracy: %s\n", dashboard.FormatFraction(m.Accuracy))
	for _, p := range m.Predictions {
		fmt.Printf("  %-12s %s %s\n", p.Label, dashboard.ProgressBar(p.Probability, 20), dashboard.FormatFraction(p.Probability))
	}
	return nil
}

// ---------------------------------------------------------------------------
// Quotes and news
// ---------------------------------------------------------------------------

func (a *app) quote(ctx context.Context, args []string) error {
	sym, err := oneArg(args, "symbol")
	if err != nil {
		return err
	}
	q, err := a.client.GetQuote(ctx, stockdesk.NormalizeSymbol(sym))
	if err != nil {
		return err
	}
	if a.json {
		return a.printJSON(q)
	}
	a.printQuote(*q)
	return nil
}

func (a *app) printQuote(q stockdesk.StockQuote) {
	fmt.Printf("%-8s %12s %10s %16s\n",
		q.Symbol,
		dashboard.FormatPrice(a.cfg.UI.Currency, q.Price),
		dashboard.FormatChange(q.Change),
		dashboard.FormatVolume(q.Volume),
	)
}

func (a *app) news(ctx context.Context) error {
	items, err := a.client.GetNews(ctx)
	if err != nil {
		return err
	}
	if a.json {
		return a.printJSON(items)
	}
	printNews(items)
	return nil
}

func printNews(items []stockdesk.NewsItem) {
	for _, e := range news.Entries(items) {
		fmt.Printf("%s  %s\n", e.Published, e.Title)
		if e.Summary != "" {
			fmt.Printf("    %s\n", news.Truncate(e.Summary, 120))
		}
		if e.URL != "" {
			fmt.Printf("    %s\n", e.URL)
		}
	}
}

// snapshot fetches quotes for every symbol and the news feed concurrently.
// A failed quote is reported inline and does not fail the others.
func (a *app) snapshot(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: at least one symbol", errUsage)
	}

	quotes := make([]*stockdesk.StockQuote, len(args))
	qerrs := make([]error, len(args))
	var items []stockdesk.NewsItem

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, raw := range args {
		sym := stockdesk.NormalizeSymbol(raw)
		g.Go(func() error {
			quotes[i], qerrs[i] = a.client.GetQuote(gctx, sym)
			return nil
		})
	}
	g.Go(func() error {
		var err error
		items, err = a.client.GetNews(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("fetching news: %w", err)
	}

	for i, raw := range args {
		if qerrs[i] != nil {
			a.log.Warn("fetching quote", "symbol", raw, "error", qerrs[i])
			fmt.Printf("%-8s %s\n", stockdesk.NormalizeSymbol(raw), "Stock not found or API error.")
			continue
		}
		a.printQuote(*quotes[i])
	}
	fmt.Println()
	printNews(items)
	return nil
}

// ---------------------------------------------------------------------------
// Live stream and recording
// ---------------------------------------------------------------------------

func (a *app) watch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	n := fs.Int("n", 0, "stop after N quotes (0 = until interrupted)")
	out := fs.String("out", "", "record quotes to Parquet files under this directory")
	fs.Parse(args)

	sym, err := oneArg(fs.Args(), "symbol")
	if err != nil {
		return err
	}
	sym = stockdesk.NormalizeSymbol(sym)

	sub := live.NewSubscriber(a.cfg.Backend.WSURL, a.log)
	defer sub.Close()
	st, err := sub.Subscribe(ctx, 1, sym)
	if err != nil {
		return err
	}

	win := dashboard.NewPriceWindow(a.cfg.UI.ChartPoints)
	var records []store.QuoteRecord
	count := 0
loop:
	for *n == 0 || count < *n {
		select {
		case q, ok := <-st.Updates():
			if !ok {
				break loop
			}
			now := time.Now()
			count++
			win.Push(q.Time(now), q.Price)
			records = append(records, store.RecordFromQuote(q, now))
			fmt.Printf("%s  ", dashboard.FormatClock(q.Time(now)))
			a.printQuote(q)
		case <-ctx.Done():
			break loop
		}
	}

	if win.Len() > 0 {
		fmt.Printf("\n%s  %d/%d\n", dashboard.Sparkline(win.Prices()), win.Len(), win.Cap())
	}

	if *out != "" && len(records) > 0 {
		ps := store.NewParquetStore(*out)
		if err := ps.WriteQuotes(context.Background(), records); err != nil {
			return err
		}
		a.log.Info("recorded quotes", "symbol", sym, "count", len(records), "dir", *out)
	}
	return nil
}

func (a *app) history(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	dataDir := fs.String("data", "", "directory written by watch -out")
	since := fs.Duration("since", 24*time.Hour, "how far back to read")
	png := fs.Bool("png", false, "also export the last chart window as PNG")
	fs.Parse(args)

	sym, err := oneArg(fs.Args(), "symbol")
	if err != nil {
		return err
	}
	if *dataDir == "" {
		return fmt.Errorf("%w: -data", errUsage)
	}
	sym = stockdesk.NormalizeSymbol(sym)

	now := time.Now()
	records, err := store.NewParquetStore(*dataDir).ReadQuotes(ctx, sym, now.Add(-*since), now)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Printf("no recorded quotes for %s\n", sym)
		return nil
	}

	win := dashboard.NewPriceWindow(a.cfg.UI.ChartPoints)
	for _, r := range records {
		win.Push(r.Time(), r.Price)
		fmt.Printf("%s  %-8s %12s %10s %16s\n",
			dashboard.FormatDateTime(r.Time()),
			r.Symbol,
			dashboard.FormatPrice(a.cfg.UI.Currency, r.Price),
			dashboard.FormatChange(r.Change),
			dashboard.FormatVolume(r.Volume),
		)
	}
	fmt.Printf("\n%s  %d/%d\n", dashboard.Sparkline(win.Prices()), win.Len(), win.Cap())

	if *png {
		path, err := dashboard.ExportPNG(a.cfg.UI.ExportDir, sym, win, now)
		if err != nil {
			return err
		}
		fmt.Printf("chart saved to %s\n", path)
	}
	return nil
}
