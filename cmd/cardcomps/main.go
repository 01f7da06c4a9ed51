package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/guarzo/cardcomps/internal/collector"
	"github.com/guarzo/cardcomps/internal/ebay"
	"github.com/guarzo/cardcomps/internal/model"
	"github.com/guarzo/cardcomps/internal/pipeline"
	"github.com/guarzo/cardcomps/internal/progress"
	"github.com/guarzo/cardcomps/internal/report"
	"github.com/guarzo/cardcomps/internal/scrape"
	"github.com/guarzo/cardcomps/internal/watch"
)

var (
	envFile    string
	cardName   string
	setName    string
	grade      string
	cardNumber string
	fuzzy      bool
	threshold  float64
	recentN    int
	maxPages   int
	static     bool
	headful    bool
	jsonOut    bool
	csvPath    string
	quiet      bool
	schedule   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cardcomps",
		Short: "Collectible card price comps from eBay listings",
		Long: `cardcomps searches eBay for a collectible card and aggregates
active and sold listings into per-channel price statistics.

Sold listings come from scraped search result pages; active listings
come from the eBay Browse API when EBAY_CLIENT_ID and EBAY_CLIENT_SECRET
are configured.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "env file to load credentials from (default .env when present)")

	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(watchCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func searchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Run one search and print per-channel price statistics",
		RunE:  runSearch,
	}
	addQueryFlags(cmd)
	cmd.Flags().BoolVar(&fuzzy, "fuzzy", false, "rank by title similarity instead of strict token matching")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "minimum similarity for fuzzy matches (0 selects the default)")
	cmd.Flags().IntVar(&recentN, "recent", 0, "number of recent sales to average (0 selects the default)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit the full result as JSON")
	cmd.Flags().StringVar(&csvPath, "csv", "", "also write matched listings to this CSV file")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "suppress the scrape progress indicator")
	return cmd
}

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run a search on a schedule and report price movement",
		RunE:  runWatch,
	}
	addQueryFlags(cmd)
	cmd.Flags().StringVar(&schedule, "schedule", "", "cron schedule (default every six hours)")
	return cmd
}

func addQueryFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&cardName, "card", "", "card name (required)")
	cmd.Flags().StringVar(&setName, "set", "", "set name")
	cmd.Flags().StringVar(&grade, "grade", "", "grade, e.g. \"PSA 10\"")
	cmd.Flags().StringVar(&cardNumber, "number", "", "card number")
	cmd.Flags().IntVar(&maxPages, "pages", 0, "sold result pages to walk per variant (0 selects the default)")
	cmd.Flags().BoolVar(&static, "static", false, "fetch sold pages over plain HTTP instead of a browser")
	cmd.Flags().BoolVar(&headful, "headful", false, "run the browser with a visible window")
	_ = cmd.MarkFlagRequired("card")
}

func loadEnv() {
	var err error
	if envFile != "" {
		err = godotenv.Load(envFile)
	} else {
		err = godotenv.Load()
	}
	if err != nil && envFile != "" {
		log.Printf("warning: could not load %s: %v", envFile, err)
	}
}

func query() model.Query {
	return model.Query{
		CardName:   cardName,
		SetName:    setName,
		Grade:      grade,
		CardNumber: cardNumber,
	}
}

// buildRunner wires the two listing sources. The returned cleanup closes
// the browser session when one was started. onPage, when non-nil, receives
// per-page progress from the sold-listing walk.
func buildRunner(ctx context.Context, onPage func(kept int)) (*pipeline.Runner, func(), error) {
	tokens := ebay.NewTokenSource(os.Getenv("EBAY_CLIENT_ID"), os.Getenv("EBAY_CLIENT_SECRET"))
	active := ebay.NewClient(tokens)
	if !active.Available() {
		log.Println("no eBay API credentials, active channels will be unavailable")
	}

	var source collector.FragmentSource
	cleanup := func() {}
	if static {
		fetcher := scrape.NewStaticFetcher()
		fetcher.OnPage = onPage
		source = fetcher
	} else {
		cfg := scrape.DefaultChromeConfig()
		cfg.Headless = !headful
		session, err := scrape.NewChromeSession(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("starting browser: %w", err)
		}
		cleanup = func() {
			if err := session.Close(); err != nil {
				log.Printf("closing browser: %v", err)
			}
		}
		fetcher := scrape.NewFetcher(session)
		fetcher.OnPage = onPage
		source = fetcher
	}

	sold := collector.New(source, collector.Config{MaxPages: maxPages})

	mode := pipeline.ModeStrict
	if fuzzy {
		mode = pipeline.ModeFuzzy
	}
	opts := pipeline.Options{Mode: mode, FuzzyThreshold: threshold, RecentSales: recentN}
	return pipeline.New(active, sold, opts), cleanup, nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	loadEnv()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pages := maxPages
	if pages == 0 {
		pages = collector.DefaultMaxPages
	}
	indicator := progress.ForPages("Collecting sold listings", pages, quiet || jsonOut)

	runner, cleanup, err := buildRunner(ctx, indicator.PageDone)
	if err != nil {
		return err
	}
	defer cleanup()

	q := query()
	indicator.Start()
	result := runner.Run(ctx, q)
	if result.Failed() {
		indicator.FinishWithError(fmt.Errorf("every channel failed"))
		printChannelErrors(result)
		return fmt.Errorf("search %q failed on every channel", pipeline.SearchTerm(q))
	}
	indicator.Finish()

	if csvPath != "" {
		if err := writeCSV(csvPath, result); err != nil {
			return err
		}
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printResult(q, result)
	return nil
}

func writeCSV(path string, result *pipeline.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	if err := report.WriteListings(f, result); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	loadEnv()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner, cleanup, err := buildRunner(ctx, nil)
	if err != nil {
		return err
	}
	defer cleanup()

	svc := watch.New(runner, func(u watch.Update) {
		fmt.Printf("%s  %s %s: avg %s -> %s (%d sales)\n",
			u.At.Format("2006-01-02 15:04"), pipeline.SearchTerm(u.Query), channelLabel(u.Channel),
			u.Previous.Average, u.Current.Average, u.Current.DataPoints)
	})
	svc.Add(query())

	// Establish the baseline before handing off to the schedule.
	svc.RunOnce(ctx)
	if err := svc.Start(schedule); err != nil {
		return err
	}
	<-ctx.Done()
	svc.Stop()
	return nil
}

var channelOrder = []model.Channel{
	model.ChannelActiveAuction,
	model.ChannelActiveBIN,
	model.ChannelSoldAuction,
	model.ChannelSoldBIN,
}

func channelLabel(c model.Channel) string {
	switch c {
	case model.ChannelActiveAuction:
		return "Active auctions"
	case model.ChannelActiveBIN:
		return "Active buy-it-now"
	case model.ChannelSoldAuction:
		return "Sold auctions"
	case model.ChannelSoldBIN:
		return "Sold buy-it-now"
	}
	return string(c)
}

func printResult(q model.Query, result *pipeline.Result) {
	fmt.Printf("Results for %q\n\n", pipeline.SearchTerm(q))
	for _, channel := range channelOrder {
		ch, ok := result.Channels[channel]
		if !ok {
			continue
		}
		fmt.Printf("%s\n", channelLabel(channel))
		switch {
		case ch.Failed():
			fmt.Printf("  unavailable: %v\n", ch.Err)
		case len(ch.Listings) == 0:
			fmt.Println("  no matching listings")
		default:
			fmt.Printf("  listings: %d  avg: $%s  low: $%s  high: $%s\n",
				ch.Stats.DataPoints, ch.Stats.Average, ch.Stats.Lowest, ch.Stats.Highest)
			if ch.Degraded() {
				fmt.Printf("  note: results truncated (%v)\n", ch.Err)
			}
		}
		fmt.Println()
	}
	if rs := result.RecentSales; rs != nil {
		fmt.Printf("Recent sales: avg $%s over last %d\n", rs.Average, rs.Count)
	}
}

func printChannelErrors(result *pipeline.Result) {
	for _, channel := range channelOrder {
		if ch, ok := result.Channels[channel]; ok && ch.Err != nil {
			log.Printf("%s: %v", channelLabel(channel), ch.Err)
		}
	}
}
