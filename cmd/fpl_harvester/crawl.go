package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/fpl-harvester/internal/browser"
	"github.com/jonathan/fpl-harvester/internal/config"
	"github.com/jonathan/fpl-harvester/internal/observability"
	"github.com/jonathan/fpl-harvester/internal/report"
	"github.com/jonathan/fpl-harvester/internal/scrape"
	"github.com/jonathan/fpl-harvester/internal/store"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl the player catalog and persist one record per player",
	Long:  "Crawls every page of the player catalog, skipping players collected within the staleness window, and writes one JSON record plus photo per player under the output directory.",
	RunE:  runCrawl,
}

var (
	crawlConfigPath string
	crawlOutputDir  string
	crawlURL        string
	crawlStaleDays  int
	crawlCooldown   int
	crawlSample     bool
	crawlShowWindow bool
	crawlVerbose    bool
)

func init() {
	crawlCmd.Flags().StringVarP(&crawlConfigPath, "config", "c", "", "Path to JSON config file")
	crawlCmd.Flags().StringVarP(&crawlOutputDir, "out", "o", "", "Corpus output directory (default: raw_data)")
	crawlCmd.Flags().StringVarP(&crawlURL, "url", "u", "", "Site entry URL")
	crawlCmd.Flags().IntVar(&crawlStaleDays, "stale-after", 0, "Re-collect records older than this many days (default: 7)")
	crawlCmd.Flags().IntVar(&crawlCooldown, "cooldown", 0, "Seconds to wait between listing pages (default: 5)")
	crawlCmd.Flags().BoolVar(&crawlSample, "sample", false, "Collect a single player and stop")
	crawlCmd.Flags().BoolVar(&crawlShowWindow, "show-window", false, "Run the browser with a visible window")
	crawlCmd.Flags().BoolVarP(&crawlVerbose, "verbose", "v", false, "Print detailed browser diagnostics")

	rootCmd.AddCommand(crawlCmd)
}

func runCrawl(_ *cobra.Command, _ []string) error {
	cfg, err := buildCrawlConfig()
	if err != nil {
		return err
	}

	st, err := store.New(cfg.OutputDir)
	if err != nil {
		return fmt.Errorf("failed to open record store: %w", err)
	}

	ctx := context.Background()
	session, err := browser.NewSession(ctx, browser.Options{
		Headless:  cfg.Headless,
		OpTimeout: time.Duration(cfg.OpTimeoutSeconds) * time.Second,
		Verbose:   cfg.Verbose,
		Selectors: browser.DefaultSelectors(),
	})
	if err != nil {
		return fmt.Errorf("failed to start browser session: %w", err)
	}
	defer session.Close()

	if err := session.Start(ctx, cfg.URL); err != nil {
		return err
	}
	if err := session.AcceptCookies(ctx); err != nil {
		return err
	}
	if err := session.Login(ctx, cfg.Email, cfg.Password); err != nil {
		return err
	}
	if err := session.GoToCatalog(ctx); err != nil {
		return err
	}

	gate := scrape.Gate{Store: st, StaleAfterDays: cfg.StaleAfterDays}
	asm := &scrape.Assembler{Sections: browser.DefaultSections()}
	printer := observability.NewPrinter(os.Stdout)
	reports := &report.Writer{CorpusPath: cfg.OutputDir, SchemaPath: cfg.SchemaPath}

	cursor := scrape.NewCursor(session, st, gate, asm, printer, reports, scrape.CursorConfig{
		SampleMode:   cfg.SampleMode,
		PageCooldown: time.Duration(cfg.PageCooldownSeconds) * time.Second,
	})

	if err := cursor.Run(ctx); err != nil {
		return fmt.Errorf("crawl aborted: %w", err)
	}

	_, _ = fmt.Fprintf(os.Stdout, "Crawl finished: %d players handled across %d pages.\n",
		cursor.Collected, cursor.PageIndex)
	return nil
}

// buildCrawlConfig layers flags over the optional config file over the
// built-in defaults, then pulls credentials from the environment.
func buildCrawlConfig() (*config.Config, error) {
	cfg := &config.Config{}
	if crawlConfigPath != "" {
		loaded, err := config.LoadConfig(crawlConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := config.Config{
		URL:                 crawlURL,
		OutputDir:           crawlOutputDir,
		StaleAfterDays:      crawlStaleDays,
		PageCooldownSeconds: crawlCooldown,
	}
	merged := flags.MergeWithDefaults(*cfg)
	merged = (&merged).MergeWithDefaults(config.DefaultConfig())

	merged.SampleMode = merged.SampleMode || crawlSample
	merged.Headless = !crawlShowWindow
	merged.Verbose = merged.Verbose || crawlVerbose

	merged.FromEnv()
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}
