// Command fulfillmentd is the download-fulfillment engine's process
// entrypoint: it wires Config -> Store -> {P2PClient, ProviderClient,
// Engine} -> background scanners/schedulers, then serves the control
// HTTP API until signalled to stop.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nezreka/fulfillment/pkg/catalog"
	"github.com/nezreka/fulfillment/pkg/config"
	"github.com/nezreka/fulfillment/pkg/enrichment"
	"github.com/nezreka/fulfillment/pkg/events"
	"github.com/nezreka/fulfillment/pkg/fulfillment"
	"github.com/nezreka/fulfillment/pkg/httpapi"
	"github.com/nezreka/fulfillment/pkg/kvstate"
	"github.com/nezreka/fulfillment/pkg/metaprovider"
	"github.com/nezreka/fulfillment/pkg/p2pclient"
	"github.com/nezreka/fulfillment/pkg/postprocess"
	"github.com/nezreka/fulfillment/pkg/transfercache"
	"github.com/nezreka/fulfillment/pkg/watchlist"
	"github.com/nezreka/fulfillment/pkg/wishlist"
)

const shutdownGrace = 15 * time.Second

var flagConfigPath string

var rootCmd = &cobra.Command{
	Use:   "fulfillmentd",
	Short: "Run the download-fulfillment engine daemon",
	RunE:  run,
}

func main() {
	rootCmd.Flags().StringVar(&flagConfigPath, "config", config.Env("FULFILLMENTD_CONFIG", ""), "Path to a YAML config file")
	if err := rootCmd.Execute(); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(flagConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	cat, err := catalog.Connect(ctx, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer cat.Close()
	if err := cat.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	slog.Info("fulfillmentd: catalog ready")

	rdb := kvstate.NewClient(cfg.KeyVal.Addr)
	defer rdb.Close()
	kv := kvstate.New(rdb)

	p2p := p2pclient.New(cfg.Soulseek.BaseURL, p2pclient.WithAPIKey(cfg.Soulseek.APIKey))
	transfers := transfercache.New(p2p, transfercache.DefaultTTL)
	provider := metaprovider.New(cfg.Metadata.ClientID, cfg.Metadata.ClientSecret)

	post, err := postprocess.New(postprocess.DefaultConfig(cfg.Library.Root), cat)
	if err != nil {
		return fmt.Errorf("postprocess: %w", err)
	}

	bus := events.New()
	fulfillment.DownloadRoot = cfg.Soulseek.DownloadPath

	engine := fulfillment.New(fulfillment.DefaultConfig(), p2p, transfers, cat, kv, post, bus)
	engine.Start(ctx)
	defer engine.Stop(shutdownGrace)

	enrichWorker := enrichment.New(cat, provider, enrichment.DefaultConfig())
	go enrichWorker.Run(ctx)
	defer enrichWorker.Stop()

	scanner := watchlist.New(cat, provider, watchlist.Config{
		MaxArtistsPerRun:    cfg.Watchlist.MaxArtistsPerRun,
		MustScanAfterDays:   cfg.Watchlist.MustScanAfterDays,
		DefaultLookbackDays: cfg.Metadata.LookbackDays,
	})
	go runWatchlistLoop(ctx, scanner, cfg.WatchlistScanInterval())

	wishlistScheduler := wishlist.New(cat, engine, bus, wishlist.Config{
		Interval:      cfg.WishlistInterval(),
		BatchSize:     cfg.Wishlist.BatchSize,
		MaxConcurrent: cfg.Soulseek.MaxConcurrent,
	})
	go wishlistScheduler.Run(ctx)
	defer wishlistScheduler.Stop()

	apiSrv := httpapi.New(engine, bus)
	errCh := make(chan error, 1)
	go func() {
		errCh <- apiSrv.ListenAndServe(ctx, cfg.HTTP.Addr)
	}()

	select {
	case <-ctx.Done():
		slog.Info("fulfillmentd: shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http api: %w", err)
		}
	}
	return nil
}

// runWatchlistLoop runs one scan immediately, then every interval, until
// ctx is cancelled. A scan is skipped rather than queued if the previous
// one is still running, the same discipline pkg/wishlist's scheduler
// applies to its own ticks.
func runWatchlistLoop(ctx context.Context, s *watchlist.Scanner, interval time.Duration) {
	var running sync.Mutex
	runScan(ctx, &running, s)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runScan(ctx, &running, s)
		}
	}
}

func runScan(ctx context.Context, running *sync.Mutex, s *watchlist.Scanner) {
	if !running.TryLock() {
		slog.Warn("fulfillmentd: skipping watchlist scan, previous run still in progress")
		return
	}
	defer running.Unlock()
	if err := s.RunOnce(ctx); err != nil {
		slog.Error("fulfillmentd: watchlist scan failed", "err", err)
	}
}
