// Command wcl-harvest harvests competitive raid-encounter rankings from the
// Warcraft Logs API into MySQL.
//
// Subcommands:
//
//	scrape <raid-key> [-difficulty name]   harvest one raid from the catalogue
//	scrape-all [-workers n]                harvest the full catalogue, mythic only
//	quota                                  print upstream point-budget usage
//	wipe [-yes]                            destroy all harvested rows (two-step)
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/raidwatch/wcl-harvester/internal/config"
	"github.com/raidwatch/wcl-harvester/pkg/catalog"
	"github.com/raidwatch/wcl-harvester/pkg/executor"
	"github.com/raidwatch/wcl-harvester/pkg/herospec"
	"github.com/raidwatch/wcl-harvester/pkg/logging"
	"github.com/raidwatch/wcl-harvester/pkg/planner"
	"github.com/raidwatch/wcl-harvester/pkg/quota"
	"github.com/raidwatch/wcl-harvester/pkg/rankings"
	"github.com/raidwatch/wcl-harvester/pkg/store"
	"github.com/raidwatch/wcl-harvester/pkg/wcl"
)

func main() {
	// A missing .env is fine; credentials may come from the environment.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
	})

	ctx := context.Background()

	switch os.Args[1] {
	case "scrape":
		runScrape(ctx, cfg, logger, os.Args[2:])
	case "scrape-all":
		runScrapeAll(ctx, cfg, logger, os.Args[2:])
	case "quota":
		runQuota(ctx, cfg, logger)
	case "wipe":
		runWipe(ctx, cfg, logger, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: wcl-harvest <scrape|scrape-all|quota|wipe> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "  scrape <raid-key> [-difficulty name]   harvest one catalogue raid")
	fmt.Fprintln(os.Stderr, "  scrape-all [-workers n]                harvest the full catalogue (mythic)")
	fmt.Fprintln(os.Stderr, "  quota                                  print upstream quota usage")
	fmt.Fprintln(os.Stderr, "  wipe [-yes]                            destroy all harvested rows")
}

// newRedis returns a Redis client when configured, nil otherwise.
func newRedis(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Str("addr", cfg.RedisAddr).
			Msg("Redis unavailable, falling back to in-process quota state")
		client.Close()
		return nil
	}
	return client
}

// newClient wires the upstream client with quota gating.
func newClient(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*wcl.Client, error) {
	redisClient := newRedis(ctx, cfg, logger)

	tracker := quota.NewTracker(redisClient, logging.NewLogger("quota"))

	clientCfg := wcl.DefaultConfig(wcl.Credentials{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
	})
	if cfg.AuthURL != "" {
		clientCfg.AuthURL = cfg.AuthURL
	}
	if cfg.APIURL != "" {
		clientCfg.APIURL = cfg.APIURL
	}
	if cfg.RequestTimeout > 0 {
		clientCfg.RequestTimeout = cfg.RequestTimeout
	}
	clientCfg.Quota = tracker
	clientCfg.Redis = redisClient

	return wcl.New(clientCfg)
}

// harvest plans and executes jobs for the given raids.
func harvest(ctx context.Context, cfg *config.Config, logger zerolog.Logger, raids []catalog.Raid, targetDifficulty string, workers int) {
	client, err := newClient(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create upstream client")
	}

	db, err := store.Open(ctx, store.DefaultConfig(cfg.DatabaseDSN))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	if err := db.InitSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize schema")
	}

	// Auth failure is run-fatal: abort before any jobs start.
	if err := client.Authenticate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Authentication failed")
	}

	plan := planner.New(client, catalog.DefaultDifficultyCodes(), catalog.DefaultRegionCodes())
	jobs, err := plan.Plan(ctx, raids, targetDifficulty)
	if err != nil {
		logger.Fatal().Err(err).Msg("Job planning failed")
	}

	heroSpecs := herospec.Load(cfg.HeroSpecPath)
	fetcher := rankings.NewFetcher(client, heroSpecs)

	exec := executor.New(fetcher, db, workers)
	outcome := exec.Run(ctx, jobs)

	printSummary(outcome, len(jobs))

	if outcome.Failed > 0 {
		os.Exit(1)
	}
}

func printSummary(outcome *executor.Outcome, planned int) {
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Run %s finished in %.1f seconds\n", outcome.RunID, outcome.Elapsed.Seconds())
	fmt.Printf("  Succeeded:     %d/%d\n", outcome.Succeeded, planned)
	fmt.Printf("  Failed:        %d\n", outcome.Failed)
	fmt.Printf("  Rows inserted: %d\n", outcome.RowsInserted)
	fmt.Println(strings.Repeat("=", 60))
}

func runScrape(ctx context.Context, cfg *config.Config, logger zerolog.Logger, args []string) {
	flags := flag.NewFlagSet("scrape", flag.ExitOnError)
	difficulty := flags.String("difficulty", "", "harvest only this difficulty")
	flags.Parse(args)

	if flags.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: wcl-harvest scrape <raid-key> [-difficulty name]")
		os.Exit(2)
	}
	raidKey := flags.Arg(0)

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.CatalogPath).Msg("Failed to load raid catalogue")
	}

	raid, err := cat.Raid(raidKey)
	if err != nil {
		logger.Fatal().Err(err).Str("raid_key", raidKey).Msg("Unknown raid key")
	}

	logger.Info().Str("raid", raid.Name).Str("difficulty", *difficulty).Msg("Single-raid harvest")

	// Sequential by design: one raid at a time runs on a single worker.
	harvest(ctx, cfg, logger, []catalog.Raid{raid}, *difficulty, 1)
}

func runScrapeAll(ctx context.Context, cfg *config.Config, logger zerolog.Logger, args []string) {
	flags := flag.NewFlagSet("scrape-all", flag.ExitOnError)
	workers := flags.Int("workers", cfg.Workers, "worker pool size")
	flags.Parse(args)

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.CatalogPath).Msg("Failed to load raid catalogue")
	}

	logger.Info().Int("raids", len(cat.Raids)).Int("workers", *workers).
		Msg("Full-catalogue harvest, mythic only")

	harvest(ctx, cfg, logger, cat.Raids, "mythic", *workers)
}

func runQuota(ctx context.Context, cfg *config.Config, logger zerolog.Logger) {
	client, err := newClient(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create upstream client")
	}

	if err := client.Authenticate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Authentication failed")
	}

	data, err := client.RateLimitData(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to fetch rate limit data")
	}

	percentUsed := 0.0
	if data.LimitPerHour > 0 {
		percentUsed = data.PointsSpentThisHour / float64(data.LimitPerHour) * 100
	}

	fmt.Println("=== Warcraft Logs API Quota ===")
	fmt.Printf("Points used:      %.1f / %d (%.1f%%)\n", data.PointsSpentThisHour, data.LimitPerHour, percentUsed)
	fmt.Printf("Points remaining: %.1f\n", data.Remaining())
	fmt.Printf("Reset in:         %d minutes\n", data.PointsResetIn/60)
}

func runWipe(ctx context.Context, cfg *config.Config, logger zerolog.Logger, args []string) {
	flags := flag.NewFlagSet("wipe", flag.ExitOnError)
	yes := flags.Bool("yes", false, "skip the interactive confirmation")
	flags.Parse(args)

	db, err := store.Open(ctx, store.DefaultConfig(cfg.DatabaseDSN))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	count, err := db.CountRankings(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to count rows")
	}

	fmt.Printf("player_rankings currently holds %d rows\n", count)
	if count == 0 {
		fmt.Println("Nothing to delete.")
		return
	}

	if !*yes {
		fmt.Printf("Delete %d rows? (yes/no): ", count)
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		if strings.TrimSpace(strings.ToLower(answer)) != "yes" {
			fmt.Println("Aborted.")
			return
		}
	}

	if err := db.TruncateRankings(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to truncate table")
	}

	fmt.Println("player_rankings wiped.")
}
