package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/dexbrowse/cache"
	"github.com/s0up4200/dexbrowse/catalog"
	"github.com/s0up4200/dexbrowse/config"
	"github.com/s0up4200/dexbrowse/connectivity"
	"github.com/s0up4200/dexbrowse/coordinator"
	"github.com/s0up4200/dexbrowse/favorites"
	"github.com/s0up4200/dexbrowse/httpclient"
	"github.com/s0up4200/dexbrowse/metrics"
	"github.com/s0up4200/dexbrowse/storage"
)

const (
	cacheNamespace     = "cache/"
	favoritesNamespace = "fav/"
)

var (
	cfgFile      string
	cfg          *config.Config
	logger       zerolog.Logger
	db           *badger.DB
	stats        *metrics.Metrics
	oracle       connectivity.Oracle
	store        *cache.Store
	catalogAPI   *catalog.Client
	coord        *coordinator.Coordinator
	favs         *favorites.Favorites
	formatter    *catalog.ConsoleFormatter
	stopProbe    context.CancelFunc
	forceOffline bool
	showStats    bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "dexbrowse",
	Short: "Browse and search the PokéAPI catalog from the terminal",
	Long: `dexbrowse pages through the PokéAPI catalog, searches it by name or alias,
filters it by type and keeps a local list of favorites.

Responses are cached on disk, so everything already seen stays browsable
while offline.`,
	SilenceUsage:       true,
	PersistentPostRunE: shutdownApp,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Assigned here rather than in the literal to break the
	// rootCmd -> initializeApp -> skipInit -> rootCmd initialization cycle.
	rootCmd.PersistentPreRunE = initializeApp

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&forceOffline, "offline", false, "serve from the cache only, never touch the network")
	rootCmd.PersistentFlags().BoolVar(&showStats, "stats", false, "print request and cache counters on exit")
}

// initializeApp loads the configuration and builds the data access stack
func initializeApp(cmd *cobra.Command, args []string) error {
	if skipInit(cmd) {
		return nil
	}

	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger = setupLogger(cfg.Logging)
	stats = metrics.New(nil)
	oracle = setupOracle(cmd.Context())

	cacheStore, favStore, err := setupStorage()
	if err != nil {
		return err
	}

	store = cache.New(cacheStore, oracle, logger.With().Str("component", "cache").Logger(),
		cache.WithTTL(cfg.Cache.TTL),
		cache.WithMemoryLayer(cfg.Cache.MemoryEntries),
		cache.WithMetrics(stats),
	)

	httpClient := httpclient.New(oracle, logger.With().Str("component", "http").Logger(),
		httpclient.WithTimeout(cfg.API.Timeout),
		httpclient.WithMaxAttempts(cfg.API.MaxAttempts),
		httpclient.WithBackoff(cfg.API.BackoffBase, cfg.API.BackoffJitter),
		httpclient.WithRateLimit(cfg.API.RequestsPerSecond),
		httpclient.WithUserAgent(userAgent()),
		httpclient.WithMetrics(stats),
	)

	catalogAPI, err = catalog.NewClient(cfg.API.BaseURL, httpClient, store,
		logger.With().Str("component", "catalog").Logger(),
		catalog.WithDetailBatchSize(cfg.Browse.DetailBatchSize),
		catalog.WithNamesLimit(cfg.Browse.NamesLimit),
	)
	if err != nil {
		return fmt.Errorf("failed to create catalog client: %w", err)
	}

	coord = coordinator.New(catalogAPI, oracle, logger.With().Str("component", "coordinator").Logger(),
		coordinator.WithBatchSize(cfg.Browse.BatchSize),
		coordinator.WithDebounce(cfg.Browse.Debounce),
		coordinator.WithAliases(catalog.DefaultAliases().Merge(cfg.Search.Aliases)),
		coordinator.WithSuggestions(cfg.Browse.SuggestionLimit, cfg.Browse.SuggestionMinLength),
	)

	favs = favorites.New(favStore, logger.With().Str("component", "favorites").Logger())
	formatter = catalog.NewConsoleFormatter()

	logger.Debug().
		Str("base_url", cfg.API.BaseURL).
		Str("cache_backend", cfg.Cache.Backend).
		Bool("offline", oracle.IsOffline()).
		Msg("Initialized")

	return nil
}

// shutdownApp releases everything initializeApp opened
func shutdownApp(cmd *cobra.Command, args []string) error {
	if coord != nil {
		coord.Close()
	}
	if stopProbe != nil {
		stopProbe()
	}

	if showStats && stats != nil {
		summary, err := stats.Summary()
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to collect stats")
		} else {
			fmt.Fprintln(os.Stderr, summary)
		}
	}

	if db != nil {
		if err := db.Close(); err != nil {
			return fmt.Errorf("failed to close cache database: %w", err)
		}
		db = nil
	}
	return nil
}

// skipInit reports whether cmd runs without the data stack
func skipInit(cmd *cobra.Command) bool {
	if cmd == versionCmd || cmd == rootCmd || cmd.Name() == "help" {
		return true
	}
	return cmd.HasParent() && cmd.Parent().Name() == "completion"
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color || !isatty.IsTerminal(os.Stderr.Fd()),
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// setupOracle picks the connectivity source. A forced offline run never
// probes; otherwise the probe runs in the background until shutdown.
func setupOracle(ctx context.Context) connectivity.Oracle {
	if forceOffline || cfg.Connectivity.ForceOffline {
		logger.Info().Msg("Offline mode: serving cached data only")
		return connectivity.NewManual(true)
	}

	if cfg.Connectivity.ProbeURL == "" {
		return connectivity.NewManual(false)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	probeCtx, cancel := context.WithCancel(ctx)
	stopProbe = cancel

	probe := connectivity.NewProbe(cfg.Connectivity.ProbeURL, cfg.Connectivity.ProbeInterval,
		logger.With().Str("component", "connectivity").Logger())
	probe.Check(probeCtx)
	go probe.Run(probeCtx)
	return probe
}

// setupStorage opens the configured backend and returns the cache and
// favorites namespaces
func setupStorage() (cache.Storage, favorites.Store, error) {
	switch cfg.Cache.Backend {
	case "memory":
		logger.Debug().Int("max_bytes", cfg.Cache.MaxBytes).Msg("Using in-memory storage, favorites will not persist")
		return storage.NewMemory(cfg.Cache.MaxBytes), storage.NewMemory(0), nil
	default:
		var err error
		db, err = storage.Open(storage.Config{
			Path:   cfg.Cache.Path,
			Logger: logger.With().Str("component", "badger").Logger(),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open cache database: %w", err)
		}
		return storage.NewNamespace(db, cacheNamespace), storage.NewNamespace(db, favoritesNamespace), nil
	}
}

func userAgent() string {
	if cfg.API.UserAgent != "" {
		return cfg.API.UserAgent
	}
	return "dexbrowse/" + versionString()
}
