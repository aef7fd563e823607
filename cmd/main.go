package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"

	"tidbyt.dev/transit"
	"tidbyt.dev/transit/config"
	"tidbyt.dev/transit/storage"
)

var rootCmd = &cobra.Command{
	Use:               "transit",
	Short:             "Grid transport route planner",
	Long:              "Finds bus and train routes between cities of a grid network, and sells tickets for them",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

var (
	configPath      string
	networkSource   string
	headers         []string
	receiptsBackend string
	receiptsDir     string
	postgresConnStr string
	verbose         bool

	cfg    *config.Config
	logger *slog.Logger
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringVarP(&networkSource, "network", "n", "", "Network file or URL (JSON or zip bundle)")
	rootCmd.PersistentFlags().StringSliceVarP(
		&headers,
		"header",
		"",
		[]string{},
		"HTTP header for network downloads",
	)
	rootCmd.PersistentFlags().StringVarP(&receiptsBackend, "receipts-backend", "", "", "Receipt storage: filesystem, memory, sqlite or postgres")
	rootCmd.PersistentFlags().StringVarP(&receiptsDir, "receipts-dir", "", "", "Receipt directory (filesystem and sqlite)")
	rootCmd.PersistentFlags().StringVarP(&postgresConnStr, "postgres", "", "", "Postgres connection string")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// Sets up logging and merges flags on top of the config file.
func setup(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	flags := cmd.Flags()
	if flags.Changed("network") {
		cfg.Network = networkSource
	}
	if flags.Changed("receipts-backend") {
		cfg.Receipts.Backend = receiptsBackend
	}
	if flags.Changed("receipts-dir") {
		cfg.Receipts.Directory = receiptsDir
	}
	if flags.Changed("postgres") {
		cfg.Receipts.Postgres = postgresConnStr
	}

	parsed, err := parseHeaders(headers)
	if err != nil {
		return fmt.Errorf("invalid header: %w", err)
	}
	if len(parsed) > 0 && cfg.Headers == nil {
		cfg.Headers = map[string]string{}
	}
	for k, v := range parsed {
		cfg.Headers[k] = v
	}

	return cfg.Validate()
}

func parseHeaders(headers []string) (map[string]string, error) {
	parsed := map[string]string{}
	for _, header := range headers {
		parts := strings.SplitN(header, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("'%s' is not on form <key>:<value>", header)
		}
		parsed[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	return parsed, nil
}

func buildStorage() (storage.Storage, error) {
	switch cfg.Receipts.Backend {
	case "memory":
		return storage.NewMemoryStorage(), nil
	case "sqlite":
		err := os.MkdirAll(cfg.Receipts.Directory, 0755)
		if err != nil {
			return nil, fmt.Errorf("creating %s: %w", cfg.Receipts.Directory, err)
		}
		return storage.NewSQLiteStorage(storage.SQLiteConfig{OnDisk: true, Directory: cfg.Receipts.Directory})
	case "postgres":
		return storage.NewPSQLStorage(cfg.Receipts.Postgres, false)
	}
	return storage.NewFilesystemStorage(cfg.Receipts.Directory)
}

func buildManager() (*transit.Manager, error) {
	s, err := buildStorage()
	if err != nil {
		return nil, fmt.Errorf("opening receipt storage: %w", err)
	}

	manager := transit.NewManager(s)
	manager.Logger = logger
	if cfg.Download.Timeout > 0 {
		manager.Timeout = cfg.Download.Timeout
	}
	if cfg.Download.MaxSize > 0 {
		manager.MaxSize = cfg.Download.MaxSize
	}
	manager.CacheTTL = cfg.Download.CacheTTLOr(manager.CacheTTL)

	return manager, nil
}

func loadNetwork(manager *transit.Manager) (*transit.Network, error) {
	if cfg.Network == "" {
		return nil, fmt.Errorf("network is required (--network or config)")
	}

	network, _, err := manager.LoadNetwork(context.Background(), cfg.Network, cfg.Headers)
	if err != nil {
		return nil, err
	}

	return network, nil
}
