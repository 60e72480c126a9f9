package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/domainchat-dev/domainchat/internal/backend"
	"github.com/domainchat-dev/domainchat/internal/config"
	"github.com/domainchat-dev/domainchat/pkg/archive"
)

var rootCmd = &cobra.Command{
	Use:   "domainchat",
	Short: "Chat with domain-scoped foundation models",
	Long: `Domainchat is a terminal client for a foundation-model chat backend.
Conversations are scoped to a selectable domain (HR, medical, legal,
finance, general) and a selectable model.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", defaultConfigPath(), "Configuration file")
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return home + "/.domainchat/config.yaml"
}

// loadConfig reads and validates the configuration named by the --config
// flag.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newBackendClient builds the backend client.
func newBackendClient(cfg *config.Config) (*backend.Client, error) {
	var tokens backend.TokenProvider
	if cfg.API.AuthToken != "" {
		tokens = backend.StaticToken(cfg.API.AuthToken)
	}

	return backend.NewClient(backend.Config{
		BaseURL:           cfg.API.BaseURL,
		Timeout:           cfg.API.Timeout.Std(),
		Tokens:            tokens,
		RequestsPerSecond: cfg.API.RequestsPerSecond,
	})
}

// newArchiveStore builds the transcript archive named by the configuration.
func newArchiveStore(cfg *config.Config) (archive.Store, error) {
	switch cfg.Archive.Store {
	case "redis":
		return archive.NewRedisStore(archive.RedisConfig{
			Addr:     cfg.Archive.Redis.Addr,
			Password: cfg.Archive.Redis.Password,
			DB:       cfg.Archive.Redis.DB,
			Prefix:   cfg.Archive.Redis.Prefix,
			TTL:      cfg.Archive.Redis.TTL.Std(),
		})
	default:
		return archive.NewFileStore(cfg.Archive.BaseDir)
	}
}
