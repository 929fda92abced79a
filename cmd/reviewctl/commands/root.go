// Package commands implements the reviewctl subcommands.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"reviewhub/internal/config"
	"reviewhub/internal/database"
	"reviewhub/internal/featureflags"
	"reviewhub/internal/repository"
	"reviewhub/internal/service"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	// Global flags
	jsonOutput bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "reviewctl",
	Short: "ReviewHub maintenance tool",
	Long: `reviewctl manages the ReviewHub database and event stream.

Configuration is read the same way as the API server (config.yml plus
environment variables such as DB_DRIVER, DB_HOST and REDIS_URL).`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
}

// runtime is the configuration and database a command operates on.
type runtime struct {
	cfg    *config.Config
	db     *gorm.DB
	policy repository.CategoryCountPolicy
}

func openRuntime(applySchema bool) (*runtime, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: applySchema})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return &runtime{
		cfg:    cfg,
		db:     db,
		policy: service.CategoryCountPolicy(featureflags.NewManager(cfg.FeatureFlags)),
	}, nil
}

func (r *runtime) Close() {
	if sqlDB, err := r.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
