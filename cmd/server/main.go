package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"swasthyasathi/internal/config"
	"swasthyasathi/internal/db"
	"swasthyasathi/internal/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "server",
	Short:         "SwasthyaSathi WhatsApp health assistant",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema and exit",
	RunE:  runMigrate,
}

func init() {
	defaultPath := os.Getenv("CONFIG_PATH")
	if defaultPath == "" {
		defaultPath = "config.yaml"
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultPath, "path to the YAML config file (optional)")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// bootstrap loads config, builds the logger and opens a verified database
// connection with the schema applied.
func bootstrap(ctx context.Context) (config.Config, *zap.Logger, *sql.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, nil, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		return config.Config{}, nil, nil, err
	}

	dbConn, err := sql.Open("postgres", cfg.Postgres.DSN)
	if err != nil {
		return config.Config{}, nil, nil, fmt.Errorf("open database: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := dbConn.PingContext(pingCtx); err != nil {
		dbConn.Close()
		return config.Config{}, nil, nil, fmt.Errorf("ping database: %w", err)
	}
	if err := db.Migrate(ctx, dbConn); err != nil {
		dbConn.Close()
		return config.Config{}, nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	return cfg, log, dbConn, nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	_, log, dbConn, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer dbConn.Close()
	defer log.Sync()
	log.Info("schema applied")
	return nil
}
