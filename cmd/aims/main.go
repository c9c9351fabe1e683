package main

import (
	"fmt"
	"log"
	"os"

	"github.com/bitfantasy/aims/internal/config"
	"github.com/bitfantasy/aims/internal/inspection/entity"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "aims",
	Short: "Offshore asset inspection dashboard backend",
	Long: `aims serves the inspection dashboard API: library master data,
job packs, SOW matrices, attachments and PDF reports.

Run without a subcommand to start the HTTP server.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update database tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		return migrate()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("aims %s (built %s)\n", Version, BuildTime)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.GetEnvOrDefault("AIMS_CONFIG", ""), "config file (default ./configs/config.yaml)")
	rootCmd.AddCommand(serveCmd, migrateCmd, versionCmd)
}

func main() {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// bootstrap 加载配置并初始化日志
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, zapLogger, nil
}

func migrate() error {
	cfg, zapLogger, err := bootstrap()
	if err != nil {
		return err
	}
	defer zapLogger.Sync()

	db, err := initDatabase(cfg.Database)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(entity.AllModels()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	zapLogger.Info("Database migrated", zap.Int("tables", len(entity.AllModels())))
	return nil
}
