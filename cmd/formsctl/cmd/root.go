package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"nhbrcforms/database"
	"nhbrcforms/infrastructure/config"
	"nhbrcforms/logging"
	"nhbrcforms/platform/factories"
)

var (
	envFile  string
	dbPath   string
	cfg      *config.AppConfig
	db       *database.Database
	services *factories.Services
)

var rootCmd = &cobra.Command{
	Use:   "formsctl",
	Short: "Operate the NHBRC registration intake service",
	Long: `formsctl inspects and maintains the state behind the registration
intake service: the reference counter, the province directory, recorded
submissions and connectivity to SharePoint.

It reads the same environment (and .env file) as the server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip initialization for help commands
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		return initialize()
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if db == nil {
			return nil
		}
		err := db.Close()
		db = nil
		return err
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load when present")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (overrides DB_PATH)")
}

func initialize() error {
	// A failed command skips PersistentPostRunE and leaves the previous handle open.
	if db != nil {
		db.Close()
		db = nil
	}

	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg = config.LoadAppConfigFromEnv()
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}

	// Diagnostics go to stderr so command output stays machine readable.
	logCfg := *cfg.Logging
	logCfg.Output = "stderr"
	if os.Getenv("LOG_LEVEL") == "" {
		logCfg.Level = "warn"
	}
	logging.SetDefault(logging.NewLogger(&logCfg))

	var err error
	db, err = database.New(*cfg.Database, logging.Default())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	services, err = factories.NewServiceFactory(cfg, db).Build()
	if err != nil {
		db.Close()
		db = nil
		return err
	}
	return nil
}
