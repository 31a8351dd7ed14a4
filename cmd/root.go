package cmd

import (
	"os"

	"example.com/restaurant-pos/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "pos",
	Short: "Restaurant point-of-sale service",
	Long:  `Menu catalog, order ledger and billing for a restaurant point of sale`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml, then ./app.env)")
}

func initConfig() error {
	var err error
	cfg, err = config.LoadConfig(".", cfgFile)
	if err != nil {
		return err
	}
	configureLogging(cfg)
	return nil
}

// configureLogging applies the logging section on top of what main set up.
// LOG_LEVEL from the environment keeps precedence over the file.
func configureLogging(cfg config.Config) {
	if cfg.Logging.Format == "json" && cfg.Environment != "development" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	if os.Getenv("LOG_LEVEL") != "" || cfg.Logging.Level == "" {
		return
	}
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		log.Warn().Str("level", cfg.Logging.Level).Msg("Unknown log level, keeping default")
		return
	}
	zerolog.SetGlobalLevel(level)
}
