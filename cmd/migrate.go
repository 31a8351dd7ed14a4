package cmd

import (
	"context"

	"example.com/restaurant-pos/internal/database"
	"example.com/restaurant-pos/internal/models"
	"example.com/restaurant-pos/internal/repositories"
	"example.com/restaurant-pos/internal/services"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var skipSeed bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Runs database migrations to ensure the database schema
is up-to-date and seeds the default admin account when it is missing.`,
	RunE: runMigration,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().BoolVar(&skipSeed, "skip-seed", false, "do not create the default admin")
}

func runMigration(cmd *cobra.Command, args []string) error {
	log.Info().Str("driver", cfg.DB.Driver).Msg("Connecting to database...")
	db, err := database.Connect(cfg.DB, nil)
	if err != nil {
		return err
	}
	defer database.Close(db)

	log.Info().Msg("Running database migrations...")
	if err := models.SetupModels(db); err != nil {
		return errors.Wrap(err, "failed to run migrations")
	}

	if !skipSeed {
		store := repositories.NewStore(db)
		auth := services.NewAuthService(store.Admins, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
		created, err := auth.EnsureAdmin(context.Background(), cfg.Auth.DefaultAdminUsername, cfg.Auth.DefaultAdminPassword)
		if err != nil {
			return err
		}
		if !created {
			log.Info().Str("username", cfg.Auth.DefaultAdminUsername).Msg("Default admin already present")
		}
	}

	log.Info().Msg("Database migrations completed successfully")
	return nil
}
