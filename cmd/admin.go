package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"example.com/restaurant-pos/internal/database"
	"example.com/restaurant-pos/internal/repositories"
	"example.com/restaurant-pos/internal/services"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	adminUsername string
	adminPassword string
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage admin accounts",
	Long:  `Create admin accounts, change their passwords and list them.`,
}

var createAdminCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an admin account",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAuth(func(ctx context.Context, auth *services.AuthService, _ *repositories.Store) error {
			admin, err := auth.CreateAdmin(ctx, adminUsername, adminPassword)
			if err != nil {
				return err
			}
			log.Info().Uint("id", admin.ID).Str("username", admin.Username).Msg("Admin created")
			return nil
		})
	},
}

var passwdAdminCmd = &cobra.Command{
	Use:   "passwd",
	Short: "Change the password of an admin account",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAuth(func(ctx context.Context, auth *services.AuthService, _ *repositories.Store) error {
			if err := auth.ChangePassword(ctx, adminUsername, adminPassword); err != nil {
				return err
			}
			log.Info().Str("username", adminUsername).Msg("Password changed")
			return nil
		})
	},
}

var listAdminCmd = &cobra.Command{
	Use:   "list",
	Short: "List admin accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAuth(func(ctx context.Context, _ *services.AuthService, store *repositories.Store) error {
			admins, err := store.Admins.List(ctx)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tUSERNAME\tCREATED")
			for _, a := range admins {
				fmt.Fprintf(w, "%d\t%s\t%s\n", a.ID, a.Username, a.CreatedAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		})
	},
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(createAdminCmd)
	adminCmd.AddCommand(passwdAdminCmd)
	adminCmd.AddCommand(listAdminCmd)

	for _, c := range []*cobra.Command{createAdminCmd, passwdAdminCmd} {
		c.Flags().StringVarP(&adminUsername, "username", "u", "", "admin username (required)")
		c.Flags().StringVarP(&adminPassword, "password", "p", "", "new password (required)")
		_ = c.MarkFlagRequired("username")
		_ = c.MarkFlagRequired("password")
	}
}

func withAuth(fn func(ctx context.Context, auth *services.AuthService, store *repositories.Store) error) error {
	db, err := database.Connect(cfg.DB, nil)
	if err != nil {
		return err
	}
	defer database.Close(db)

	store := repositories.NewStore(db)
	auth := services.NewAuthService(store.Admins, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	return fn(context.Background(), auth, store)
}
