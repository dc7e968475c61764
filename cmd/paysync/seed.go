package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"paysync-server/internal/app"
	"paysync-server/internal/db"
)

func seedCmd() *cobra.Command {
	var seed db.SeedUser

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create a user if the email is not registered yet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadEnv()
			if err != nil {
				return err
			}
			if len(seed.Password) < cfg.PasswordMinLen {
				return fmt.Errorf("password must be at least %d characters", cfg.PasswordMinLen)
			}

			application, err := app.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer application.Close()

			created, err := application.Seed(cmd.Context(), []db.SeedUser{seed})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d user(s) created\n", created)
			return nil
		},
	}

	cmd.Flags().StringVar(&seed.Email, "email", "", "user email")
	cmd.Flags().StringVar(&seed.Username, "username", "admin", "user name")
	cmd.Flags().StringVar(&seed.Password, "password", "", "user password")
	cmd.Flags().StringVar(&seed.Role, "role", "admin", "user role")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
