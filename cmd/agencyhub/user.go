package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"agencyhub/internal/auth"
	"agencyhub/internal/models"
	"agencyhub/internal/rbac"
)

func newUserCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage internal accounts directly in the database",
	}

	var name, email, role, password string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an account, e.g. the first admin",
		RunE: func(cmd *cobra.Command, _ []string) error {
			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			u, err := store.CreateUser(cmd.Context(), models.NewUser{
				Name:         name,
				Email:        email,
				Role:         rbac.Role(role),
				PasswordHash: hash,
			})
			if err != nil {
				return err
			}
			a.logger.Info("user created", slog.String("id", u.ID), slog.String("email", u.Email), slog.String("role", string(u.Role)))
			fmt.Fprintln(cmd.OutOrStdout(), u.ID)
			return nil
		},
	}
	create.Flags().StringVar(&name, "name", "", "Display name")
	create.Flags().StringVar(&email, "email", "", "Login email")
	create.Flags().StringVar(&role, "role", string(rbac.RoleAdmin), "Role: admin, manager, designer or writer")
	create.Flags().StringVar(&password, "password", "", "Initial password")
	_ = create.MarkFlagRequired("email")
	_ = create.MarkFlagRequired("name")
	_ = create.MarkFlagRequired("password")

	var resetEmail, newPassword string
	setPassword := &cobra.Command{
		Use:   "set-password",
		Short: "Replace the password of an existing account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			hash, err := auth.HashPassword(newPassword)
			if err != nil {
				return err
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			u, err := store.GetUserByEmail(cmd.Context(), resetEmail)
			if err != nil {
				return err
			}
			if err := store.SetPassword(cmd.Context(), u.ID, hash); err != nil {
				return err
			}
			a.logger.Info("password changed", slog.String("id", u.ID))
			return nil
		},
	}
	setPassword.Flags().StringVar(&resetEmail, "email", "", "Login email")
	setPassword.Flags().StringVar(&newPassword, "password", "", "New password")
	_ = setPassword.MarkFlagRequired("email")
	_ = setPassword.MarkFlagRequired("password")

	cmd.AddCommand(create, setPassword)
	return cmd
}
