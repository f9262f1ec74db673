package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/verificapessoa/verificapessoa/config"
	"github.com/verificapessoa/verificapessoa/internal/store"
)

// adminCMD grants or revokes the admin flag of an existing account.
func adminCMD(cfgPath *string) *cobra.Command {
	var email string
	var revoke bool
	var admin = &cobra.Command{
		Use:   "admin",
		Short: "Grant or revoke administrator access for an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return errors.New("--email is required")
			}
			cfg, err := config.Read(*cfgPath)
			if err != nil {
				return err
			}
			if err := cfg.Storage.Postgres.Validate(); err != nil {
				return err
			}
			st, err := store.NewWithDSN(cmd.Context(), cfg.Storage.Postgres.DSN())
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			defer st.Close()

			if err := st.SetAdmin(cmd.Context(), email, !revoke); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("no account for %s", email)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s admin=%t\n", email, !revoke)
			return nil
		},
	}
	admin.Flags().StringVar(&email, "email", "", "account email")
	admin.Flags().BoolVar(&revoke, "revoke", false, "remove administrator access instead of granting it")

	return admin
}
