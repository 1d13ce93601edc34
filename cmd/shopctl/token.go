package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dejobratic/skinstore/internal/auth"
)

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage admin bearer tokens",
	}

	issue := &cobra.Command{
		Use:   "issue",
		Short: "Issue a signed token for the admin endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			subject, _ := cmd.Flags().GetString("subject")
			role, _ := cmd.Flags().GetString("role")
			ttl, _ := cmd.Flags().GetDuration("ttl")
			secret, _ := cmd.Flags().GetString("secret")

			if subject == "" {
				return fmt.Errorf("--subject is required")
			}
			if secret == "" {
				e, err := loadEnv()
				if err != nil {
					return err
				}
				secret = e.cfg.Auth.AdminJWTSecret
			}
			if secret == "" {
				return fmt.Errorf("no signing secret: set ADMIN_JWT_SECRET or pass --secret")
			}

			token, err := auth.NewGate(secret).IssueToken(subject, role, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	issue.Flags().String("subject", "", "token subject, usually the operator's email")
	issue.Flags().String("role", auth.RoleAdmin, "role claim")
	issue.Flags().Duration("ttl", 8*time.Hour, "token lifetime")
	issue.Flags().String("secret", "", "signing secret (defaults to ADMIN_JWT_SECRET)")

	cmd.AddCommand(issue)
	return cmd
}
