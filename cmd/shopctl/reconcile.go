package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func reconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Poll the payment gateway for a checkout session and apply its status",
		Long: `Reconcile asks the payment gateway for the current status of a checkout
session and applies it to the stored order. It is safe to run more than once
and is the manual path for sessions whose webhook never arrived.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sessionID, _ := cmd.Flags().GetString("session")
			if strings.TrimSpace(sessionID) == "" {
				return fmt.Errorf("--session is required")
			}

			e, err := openService(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			details, err := e.service.ReconcileBySession(cmd.Context(), sessionID)
			if err != nil {
				return err
			}

			if wantJSON(cmd) {
				return printJSON(cmd.OutOrStdout(), details)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "order %s: status %s, payment %s\n",
				details.Order.ID, details.Order.Status, details.Order.PaymentStatus)
			return nil
		},
	}

	cmd.Flags().String("session", "", "checkout session id")

	return cmd
}
