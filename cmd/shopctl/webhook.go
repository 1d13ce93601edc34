package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dejobratic/skinstore/internal/webhook"
)

func webhookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Helpers for replaying payment webhooks",
	}

	sign := &cobra.Command{
		Use:   "sign",
		Short: "Print a signature header for an event payload",
		Long: `Sign computes the signature header for a raw event body so a captured
delivery can be replayed against the webhook endpoint. The body is read from
--file, or from stdin when no file is given.

Example:
  shopctl webhook sign --file event.json | xargs -I{} curl -H "Stripe-Signature: {}" ...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("file")
			secret, _ := cmd.Flags().GetString("secret")
			at, _ := cmd.Flags().GetInt64("timestamp")

			if secret == "" {
				e, err := loadEnv()
				if err != nil {
					return err
				}
				secret = e.cfg.Webhook.Secret
			}
			if secret == "" {
				return fmt.Errorf("no webhook secret: set STRIPE_WEBHOOK_SECRET or pass --secret")
			}

			var (
				body []byte
				err  error
			)
			if path == "" {
				body, err = io.ReadAll(cmd.InOrStdin())
			} else {
				body, err = os.ReadFile(path)
			}
			if err != nil {
				return fmt.Errorf("read payload: %w", err)
			}

			signedAt := time.Now()
			if at > 0 {
				signedAt = time.Unix(at, 0)
			}

			fmt.Fprintln(cmd.OutOrStdout(), webhook.SignatureHeaderValue(body, secret, signedAt))
			return nil
		},
	}
	sign.Flags().String("file", "", "path to the raw event body")
	sign.Flags().String("secret", "", "signing secret (defaults to STRIPE_WEBHOOK_SECRET)")
	sign.Flags().Int64("timestamp", 0, "unix timestamp to sign with (defaults to now)")

	cmd.AddCommand(sign)
	return cmd
}
