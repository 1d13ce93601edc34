package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dejobratic/skinstore/internal/money"
	"github.com/dejobratic/skinstore/internal/orders/app/queries"
	"github.com/dejobratic/skinstore/internal/orders/domain"
)

func ordersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Inspect stored orders",
	}

	cmd.AddCommand(ordersListCmd())
	cmd.AddCommand(ordersShowCmd())
	cmd.AddCommand(ordersAuditCmd())

	return cmd
}

func ordersListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List orders, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, _ := cmd.Flags().GetString("status")
			page, _ := cmd.Flags().GetInt("page")
			pageSize, _ := cmd.Flags().GetInt("page-size")

			e, err := openService(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			orders, err := e.service.ListOrders(cmd.Context(), queries.ListOrdersQuery{
				Status:   status,
				Page:     page,
				PageSize: pageSize,
			})
			if err != nil {
				return err
			}

			if wantJSON(cmd) {
				return printJSON(cmd.OutOrStdout(), orders)
			}
			printOrders(cmd, orders)
			return nil
		},
	}

	cmd.Flags().String("status", "", "filter by order status (pending, processing, fulfilled, cancelled)")
	cmd.Flags().Int("page", 1, "page number")
	cmd.Flags().Int("page-size", 20, "orders per page")

	return cmd
}

func ordersShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [order-id]",
		Short: "Show an order with its items and tracking",
		Long: `Show prints the stored state of one order. Pass the order id as an argument,
or --session to find the order by its checkout session. The payment gateway is
not consulted; use reconcile for that.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID, _ := cmd.Flags().GetString("session")
			if (len(args) == 0) == (sessionID == "") {
				return fmt.Errorf("pass either an order id or --session")
			}

			e, err := openService(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			var details *domain.OrderDetails
			if sessionID != "" {
				details, err = e.service.GetOrderBySession(cmd.Context(), sessionID)
			} else {
				details, err = e.service.GetOrder(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}

			if wantJSON(cmd) {
				return printJSON(cmd.OutOrStdout(), details)
			}
			printDetails(cmd, details)
			return nil
		},
	}

	cmd.Flags().String("session", "", "find the order by checkout session id")

	return cmd
}

func ordersAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit <order-id>",
		Short: "Show the audit trail for an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt64("limit")

			e, err := openService(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			entries, err := e.service.OrderHistory(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}

			if wantJSON(cmd) {
				return printJSON(cmd.OutOrStdout(), entries)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tACTION\tSESSION")
			for _, entry := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", entry.CreatedAt.Format(time.RFC3339), entry.Action, entry.SessionID)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().Int64("limit", 50, "maximum entries to show")

	return cmd
}

func printOrders(cmd *cobra.Command, orders []domain.Order) {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tSTATUS\tPAYMENT\tTOTAL\tEMAIL\tSESSION")
	for _, o := range orders {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s %s\t%s\t%s\n",
			o.ID,
			o.CreatedAt.Format(time.RFC3339),
			o.Status,
			o.PaymentStatus,
			money.FormatCents(o.TotalCents),
			o.Currency,
			o.Customer.Email,
			o.SessionID,
		)
	}
	_ = tw.Flush()
}

func printDetails(cmd *cobra.Command, details *domain.OrderDetails) {
	o := details.Order
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Order     %s\n", o.ID)
	fmt.Fprintf(out, "Customer  %s <%s>\n", o.Customer.FullName(), o.Customer.Email)
	fmt.Fprintf(out, "Status    %s / payment %s\n", o.Status, o.PaymentStatus)
	fmt.Fprintf(out, "Total     %s %s\n", money.FormatCents(o.TotalCents), o.Currency)
	if o.SessionID != "" {
		fmt.Fprintf(out, "Session   %s\n", o.SessionID)
	}
	if details.Tracking != nil {
		fmt.Fprintf(out, "Tracking  %s (%s)\n", details.Tracking.TrackingNumber, details.Tracking.Status)
	}

	fmt.Fprintln(out)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PRODUCT\tQTY\tUNIT\tLINE")
	for _, item := range details.Items {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n",
			item.ProductName,
			item.Quantity,
			money.FormatCents(item.UnitPriceCents),
			money.FormatCents(item.LineTotal()),
		)
	}
	_ = tw.Flush()
}
