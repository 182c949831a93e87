package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"invoicer/internal/core/money"
	"invoicer/internal/domain/invoice"
)

func newTaxCmd() *cobra.Command {
	var (
		rate string
		cgst bool
		sgst bool
	)

	cmd := &cobra.Command{
		Use:   "tax <subtotal>",
		Short: "Compute GST for a subtotal",
		Example: `  # Both components at the default 18% combined rate
  invoicectl tax 1000 --cgst --sgst

  # One component of a 12% combined rate
  invoicectl tax 250.50 --cgst --rate 12`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			subtotal, err := money.ParseNonNegative(args[0])
			if err != nil {
				return fmt.Errorf("subtotal: %w", err)
			}
			combined, err := decimal.NewFromString(rate)
			if err != nil {
				return fmt.Errorf("rate: %w", err)
			}

			sel := invoice.TaxSelection{CGST: cgst, SGST: sgst}
			t := invoice.NewTaxEngine(combined).Compute(money.Round(subtotal), sel)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "tax:      %s\n", sel.Label())
			fmt.Fprintf(out, "rate:     %s%%\n", t.TaxRate.String())
			fmt.Fprintf(out, "subtotal: %s\n", t.Subtotal.StringFixed(2))
			fmt.Fprintf(out, "gst:      %s\n", t.TaxAmount.StringFixed(2))
			fmt.Fprintf(out, "total:    %s\n", t.FinalTotal.StringFixed(2))
			return nil
		},
	}
	cmd.Flags().StringVar(&rate, "rate", fmt.Sprint(invoice.DefaultCombinedRate), "combined GST rate in percent")
	cmd.Flags().BoolVar(&cgst, "cgst", false, "apply CGST")
	cmd.Flags().BoolVar(&sgst, "sgst", false, "apply SGST")
	return cmd
}
