package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"invoicer/internal/core/id"
	"invoicer/internal/domain/invoice"
	"invoicer/internal/render"
)

// renderInput is the JSON document accepted by the render command.
type renderInput struct {
	Issuer struct {
		DisplayName    string `json:"displayName"`
		Address        string `json:"address"`
		Email          string `json:"email"`
		Phone          string `json:"phone"`
		Website        string `json:"website"`
		TaxID          string `json:"taxId"`
		Signatory      string `json:"signatory"`
		SignatoryTitle string `json:"signatoryTitle"`
	} `json:"issuer"`

	Number      string         `json:"number"`
	Date        string         `json:"date"`
	DueDate     string         `json:"dueDate"`
	Client      invoice.Client `json:"client"`
	Description string         `json:"description"`
	Departments []string       `json:"departments"`
	CGST        bool           `json:"cgst"`
	SGST        bool           `json:"sgst"`
	LineItems   []struct {
		Name      string      `json:"name"`
		Quantity  json.Number `json:"quantity"`
		UnitPrice json.Number `json:"unitPrice"`
	} `json:"lineItems"`
}

func newRenderCmd() *cobra.Command {
	var (
		out    string
		logo   string
		rate   string
		policy string
	)

	cmd := &cobra.Command{
		Use:   "render <invoice.json>",
		Short: "Render an invoice PDF from a JSON file without a server",
		Example: `  invoicectl render sample.json -o sample.pdf --logo logo.png`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var in renderInput
			if err := json.Unmarshal(raw, &in); err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}

			combined, err := decimal.NewFromString(rate)
			if err != nil {
				return fmt.Errorf("rate: %w", err)
			}
			p, err := invoice.ParsePolicy(policy)
			if err != nil {
				return err
			}

			inv, err := in.toInvoice(invoice.NewNormalizer(p), invoice.NewTaxEngine(combined))
			if err != nil {
				return err
			}

			issuer := invoice.Issuer{
				DisplayName:    in.Issuer.DisplayName,
				Address:        in.Issuer.Address,
				Email:          in.Issuer.Email,
				Phone:          in.Issuer.Phone,
				Website:        in.Issuer.Website,
				TaxID:          in.Issuer.TaxID,
				Signatory:      in.Issuer.Signatory,
				SignatoryTitle: in.Issuer.SignatoryTitle,
			}
			if logo != "" {
				if issuer.Logo, err = os.ReadFile(logo); err != nil {
					return fmt.Errorf("read logo: %w", err)
				}
			}

			doc, err := render.NewRenderer("invoicectl "+version).Render(cmd.Context(), inv, issuer)
			if err != nil {
				return err
			}

			if out == "" {
				out = filepath.Join(filepath.Dir(args[0]), doc.Filename)
			}
			if err := os.WriteFile(out, doc.Data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s, total %s\n", out, inv.Number, inv.FinalTotal.StringFixed(2))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default {number}.pdf next to the input)")
	cmd.Flags().StringVar(&logo, "logo", "", "logo image file (PNG or JPEG)")
	cmd.Flags().StringVar(&rate, "rate", fmt.Sprint(invoice.DefaultCombinedRate), "combined GST rate in percent")
	cmd.Flags().StringVar(&policy, "policy", string(invoice.PolicyStrict), "line item policy (strict, permissive)")
	return cmd
}

func (in renderInput) toInvoice(norm invoice.Normalizer, tax invoice.TaxEngine) (*invoice.Invoice, error) {
	var lines invoice.RawLines
	for _, li := range in.LineItems {
		lines.Names = append(lines.Names, li.Name)
		lines.Quantities = append(lines.Quantities, li.Quantity.String())
		lines.Prices = append(lines.Prices, li.UnitPrice.String())
	}
	n, err := norm.Normalize(lines)
	if err != nil {
		return nil, err
	}

	date := time.Now().UTC().Truncate(24 * time.Hour)
	if in.Date != "" {
		if date, err = time.Parse(invoice.DateLayout, in.Date); err != nil {
			return nil, fmt.Errorf("date: %w", err)
		}
	}
	due := date.AddDate(0, 0, invoice.DefaultDueDays)
	if in.DueDate != "" {
		if due, err = time.Parse(invoice.DateLayout, in.DueDate); err != nil {
			return nil, fmt.Errorf("dueDate: %w", err)
		}
	}

	inv := &invoice.Invoice{
		Number:       in.Number,
		Date:         date,
		DueDate:      due,
		Client:       in.Client,
		Description:  in.Description,
		Departments:  in.Departments,
		TaxSelection: invoice.TaxSelection{CGST: in.CGST, SGST: in.SGST},
		LineItems:    n.Items,
	}
	inv.ID = id.New()
	inv.ApplyTotals(tax.Compute(n.Subtotal, inv.TaxSelection))

	if err := inv.Validate(context.Background()); err != nil {
		return nil, err
	}
	return inv, nil
}
