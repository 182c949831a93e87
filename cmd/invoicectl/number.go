package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"invoicer/internal/core/numerator"
	"invoicer/internal/domain/numbering"
)

func newNextNumberCmd() *cobra.Command {
	var (
		company    string
		department string
		code       string
		from       string
	)

	cmd := &cobra.Command{
		Use:   "next-number [existing-number...]",
		Short: "Preview the next invoice number of a scope",
		Long: `Preview the number the scan rule issues next for a company name and
department, given the numbers already in use. Existing numbers come
from arguments and, with --from, from a file with one number per line.`,
		Example: `  invoicectl next-number --company "Acme Corp" --department robotics ACM-ROB-001 ACM-ROB-007`,
		RunE: func(cmd *cobra.Command, args []string) error {
			existing := append([]string(nil), args...)
			if from != "" {
				lines, err := readLines(from)
				if err != nil {
					return err
				}
				existing = append(existing, lines...)
			}

			k := numerator.Key{
				Prefix: numbering.CompanyPrefix(company),
				Scope:  numbering.ScopeFor(department, code),
			}
			fmt.Fprintln(cmd.OutOrStdout(), numbering.NextFromExisting(k, existing).Number)
			return nil
		},
	}
	cmd.Flags().StringVar(&company, "company", "", "company name the prefix is derived from")
	cmd.Flags().StringVar(&department, "department", "", "department identifier")
	cmd.Flags().StringVar(&code, "code", "", "custom department code, overrides the built-in table")
	cmd.Flags().StringVar(&from, "from", "", "file with existing numbers, one per line")
	_ = cmd.MarkFlagRequired("company")
	return cmd
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			out = append(out, line)
		}
	}
	return out, sc.Err()
}
