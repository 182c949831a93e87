package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"invoicer/internal/domain/auth"
	"invoicer/internal/domain/company"
	"invoicer/internal/infrastructure/storage/postgres"
	"invoicer/internal/infrastructure/storage/postgres/company_repo"
)

func newRegisterCompanyCmd() *cobra.Command {
	var (
		profile     company.Profile
		loginEmail  string
		fixedPrefix string
		departments []string
	)

	cmd := &cobra.Command{
		Use:   "register-company",
		Short: "Create a company account and its departments in the database",
		Long: `Create a company account the way self-registration does, then add
departments given as key or key=CODE. The password is read from the first
line of stdin.`,
		Example: `  echo 's3cret-pass' | invoicectl register-company \
    --name "Acme Robotics" --login billing@acme.test \
    --department robotics --department events=EVT`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dsn := os.Getenv("DATABASE_URL")
			if dsn == "" {
				return errors.New("DATABASE_URL is required")
			}
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read password: %w", err)
			}
			password := strings.TrimRight(line, "\r\n")

			if fixedPrefix != "" {
				profile.PrefixMode = company.PrefixFixed
				profile.FixedPrefix = fixedPrefix
			}

			ctx := cmd.Context()
			poolCfg := postgres.DefaultPoolConfig(dsn, 2)
			poolCfg.Component = "invoicectl"
			pool, err := postgres.NewPool(ctx, poolCfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			txManager := postgres.NewTxManager(pool)
			svc := company.NewService(
				company_repo.NewCompanyRepo(txManager),
				company_repo.NewDepartmentRepo(txManager),
				txManager,
				auth.NewBcryptHasher(0),
			)

			c, err := svc.Register(ctx, company.Registration{
				Profile:    profile,
				LoginEmail: loginEmail,
				Password:   password,
			})
			if err != nil {
				return err
			}
			for _, arg := range departments {
				key, code, _ := strings.Cut(arg, "=")
				d := &company.Department{CompanyID: c.ID, Key: key, Code: code}
				if err := svc.CreateDepartment(ctx, d); err != nil {
					return fmt.Errorf("department %q: %w", key, err)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "company %s (%s) prefix %s\n", c.ID, c.LoginEmail, c.NumberPrefix())
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&profile.Name, "name", "", "company name")
	f.StringVar(&loginEmail, "login", "", "login email")
	f.StringVar(&profile.Email, "email", "", "contact email printed on invoices")
	f.StringVar(&profile.Address, "address", "", "postal address")
	f.StringVar(&profile.TaxID, "tax-id", "", "GSTIN")
	f.StringVar(&fixedPrefix, "prefix", "", "fixed invoice number prefix instead of the name-derived one")
	f.StringArrayVar(&departments, "department", nil, "department key or key=CODE, repeatable")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("login")
	return cmd
}
