// Package main is invoicectl, the operator CLI: offline rendering, tax
// checks, number previews and account bootstrap.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"invoicer/pkg/logger"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "invoicectl",
		Short: "Operator tools for the invoicer service",
		Long: `invoicectl renders invoices without a server, checks GST arithmetic,
previews invoice numbers and bootstraps accounts.

Commands that touch the database read DATABASE_URL from the environment
or from a .env file in the working directory.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			log, err := logger.New(logger.Config{Level: logLevel, Development: true, OutputPaths: []string{"stderr"}})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			logger.SetDefault(log.WithComponent("invoicectl"))
			return nil
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(
		newRenderCmd(),
		newTaxCmd(),
		newHashPasswordCmd(),
		newNextNumberCmd(),
		newRegisterCompanyCmd(),
		newMigrateCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
