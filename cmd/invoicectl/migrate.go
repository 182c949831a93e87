package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "migrate [up|down|status]",
		Short: "Apply schema migrations with goose",
		Long: `Run the goose binary against DATABASE_URL with the SQL migrations in
db/migrations. goose must be installed and on PATH.`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			dsn := os.Getenv("DATABASE_URL")
			if dsn == "" {
				return errors.New("DATABASE_URL is required")
			}
			action := "up"
			if len(args) == 1 {
				action = args[0]
			}

			goose := exec.CommandContext(cmd.Context(), "goose", "-dir", dir, "postgres", dsn, action)
			goose.Stdout = cmd.OutOrStdout()
			goose.Stderr = cmd.ErrOrStderr()
			if err := goose.Run(); err != nil {
				return fmt.Errorf("goose %s: %w", action, err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "db/migrations", "migrations directory")
	return cmd
}
