package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/eleven-am/tasks/internal/models"
	"github.com/eleven-am/tasks/internal/schema"
)

func newSchemaCommand(opts *rootOptions) *cobra.Command {
	var (
		apply    bool
		createDB bool
	)

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print or apply the table definitions",
		Long: `Print the CREATE TABLE IF NOT EXISTS statements for every table.
With --apply the statements are executed against the configured database;
existing tables are left untouched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tables, err := models.Tables()
			if err != nil {
				return err
			}

			if !apply {
				statements, err := schema.Statements(tables...)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(statements, ";\n\n")+";")
				return nil
			}

			if createDB {
				opts.cfg.Database.CreateIfMissing = true
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			db, err := connect(ctx, opts.cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := schema.Ensure(ctx, db, tables...); err != nil {
				return fmt.Errorf("failed to apply schema: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema applied")
			return nil
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "execute the statements against the database")
	cmd.Flags().BoolVar(&createDB, "create-db", false, "create the database first if it does not exist")

	return cmd
}
