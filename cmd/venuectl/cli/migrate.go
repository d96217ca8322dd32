package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/venuedesk/venuedesk/internal/platform/db"
)

func newMigrateCommand(deps Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:       "migrate up|down|status",
		Short:     "Run the embedded database migrations.",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{string(db.MigrateUp), string(db.MigrateDown), string(db.MigrateStatus)},
		RunE: func(cmd *cobra.Command, args []string) error {
			if deps.Migrator == nil {
				return errMissingDependency
			}
			migrate, closeFn, err := deps.Migrator()
			if err != nil {
				return err
			}
			defer closeFn()
			dir := db.Direction(args[0])
			if err := migrate(cmd.Context(), dir); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "migrate %s: ok\n", dir)
			return nil
		},
	}
	return cmd
}
