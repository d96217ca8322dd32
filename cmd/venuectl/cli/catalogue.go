package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newCatalogueCommand(deps Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalogue",
		Short: "Manage the stored catalogue.",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Replace the stored formulas and options with a YAML file.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if deps.Importer == nil {
				return errMissingDependency
			}
			cat, err := readCatalogue(deps, args[0])
			if err != nil {
				return err
			}
			importCatalogue, closeFn, err := deps.Importer()
			if err != nil {
				return err
			}
			defer closeFn()
			warnings, err := importCatalogue(cmd.Context(), cat)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "imported %d formulas, %d options\n", len(cat.Formulas), len(cat.Options))
			ids := make([]string, 0, len(warnings))
			for id := range warnings {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				for _, w := range warnings[id] {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s: %s\n", id, w)
				}
			}
			return nil
		},
	})
	return cmd
}
