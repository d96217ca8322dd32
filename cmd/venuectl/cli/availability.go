package cli

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/venuedesk/venuedesk/internal/quote"
)

func newAvailabilityCommand(deps Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "availability",
		Short: "List which formulas can be sold for a date, service and party size.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rawDate, _ := cmd.Flags().GetString("date")
			if rawDate == "" {
				return errors.New("--date is required")
			}
			date, err := quote.ParseDate(rawDate)
			if err != nil {
				return err
			}
			rawService, _ := cmd.Flags().GetString("service")
			service := quote.Service(strings.ToUpper(rawService))
			if !slices.Contains(quote.Services, service) {
				return fmt.Errorf("unknown service %q", rawService)
			}
			adults, _ := cmd.Flags().GetInt("adults")
			children, _ := cmd.Flags().GetInt("children")
			if adults < 0 || children < 0 {
				return errors.New("guest counts must not be negative")
			}
			cat, err := loadCatalogue(cmd, deps)
			if err != nil {
				return err
			}

			results := quote.AvailableFormulas(cat, quote.EventContext{
				Date:     date,
				Service:  service,
				Adults:   adults,
				Children: children,
			})
			if only, _ := cmd.Flags().GetBool("available-only"); only {
				results = slices.DeleteFunc(results, func(fa quote.FormulaAvailability) bool { return !fa.Available })
			}
			return writeJSON(cmd.OutOrStdout(), results)
		},
	}
	cmd.Flags().String("date", "", "Event date, YYYY-MM-DD. (required)")
	cmd.Flags().String("service", string(quote.ServiceDinner1), "Service: LUNCH, DINNER_1, DINNER_2 or DINNER_FULL.")
	cmd.Flags().Int("adults", 0, "Number of adults.")
	cmd.Flags().Int("children", 0, "Number of children.")
	cmd.Flags().Bool("available-only", false, "Hide formulas that cannot be sold.")
	addCatalogueFlag(cmd.Flags())
	return cmd
}
