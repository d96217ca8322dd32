package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/venuedesk/venuedesk/internal/money"
	"github.com/venuedesk/venuedesk/internal/observability"
	"github.com/venuedesk/venuedesk/internal/quote"
)

type quoteOutput struct {
	Lines  []quote.Line `json:"lines"`
	Totals quote.Totals `json:"totals"`
}

func newQuoteCommand(deps Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a selection file and print its lines and totals.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("selection")
			if path == "" {
				return errors.New("--selection is required")
			}
			cat, err := loadCatalogue(cmd, deps)
			if err != nil {
				return err
			}
			f, err := deps.OpenInput(path)
			if err != nil {
				return fmt.Errorf("open selection: %w", err)
			}
			defer f.Close()
			var sel quote.Selection
			if err := json.NewDecoder(f).Decode(&sel); err != nil {
				return fmt.Errorf("decode selection: %w", err)
			}

			sel = resolveReferences(sel, cat)
			totals := quote.CalculateTotal(sel, cat)
			deps.Metrics.QuoteComputed(observability.SourceCLI)

			if text, _ := cmd.Flags().GetBool("text"); text {
				out := cmd.OutOrStdout()
				for _, line := range quote.Lines(sel, cat) {
					_, _ = fmt.Fprintf(out, "%-40s %14s\n", line.Label, money.French.Amount(line.TotalTTC))
				}
				_, _ = fmt.Fprintf(out, "%-40s %14s\n", "Total TTC", money.French.Amount(totals.TotalTTC))
				_, _ = fmt.Fprintf(out, "%-40s %14s\n", "Acompte", money.French.Amount(totals.Deposit))
				return nil
			}
			return writeJSON(cmd.OutOrStdout(), quoteOutput{Lines: quote.Lines(sel, cat), Totals: totals})
		},
	}
	cmd.Flags().String("selection", "", "Selection JSON file. (required)")
	cmd.Flags().Bool("text", false, "Print a French-formatted summary instead of JSON.")
	addCatalogueFlag(cmd.Flags())
	return cmd
}

// resolveReferences fills formula and option lines that only name a catalogue entry. Lines
// carrying their own snapshot keep it.
func resolveReferences(sel quote.Selection, cat quote.Catalogue) quote.Selection {
	formulas := make([]quote.SelectedFormula, len(sel.Formulas))
	for i, line := range sel.Formulas {
		if line.Formula.Name == "" {
			if f, ok := cat.Formula(line.Formula.ID); ok {
				line.Formula = f
			}
		}
		formulas[i] = line
	}
	options := make([]quote.QuoteItem, len(sel.Options))
	for i, item := range sel.Options {
		if item.Price == 0 {
			if current, ok := cat.Option(item.Name); ok {
				current.Quantity = item.Quantity
				current.Total = current.Price * float64(item.Quantity)
				item = current
			}
		}
		options[i] = item
	}
	sel.Formulas = formulas
	sel.Options = options
	return sel
}
