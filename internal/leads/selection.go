package leads

import (
	"fmt"
	"slices"

	"github.com/venuedesk/venuedesk/internal/quote"
)

// customerSelection rebuilds a wizard selection from the live catalogue. Prices are taken from
// the catalogue at this moment and copied into the selection; negotiated prices, discounts,
// commissions and the custom line are back-office only and are dropped.
func customerSelection(sel quote.Selection, cat quote.Catalogue) (quote.Selection, error) {
	sel = sel.Normalize()
	out := quote.Selection{Event: sel.Event}
	for _, line := range sel.Formulas {
		f, ok := cat.Formula(line.Formula.ID)
		if !ok {
			return quote.Selection{}, fmt.Errorf("%w: unknown formula %q", ErrInvalid, line.Formula.ID)
		}
		out.SetFormulaQuantity(f, formulaQuantity(out, f.ID)+line.Quantity)
	}
	for _, item := range sel.Options {
		if item.Quantity <= 0 {
			continue
		}
		current, ok := cat.Option(item.Name)
		if !ok {
			return quote.Selection{}, fmt.Errorf("%w: unknown option %q", ErrInvalid, item.Name)
		}
		out.SetOptionQuantity(current, optionQuantity(out, current.Name)+item.Quantity)
	}
	return out, nil
}

func formulaQuantity(sel quote.Selection, id string) int {
	for _, line := range sel.Formulas {
		if line.Formula.ID == id {
			return line.Quantity
		}
	}
	return 0
}

func optionQuantity(sel quote.Selection, name string) int {
	for _, item := range sel.Options {
		if item.Name == name {
			return item.Quantity
		}
	}
	return 0
}

// checkBookable rejects selections that cannot be turned into a booking: the event must be
// dated, on a known service, with at least one adult and one formula line, and every formula
// must be available for the event.
func checkBookable(sel quote.Selection) error {
	ev := sel.Event
	if ev.Date.IsZero() {
		return fmt.Errorf("%w: event date required", ErrInvalid)
	}
	if !slices.Contains(quote.Services, ev.Service) {
		return fmt.Errorf("%w: unknown service %q", ErrInvalid, ev.Service)
	}
	if ev.Adults < 1 || ev.Children < 0 {
		return fmt.Errorf("%w: at least one adult required", ErrInvalid)
	}
	if len(sel.Formulas) == 0 {
		return fmt.Errorf("%w: no formula selected", ErrInvalid)
	}
	for _, line := range sel.Formulas {
		if v := quote.Availability(line.Formula, ev.Date, ev.Service, ev.Guests()); !v.Available {
			return fmt.Errorf("%w: %s: %s", ErrInvalid, line.Formula.Name, v.Reason)
		}
	}
	return nil
}
