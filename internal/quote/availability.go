package quote

import (
	"fmt"
	"slices"
	"time"
)

// Reasons shown next to a formula that cannot be added.
const (
	ReasonBrunchOnly      = "Brunch UNIQUEMENT"
	ReasonBrunchLunchOnly = "Brunch midi uniquement"
	ReasonFestiveOnly     = "Soirée festive uniquement"
	ReasonUnavailableDay  = "Indisponible ce jour"
	ReasonServiceExcluded = "Service non proposé"
)

// Verdict is the outcome of an availability check.
type Verdict struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

func available() Verdict { return Verdict{Available: true} }

func unavailable(reason string) Verdict { return Verdict{Reason: reason} }

// Availability decides whether f can be sold for the given date, service and party size.
// Rules are evaluated in order and the first match wins; unknown services or types fall
// through to available. The Restrictions.Services check is an addition to the base day and
// guest rules: it runs between them and only narrows formulas the earlier rules let through.
func Availability(f FormulaDefinition, date Date, service Service, guests int) Verdict {
	day := date.Weekday()
	weekend := day == time.Saturday || day == time.Sunday
	festiveNight := day == time.Friday || day == time.Saturday

	switch {
	case service == ServiceLunch && weekend:
		if f.IsBrunch() {
			return available()
		}
		return unavailable(ReasonBrunchOnly)
	case f.IsBrunch() && service != ServiceLunch:
		return unavailable(ReasonBrunchLunchOnly)
	case f.Type == FormulaTypeTapas && !f.IsFestive():
		return available()
	case service == ServiceLunch:
		return available()
	case festiveNight && (service == ServiceDinner1 || service == ServiceDinnerFull):
		if f.IsFestive() {
			return available()
		}
		return unavailable(ReasonFestiveOnly)
	case festiveNight && service == ServiceDinner2:
		return available()
	}

	if r := f.Restrictions; r != nil {
		if r.Days != nil && !slices.Contains(r.Days, int(day)) {
			return unavailable(ReasonUnavailableDay)
		}
		if r.Services != nil && !slices.Contains(r.Services, service) {
			return unavailable(ReasonServiceExcluded)
		}
		if r.MaxGuests > 0 && guests > r.MaxGuests {
			return unavailable(fmt.Sprintf("Max %d pers.", r.MaxGuests))
		}
	}
	return available()
}

// FormulaAvailability pairs a catalogue formula with its verdict for an event.
type FormulaAvailability struct {
	Formula FormulaDefinition `json:"formula"`
	Verdict
}

// AvailableFormulas evaluates every catalogue formula against the event, keeping catalogue
// order.
func AvailableFormulas(cat Catalogue, event EventContext) []FormulaAvailability {
	out := make([]FormulaAvailability, 0, len(cat.Formulas))
	for _, f := range cat.Formulas {
		out = append(out, FormulaAvailability{
			Formula: f,
			Verdict: Availability(f, event.Date, event.Service, event.Guests()),
		})
	}
	return out
}
