package quote

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar date. It decodes from YYYY-MM-DD or an RFC 3339 timestamp; the weekday is
// taken in the location the value was written in.
type Date struct {
	time.Time
}

// NewDate builds a date at midnight UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses YYYY-MM-DD or RFC 3339 input.
func ParseDate(raw string) (Date, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return Date{t}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return Date{}, fmt.Errorf("quote: invalid date %q", raw)
	}
	return Date{t}, nil
}

// MarshalJSON writes the date as YYYY-MM-DD.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(dateLayout))
}

// UnmarshalJSON accepts YYYY-MM-DD, RFC 3339, null or an empty string.
func (d *Date) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil || *raw == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(*raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// String implements fmt.Stringer.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// EventContext describes the event being quoted.
type EventContext struct {
	Date     Date    `json:"date"`
	Service  Service `json:"service"`
	Adults   int     `json:"adults"`
	Children int     `json:"children,omitempty"`
}

// Guests returns adults plus children.
func (e EventContext) Guests() int {
	return e.Adults + e.Children
}

// SelectedFormula is a formula snapshot with the quantity ordered and an optional negotiated
// per-person price.
type SelectedFormula struct {
	Formula     FormulaDefinition `json:"formula"`
	Quantity    int               `json:"quantity"`
	CustomPrice *float64          `json:"customPrice,omitempty"`
}

// UnitPrice returns the effective per-person TTC price.
func (s SelectedFormula) UnitPrice() float64 {
	if s.CustomPrice != nil {
		return *s.CustomPrice
	}
	return s.Formula.PriceTTC
}

// CustomItem is the single free-text add-on line of a selection.
type CustomItem struct {
	Label    string  `json:"label"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
	VATRate  float64 `json:"vatRate"`
}

// DiscountType selects how a discount value is read.
type DiscountType string

const (
	DiscountPercent DiscountType = "PERCENT"
	DiscountAmount  DiscountType = "AMOUNT"
)

// Discount is applied once on the grand total.
type Discount struct {
	Type  DiscountType `json:"type"`
	Value float64      `json:"value"`
}

// CommissionType selects how an agency commission value is read.
type CommissionType string

const (
	CommissionPercent CommissionType = "PERCENT"
	CommissionFixed   CommissionType = "FIXED"
)

// AgencyCommission is revenue added on top of the discounted total.
type AgencyCommission struct {
	Type  CommissionType `json:"type"`
	Value float64        `json:"value"`
}

// Selection is everything a customer or an admin picked for one event.
//
// LegacyFormula is the single-formula field of records written before multi-formula
// selection existed. It is folded into Formulas on ingestion and is read-only afterwards.
type Selection struct {
	Event         EventContext       `json:"event"`
	Formulas      []SelectedFormula  `json:"formulas"`
	Options       []QuoteItem        `json:"options"`
	CustomItem    *CustomItem        `json:"customItem,omitempty"`
	Discount      *Discount          `json:"discount,omitempty"`
	Commission    *AgencyCommission  `json:"agencyCommission,omitempty"`
	LegacyFormula *FormulaDefinition `json:"formula,omitempty"`
}

// UnmarshalJSON decodes a selection and normalises it.
func (s *Selection) UnmarshalJSON(data []byte) error {
	type plain Selection
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*s = Selection(decoded).Normalize()
	return nil
}

// Normalize returns a copy where the legacy single formula is materialised as a line priced for
// every adult, and zero-quantity formula lines are dropped. A legacy formula with no adults
// yields no line.
func (s Selection) Normalize() Selection {
	out := s
	out.Formulas = make([]SelectedFormula, 0, len(s.Formulas)+1)
	if len(s.Formulas) == 0 && s.LegacyFormula != nil && s.Event.Adults > 0 {
		out.Formulas = append(out.Formulas, SelectedFormula{
			Formula:  *s.LegacyFormula,
			Quantity: s.Event.Adults,
		})
	}
	for _, line := range s.Formulas {
		if line.Quantity > 0 {
			out.Formulas = append(out.Formulas, line)
		}
	}
	out.Options = append([]QuoteItem(nil), s.Options...)
	return out
}

// SetFormulaQuantity adds, updates or removes the line for f. A quantity of zero or less
// removes the line. The definition is copied so later catalogue edits do not reach the
// selection.
func (s *Selection) SetFormulaQuantity(f FormulaDefinition, quantity int) {
	for i, line := range s.Formulas {
		if line.Formula.ID != f.ID {
			continue
		}
		if quantity <= 0 {
			s.Formulas = append(s.Formulas[:i], s.Formulas[i+1:]...)
			return
		}
		s.Formulas[i].Quantity = quantity
		return
	}
	if quantity <= 0 {
		return
	}
	s.Formulas = append(s.Formulas, SelectedFormula{Formula: cloneFormula(f), Quantity: quantity})
}

// SetCustomPrice sets or clears the negotiated per-person price of a selected formula.
func (s *Selection) SetCustomPrice(formulaID string, price *float64) bool {
	for i := range s.Formulas {
		if s.Formulas[i].Formula.ID == formulaID {
			if price != nil {
				v := *price
				price = &v
			}
			s.Formulas[i].CustomPrice = price
			return true
		}
	}
	return false
}

// SetOptionQuantity adds, updates or removes the option line for item, keeping its line total
// in sync.
func (s *Selection) SetOptionQuantity(item QuoteItem, quantity int) {
	for i, line := range s.Options {
		if line.Name != item.Name {
			continue
		}
		if quantity <= 0 {
			s.Options = append(s.Options[:i], s.Options[i+1:]...)
			return
		}
		s.Options[i].Quantity = quantity
		s.Options[i].Total = s.Options[i].Price * float64(quantity)
		return
	}
	if quantity <= 0 {
		return
	}
	item.Quantity = quantity
	item.Total = item.Price * float64(quantity)
	s.Options = append(s.Options, item)
}

func cloneFormula(f FormulaDefinition) FormulaDefinition {
	out := f
	if f.Restrictions != nil {
		r := *f.Restrictions
		if f.Restrictions.Days != nil {
			r.Days = append(make([]int, 0, len(f.Restrictions.Days)), f.Restrictions.Days...)
		}
		if f.Restrictions.Services != nil {
			r.Services = append(make([]Service, 0, len(f.Restrictions.Services)), f.Restrictions.Services...)
		}
		out.Restrictions = &r
	}
	out.Included = append([]string(nil), f.Included...)
	return out
}
