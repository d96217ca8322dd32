package quote

// LineKind identifies where a displayed line comes from.
type LineKind string

const (
	LineFormula LineKind = "FORMULA"
	LineOption  LineKind = "OPTION"
	LineCustom  LineKind = "CUSTOM"
)

// Line is a display row of a quote, before discount and commission.
type Line struct {
	Kind       LineKind `json:"kind"`
	Label      string   `json:"label"`
	Quantity   int      `json:"quantity"`
	UnitTTC    float64  `json:"unitTtc"`
	TotalTTC   float64  `json:"totalTtc"`
	VATRate    float64  `json:"vatRate,omitempty"`
	Offered    bool     `json:"offered,omitempty"`
	Negotiated bool     `json:"negotiated,omitempty"`
}

// Lines lists the visible rows of a selection with the same unit prices and quantities the
// totals use. The implicit children's brunch is not listed.
func Lines(sel Selection, cat Catalogue) []Line {
	sel = sel.Normalize()
	out := make([]Line, 0, len(sel.Formulas)+len(sel.Options)+1)
	for _, f := range sel.Formulas {
		if f.Quantity <= 0 {
			continue
		}
		unit := f.UnitPrice()
		out = append(out, Line{
			Kind:       LineFormula,
			Label:      f.Formula.Name,
			Quantity:   f.Quantity,
			UnitTTC:    unit,
			TotalTTC:   unit * float64(f.Quantity),
			Negotiated: f.CustomPrice != nil,
		})
	}
	for _, item := range sel.Options {
		if item.Quantity <= 0 {
			continue
		}
		p := pricedOption(item, sel.Event, cat)
		unit := p.UnitHT * (1 + p.VATRate/100)
		out = append(out, Line{
			Kind:     LineOption,
			Label:    p.Name,
			Quantity: p.Quantity,
			UnitTTC:  unit,
			TotalTTC: unit * float64(p.Quantity),
			VATRate:  p.VATRate,
			Offered:  p.Offered,
		})
	}
	if c := sel.CustomItem; c != nil && c.Price != 0 && c.Quantity > 0 {
		out = append(out, Line{
			Kind:     LineCustom,
			Label:    c.Label,
			Quantity: c.Quantity,
			UnitTTC:  c.Price,
			TotalTTC: c.Price * float64(c.Quantity),
			VATRate:  c.VATRate,
		})
	}
	return out
}
