package quote

import "time"

const (
	// DepositRate is the share of the total asked upfront.
	DepositRate = 0.30
	// CommissionVATRate is the VAT rate assumed on agency commissions.
	CommissionVATRate = 20.0

	// DJItem is offered on Thursday, Friday and Saturday nights.
	DJItem = "DJ"
	// BirthdayCakeItem is always priced for every adult guest.
	BirthdayCakeItem = "Gâteau d'anniversaire"
)

// VATBand holds the tax-exclusive base and the tax collected for one VAT rate.
type VATBand struct {
	HT  float64 `json:"ht"`
	TVA float64 `json:"tva"`
}

// Breakdown splits totals per VAT rate. Both bands are always present.
type Breakdown struct {
	VAT10 VATBand `json:"vat10"`
	VAT20 VATBand `json:"vat20"`
}

// Totals is the priced outcome of a selection. Amounts are unrounded; rounding happens when
// they are displayed.
type Totals struct {
	TotalTTC         float64   `json:"totalTtc"`
	TotalHT          float64   `json:"totalHt"`
	TotalTVA         float64   `json:"totalTva"`
	Deposit          float64   `json:"deposit"`
	DiscountAmount   float64   `json:"discountAmount"`
	CommissionAmount float64   `json:"commissionAmount"`
	Breakdown        Breakdown `json:"breakdown"`
}

type accumulator struct {
	ttc   float64
	ht10  float64
	tva10 float64
	ht20  float64
	tva20 float64
}

// add books a tax-exclusive amount and its tax in the band of rate. Any rate other than 10
// lands in the 20% band.
func (a *accumulator) add(rate, ht, tva float64) {
	if rate == 10 {
		a.ht10 += ht
		a.tva10 += tva
		return
	}
	a.ht20 += ht
	a.tva20 += tva
}

// addTTC backs the tax out of a tax-inclusive amount.
func (a *accumulator) addTTC(rate, ttc float64) {
	ht := ttc / (1 + rate/100)
	a.add(rate, ht, ttc-ht)
}

func (a *accumulator) scale(factor float64) {
	a.ht10 *= factor
	a.tva10 *= factor
	a.ht20 *= factor
	a.tva20 *= factor
}

// CalculateTotal prices a selection against a catalogue. The order of the steps matters:
// the discount is taken before the commission, and the commission is computed on the
// discounted total.
func CalculateTotal(sel Selection, cat Catalogue) Totals {
	sel = sel.Normalize()
	var acc accumulator

	adultBrunch, childBrunchLine := false, false
	for _, line := range sel.Formulas {
		if line.Quantity <= 0 {
			continue
		}
		qty := float64(line.Quantity)
		acc.ttc += line.UnitPrice() * qty

		scale := 1.0
		if line.CustomPrice != nil && line.Formula.PriceTTC != 0 {
			scale = *line.CustomPrice / line.Formula.PriceTTC
		}
		ht10 := line.Formula.Part10HT * qty * scale
		ht20 := line.Formula.Part20HT * qty * scale
		acc.add(10, ht10, ht10*0.10)
		acc.add(20, ht20, ht20*0.20)

		if line.Formula.IsAdultBrunch() {
			adultBrunch = true
		}
		if line.Formula.IsChildBrunch() {
			childBrunchLine = true
		}
	}

	// Children at a brunch are billed even when no explicit line was added. This amount is
	// not listed as a line anywhere.
	if adultBrunch && !childBrunchLine && sel.Event.Children > 0 {
		if child, ok := cat.ChildBrunch(); ok {
			n := float64(sel.Event.Children)
			acc.ttc += child.PriceTTC * n
			ht10 := child.Part10HT * n
			ht20 := child.Part20HT * n
			acc.add(10, ht10, ht10*0.10)
			acc.add(20, ht20, ht20*0.20)
		}
	}

	for _, item := range sel.Options {
		if item.Quantity <= 0 {
			continue
		}
		line := pricedOption(item, sel.Event, cat)
		ht := line.UnitHT * float64(line.Quantity)
		ttc := ht * (1 + line.VATRate/100)
		acc.ttc += ttc
		acc.add(line.VATRate, ht, ttc-ht)
	}

	if c := sel.CustomItem; c != nil && c.Price != 0 && c.Quantity > 0 {
		ttc := c.Price * float64(c.Quantity)
		acc.ttc += ttc
		acc.addTTC(c.VATRate, ttc)
	}

	var totals Totals

	if d := sel.Discount; d != nil && d.Value > 0 {
		var amount float64
		switch d.Type {
		case DiscountPercent:
			amount = acc.ttc * d.Value / 100
		case DiscountAmount:
			amount = d.Value
		}
		factor := 1.0
		if acc.ttc != 0 {
			factor = (acc.ttc - amount) / acc.ttc
		}
		if factor < 0 {
			factor = 0
		}
		acc.scale(factor)
		before := acc.ttc
		acc.ttc -= amount
		if acc.ttc < 0 {
			acc.ttc = 0
		}
		totals.DiscountAmount = before - acc.ttc
	}

	if c := sel.Commission; c != nil && c.Value > 0 {
		var amount float64
		switch c.Type {
		case CommissionPercent:
			amount = acc.ttc * c.Value / 100
		case CommissionFixed:
			amount = c.Value
		}
		acc.ttc += amount
		acc.addTTC(CommissionVATRate, amount)
		totals.CommissionAmount = amount
	}

	totals.TotalTTC = acc.ttc
	totals.TotalHT = acc.ht10 + acc.ht20
	totals.TotalTVA = acc.tva10 + acc.tva20
	totals.Deposit = acc.ttc * DepositRate
	totals.Breakdown = Breakdown{
		VAT10: VATBand{HT: acc.ht10, TVA: acc.tva10},
		VAT20: VATBand{HT: acc.ht20, TVA: acc.tva20},
	}
	return totals
}

// PricedOption is an option line after the venue's per-item rules were applied.
type PricedOption struct {
	Name     string  `json:"name"`
	UnitHT   float64 `json:"unitHt"`
	VATRate  float64 `json:"vatRate"`
	Quantity int     `json:"quantity"`
	Offered  bool    `json:"offered,omitempty"`
}

// pricedOption resolves the effective unit price and quantity of an option line. Lines
// written without a price take it from the catalogue by name.
func pricedOption(item QuoteItem, event EventContext, cat Catalogue) PricedOption {
	if item.Price == 0 {
		if ref, ok := cat.Option(item.Name); ok {
			item.Price = ref.Price
			item.VATRate = ref.VATRate
		}
	}
	line := PricedOption{
		Name:     item.Name,
		UnitHT:   item.UnitHT(),
		VATRate:  item.VATRate,
		Quantity: item.Quantity,
	}
	if item.Name == DJItem && djOffered(event.Date) {
		line.UnitHT = 0
		line.Offered = true
	}
	if item.Name == BirthdayCakeItem {
		line.Quantity = event.Adults
	}
	return line
}

func djOffered(d Date) bool {
	switch d.Weekday() {
	case time.Thursday, time.Friday, time.Saturday:
		return true
	}
	return false
}
