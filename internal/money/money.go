// Package money formats amounts for quotes, invoices and exports.
package money

import (
	"fmt"
	"math"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Currency is the single currency the venue invoices in.
var Currency = currency.EUR

// Formatter renders amounts in a given locale.
type Formatter struct {
	printer *message.Printer
	scale   int
}

// NewFormatter builds a formatter for tag.
func NewFormatter(tag language.Tag) Formatter {
	scale, _ := currency.Standard.Rounding(Currency)
	return Formatter{printer: message.NewPrinter(tag), scale: scale}
}

// French is the formatter used on customer-facing documents.
var French = NewFormatter(language.French)

// Amount formats v with grouping and the currency symbol, e.g. "1 234,50 €".
func (f Formatter) Amount(v float64) string {
	return f.Number(v) + " €"
}

// Number formats v with grouping and the currency's minor units, without symbol.
func (f Formatter) Number(v float64) string {
	return f.printer.Sprintf(fmt.Sprintf("%%.%df", f.scale), Round(v))
}

// Percent formats a rate such as 10 as "10 %".
func (f Formatter) Percent(rate float64) string {
	if rate == math.Trunc(rate) {
		return f.printer.Sprintf("%d %%", int(rate))
	}
	return f.printer.Sprintf("%.1f %%", rate)
}

// Round rounds half away from zero to the cent.
func Round(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 {
		return 0
	}
	return r
}

// Code returns the ISO 4217 code of the venue currency.
func Code() string {
	return Currency.String()
}
