package quote

import "math"

// FormulaType is the menu family a formula belongs to.
type FormulaType string

const (
	FormulaTypeTapas     FormulaType = "TAPAS"
	FormulaTypeBrasserie FormulaType = "BRASSERIE"
)

// MenuCategory tags the semantic variant of a formula independently of its id.
type MenuCategory string

const (
	MenuStandard MenuCategory = "STANDARD"
	MenuBrunch   MenuCategory = "BRUNCH"
	MenuFestive  MenuCategory = "FESTIVE"
)

// Service is a named seating window.
type Service string

const (
	ServiceLunch      Service = "LUNCH"
	ServiceDinner1    Service = "DINNER_1"
	ServiceDinner2    Service = "DINNER_2"
	ServiceDinnerFull Service = "DINNER_FULL"
)

// Services lists the known seating windows in display order.
var Services = []Service{ServiceLunch, ServiceDinner1, ServiceDinner2, ServiceDinnerFull}

// Restrictions narrows when a formula can be sold. Nil Days or Services means no restriction
// while an empty list allows nothing, so both encode as JSON null or []; a zero MaxGuests
// means unlimited.
type Restrictions struct {
	Days      []int     `json:"days" yaml:"days,omitempty"`
	Services  []Service `json:"services" yaml:"services,omitempty"`
	MaxGuests int       `json:"maxGuests,omitempty" yaml:"maxGuests,omitempty"`
}

// FormulaDefinition is a sellable menu package. Part10HT and Part20HT are the per-person
// tax-exclusive amounts taxed at 10% and 20%.
type FormulaDefinition struct {
	ID           string        `json:"id" yaml:"id" validate:"required,max=64"`
	Name         string        `json:"name" yaml:"name" validate:"required,max=200"`
	Type         FormulaType   `json:"type" yaml:"type" validate:"required,oneof=TAPAS BRASSERIE"`
	Menu         MenuCategory  `json:"menu" yaml:"menu" validate:"omitempty,oneof=STANDARD BRUNCH FESTIVE"`
	ForChildren  bool          `json:"forChildren,omitempty" yaml:"forChildren,omitempty"`
	PriceTTC     float64       `json:"priceTtc" yaml:"priceTtc" validate:"gte=0"`
	Part10HT     float64       `json:"part10Ht" yaml:"part10Ht" validate:"gte=0"`
	Part20HT     float64       `json:"part20Ht" yaml:"part20Ht" validate:"gte=0"`
	Restrictions *Restrictions `json:"restrictions,omitempty" yaml:"restrictions,omitempty"`
	Included     []string      `json:"included,omitempty" yaml:"included,omitempty"`
	Description  string        `json:"description,omitempty" yaml:"description,omitempty"`
}

// IsBrunch reports whether the formula is a brunch variant.
func (f FormulaDefinition) IsBrunch() bool { return f.Menu == MenuBrunch }

// IsFestive reports whether the formula is a festive-evening variant.
func (f FormulaDefinition) IsFestive() bool { return f.Menu == MenuFestive }

// IsAdultBrunch reports whether the formula is the adult brunch.
func (f FormulaDefinition) IsAdultBrunch() bool { return f.IsBrunch() && !f.ForChildren }

// IsChildBrunch reports whether the formula is the children's brunch.
func (f FormulaDefinition) IsChildBrunch() bool { return f.IsBrunch() && f.ForChildren }

// CheckFormula reports whether the grossed-up partial amounts match the headline price to
// the cent. It is a catalogue editing aid; the engine never relies on it.
func CheckFormula(f FormulaDefinition) bool {
	return round2(f.Part10HT*1.10+f.Part20HT*1.20) == round2(f.PriceTTC)
}

// QuoteItem is a drink or extra. Price is the unit TTC price; the unit HT price is implied by
// VATRate. Name is the join key against the catalogue.
type QuoteItem struct {
	Name     string  `json:"name" yaml:"name" validate:"required,max=200"`
	Price    float64 `json:"price" yaml:"price" validate:"gte=0"`
	VATRate  float64 `json:"vatRate" yaml:"vatRate" validate:"gte=0,lte=100"`
	Quantity int     `json:"quantity" yaml:"quantity,omitempty"`
	Total    float64 `json:"total" yaml:"total,omitempty"`
	Category string  `json:"category,omitempty" yaml:"category,omitempty"`
}

// UnitHT returns the tax-exclusive unit price.
func (i QuoteItem) UnitHT() float64 {
	return i.Price / (1 + i.VATRate/100)
}

// Catalogue is the set of formulas and options quotes are priced against.
type Catalogue struct {
	Formulas []FormulaDefinition `json:"formulas" yaml:"formulas"`
	Options  []QuoteItem         `json:"options" yaml:"options"`
}

// Formula returns the formula with the given id.
func (c Catalogue) Formula(id string) (FormulaDefinition, bool) {
	for _, f := range c.Formulas {
		if f.ID == id {
			return f, true
		}
	}
	return FormulaDefinition{}, false
}

// Option returns the option with the given name.
func (c Catalogue) Option(name string) (QuoteItem, bool) {
	for _, o := range c.Options {
		if o.Name == name {
			return o, true
		}
	}
	return QuoteItem{}, false
}

// ChildBrunch returns the dedicated children's brunch formula.
func (c Catalogue) ChildBrunch() (FormulaDefinition, bool) {
	for _, f := range c.Formulas {
		if f.IsChildBrunch() {
			return f, true
		}
	}
	return FormulaDefinition{}, false
}

// IsEmpty reports whether the catalogue carries nothing to sell.
func (c Catalogue) IsEmpty() bool {
	return len(c.Formulas) == 0 && len(c.Options) == 0
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
