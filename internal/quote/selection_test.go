package quote

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetFormulaQuantity(t *testing.T) {
	classic := seedFormula(t, "BRASSERIE_CLASSIQUE")
	brunch := seedFormula(t, "BRUNCH")

	var sel Selection
	sel.SetFormulaQuantity(classic, 4)
	sel.SetFormulaQuantity(brunch, 2)
	sel.SetFormulaQuantity(classic, 6)
	require.Len(t, sel.Formulas, 2)
	assert.Equal(t, 6, sel.Formulas[0].Quantity)

	sel.SetFormulaQuantity(classic, 0)
	require.Len(t, sel.Formulas, 1)
	assert.Equal(t, "BRUNCH", sel.Formulas[0].Formula.ID)

	sel.SetFormulaQuantity(classic, -3)
	assert.Len(t, sel.Formulas, 1)
}

func TestSetFormulaQuantityCopiesDefinition(t *testing.T) {
	prestige := seedFormula(t, "BRASSERIE_PRESTIGE")
	prestige.Restrictions = &Restrictions{Days: []int{1, 2}, MaxGuests: 60}

	var sel Selection
	sel.SetFormulaQuantity(prestige, 10)
	prestige.PriceTTC = 99
	prestige.Restrictions.Days[0] = 6
	prestige.Restrictions.MaxGuests = 10

	snap := sel.Formulas[0].Formula
	assert.Equal(t, 69.0, snap.PriceTTC)
	assert.Equal(t, []int{1, 2}, snap.Restrictions.Days)
	assert.Equal(t, 60, snap.Restrictions.MaxGuests)
}

func TestCloneFormulaKeepsEmptyDays(t *testing.T) {
	f := FormulaDefinition{ID: "CLOSED", Restrictions: &Restrictions{Days: []int{}}}
	c := cloneFormula(f)
	require.NotNil(t, c.Restrictions.Days)
	assert.Empty(t, c.Restrictions.Days)
	assert.Nil(t, c.Restrictions.Services)
}

func TestSetCustomPrice(t *testing.T) {
	var sel Selection
	sel.SetFormulaQuantity(seedFormula(t, "BRASSERIE_CLASSIQUE"), 10)

	price := 45.0
	require.True(t, sel.SetCustomPrice("BRASSERIE_CLASSIQUE", &price))
	price = 10
	assert.Equal(t, 45.0, sel.Formulas[0].UnitPrice())

	require.True(t, sel.SetCustomPrice("BRASSERIE_CLASSIQUE", nil))
	assert.Equal(t, 49.0, sel.Formulas[0].UnitPrice())

	assert.False(t, sel.SetCustomPrice("UNKNOWN", &price))
}

func TestSetOptionQuantity(t *testing.T) {
	var sel Selection
	champagne := option(t, "Coupe de champagne", 0)

	sel.SetOptionQuantity(champagne, 10)
	require.Len(t, sel.Options, 1)
	assert.Equal(t, 120.0, sel.Options[0].Total)

	sel.SetOptionQuantity(champagne, 4)
	assert.Equal(t, 4, sel.Options[0].Quantity)
	assert.Equal(t, 48.0, sel.Options[0].Total)

	sel.SetOptionQuantity(champagne, 0)
	assert.Empty(t, sel.Options)
}

func TestNormalizeKeepsExplicitFormulasOverLegacy(t *testing.T) {
	legacy := seedFormula(t, "BRUNCH")
	sel := Selection{
		Event:         eventOn(sunday, ServiceLunch, 8, 0),
		Formulas:      []SelectedFormula{{Formula: seedFormula(t, "TAPAS_APERO"), Quantity: 8}},
		LegacyFormula: &legacy,
	}
	n := sel.Normalize()
	require.Len(t, n.Formulas, 1)
	assert.Equal(t, "TAPAS_APERO", n.Formulas[0].Formula.ID)
}

func TestNormalizeLegacyWithoutAdults(t *testing.T) {
	legacy := seedFormula(t, "BRUNCH")
	sel := Selection{Event: eventOn(sunday, ServiceLunch, 0, 2), LegacyFormula: &legacy}
	n := sel.Normalize()
	assert.Empty(t, n.Formulas)
	assert.Zero(t, CalculateTotal(sel, seedForms).TotalTTC)
}

func TestDecodeLegacyWithoutAdultsStoresNoLine(t *testing.T) {
	raw := `{"event":{"date":"2025-06-15","service":"LUNCH","adults":0,"children":2},
		"formula":{"id":"BRUNCH","name":"Brunch","type":"BRASSERIE","menu":"BRUNCH","priceTtc":32}}`
	var sel Selection
	require.NoError(t, json.Unmarshal([]byte(raw), &sel))
	assert.Empty(t, sel.Formulas)

	out, err := json.Marshal(sel)
	require.NoError(t, err)
	assert.NotContains(t, string(out), `"quantity":0`)
}

func TestDateJSON(t *testing.T) {
	for _, tc := range []struct {
		in      string
		want    string
		weekday time.Weekday
	}{
		{`"2025-06-14"`, "2025-06-14", time.Saturday},
		{`"2025-06-14T00:30:00+02:00"`, "2025-06-14", time.Saturday},
		{`"2025-06-13T22:30:00Z"`, "2025-06-13", time.Friday},
	} {
		var d Date
		require.NoError(t, json.Unmarshal([]byte(tc.in), &d), tc.in)
		assert.Equal(t, tc.want, d.String())
		assert.Equal(t, tc.weekday, d.Weekday())
	}

	var d Date
	require.NoError(t, json.Unmarshal([]byte(`null`), &d))
	assert.True(t, d.IsZero())
	require.NoError(t, json.Unmarshal([]byte(`""`), &d))
	assert.True(t, d.IsZero())
	assert.Error(t, json.Unmarshal([]byte(`"14/06/2025"`), &d))

	raw, err := json.Marshal(EventContext{Date: saturday, Service: ServiceLunch, Adults: 2})
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2025-06-14","service":"LUNCH","adults":2}`, string(raw))
}

func TestSelectionJSONRoundTripKeepsCustomPrice(t *testing.T) {
	var sel Selection
	sel.Event = eventOn(tuesday, ServiceDinner1, 10, 0)
	sel.SetFormulaQuantity(seedFormula(t, "BRASSERIE_CLASSIQUE"), 10)
	sel.SetCustomPrice("BRASSERIE_CLASSIQUE", ptr(0))

	raw, err := json.Marshal(sel)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(raw), `"customPrice":0`))

	var back Selection
	require.NoError(t, json.Unmarshal(raw, &back))
	require.NotNil(t, back.Formulas[0].CustomPrice)
	assert.Equal(t, CalculateTotal(sel, seedForms), CalculateTotal(back, seedForms))
}

func TestLinesMirrorTotals(t *testing.T) {
	sel := Selection{
		Event: eventOn(friday, ServiceDinner1, 20, 0),
		Options: []QuoteItem{
			option(t, DJItem, 1),
			option(t, BirthdayCakeItem, 1),
		},
		CustomItem: &CustomItem{Label: "Fleurs", Quantity: 2, Price: 55, VATRate: 10},
	}
	sel.SetFormulaQuantity(seedFormula(t, "SOIREE_FESTIVE"), 20)
	sel.SetCustomPrice("SOIREE_FESTIVE", ptr(75))

	lines := Lines(sel, seedForms)
	require.Len(t, lines, 4)

	assert.Equal(t, Line{Kind: LineFormula, Label: "Soirée Festive", Quantity: 20, UnitTTC: 75, TotalTTC: 1500, Negotiated: true}, lines[0])
	assert.True(t, lines[1].Offered)
	assert.Zero(t, lines[1].TotalTTC)
	assert.Equal(t, 20, lines[2].Quantity)
	assert.InDelta(t, 120, lines[2].TotalTTC, eps)
	assert.Equal(t, LineCustom, lines[3].Kind)

	var sum float64
	for _, l := range lines {
		sum += l.TotalTTC
	}
	assert.InDelta(t, CalculateTotal(sel, seedForms).TotalTTC, sum, eps)
}
