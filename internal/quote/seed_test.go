package quote

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedCatalogueIsConsistent(t *testing.T) {
	cat := SeedCatalogue()
	require.False(t, cat.IsEmpty())

	seen := map[string]bool{}
	for _, f := range cat.Formulas {
		assert.False(t, seen[f.ID], "duplicate id %s", f.ID)
		seen[f.ID] = true
		assert.True(t, CheckFormula(f), "%s split does not add up to %.2f", f.ID, f.PriceTTC)
	}

	child, ok := cat.ChildBrunch()
	require.True(t, ok)
	assert.Equal(t, "BRUNCH_ENFANT", child.ID)

	_, ok = cat.Option(DJItem)
	assert.True(t, ok)
	_, ok = cat.Option(BirthdayCakeItem)
	assert.True(t, ok)
}

func TestCheckFormula(t *testing.T) {
	assert.True(t, CheckFormula(FormulaDefinition{PriceTTC: 39, Part10HT: 30, Part20HT: 5}))
	assert.False(t, CheckFormula(FormulaDefinition{PriceTTC: 49, Part10HT: 35.45, Part20HT: 8.33}))
}

func TestLoadCatalogueYAML(t *testing.T) {
	doc := `
formulas:
  - id: BRUNCH
    name: Brunch
    type: BRASSERIE
    menu: BRUNCH
    priceTtc: 39
    part10Ht: 30
    part20Ht: 5
  - id: AFFAIRES
    name: Déjeuner d'affaires
    type: BRASSERIE
    menu: STANDARD
    priceTtc: 35
    part10Ht: 31.82
    restrictions:
      days: [1, 2, 3, 4, 5]
      services: [LUNCH]
options:
  - name: DJ
    price: 288
    vatRate: 20
`
	cat, err := LoadCatalogueYAML(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, cat.Formulas, 2)
	require.Len(t, cat.Options, 1)

	f := cat.Formulas[1]
	require.NotNil(t, f.Restrictions)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, f.Restrictions.Days)
	assert.Equal(t, []Service{ServiceLunch}, f.Restrictions.Services)
	assert.True(t, cat.Formulas[0].IsAdultBrunch())
	assert.Equal(t, 288.0, cat.Options[0].Price)

	_, err = LoadCatalogueYAML(strings.NewReader("formulas: {"))
	assert.Error(t, err)
}
