package quote

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// SeedCatalogue returns the venue's built-in catalogue. Callers pass it explicitly where no
// stored catalogue exists yet.
func SeedCatalogue() Catalogue {
	return Catalogue{
		Formulas: []FormulaDefinition{
			{
				ID: "TAPAS_APERO", Name: "Apéro Tapas", Type: FormulaTypeTapas, Menu: MenuStandard,
				PriceTTC: 29, Part10HT: 20.00, Part20HT: 5.83,
				Included:    []string{"6 tapas par personne", "1 verre de vin ou 1 bière"},
				Description: "Assortiment de tapas à partager.",
			},
			{
				ID: "TAPAS_FESTIF", Name: "Tapas Festif", Type: FormulaTypeTapas, Menu: MenuFestive,
				PriceTTC: 45, Part10HT: 25.00, Part20HT: 14.58,
				Included: []string{"9 tapas par personne", "2 boissons", "Coupe de champagne"},
			},
			{
				ID: "BRASSERIE_CLASSIQUE", Name: "Menu Brasserie", Type: FormulaTypeBrasserie, Menu: MenuStandard,
				PriceTTC: 49, Part10HT: 36.36, Part20HT: 7.50,
				Restrictions: &Restrictions{MaxGuests: 80},
				Included:     []string{"Entrée, plat, dessert", "1/2 bouteille de vin", "Café"},
			},
			{
				ID: "BRASSERIE_PRESTIGE", Name: "Menu Prestige", Type: FormulaTypeBrasserie, Menu: MenuStandard,
				PriceTTC: 69, Part10HT: 45.45, Part20HT: 15.84,
				Restrictions: &Restrictions{Days: []int{1, 2, 3, 4, 5, 6}, MaxGuests: 60},
				Included:     []string{"Amuse-bouche", "Entrée, plat, dessert", "Accord mets et vins", "Café"},
			},
			{
				ID: "SOIREE_FESTIVE", Name: "Soirée Festive", Type: FormulaTypeBrasserie, Menu: MenuFestive,
				PriceTTC: 79, Part10HT: 40.91, Part20HT: 28.33,
				Included: []string{"Cocktail d'accueil", "Menu trois plats", "Vins et softs à discrétion"},
			},
			{
				ID: "BRUNCH", Name: "Brunch", Type: FormulaTypeBrasserie, Menu: MenuBrunch,
				PriceTTC: 39, Part10HT: 30.00, Part20HT: 5.00,
				Included: []string{"Buffet sucré-salé", "Boissons chaudes", "Jus pressé", "1 mimosa"},
			},
			{
				ID: "BRUNCH_ENFANT", Name: "Brunch Enfant", Type: FormulaTypeBrasserie, Menu: MenuBrunch, ForChildren: true,
				PriceTTC: 19, Part10HT: 17.27, Part20HT: 0,
				Included: []string{"Buffet sucré-salé", "Chocolat chaud", "Jus pressé"},
			},
			{
				ID: "DEJEUNER_AFFAIRES", Name: "Déjeuner d'affaires", Type: FormulaTypeBrasserie, Menu: MenuStandard,
				PriceTTC: 35, Part10HT: 31.82, Part20HT: 0,
				Restrictions: &Restrictions{Days: []int{1, 2, 3, 4, 5}, Services: []Service{ServiceLunch}},
				Included:     []string{"Plat du jour", "Café"},
			},
		},
		Options: []QuoteItem{
			{Name: "Coupe de champagne", Price: 12, VATRate: 20, Category: "drink"},
			{Name: "Forfait vins (1 bouteille / 3 pers.)", Price: 9, VATRate: 20, Category: "drink"},
			{Name: "Softs à discrétion", Price: 5.5, VATRate: 10, Category: "drink"},
			{Name: "Café gourmand", Price: 7, VATRate: 10, Category: "extra"},
			{Name: BirthdayCakeItem, Price: 6, VATRate: 10, Category: "extra"},
			{Name: DJItem, Price: 288, VATRate: 20, Category: "extra"},
			{Name: "Privatisation terrasse", Price: 300, VATRate: 20, Category: "extra"},
			{Name: "Vestiaire", Price: 90, VATRate: 20, Category: "extra"},
		},
	}
}

// LoadCatalogueYAML decodes a catalogue file.
func LoadCatalogueYAML(r io.Reader) (Catalogue, error) {
	var cat Catalogue
	if err := yaml.NewDecoder(r).Decode(&cat); err != nil {
		return Catalogue{}, fmt.Errorf("quote: decode catalogue: %w", err)
	}
	return cat, nil
}
