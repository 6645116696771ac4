package domain

// products is the canonical catalog. The list is order-significant: the first
// colour and size of each product are the default selections in the order
// entry view.
var products = []Product{
	{
		Title:       "Felpa KANGAROO (Adulto)",
		ModelKey:    ModelKangaroo,
		Variant:     VariantAdult,
		Price:       25,
		Description: "Felpa con cappuccio, tasca a marsupio e interno felpato.",
		Details: []string{
			"Cotone/poliestere 280 g",
			"Cappuccio foderato con coulisse",
			"Vestibilità unisex",
		},
		Colors: []string{
			"Bianco",
			"Blu-Navy",
			"Bordeaux",
			"Celeste",
			"Cream",
			"Grigio-Oxford",
			"Havana",
			"Lilla",
			"Nero",
			"Rosa-Petalo",
			"Verde-Bosco",
		},
		Sizes: []string{"S", "M", "L", "XL"},
	},
	{
		Title:       "Felpa KANGAROO (Bambino)",
		ModelKey:    ModelKangaroo,
		Variant:     VariantKids,
		Price:       22,
		Description: "Versione bambino della felpa KANGAROO, tagliata su misura.",
		Details: []string{
			"Tagli dedicati dai 5 ai 12 anni",
			"Cuciture rinforzate",
		},
		Colors: []string{"Bianco", "Blu", "Grigio", "Nero"},
		Sizes:  []string{"XS", "S", "M", "L"},
	},
	{
		Title:       "Maglietta WHALE (Adulto)",
		ModelKey:    ModelWhale,
		Variant:     VariantAdult,
		Price:       15,
		Description: "T-shirt leggera, cotone 100%, taglio unisex.",
		Details: []string{
			"Cotone pettinato 150 g",
			"Girocollo elasticizzato",
		},
		Colors: []string{
			"Bianco",
			"Blu-Navy",
			"Bordeaux",
			"Celeste",
			"Cream",
			"Grigio-Oxford",
			"Havana",
			"Nero",
			"Rosa-Petalo",
			"Verde-Bosco",
		},
		Sizes: []string{"S", "M", "L", "XL"},
	},
	{
		Title:       "Maglietta WHALE (Bambino)",
		ModelKey:    ModelWhale,
		Variant:     VariantKids,
		Price:       13,
		Description: "T-shirt per bambini, morbida e resistente ai lavaggi.",
		Details: []string{
			"Cotone pettinato 150 g",
			"Resistente ai lavaggi frequenti",
		},
		Colors: []string{
			"Bianco",
			"Blu-Navy",
			"Bordeaux",
			"Celeste",
			"Cream",
			"Grigio-Oxford",
			"Havana",
			"Nero",
			"Rosa-Petalo",
			"Verde-Bosco",
		},
		Sizes: []string{"XS", "S", "M", "L"},
	},
	{
		Title:       "Borraccia VOLCANO",
		ModelKey:    ModelVolcano,
		Variant:     VariantStandard,
		Price:       12,
		Description: "Borraccia termica con tappo a vite e logo inciso.",
		Details: []string{
			"Acciaio inox 500 ml",
			"Mantiene la temperatura 12 ore",
		},
		Colors: []string{"Standard"},
	},
	{
		Title:       "Cappellino TENERIFE",
		ModelKey:    ModelTenerife,
		Variant:     VariantStandard,
		Price:       10,
		Description: "Cappellino con visiera e chiusura regolabile.",
		Details: []string{
			"Cotone twill",
			"Chiusura posteriore regolabile",
		},
		Colors: []string{"Blu-Navy", "Bianco"},
	},
}

// Products returns the static catalog. Callers must not mutate the result.
func Products() []Product {
	return products
}

// FindProduct locates the catalog entry for a (model, variant) pair.
func FindProduct(model ModelKey, variant Variant) (Product, bool) {
	for _, p := range products {
		if p.ModelKey == model && p.Variant == variant {
			return p, true
		}
	}
	return Product{}, false
}
