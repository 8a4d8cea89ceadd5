package models

import "strings"

// CategoryTaxonomy is one fixed category with its allowed subcategories.
type CategoryTaxonomy struct {
	Name          string   `json:"name"`
	Subcategories []string `json:"subcategories"`
}

// Categories is the fixed catalog taxonomy. Products must name a category
// from this list and a subcategory belonging to it.
var Categories = []CategoryTaxonomy{
	{Name: "E-LIQUID", Subcategories: []string{
		"Fruits", "Bakery & Dessert", "Tobacco", "Custard & Cream", "Coffee", "Menthol/Mint",
	}},
	{Name: "TANKS", Subcategories: []string{
		"Rda", "Rta", "Rdta", "Subohm", "Disposable",
	}},
	{Name: "NIC SALTS", Subcategories: []string{
		"Fruits", "Bakery & Dessert", "Tobacco", "Custard & Cream", "Coffee", "Menthol/Mint",
	}},
	{Name: "POD SYSTEM", Subcategories: []string{
		"Disposable", "Refillable Pod Kit", "Pre-Filled Cartridge",
	}},
	{Name: "DEVICE", Subcategories: []string{
		"Kit", "Only Mod",
	}},
	{Name: "BORO", Subcategories: []string{
		"Alo (Boro)", "Boro Bridge and Cartridge", "Boro Accessories And Tools",
	}},
	{Name: "ACCESSORIES", Subcategories: []string{
		"SubOhm Coil", "Charger", "Cotton", "Premade Coil", "Battery", "Tank Glass",
		"Cartridge", "RBA/RBK", "WIRE SPOOL", "DRIP TIP",
	}},
}

// IsValidCategoryAndSubcategory checks the pair against the fixed taxonomy,
// case-insensitively.
func IsValidCategoryAndSubcategory(category, subcategory string) bool {
	for _, cat := range Categories {
		if !strings.EqualFold(cat.Name, category) {
			continue
		}
		for _, sub := range cat.Subcategories {
			if strings.EqualFold(sub, subcategory) {
				return true
			}
		}
		return false
	}
	return false
}
