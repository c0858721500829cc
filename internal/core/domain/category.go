package domain

import "strings"

// Category is a WMS functional area used to classify tables and route queries.
type Category string

const (
	CategoryLocations Category = "locations"
	CategoryItems     Category = "items"
	CategoryInventory Category = "inventory"
	CategoryReceiving Category = "receiving"
	CategoryPicking   Category = "picking"
	CategoryPacking   Category = "packing"
	CategoryShipping  Category = "shipping"
	CategoryOrders    Category = "orders"
	CategoryWork      Category = "work"
	CategoryUsers     Category = "users"
	CategoryOther     Category = "other"
)

// Categories lists the taxonomy in classification order, "other" last.
var Categories = []Category{
	CategoryLocations, CategoryItems, CategoryInventory, CategoryReceiving,
	CategoryPicking, CategoryPacking, CategoryShipping, CategoryOrders,
	CategoryWork, CategoryUsers, CategoryOther,
}

// categoryRules maps name substrings to categories. Order matters: the first
// matching rule wins, so the more specific vocabulary sits higher up.
var categoryRules = []rule[Category]{
	{containsAny("location", "aisle", "bin_", "zone", "slot", "warehouse"), CategoryLocations},
	{containsAny("inventory", "stock", "onhand", "on_hand", "lot_", "lpn"), CategoryInventory},
	{containsAny("item", "sku", "product", "article", "uom"), CategoryItems},
	{containsAny("receiv", "receipt", "asn", "inbound", "putaway"), CategoryReceiving},
	{containsAny("pick", "allocat", "wave"), CategoryPicking},
	{containsAny("pack", "carton", "container"), CategoryPacking},
	{containsAny("ship", "carrier", "outbound", "manifest", "load"), CategoryShipping},
	{containsAny("order", "line"), CategoryOrders},
	{containsAny("task", "work", "labor", "assignment"), CategoryWork},
	{containsAny("user", "operator", "employee"), CategoryUsers},
}

func containsAny(subs ...string) func(string) bool {
	return func(s string) bool {
		for _, sub := range subs {
			if strings.Contains(s, sub) {
				return true
			}
		}
		return false
	}
}

// CategorizeTable assigns a functional area from the table name using ordered
// keyword-substring matching. Unmatched names fall back to CategoryOther.
func CategorizeTable(name string) Category {
	return firstMatch(categoryRules, strings.ToLower(name), CategoryOther)
}

// ParseCategory validates a user-supplied category string.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c, true
		}
	}
	return CategoryOther, false
}
