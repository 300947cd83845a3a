package enums

import "fmt"

// MenuCategory partitions the menu into drink and food items.
type MenuCategory string

const (
	MenuCategoryCoffee MenuCategory = "COFFEE"
	MenuCategoryPastry MenuCategory = "PASTRY"
)

var validMenuCategories = []MenuCategory{
	MenuCategoryCoffee,
	MenuCategoryPastry,
}

// String implements fmt.Stringer.
func (c MenuCategory) String() string {
	return string(c)
}

// IsValid reports whether the category is recognized.
func (c MenuCategory) IsValid() bool {
	for _, candidate := range validMenuCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseMenuCategory converts a raw string into a MenuCategory.
func ParseMenuCategory(value string) (MenuCategory, error) {
	for _, candidate := range validMenuCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid menu category %q", value)
}
