package types

import (
	"github.com/shopspring/decimal"

	"github.com/coffeeclub/coffeeclub-client/pkg/enums"
)

// MenuItem is the server-owned catalog entry, read-only to the client.
type MenuItem struct {
	ID          int64              `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Price       decimal.Decimal    `json:"price"`
	Category    enums.MenuCategory `json:"category"`
	ImageKey    string             `json:"imageKey"`
	Tags        []string           `json:"tags,omitempty"`
	IsAvailable bool               `json:"isAvailable"`
}

// IsCoffee reports whether the item takes drink customization.
func (m MenuItem) IsCoffee() bool {
	return m.Category == enums.MenuCategoryCoffee
}
