package types

import (
	"fmt"

	"github.com/coffeeclub/coffeeclub-client/pkg/enums"
)

// FlavorChoice is an optional syrup added to a customized coffee.
type FlavorChoice struct {
	Name  string `json:"name" validate:"required"`
	Pumps int    `json:"pumps" validate:"min=0,max=8"`
}

// Customization captures the drink options attached to a coffee line. A nil
// *Customization is the plain (non-coffee) variant; the cart store enforces
// that coffees always carry one and pastries never do.
type Customization struct {
	Milk   enums.MilkOption `json:"milkOption" validate:"required,oneof=WHOLE HALF_AND_HALF ALMOND OAT SOY"`
	Shots  int              `json:"espressoShots" validate:"min=1,max=6"`
	Flavor *FlavorChoice    `json:"flavor,omitempty"`
}

// Fingerprint returns a canonical key for merge decisions: two lines merge
// only when their fingerprints match.
func (c *Customization) Fingerprint() string {
	if c == nil {
		return "plain"
	}
	if c.Flavor == nil {
		return fmt.Sprintf("%s|%d", c.Milk, c.Shots)
	}
	return fmt.Sprintf("%s|%d|%s|%d", c.Milk, c.Shots, c.Flavor.Name, c.Flavor.Pumps)
}

// CartItemPayload is the server's cart line shape. Every mutating cart call
// returns the full current list of these.
type CartItemPayload struct {
	ID            int64            `json:"id"`
	MenuItem      MenuItem         `json:"menuItem"`
	Quantity      int              `json:"quantity"`
	MilkOption    enums.MilkOption `json:"milkOption,omitempty"`
	EspressoShots int              `json:"espressoShots,omitempty"`
	FlavorName    *string          `json:"flavorName,omitempty"`
	FlavorPumps   *int             `json:"flavorPumps,omitempty"`
	IsFreeDrink   bool             `json:"isFreeDrink"`
}

// Customization rebuilds the tagged variant from the flat wire fields.
func (p CartItemPayload) Customization() *Customization {
	if !p.MenuItem.IsCoffee() {
		return nil
	}
	custom := &Customization{Milk: p.MilkOption, Shots: p.EspressoShots}
	if p.FlavorName != nil && *p.FlavorName != "" {
		pumps := 0
		if p.FlavorPumps != nil {
			pumps = *p.FlavorPumps
		}
		custom.Flavor = &FlavorChoice{Name: *p.FlavorName, Pumps: pumps}
	}
	return custom
}

// AddCartItemRequest is the POST /cart/items body.
type AddCartItemRequest struct {
	MenuItemID    int64          `json:"menuItemId" validate:"required"`
	Quantity      int            `json:"quantity" validate:"min=1"`
	Customization *Customization `json:"customization,omitempty" validate:"omitempty"`
}

// UpdateCartItemRequest is the PATCH /cart/items/{id} body. Exactly one field
// is set per request.
type UpdateCartItemRequest struct {
	Quantity    *int  `json:"quantity,omitempty" validate:"omitempty,min=1"`
	IsFreeDrink *bool `json:"isFreeDrink,omitempty"`
}
