package types

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// AddonSelection is one addon chosen for a cart line, snapshotted with its price.
type AddonSelection struct {
	AddonID uuid.UUID `json:"addon_id"`
	Name    string    `json:"name"`
	// PriceCents is the addon surcharge in minor units.
	PriceCents int `json:"price_cents"`
}

// CartLine is a single cart entry. Name, prices and customization are
// snapshots taken when the line was added; later menu edits do not
// retroactively change a cart.
type CartLine struct {
	MenuItemID uuid.UUID `json:"menu_item_id"`
	Name       string    `json:"name"`
	// UnitPriceCents is the resolved per-unit price:
	// base + variant adjustment + sum of addon prices.
	UnitPriceCents int              `json:"unit_price_cents"`
	Quantity       int              `json:"quantity"`
	VariantName    *string          `json:"variant_name,omitempty"`
	Addons         []AddonSelection `json:"addons,omitempty"`
	Instructions   string           `json:"instructions,omitempty"`
}

// Customized reports whether the line carries any customization. Two
// differently customized instances of the same menu item are not fungible,
// so customized lines never merge.
func (l CartLine) Customized() bool {
	return l.VariantName != nil || len(l.Addons) > 0 || strings.TrimSpace(l.Instructions) != ""
}

// LineTotalCents returns unit price times quantity.
func (l CartLine) LineTotalCents() int {
	return l.UnitPriceCents * l.Quantity
}

// Label renders a short human-readable description of the line customization.
func (l CartLine) Label() string {
	parts := []string{l.Name}
	if l.VariantName != nil {
		parts = append(parts, *l.VariantName)
	}
	for _, a := range l.Addons {
		parts = append(parts, "+"+a.Name)
	}
	return strings.Join(parts, " ")
}

// Cart is the in-progress, uncommitted set of line items stored on the
// conversation record. TotalCents is always recomputed as a full fold over
// the lines after every mutation; it is never maintained incrementally.
type Cart struct {
	Lines      []CartLine `json:"lines,omitempty"`
	TotalCents int        `json:"total_cents"`
}

// IsEmpty reports whether the cart has no lines.
func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Recompute folds the line totals into TotalCents from scratch.
func (c *Cart) Recompute() {
	total := 0
	for _, line := range c.Lines {
		total += line.LineTotalCents()
	}
	c.TotalCents = total
}

// AddLine appends the line or, when the same menu item is already present and
// neither the existing nor the new line carries customization, increments the
// existing quantity instead.
func (c *Cart) AddLine(line CartLine) {
	defer c.Recompute()

	if !line.Customized() {
		for i := range c.Lines {
			if c.Lines[i].MenuItemID == line.MenuItemID && !c.Lines[i].Customized() {
				c.Lines[i].Quantity += line.Quantity
				return
			}
		}
	}
	c.Lines = append(c.Lines, line)
}

// RemoveLine deletes the 1-based line index.
func (c *Cart) RemoveLine(index int) error {
	if index < 1 || index > len(c.Lines) {
		return fmt.Errorf("line %d is not in the cart", index)
	}
	c.Lines = append(c.Lines[:index-1], c.Lines[index:]...)
	c.Recompute()
	return nil
}

// SetQuantity replaces the quantity of the 1-based line index.
func (c *Cart) SetQuantity(index, quantity int) error {
	if index < 1 || index > len(c.Lines) {
		return fmt.Errorf("line %d is not in the cart", index)
	}
	if quantity < 1 || quantity > 10 {
		return fmt.Errorf("quantity must be between 1 and 10")
	}
	c.Lines[index-1].Quantity = quantity
	c.Recompute()
	return nil
}

// Clear drops every line.
func (c *Cart) Clear() {
	c.Lines = nil
	c.Recompute()
}
