package types

import (
	"github.com/google/uuid"

	"github.com/mesaflow/mesaflow-backend/pkg/enums"
)

// PendingItem is the in-progress customization of one menu item, carried
// through the variant/addon/instructions/quantity sub-flow. Prices are
// snapshotted when the item is opened so the resolved unit price is stable
// for the rest of the sub-flow.
type PendingItem struct {
	MenuItemID     uuid.UUID        `json:"menu_item_id"`
	Name           string           `json:"name"`
	BasePriceCents int              `json:"base_price_cents"`
	VariantID      *uuid.UUID       `json:"variant_id,omitempty"`
	VariantName    *string          `json:"variant_name,omitempty"`
	VariantAdjust  int              `json:"variant_adjust_cents,omitempty"`
	Addons         []AddonSelection `json:"addons,omitempty"`
	Instructions   string           `json:"instructions,omitempty"`
}

// UnitPriceCents resolves the per-unit price from the snapshot.
func (p PendingItem) UnitPriceCents() int {
	price := p.BasePriceCents + p.VariantAdjust
	for _, a := range p.Addons {
		price += a.PriceCents
	}
	return price
}

// ToggleAddon adds the addon to the selection, or removes it when it is
// already selected.
func (p *PendingItem) ToggleAddon(selection AddonSelection) (removed bool) {
	for i, existing := range p.Addons {
		if existing.AddonID == selection.AddonID {
			p.Addons = append(p.Addons[:i], p.Addons[i+1:]...)
			return true
		}
	}
	p.Addons = append(p.Addons, selection)
	return false
}

// ReorderContext is the payload for the history/reorder branch: the order ids
// offered to the customer and, once one is picked, the staged selection.
type ReorderContext struct {
	OfferedOrderIDs []uuid.UUID `json:"offered_order_ids,omitempty"`
	SelectedOrderID *uuid.UUID  `json:"selected_order_id,omitempty"`
}

// Context is the flow-scoped payload stored alongside the conversation state.
//
// OrderType and TableNumber are durable for the whole ordering flow; the
// remaining fields are per-state payloads, each populated only while the
// state that owns it is active. Handlers clear payloads they do not own when
// they transition, which keeps stale fields from leaking between flows.
type Context struct {
	OrderType       enums.OrderType `json:"order_type,omitempty"`
	TableNumber     string          `json:"table_number,omitempty"`
	DeliveryAddress string          `json:"delivery_address,omitempty"`

	// CategoryIDs maps the numeric choices shown in browsing_menu to
	// category ids, captured at render time so menu edits between messages
	// cannot shift the numbering.
	CategoryIDs []uuid.UUID `json:"category_ids,omitempty"`
	// ItemIDs maps the numeric choices shown in viewing_category to item ids.
	ItemIDs []uuid.UUID `json:"item_ids,omitempty"`
	// CategoryID is the category the item listing was rendered from.
	CategoryID *uuid.UUID `json:"category_id,omitempty"`

	Pending *PendingItem    `json:"pending,omitempty"`
	Reorder *ReorderContext `json:"reorder,omitempty"`

	// ReturnState is where the tracking side branch goes back to.
	ReturnState enums.ConversationState `json:"return_state,omitempty"`
}

// ResetBrowse drops the browse payloads, keeping the durable order-type fields.
func (c *Context) ResetBrowse() {
	c.CategoryIDs = nil
	c.ItemIDs = nil
	c.CategoryID = nil
	c.Pending = nil
	c.Reorder = nil
}
