package enums

import "fmt"

// ConversationState is the closed set of dialogue states a conversation can be in.
type ConversationState string

const (
	StateGreeting            ConversationState = "greeting"
	StateSelectingOrderType  ConversationState = "selecting_order_type"
	StateEnteringTableNumber ConversationState = "entering_table_number"
	StateBrowsingMenu        ConversationState = "browsing_menu"
	StateViewingCategory     ConversationState = "viewing_category"
	StateViewingItem         ConversationState = "viewing_item"
	StateSelectingVariant    ConversationState = "selecting_variant"
	StateSelectingAddons     ConversationState = "selecting_addons"
	StateAddingInstructions  ConversationState = "adding_instructions"
	StateSelectingQuantity   ConversationState = "selecting_quantity"
	StateReviewingCart       ConversationState = "reviewing_cart"
	StateConfirmingOrder     ConversationState = "confirming_order"
	StateCheckoutAddress     ConversationState = "checkout_address"
	StateOrderPlaced         ConversationState = "order_placed"
	StateViewingHistory      ConversationState = "viewing_history"
	StateConfirmingReorder   ConversationState = "confirming_reorder"
	StateTrackingOrder       ConversationState = "tracking_order"
)

var validConversationStates = []ConversationState{
	StateGreeting,
	StateSelectingOrderType,
	StateEnteringTableNumber,
	StateBrowsingMenu,
	StateViewingCategory,
	StateViewingItem,
	StateSelectingVariant,
	StateSelectingAddons,
	StateAddingInstructions,
	StateSelectingQuantity,
	StateReviewingCart,
	StateConfirmingOrder,
	StateCheckoutAddress,
	StateOrderPlaced,
	StateViewingHistory,
	StateConfirmingReorder,
	StateTrackingOrder,
}

// String implements fmt.Stringer.
func (s ConversationState) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ConversationState.
func (s ConversationState) IsValid() bool {
	for _, candidate := range validConversationStates {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseConversationState converts raw input into a ConversationState.
func ParseConversationState(value string) (ConversationState, error) {
	for _, candidate := range validConversationStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid conversation state %q", value)
}
