package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mesaflow/mesaflow-backend/internal/orders"
	"github.com/mesaflow/mesaflow-backend/pkg/db/models"
	"github.com/mesaflow/mesaflow-backend/pkg/enums"
	pkgerrors "github.com/mesaflow/mesaflow-backend/pkg/errors"
	"github.com/mesaflow/mesaflow-backend/pkg/types"
)

const maxInstructionLen = 200

func (e *Engine) stepGreeting(_ context.Context, in Input) (Result, error) {
	result := e.keep(in)
	result.State = enums.StateSelectingOrderType
	result.Reply = greetingReply(in.Restaurant)
	return result, nil
}

func (e *Engine) stepSelectingOrderType(ctx context.Context, in Input) (Result, error) {
	orderType, ok := parseOrderType(in.choice())
	if !ok {
		result := e.keep(in)
		result.Reply = orderTypeReply("Please pick one of the options below.")
		return result, nil
	}

	result := e.keep(in)
	result.Context.OrderType = orderType
	if orderType != enums.OrderTypeDineIn {
		result.Context.TableNumber = ""
	}

	switch orderType {
	case enums.OrderTypeDineIn:
		result.State = enums.StateEnteringTableNumber
		result.Reply = types.TextReply("Great! What table are you at? Reply with the table number.")
		return result, nil
	case enums.OrderTypeDelivery:
		if !result.Cart.IsEmpty() {
			result.State = enums.StateCheckoutAddress
			result.Reply = addressPrompt()
			return result, nil
		}
	case enums.OrderTypePickup:
		if !result.Cart.IsEmpty() {
			return e.renderConfirm(result, in)
		}
	}
	return e.renderBrowse(ctx, in, result, "")
}

func (e *Engine) stepEnteringTableNumber(ctx context.Context, in Input) (Result, error) {
	table := in.rawText()
	if table == "" || len(table) > 8 {
		result := e.keep(in)
		result.Reply = types.TextReply("That doesn't look like a table number. Reply with the number on your table, e.g. 12.")
		return result, nil
	}

	result := e.keep(in)
	result.Context.OrderType = enums.OrderTypeDineIn
	result.Context.TableNumber = table
	if !result.Cart.IsEmpty() {
		return e.renderConfirm(result, in)
	}
	return e.renderBrowse(ctx, in, result, fmt.Sprintf("Table %s it is.", table))
}

func (e *Engine) stepBrowsingMenu(ctx context.Context, in Input) (Result, error) {
	index, ok := parseIndexedChoice(in.choice(), "cat")
	if !ok || index < 1 || index > len(in.Conversation.Context.CategoryIDs) {
		return e.renderBrowse(ctx, in, e.keep(in), "I didn't catch that. Pick a category from the list.")
	}
	categoryID := in.Conversation.Context.CategoryIDs[index-1]
	return e.renderCategory(ctx, in, e.keep(in), categoryID, "")
}

func (e *Engine) stepViewingCategory(ctx context.Context, in Input) (Result, error) {
	choice := in.choice()
	if choice == "back" {
		return e.renderBrowse(ctx, in, e.keep(in), "")
	}

	index, ok := parseIndexedChoice(choice, "item")
	if !ok || index < 1 || index > len(in.Conversation.Context.ItemIDs) {
		return e.rerenderItemList(ctx, in, "I didn't catch that. Pick an item from the list, or reply *back*.")
	}
	itemID := in.Conversation.Context.ItemIDs[index-1]

	detail, err := e.menus.GetItemDetail(ctx, in.Restaurant.ID, itemID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return e.rerenderItemList(ctx, in, "Sorry, that item just became unavailable.")
		}
		return Result{}, err
	}

	result := e.keep(in)
	result.State = enums.StateViewingItem
	result.Context.Pending = &types.PendingItem{
		MenuItemID:     detail.ID,
		Name:           detail.Name,
		BasePriceCents: detail.BasePriceCents,
	}
	result.Reply = itemCard(detail, in.Restaurant.Currency)
	return result, nil
}

func (e *Engine) stepViewingItem(ctx context.Context, in Input) (Result, error) {
	pending := in.Conversation.Context.Pending
	if pending == nil {
		return e.renderBrowse(ctx, in, e.keep(in), "Let's start over. Pick a category.")
	}

	switch in.choice() {
	case "add", "add_item", "yes":
		return e.beginCustomization(ctx, in)
	case "back":
		if categoryID := in.Conversation.Context.CategoryID; categoryID != nil {
			result := e.keep(in)
			result.Context.Pending = nil
			return e.renderCategory(ctx, in, result, *categoryID, "")
		}
		return e.renderBrowse(ctx, in, e.keep(in), "")
	}

	result := e.keep(in)
	result.Reply = types.ButtonsReply(
		fmt.Sprintf("Would you like to add %s to your cart?", pending.Name),
		types.ReplyButton{ID: "add", Title: "Add to cart"},
		types.ReplyButton{ID: "back", Title: "Back"},
	)
	return result, nil
}

// beginCustomization routes into the variant/addon/instructions sub-flow,
// skipping the stages the item does not have.
func (e *Engine) beginCustomization(ctx context.Context, in Input) (Result, error) {
	pending := in.Conversation.Context.Pending
	detail, err := e.menus.GetItemDetail(ctx, in.Restaurant.ID, pending.MenuItemID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			result := e.keep(in)
			result.Context.Pending = nil
			return e.renderBrowse(ctx, in, result, "Sorry, that item just became unavailable.")
		}
		return Result{}, err
	}

	result := e.keep(in)
	if len(detail.Variants) > 0 {
		result.State = enums.StateSelectingVariant
		result.Reply = variantsReply(detail, in.Restaurant.Currency)
		return result, nil
	}
	if len(detail.Addons) > 0 {
		result.State = enums.StateSelectingAddons
		result.Reply = addonsReply(detail, result.Context.Pending, in.Restaurant.Currency)
		return result, nil
	}
	result.State = enums.StateAddingInstructions
	result.Reply = instructionsPrompt()
	return result, nil
}

func (e *Engine) stepSelectingVariant(ctx context.Context, in Input) (Result, error) {
	pending := in.Conversation.Context.Pending
	if pending == nil {
		return e.renderBrowse(ctx, in, e.keep(in), "Let's start over. Pick a category.")
	}

	detail, err := e.menus.GetItemDetail(ctx, in.Restaurant.ID, pending.MenuItemID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			result := e.keep(in)
			result.Context.Pending = nil
			return e.renderBrowse(ctx, in, result, "Sorry, that item just became unavailable.")
		}
		return Result{}, err
	}

	index, ok := parseIndexedChoice(in.choice(), "variant")
	if !ok || index < 1 || index > len(detail.Variants) {
		result := e.keep(in)
		result.Reply = variantsReply(detail, in.Restaurant.Currency)
		return result, nil
	}

	variant := detail.Variants[index-1]
	result := e.keep(in)
	variantID := variant.ID
	variantName := variant.Name
	result.Context.Pending.VariantID = &variantID
	result.Context.Pending.VariantName = &variantName
	result.Context.Pending.VariantAdjust = variant.PriceAdjustmentCents

	if len(detail.Addons) > 0 {
		result.State = enums.StateSelectingAddons
		result.Reply = addonsReply(detail, result.Context.Pending, in.Restaurant.Currency)
		return result, nil
	}
	result.State = enums.StateAddingInstructions
	result.Reply = instructionsPrompt()
	return result, nil
}

func (e *Engine) stepSelectingAddons(ctx context.Context, in Input) (Result, error) {
	pending := in.Conversation.Context.Pending
	if pending == nil {
		return e.renderBrowse(ctx, in, e.keep(in), "Let's start over. Pick a category.")
	}

	choice := in.choice()
	if choice == "done" || choice == "none" || choice == "skip" || choice == "no" {
		if choice == "none" || choice == "skip" || choice == "no" {
			// Explicit opt-out clears anything toggled so far.
			result := e.keep(in)
			result.Context.Pending.Addons = nil
			result.State = enums.StateAddingInstructions
			result.Reply = instructionsPrompt()
			return result, nil
		}
		result := e.keep(in)
		result.State = enums.StateAddingInstructions
		result.Reply = instructionsPrompt()
		return result, nil
	}

	detail, err := e.menus.GetItemDetail(ctx, in.Restaurant.ID, pending.MenuItemID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			result := e.keep(in)
			result.Context.Pending = nil
			return e.renderBrowse(ctx, in, result, "Sorry, that item just became unavailable.")
		}
		return Result{}, err
	}

	index, ok := parseIndexedChoice(choice, "addon")
	if !ok || index < 1 || index > len(detail.Addons) {
		result := e.keep(in)
		result.Reply = addonsReply(detail, pending, in.Restaurant.Currency)
		return result, nil
	}

	addon := detail.Addons[index-1]
	result := e.keep(in)
	result.Context.Pending.ToggleAddon(types.AddonSelection{
		AddonID:    addon.ID,
		Name:       addon.Name,
		PriceCents: addon.PriceCents,
	})
	result.Reply = addonsReply(detail, result.Context.Pending, in.Restaurant.Currency)
	return result, nil
}

func (e *Engine) stepAddingInstructions(_ context.Context, in Input) (Result, error) {
	pending := in.Conversation.Context.Pending
	if pending == nil {
		result := e.keep(in)
		result.State = enums.StateSelectingOrderType
		result.Reply = greetingReply(in.Restaurant)
		return result, nil
	}

	text := in.rawText()
	switch strings.ToLower(text) {
	case "no", "none", "skip", "n/a", "-":
		text = ""
	}
	if runes := []rune(text); len(runes) > maxInstructionLen {
		text = string(runes[:maxInstructionLen])
	}

	result := e.keep(in)
	result.Context.Pending.Instructions = text
	result.State = enums.StateSelectingQuantity
	result.Reply = quantityPrompt(result.Context.Pending, in.Restaurant.Currency, e.maxQuantity)
	return result, nil
}

func (e *Engine) stepSelectingQuantity(ctx context.Context, in Input) (Result, error) {
	pending := in.Conversation.Context.Pending
	if pending == nil {
		return e.renderBrowse(ctx, in, e.keep(in), "Let's start over. Pick a category.")
	}

	quantity, ok := parseQuantity(in.choice())
	if !ok || quantity < 1 || quantity > e.maxQuantity {
		result := e.keep(in)
		result.Reply = types.TextReply(fmt.Sprintf("How many? Reply with a number between 1 and %d.", e.maxQuantity))
		return result, nil
	}

	result := e.keep(in)
	line := types.CartLine{
		MenuItemID:     pending.MenuItemID,
		Name:           pending.Name,
		UnitPriceCents: pending.UnitPriceCents(),
		Quantity:       quantity,
		VariantName:    pending.VariantName,
		Addons:         pending.Addons,
		Instructions:   pending.Instructions,
	}
	result.Cart.AddLine(line)
	result.Context.ResetBrowse()

	result.State = enums.StateReviewingCart
	result.Reply = cartSummaryReply(result.Cart, in.Restaurant.Currency,
		fmt.Sprintf("Added %d× %s.", quantity, line.Label()))
	return result, nil
}

func (e *Engine) stepReviewingCart(ctx context.Context, in Input) (Result, error) {
	choice := in.choice()

	switch {
	case choice == "checkout" || choice == "confirm":
		return e.beginCheckout(ctx, in)

	case choice == "clear":
		result := e.keep(in)
		result.Cart.Clear()
		return e.renderBrowse(ctx, in, result, "Cart cleared.")

	case choice == "add" || choice == "more":
		return e.renderBrowse(ctx, in, e.keep(in), "")
	}

	if index, ok := parseRemove(choice); ok {
		result := e.keep(in)
		if err := result.Cart.RemoveLine(index); err != nil {
			result = e.keep(in)
			result.Reply = cartSummaryReply(result.Cart, in.Restaurant.Currency, capitalize(err.Error())+".")
			return result, nil
		}
		if result.Cart.IsEmpty() {
			return e.renderBrowse(ctx, in, result, "Cart is now empty.")
		}
		result.Reply = cartSummaryReply(result.Cart, in.Restaurant.Currency, fmt.Sprintf("Removed line %d.", index))
		return result, nil
	}

	if index, quantity, ok := parseChange(choice); ok {
		result := e.keep(in)
		if err := result.Cart.SetQuantity(index, quantity); err != nil {
			result = e.keep(in)
			result.Reply = cartSummaryReply(result.Cart, in.Restaurant.Currency, capitalize(err.Error())+".")
			return result, nil
		}
		result.Reply = cartSummaryReply(result.Cart, in.Restaurant.Currency,
			fmt.Sprintf("Line %d is now %d×.", index, quantity))
		return result, nil
	}

	result := e.keep(in)
	result.Reply = cartSummaryReply(result.Cart, in.Restaurant.Currency,
		"You can reply *checkout*, *remove 2*, *change 1 to 3*, *clear*, or *menu* to add more.")
	return result, nil
}

// beginCheckout branches on the fulfillment details still missing.
func (e *Engine) beginCheckout(ctx context.Context, in Input) (Result, error) {
	result := e.keep(in)
	if result.Cart.IsEmpty() {
		return e.renderBrowse(ctx, in, result, "Your cart is empty. Add something first.")
	}

	switch result.Context.OrderType {
	case enums.OrderTypeDineIn:
		if result.Context.TableNumber == "" {
			result.State = enums.StateEnteringTableNumber
			result.Reply = types.TextReply("What table are you at? Reply with the table number.")
			return result, nil
		}
		return e.renderConfirm(result, in)
	case enums.OrderTypePickup:
		return e.renderConfirm(result, in)
	case enums.OrderTypeDelivery:
		// The address is asked on every checkout; yesterday's address is
		// a bad default for today's order.
		result.State = enums.StateCheckoutAddress
		result.Reply = addressPrompt()
		return result, nil
	default:
		result.State = enums.StateSelectingOrderType
		result.Reply = orderTypeReply("Almost there! How will you be getting your order?")
		return result, nil
	}
}

func (e *Engine) stepConfirmingOrder(ctx context.Context, in Input) (Result, error) {
	choice := in.choice()
	switch choice {
	case "confirm", "yes", "y", "place order":
		result := e.keep(in)
		if result.Cart.IsEmpty() {
			return e.renderBrowse(ctx, in, result, "Your cart is empty. Add something first.")
		}
		draft := draftFromContext(result.Context, result.Cart)
		result.Draft = &draft
		result.State = enums.StateOrderPlaced
		result.Context.ResetBrowse()
		result.Context.DeliveryAddress = ""
		result.Cart = types.Cart{}
		return result, nil
	case "cancel", "no", "back":
		result := e.keep(in)
		result.State = enums.StateReviewingCart
		result.Reply = cartSummaryReply(result.Cart, in.Restaurant.Currency, "No problem, your cart is unchanged.")
		return result, nil
	}
	return e.renderConfirm(e.keep(in), in)
}

func (e *Engine) stepCheckoutAddress(_ context.Context, in Input) (Result, error) {
	address := in.rawText()
	if len(address) < 5 {
		result := e.keep(in)
		result.Reply = addressPrompt()
		return result, nil
	}

	result := e.keep(in)
	result.Context.DeliveryAddress = address
	return e.renderConfirm(result, in)
}

func (e *Engine) stepOrderPlaced(_ context.Context, in Input) (Result, error) {
	result := e.keep(in)
	result.Reply = postOrderReply()
	return result, nil
}

func (e *Engine) stepViewingHistory(ctx context.Context, in Input) (Result, error) {
	choice := in.choice()
	if choice == "back" {
		return e.renderBrowse(ctx, in, e.keep(in), "")
	}

	reorder := in.Conversation.Context.Reorder
	if reorder == nil {
		return e.enterHistory(ctx, in)
	}

	index, ok := parseIndexedChoice(choice, "order")
	if !ok || index < 1 || index > len(reorder.OfferedOrderIDs) {
		return e.enterHistory(ctx, in)
	}
	orderID := reorder.OfferedOrderIDs[index-1]

	staged, err := e.buildReorderCart(ctx, in.Restaurant, orderID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return e.enterHistory(ctx, in)
		}
		return Result{}, err
	}
	if staged.IsEmpty() {
		result := e.keep(in)
		result.Reply = types.TextReply("That order has no items to rebuild. Reply *menu* to browse.")
		return result, nil
	}

	result := e.keep(in)
	selected := orderID
	result.Context.Reorder.SelectedOrderID = &selected
	result.State = enums.StateConfirmingReorder
	result.Reply = reorderSummaryReply(staged, in.Restaurant.Currency)
	return result, nil
}

func (e *Engine) stepConfirmingReorder(ctx context.Context, in Input) (Result, error) {
	reorder := in.Conversation.Context.Reorder
	if reorder == nil || reorder.SelectedOrderID == nil {
		return e.enterHistory(ctx, in)
	}

	switch in.choice() {
	case "confirm", "yes", "y":
		staged, err := e.buildReorderCart(ctx, in.Restaurant, *reorder.SelectedOrderID)
		if err != nil && !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return Result{}, err
		}
		if err != nil || staged.IsEmpty() {
			result := e.keep(in)
			result.Context.Reorder = nil
			return e.renderBrowse(ctx, in, result, "Sorry, that order can't be rebuilt anymore.")
		}
		result := e.keep(in)
		result.Cart = staged
		result.Context.Reorder = nil
		result.State = enums.StateReviewingCart
		result.Reply = cartSummaryReply(result.Cart, in.Restaurant.Currency,
			"Cart rebuilt from your previous order. Reply *checkout* when ready.")
		return result, nil
	case "cancel", "no", "back":
		result := e.keep(in)
		result.Context.Reorder = nil
		return e.renderBrowse(ctx, in, result, "")
	}

	result := e.keep(in)
	result.Reply = types.ButtonsReply(
		"Rebuild your cart from that order?",
		types.ReplyButton{ID: "confirm", Title: "Yes, reorder"},
		types.ReplyButton{ID: "cancel", Title: "Cancel"},
	)
	return result, nil
}

func (e *Engine) stepTrackingOrder(ctx context.Context, in Input) (Result, error) {
	result := e.keep(in)
	returnState := result.Context.ReturnState
	result.Context.ReturnState = ""

	if returnState == enums.StateReviewingCart && !result.Cart.IsEmpty() {
		result.State = enums.StateReviewingCart
		result.Reply = cartSummaryReply(result.Cart, in.Restaurant.Currency, "")
		return result, nil
	}
	return e.renderBrowse(ctx, in, result, "")
}

// buildReorderCart copies the order's item snapshots into a fresh cart.
// Names, prices and customization come straight from the historical rows,
// never re-resolved against the current menu, so a reorder reproduces
// exactly what the customer paid last time.
func (e *Engine) buildReorderCart(ctx context.Context, restaurant *models.Restaurant, orderID uuid.UUID) (types.Cart, error) {
	order, err := e.orders.FindWithItems(ctx, restaurant.ID, orderID)
	if err != nil {
		return types.Cart{}, err
	}

	var cart types.Cart
	for _, item := range order.Items {
		line := types.CartLine{
			Name:           item.Name,
			UnitPriceCents: item.UnitPriceCents,
			Quantity:       item.Quantity,
			Instructions:   item.Instructions,
		}
		if item.MenuItemID != nil {
			line.MenuItemID = *item.MenuItemID
		}
		if item.VariantName != nil {
			name := *item.VariantName
			line.VariantName = &name
		}
		if len(item.Addons) > 0 {
			line.Addons = append([]types.AddonSelection(nil), item.Addons...)
		}
		cart.Lines = append(cart.Lines, line)
	}
	cart.Recompute()
	return cart, nil
}

func draftFromContext(ctx types.Context, cart types.Cart) (draft orders.Draft) {
	draft.OrderType = ctx.OrderType
	draft.Cart = cart
	if ctx.TableNumber != "" {
		table := ctx.TableNumber
		draft.TableNumber = &table
	}
	if ctx.DeliveryAddress != "" {
		address := ctx.DeliveryAddress
		draft.DeliveryAddress = &address
	}
	return draft
}
