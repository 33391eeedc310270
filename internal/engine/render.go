package engine

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/mesaflow/mesaflow-backend/pkg/db/models"
	"github.com/mesaflow/mesaflow-backend/pkg/enums"
	pkgerrors "github.com/mesaflow/mesaflow-backend/pkg/errors"
	"github.com/mesaflow/mesaflow-backend/pkg/types"
)

// enterBrowse is the "menu" entry point. A conversation that has not picked
// an order type yet is routed through that choice first.
func (e *Engine) enterBrowse(ctx context.Context, in Input) (Result, error) {
	result := e.keep(in)
	if result.Context.OrderType == "" {
		result.State = enums.StateSelectingOrderType
		result.Reply = orderTypeReply("How would you like your order today?")
		return result, nil
	}
	return e.renderBrowse(ctx, in, result, "")
}

// renderBrowse loads the visible categories, captures their numbering into
// the context, and renders the category list. The numbering shown to the
// customer and the ids it resolves to are frozen together, so a menu edit
// between messages cannot shift what "2" means.
func (e *Engine) renderBrowse(ctx context.Context, in Input, result Result, note string) (Result, error) {
	categories, err := e.menus.ListVisibleCategories(ctx, in.Restaurant.ID)
	if err != nil {
		return Result{}, err
	}
	if len(categories) == 0 {
		result.Reply = composeText(note, "Our menu isn't available right now. Please check back soon.")
		return result, nil
	}

	result.State = enums.StateBrowsingMenu
	result.Context.ResetBrowse()

	rows := make([]types.ReplyListRow, 0, len(categories))
	for i, category := range categories {
		result.Context.CategoryIDs = append(result.Context.CategoryIDs, category.ID)
		rows = append(rows, types.ReplyListRow{
			ID:    fmt.Sprintf("cat:%d", i+1),
			Title: category.Name,
		})
	}
	body := composeBody(note, "What would you like to browse?")
	result.Reply = types.ListReply(body, "View menu", types.ReplyListSection{Title: "Menu", Rows: rows})
	return result, nil
}

// renderCategory loads a category's visible items and captures their
// numbering, mirroring renderBrowse one level down.
func (e *Engine) renderCategory(ctx context.Context, in Input, result Result, categoryID uuid.UUID, note string) (Result, error) {
	items, err := e.menus.ListVisibleItems(ctx, in.Restaurant.ID, categoryID)
	if err != nil {
		return Result{}, err
	}
	if len(items) == 0 {
		return e.renderBrowse(ctx, in, result, composeNote(note, "Nothing is available in that category right now."))
	}

	result.State = enums.StateViewingCategory
	result.Context.ResetBrowse()
	id := categoryID
	result.Context.CategoryID = &id

	rows := make([]types.ReplyListRow, 0, len(items))
	for i, item := range items {
		result.Context.ItemIDs = append(result.Context.ItemIDs, item.ID)
		rows = append(rows, types.ReplyListRow{
			ID:          fmt.Sprintf("item:%d", i+1),
			Title:       item.Name,
			Description: types.FormatCents(item.BasePriceCents, in.Restaurant.Currency),
		})
	}
	body := composeBody(note, "Pick an item, or reply *back* for categories.")
	result.Reply = types.ListReply(body, "View items", types.ReplyListSection{Rows: rows})
	return result, nil
}

// rerenderItemList re-shows the item list the customer is currently looking
// at, falling back to the category list when the context went stale.
func (e *Engine) rerenderItemList(ctx context.Context, in Input, note string) (Result, error) {
	if categoryID := in.Conversation.Context.CategoryID; categoryID != nil {
		return e.renderCategory(ctx, in, e.keep(in), *categoryID, note)
	}
	return e.renderBrowse(ctx, in, e.keep(in), note)
}

// enterCartReview is the "cart" entry point.
func (e *Engine) enterCartReview(_ context.Context, in Input, note string) (Result, error) {
	result := e.keep(in)
	if result.Cart.IsEmpty() {
		result.Reply = composeText(note, "Your cart is empty. Reply *menu* to start browsing.")
		return result, nil
	}
	result.State = enums.StateReviewingCart
	result.Reply = cartSummaryReply(result.Cart, in.Restaurant.Currency, note)
	return result, nil
}

// renderConfirm shows the final order summary with confirm/cancel buttons.
func (e *Engine) renderConfirm(result Result, in Input) (Result, error) {
	result.State = enums.StateConfirmingOrder

	var b strings.Builder
	b.WriteString("Please confirm your order:\n\n")
	writeCartLines(&b, result.Cart, in.Restaurant.Currency)
	b.WriteString(fmt.Sprintf("\nTotal: %s\n", types.FormatCents(result.Cart.TotalCents, in.Restaurant.Currency)))
	b.WriteString(fulfillmentLine(result.Context))

	result.Reply = types.ButtonsReply(
		b.String(),
		types.ReplyButton{ID: "confirm", Title: "Confirm"},
		types.ReplyButton{ID: "cancel", Title: "Cancel"},
	)
	return result, nil
}

// enterHistory is the "history" entry point: offer the most recent orders as
// a list and capture their ids for the reorder pick.
func (e *Engine) enterHistory(ctx context.Context, in Input) (Result, error) {
	past, err := e.orders.ListRecentByCustomer(ctx, in.Customer.ID, e.historyLimit)
	if err != nil {
		return Result{}, err
	}

	result := e.keep(in)
	if len(past) == 0 {
		result.Reply = types.TextReply("You haven't ordered with us yet. Reply *menu* to see what we have.")
		return result, nil
	}

	result.State = enums.StateViewingHistory
	result.Context.ResetBrowse()
	result.Context.Reorder = &types.ReorderContext{}

	rows := make([]types.ReplyListRow, 0, len(past))
	for i, order := range past {
		result.Context.Reorder.OfferedOrderIDs = append(result.Context.Reorder.OfferedOrderIDs, order.ID)
		rows = append(rows, types.ReplyListRow{
			ID:          fmt.Sprintf("order:%d", i+1),
			Title:       fmt.Sprintf("%s, %s", order.CreatedAt.Format("Jan 2"), types.FormatCents(order.TotalCents, in.Restaurant.Currency)),
			Description: summarizeItems(order.Items),
		})
	}
	result.Reply = types.ListReply("Your recent orders. Pick one to order it again.", "Past orders",
		types.ReplyListSection{Rows: rows})
	return result, nil
}

// enterTracking shows the latest order's status as a side branch and records
// where to come back to.
func (e *Engine) enterTracking(ctx context.Context, in Input, fromState enums.ConversationState) (Result, error) {
	latest, err := e.orders.FindLatestByCustomer(ctx, in.Customer.ID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			result := e.keep(in)
			result.Reply = types.TextReply("You have no orders to track yet. Reply *menu* to place one.")
			return result, nil
		}
		return Result{}, err
	}

	result := e.keep(in)
	result.State = enums.StateTrackingOrder
	if fromState != enums.StateTrackingOrder {
		result.Context.ReturnState = fromState
	}
	result.Reply = types.TextReply(fmt.Sprintf(
		"Your %s order from %s is *%s*. Total %s.\n\nSend anything to continue.",
		latest.OrderType, latest.CreatedAt.Format("Jan 2, 15:04"),
		statusLabel(latest.Status),
		types.FormatCents(latest.TotalCents, in.Restaurant.Currency),
	))
	return result, nil
}

// searchMenu serves "search <term>" by reusing the item-list state: results
// are numbered and captured exactly like a category listing.
func (e *Engine) searchMenu(ctx context.Context, in Input, term string) (Result, error) {
	items, err := e.menus.SearchVisibleItems(ctx, in.Restaurant.ID, term)
	if err != nil {
		return Result{}, err
	}

	result := e.keep(in)
	if len(items) == 0 {
		result.Reply = types.TextReply(fmt.Sprintf("No matches for %q. Reply *menu* to browse.", strings.TrimSpace(term)))
		return result, nil
	}

	result.State = enums.StateViewingCategory
	result.Context.ResetBrowse()

	rows := make([]types.ReplyListRow, 0, len(items))
	for i, item := range items {
		result.Context.ItemIDs = append(result.Context.ItemIDs, item.ID)
		rows = append(rows, types.ReplyListRow{
			ID:          fmt.Sprintf("item:%d", i+1),
			Title:       item.Name,
			Description: types.FormatCents(item.BasePriceCents, in.Restaurant.Currency),
		})
	}
	result.Reply = types.ListReply("Here's what matched. Pick an item.", "Results",
		types.ReplyListSection{Rows: rows})
	return result, nil
}

func greetingReply(restaurant *models.Restaurant) types.Reply {
	greeting := restaurant.GreetingText
	if greeting == "" {
		greeting = fmt.Sprintf("Welcome to %s!", restaurant.Name)
	}
	return types.ButtonsReply(
		greeting+"\n\nHow would you like your order today?",
		orderTypeButtons()...,
	)
}

func orderTypeReply(prompt string) types.Reply {
	return types.ButtonsReply(prompt, orderTypeButtons()...)
}

func orderTypeButtons() []types.ReplyButton {
	return []types.ReplyButton{
		{ID: string(enums.OrderTypeDineIn), Title: "Dine in"},
		{ID: string(enums.OrderTypePickup), Title: "Pickup"},
		{ID: string(enums.OrderTypeDelivery), Title: "Delivery"},
	}
}

func helpReply() types.Reply {
	return types.TextReply(strings.Join([]string{
		"Here's what I understand:",
		"*menu* browse the menu",
		"*cart* review your cart",
		"*checkout* place your order",
		"*history* reorder something you've had before",
		"*track* check your latest order",
		"*search <word>* find an item by name",
	}, "\n"))
}

func itemCard(item *models.MenuItem, currency string) types.Reply {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("*%s*  %s\n", item.Name, types.FormatCents(item.BasePriceCents, currency)))
	if item.Description != "" {
		b.WriteString(item.Description + "\n")
	}

	if item.ImageURL != nil && *item.ImageURL != "" {
		return types.ImageReply(*item.ImageURL, strings.TrimSpace(b.String())+"\n\nReply *add* to add it to your cart, or *back*.")
	}
	return types.ButtonsReply(
		b.String(),
		types.ReplyButton{ID: "add", Title: "Add to cart"},
		types.ReplyButton{ID: "back", Title: "Back"},
	)
}

func variantsReply(item *models.MenuItem, currency string) types.Reply {
	rows := make([]types.ReplyListRow, 0, len(item.Variants))
	for i, variant := range item.Variants {
		price := item.BasePriceCents + variant.PriceAdjustmentCents
		rows = append(rows, types.ReplyListRow{
			ID:          fmt.Sprintf("variant:%d", i+1),
			Title:       variant.Name,
			Description: types.FormatCents(price, currency),
		})
	}
	return types.ListReply(fmt.Sprintf("Which %s would you like?", item.Name), "Choose one",
		types.ReplyListSection{Rows: rows})
}

func addonsReply(item *models.MenuItem, pending *types.PendingItem, currency string) types.Reply {
	selected := map[uuid.UUID]bool{}
	if pending != nil {
		for _, addon := range pending.Addons {
			selected[addon.AddonID] = true
		}
	}

	rows := make([]types.ReplyListRow, 0, len(item.Addons)+1)
	for i, addon := range item.Addons {
		title := addon.Name
		if selected[addon.ID] {
			title = "✓ " + title
		}
		rows = append(rows, types.ReplyListRow{
			ID:          fmt.Sprintf("addon:%d", i+1),
			Title:       title,
			Description: "+" + types.FormatCents(addon.PriceCents, currency),
		})
	}
	rows = append(rows, types.ReplyListRow{ID: "done", Title: "Done"})

	return types.ListReply("Any extras? Tap to add or remove, then pick Done. Reply *none* to skip.",
		"Extras", types.ReplyListSection{Rows: rows})
}

func instructionsPrompt() types.Reply {
	return types.TextReply("Any special instructions? e.g. \"no onions\". Reply *no* to skip.")
}

func addressPrompt() types.Reply {
	return types.TextReply("Where should we deliver? Reply with your full address.")
}

func quantityPrompt(pending *types.PendingItem, currency string, maxQuantity int) types.Reply {
	return types.TextReply(fmt.Sprintf(
		"How many %s at %s each? Reply with a number between 1 and %d.",
		pending.Name, types.FormatCents(pending.UnitPriceCents(), currency), maxQuantity,
	))
}

func cartSummaryReply(cart types.Cart, currency, note string) types.Reply {
	var b strings.Builder
	if note != "" {
		b.WriteString(note + "\n\n")
	}
	b.WriteString("*Your cart*\n")
	writeCartLines(&b, cart, currency)
	b.WriteString(fmt.Sprintf("\nTotal: %s\n\nReply *checkout*, *remove 2*, *change 1 to 3*, *clear*, or *menu* to add more.",
		types.FormatCents(cart.TotalCents, currency)))
	return types.TextReply(b.String())
}

func reorderSummaryReply(staged types.Cart, currency string) types.Reply {
	var b strings.Builder
	b.WriteString("Here's that order, exactly as before:\n\n")
	writeCartLines(&b, staged, currency)
	b.WriteString(fmt.Sprintf("\nTotal: %s\n", types.FormatCents(staged.TotalCents, currency)))
	return types.ButtonsReply(
		b.String(),
		types.ReplyButton{ID: "confirm", Title: "Yes, reorder"},
		types.ReplyButton{ID: "cancel", Title: "Cancel"},
	)
}

func postOrderReply() types.Reply {
	return types.ButtonsReply(
		"Anything else?",
		types.ReplyButton{ID: "menu", Title: "New order"},
		types.ReplyButton{ID: "track", Title: "Track order"},
		types.ReplyButton{ID: "history", Title: "Order again"},
	)
}

// OrderPlacedReply is built by the caller after the order commit succeeds,
// since the order id only exists then.
func OrderPlacedReply(order *models.Order, currency string) types.Reply {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Order confirmed! 🎉\n\nOrder ref: %s\nTotal: %s\n",
		shortOrderRef(order.ID), types.FormatCents(order.TotalCents, currency)))
	b.WriteString(fulfillmentLineFromOrder(order))
	b.WriteString("\nReply *track* any time to check on it.")
	return types.TextReply(b.String())
}

// CommitFailedReply is sent in place of the confirmation when the order
// transaction fails; the cart is left untouched so the customer can retry.
func CommitFailedReply() types.Reply {
	return types.TextReply("Sorry, we couldn't place your order just now. Your cart is safe. Reply *checkout* to try again.")
}

func writeCartLines(b *strings.Builder, cart types.Cart, currency string) {
	for i, line := range cart.Lines {
		b.WriteString(fmt.Sprintf("%d. %d× %s  %s\n",
			i+1, line.Quantity, line.Label(), types.FormatCents(line.LineTotalCents(), currency)))
		if line.Instructions != "" {
			b.WriteString("   " + line.Instructions + "\n")
		}
	}
}

func fulfillmentLine(ctx types.Context) string {
	switch ctx.OrderType {
	case enums.OrderTypeDineIn:
		return fmt.Sprintf("Dine in, table %s\n", ctx.TableNumber)
	case enums.OrderTypePickup:
		return "Pickup at the counter\n"
	case enums.OrderTypeDelivery:
		return fmt.Sprintf("Delivery to: %s\n", ctx.DeliveryAddress)
	}
	return ""
}

func fulfillmentLineFromOrder(order *models.Order) string {
	switch order.OrderType {
	case enums.OrderTypeDineIn:
		if order.TableNumber != nil {
			return fmt.Sprintf("Dine in, table %s\n", *order.TableNumber)
		}
	case enums.OrderTypePickup:
		return "Pickup at the counter\n"
	case enums.OrderTypeDelivery:
		if order.DeliveryAddress != nil {
			return fmt.Sprintf("Delivery to: %s\n", *order.DeliveryAddress)
		}
	}
	return ""
}

func summarizeItems(items []models.OrderItem) string {
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, fmt.Sprintf("%d× %s", item.Quantity, item.Name))
	}
	summary := strings.Join(names, ", ")
	if runes := []rune(summary); len(runes) > 72 {
		summary = string(runes[:69]) + "..."
	}
	return summary
}

func statusLabel(status enums.OrderStatus) string {
	switch status {
	case enums.OrderStatusPending:
		return "received, waiting for the kitchen"
	case enums.OrderStatusConfirmed:
		return "confirmed by the kitchen"
	case enums.OrderStatusPreparing:
		return "being prepared"
	case enums.OrderStatusReady:
		return "ready"
	case enums.OrderStatusCompleted:
		return "completed"
	case enums.OrderStatusCancelled:
		return "cancelled"
	}
	return string(status)
}

func shortOrderRef(id uuid.UUID) string {
	return "#" + strings.ToUpper(id.String()[:8])
}

func composeText(note, fallback string) types.Reply {
	return types.TextReply(composeBody(note, fallback))
}

func composeBody(note, body string) string {
	if note == "" {
		return body
	}
	return note + "\n\n" + body
}

func composeNote(note, extra string) string {
	if note == "" {
		return extra
	}
	return note + " " + extra
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
