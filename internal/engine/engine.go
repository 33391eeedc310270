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

type menuReader interface {
	ListVisibleCategories(ctx context.Context, restaurantID uuid.UUID) ([]models.MenuCategory, error)
	ListVisibleItems(ctx context.Context, restaurantID, categoryID uuid.UUID) ([]models.MenuItem, error)
	SearchVisibleItems(ctx context.Context, restaurantID uuid.UUID, term string) ([]models.MenuItem, error)
	GetItemDetail(ctx context.Context, restaurantID, itemID uuid.UUID) (*models.MenuItem, error)
}

type orderReader interface {
	ListRecentByCustomer(ctx context.Context, customerID uuid.UUID, limit int) ([]models.Order, error)
	FindWithItems(ctx context.Context, restaurantID, orderID uuid.UUID) (*models.Order, error)
	FindLatestByCustomer(ctx context.Context, customerID uuid.UUID) (*models.Order, error)
}

// Input is one normalized inbound message applied to a conversation.
// ReplyID carries the id of a tapped button or list row and, when present,
// takes precedence over the typed text.
type Input struct {
	Restaurant   *models.Restaurant
	Customer     *models.Customer
	Conversation *models.Conversation
	Text         string
	ReplyID      string
}

// choice returns the effective selection token for this input.
func (in Input) choice() string {
	if in.ReplyID != "" {
		return in.ReplyID
	}
	return strings.ToLower(strings.TrimSpace(in.Text))
}

// rawText returns the typed text with surrounding space removed but case
// preserved, for the free-text states.
func (in Input) rawText() string {
	return strings.TrimSpace(in.Text)
}

// Result is the full outcome of one step: the replacement state, context and
// cart to persist, the reply to send, and an optional order draft the caller
// must commit before the reply goes out.
type Result struct {
	State   enums.ConversationState
	Context types.Context
	Cart    types.Cart
	Reply   types.Reply
	// Draft, when set, is the order the caller commits transactionally.
	// The reply for a committed draft is built by OrderPlacedReply after
	// the commit succeeds, because only then does an order id exist.
	Draft *orders.Draft
}

// Engine advances conversations. It never writes: menu and order history are
// read-only inputs, and the caller owns persisting the Result.
type Engine struct {
	menus  menuReader
	orders orderReader
	// historyLimit caps how many past orders the history branch offers.
	historyLimit int
	maxQuantity  int
}

// New builds an engine over the read-side repositories.
func New(menus menuReader, orderHistory orderReader, historyLimit, maxQuantity int) (*Engine, error) {
	if menus == nil {
		return nil, fmt.Errorf("menu reader required")
	}
	if orderHistory == nil {
		return nil, fmt.Errorf("order reader required")
	}
	if historyLimit <= 0 {
		historyLimit = 5
	}
	if maxQuantity <= 0 {
		maxQuantity = 10
	}
	return &Engine{menus: menus, orders: orderHistory, historyLimit: historyLimit, maxQuantity: maxQuantity}, nil
}

// Step applies one inbound message. Unrecognized input never errors: the
// reply re-prompts and the state stays put. Errors are reserved for
// dependency failures the caller should retry.
func (e *Engine) Step(ctx context.Context, in Input) (Result, error) {
	if in.Restaurant == nil || in.Customer == nil || in.Conversation == nil {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "restaurant, customer and conversation are required")
	}

	state := in.Conversation.State
	if !state.IsValid() {
		state = enums.StateGreeting
	}

	// Free-text capture states consume the message verbatim; a global
	// keyword typed there is part of the payload, not a command.
	if !capturesFreeText(state) {
		if result, handled, err := e.globalCommand(ctx, in, state); handled || err != nil {
			return result, err
		}
	}

	switch state {
	case enums.StateGreeting:
		return e.stepGreeting(ctx, in)
	case enums.StateSelectingOrderType:
		return e.stepSelectingOrderType(ctx, in)
	case enums.StateEnteringTableNumber:
		return e.stepEnteringTableNumber(ctx, in)
	case enums.StateBrowsingMenu:
		return e.stepBrowsingMenu(ctx, in)
	case enums.StateViewingCategory:
		return e.stepViewingCategory(ctx, in)
	case enums.StateViewingItem:
		return e.stepViewingItem(ctx, in)
	case enums.StateSelectingVariant:
		return e.stepSelectingVariant(ctx, in)
	case enums.StateSelectingAddons:
		return e.stepSelectingAddons(ctx, in)
	case enums.StateAddingInstructions:
		return e.stepAddingInstructions(ctx, in)
	case enums.StateSelectingQuantity:
		return e.stepSelectingQuantity(ctx, in)
	case enums.StateReviewingCart:
		return e.stepReviewingCart(ctx, in)
	case enums.StateConfirmingOrder:
		return e.stepConfirmingOrder(ctx, in)
	case enums.StateCheckoutAddress:
		return e.stepCheckoutAddress(ctx, in)
	case enums.StateOrderPlaced:
		return e.stepOrderPlaced(ctx, in)
	case enums.StateViewingHistory:
		return e.stepViewingHistory(ctx, in)
	case enums.StateConfirmingReorder:
		return e.stepConfirmingReorder(ctx, in)
	case enums.StateTrackingOrder:
		return e.stepTrackingOrder(ctx, in)
	default:
		return e.stepGreeting(ctx, in)
	}
}

func capturesFreeText(state enums.ConversationState) bool {
	switch state {
	case enums.StateEnteringTableNumber, enums.StateAddingInstructions, enums.StateCheckoutAddress:
		return true
	}
	return false
}

// globalCommand handles the keywords reachable from any non-capture state.
func (e *Engine) globalCommand(ctx context.Context, in Input, state enums.ConversationState) (Result, bool, error) {
	choice := in.choice()

	switch {
	case choice == "help":
		result := e.keep(in)
		result.Reply = helpReply()
		return result, true, nil

	case choice == "menu" || choice == "start" || choice == "order":
		result, err := e.enterBrowse(ctx, in)
		return result, true, err

	case choice == "cart":
		result, err := e.enterCartReview(ctx, in, "")
		return result, true, err

	case choice == "history" || choice == "orders" || choice == "reorder":
		result, err := e.enterHistory(ctx, in)
		return result, true, err

	case choice == "track" || choice == "status":
		result, err := e.enterTracking(ctx, in, state)
		return result, true, err

	case strings.HasPrefix(choice, "search "):
		result, err := e.searchMenu(ctx, in, strings.TrimPrefix(choice, "search "))
		return result, true, err
	}

	return Result{}, false, nil
}

// keep returns a Result that leaves state, context and cart untouched.
func (e *Engine) keep(in Input) Result {
	return Result{
		State:   in.Conversation.State,
		Context: in.Conversation.Context,
		Cart:    in.Conversation.Cart,
	}
}
