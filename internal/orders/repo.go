package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mesaflow/mesaflow-backend/pkg/db/models"
	"github.com/mesaflow/mesaflow-backend/pkg/enums"
	pkgerrors "github.com/mesaflow/mesaflow-backend/pkg/errors"
	"github.com/mesaflow/mesaflow-backend/pkg/types"
)

// Draft is everything the checkout flow resolved before committing: the
// cart plus the fulfillment details collected by the conversation.
type Draft struct {
	OrderType       enums.OrderType
	TableNumber     *string
	DeliveryAddress *string
	Cart            types.Cart
}

// Repository persists committed orders and serves the history reads.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateWithItems(ctx context.Context, order *models.Order) error
	ListRecentByCustomer(ctx context.Context, customerID uuid.UUID, limit int) ([]models.Order, error)
	FindWithItems(ctx context.Context, restaurantID, orderID uuid.UUID) (*models.Order, error)
	FindLatestByCustomer(ctx context.Context, customerID uuid.UUID) (*models.Order, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// FromCart snapshots a draft into an order record. Every line carries its
// own copy of name, price and customization so menu edits after checkout
// never rewrite history. The caller supplies ids so the snapshot is stable
// before it reaches the database.
func FromCart(restaurantID, customerID, conversationID uuid.UUID, draft Draft) *models.Order {
	convID := conversationID
	order := &models.Order{
		ID:              uuid.New(),
		RestaurantID:    restaurantID,
		CustomerID:      customerID,
		ConversationID:  &convID,
		Status:          enums.OrderStatusPending,
		OrderType:       draft.OrderType,
		TableNumber:     draft.TableNumber,
		DeliveryAddress: draft.DeliveryAddress,
		TotalCents:      draft.Cart.TotalCents,
	}
	for _, line := range draft.Cart.Lines {
		itemID := line.MenuItemID
		order.Items = append(order.Items, models.OrderItem{
			ID:             uuid.New(),
			OrderID:        order.ID,
			MenuItemID:     &itemID,
			Name:           line.Name,
			UnitPriceCents: line.UnitPriceCents,
			Quantity:       line.Quantity,
			VariantName:    line.VariantName,
			Addons:         line.Addons,
			Instructions:   line.Instructions,
			LineTotalCents: line.LineTotalCents(),
		})
	}
	return order
}

// CreateWithItems inserts the order and its item snapshots. Run it inside a
// transaction: a failed item insert must take the order row with it.
func (r *repository) CreateWithItems(ctx context.Context, order *models.Order) error {
	if order == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order is required")
	}
	if len(order.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order has no items")
	}
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}
	return nil
}

// ListRecentByCustomer returns the customer's newest orders first, items
// preloaded, capped at limit.
func (r *repository) ListRecentByCustomer(ctx context.Context, customerID uuid.UUID, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 5
	}
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return orders, nil
}

func (r *repository) FindWithItems(ctx context.Context, restaurantID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Where("restaurant_id = ? AND id = ?", restaurantID, orderID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return &order, nil
}

// FindLatestByCustomer serves the tracking branch: the most recent order
// regardless of status.
func (r *repository) FindLatestByCustomer(ctx context.Context, customerID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no orders yet")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load latest order")
	}
	return &order, nil
}
