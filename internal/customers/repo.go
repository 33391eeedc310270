package customers

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mesaflow/mesaflow-backend/pkg/db"
	"github.com/mesaflow/mesaflow-backend/pkg/db/models"
	"github.com/mesaflow/mesaflow-backend/pkg/enums"
	pkgerrors "github.com/mesaflow/mesaflow-backend/pkg/errors"
	"github.com/mesaflow/mesaflow-backend/pkg/types"
)

// ConversationUpdate is the full replacement payload for one state-machine
// step. ExpectedVersion is the version the step was computed from.
type ConversationUpdate struct {
	State           enums.ConversationState
	Context         types.Context
	Cart            types.Cart
	ExpectedVersion int64
	LastMessageAt   time.Time
}

// Repository is the customer/conversation registry.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetOrCreateCustomer(ctx context.Context, restaurantID uuid.UUID, waID, displayName string) (*models.Customer, error)
	GetOrCreateConversation(ctx context.Context, restaurantID, customerID uuid.UUID) (*models.Conversation, error)
	UpdateConversation(ctx context.Context, conversationID uuid.UUID, update ConversationUpdate) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds the registry bound to the provided DB.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// GetOrCreateCustomer finds the stable identity for (restaurant, contact) or
// creates it on first contact. A concurrent first-contact race loses the
// insert to the unique index and falls back to the read.
func (r *repository) GetOrCreateCustomer(ctx context.Context, restaurantID uuid.UUID, waID, displayName string) (*models.Customer, error) {
	if restaurantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "restaurant id is required")
	}
	if waID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "contact address is required")
	}

	var customer models.Customer
	err := r.db.WithContext(ctx).
		Where("restaurant_id = ? AND wa_id = ?", restaurantID, waID).
		First(&customer).Error
	if err == nil {
		return &customer, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}

	customer = models.Customer{
		ID:           uuid.New(),
		RestaurantID: restaurantID,
		WaID:         waID,
		DisplayName:  displayName,
	}
	if createErr := r.db.WithContext(ctx).Create(&customer).Error; createErr != nil {
		if db.IsUniqueViolation(createErr, "ux_customers_restaurant_wa") {
			err = r.db.WithContext(ctx).
				Where("restaurant_id = ? AND wa_id = ?", restaurantID, waID).
				First(&customer).Error
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload customer after insert race")
			}
			return &customer, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, createErr, "create customer")
	}
	return &customer, nil
}

// GetOrCreateConversation loads the single live conversation for the
// customer, creating it lazily on first contact in the greeting state.
func (r *repository) GetOrCreateConversation(ctx context.Context, restaurantID, customerID uuid.UUID) (*models.Conversation, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}

	var conversation models.Conversation
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		First(&conversation).Error
	if err == nil {
		return &conversation, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load conversation")
	}

	conversation = models.Conversation{
		ID:           uuid.New(),
		RestaurantID: restaurantID,
		CustomerID:   customerID,
		State:        enums.StateGreeting,
	}
	if createErr := r.db.WithContext(ctx).Create(&conversation).Error; createErr != nil {
		if db.IsUniqueViolation(createErr, "") {
			err = r.db.WithContext(ctx).
				Where("customer_id = ?", customerID).
				First(&conversation).Error
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload conversation after insert race")
			}
			return &conversation, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, createErr, "create conversation")
	}
	return &conversation, nil
}

// UpdateConversation replaces state/context/cart with an optimistic
// compare-and-swap on the version column. When the guard matches nothing the
// step raced a concurrent delivery and the caller must discard its write.
func (r *repository) UpdateConversation(ctx context.Context, conversationID uuid.UUID, update ConversationUpdate) error {
	if conversationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "conversation id is required")
	}

	result := r.db.WithContext(ctx).
		Model(&models.Conversation{}).
		Where("id = ? AND version = ?", conversationID, update.ExpectedVersion).
		Updates(map[string]any{
			"state":           update.State,
			"context":         update.Context,
			"cart":            update.Cart,
			"version":         update.ExpectedVersion + 1,
			"last_message_at": update.LastMessageAt,
		})
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "update conversation")
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "conversation was modified concurrently")
	}
	return nil
}
