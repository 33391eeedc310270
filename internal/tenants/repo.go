package tenants

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mesaflow/mesaflow-backend/pkg/db/models"
	pkgerrors "github.com/mesaflow/mesaflow-backend/pkg/errors"
)

// Repository resolves inbound business-line identifiers to tenant config.
type Repository interface {
	FindByBusinessAccountID(ctx context.Context, businessAccountID string) (*models.Restaurant, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a tenants repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByBusinessAccountID(ctx context.Context, businessAccountID string) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	err := r.db.WithContext(ctx).
		Where("business_account_id = ?", businessAccountID).
		First(&restaurant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no restaurant for business account")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load restaurant")
	}
	return &restaurant, nil
}

// Resolve loads the tenant and enforces the bot-enabled flag. A known tenant
// with the bot switched off is acked without processing, which the caller
// distinguishes from an unknown tenant by the error code.
func Resolve(ctx context.Context, repo Repository, businessAccountID string) (*models.Restaurant, error) {
	if businessAccountID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business account id is required")
	}
	restaurant, err := repo.FindByBusinessAccountID(ctx, businessAccountID)
	if err != nil {
		return nil, err
	}
	if !restaurant.BotEnabled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "bot is disabled for this restaurant")
	}
	return restaurant, nil
}
