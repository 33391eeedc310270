package menu

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mesaflow/mesaflow-backend/pkg/db/models"
	pkgerrors "github.com/mesaflow/mesaflow-backend/pkg/errors"
)

// Repository is the read-only menu query surface used by the bot. Every
// lookup is scoped to the restaurant and to bot-visible, available rows;
// dashboard-only entries never leak into the conversation.
type Repository interface {
	ListVisibleCategories(ctx context.Context, restaurantID uuid.UUID) ([]models.MenuCategory, error)
	ListVisibleItems(ctx context.Context, restaurantID, categoryID uuid.UUID) ([]models.MenuItem, error)
	SearchVisibleItems(ctx context.Context, restaurantID uuid.UUID, term string) ([]models.MenuItem, error)
	GetItemDetail(ctx context.Context, restaurantID, itemID uuid.UUID) (*models.MenuItem, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a menu repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListVisibleCategories(ctx context.Context, restaurantID uuid.UUID) ([]models.MenuCategory, error) {
	var categories []models.MenuCategory
	err := r.db.WithContext(ctx).
		Where("restaurant_id = ? AND bot_visible = ?", restaurantID, true).
		Order("sort_order ASC, name ASC").
		Find(&categories).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return categories, nil
}

func (r *repository) ListVisibleItems(ctx context.Context, restaurantID, categoryID uuid.UUID) ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := r.db.WithContext(ctx).
		Where("restaurant_id = ? AND category_id = ? AND bot_visible = ? AND is_available = ?",
			restaurantID, categoryID, true, true).
		Order("name ASC").
		Find(&items).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list items")
	}
	return items, nil
}

func (r *repository) SearchVisibleItems(ctx context.Context, restaurantID uuid.UUID, term string) ([]models.MenuItem, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, nil
	}
	var items []models.MenuItem
	err := r.db.WithContext(ctx).
		Where("restaurant_id = ? AND bot_visible = ? AND is_available = ? AND LOWER(name) LIKE ?",
			restaurantID, true, true, "%"+strings.ToLower(term)+"%").
		Order("name ASC").
		Limit(10).
		Find(&items).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search items")
	}
	return items, nil
}

func (r *repository) GetItemDetail(ctx context.Context, restaurantID, itemID uuid.UUID) (*models.MenuItem, error) {
	var item models.MenuItem
	err := r.db.WithContext(ctx).
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Preload("Addons", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Where("restaurant_id = ? AND id = ? AND bot_visible = ? AND is_available = ?",
			restaurantID, itemID, true, true).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item detail")
	}
	return &item, nil
}
