package menu

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mesaflow/mesaflow-backend/pkg/db/models"
	pkgerrors "github.com/mesaflow/mesaflow-backend/pkg/errors"
)

func setupMenuTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	categories := `
CREATE TABLE IF NOT EXISTS menu_categories (
  id TEXT PRIMARY KEY,
  restaurant_id TEXT NOT NULL,
  name TEXT NOT NULL,
  sort_order INTEGER NOT NULL DEFAULT 0,
  bot_visible INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	items := `
CREATE TABLE IF NOT EXISTS menu_items (
  id TEXT PRIMARY KEY,
  restaurant_id TEXT NOT NULL,
  category_id TEXT NOT NULL,
  name TEXT NOT NULL,
  description TEXT,
  base_price_cents INTEGER NOT NULL,
  image_url TEXT,
  is_available INTEGER NOT NULL DEFAULT 1,
  bot_visible INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	variants := `
CREATE TABLE IF NOT EXISTS item_variants (
  id TEXT PRIMARY KEY,
  menu_item_id TEXT NOT NULL,
  name TEXT NOT NULL,
  price_adjustment_cents INTEGER NOT NULL DEFAULT 0,
  sort_order INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME
);`
	addons := `
CREATE TABLE IF NOT EXISTS item_addons (
  id TEXT PRIMARY KEY,
  menu_item_id TEXT NOT NULL,
  name TEXT NOT NULL,
  price_cents INTEGER NOT NULL DEFAULT 0,
  sort_order INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(categories).Error)
	require.NoError(t, db.Exec(items).Error)
	require.NoError(t, db.Exec(variants).Error)
	require.NoError(t, db.Exec(addons).Error)

	t.Cleanup(func() {
		db.Exec("DELETE FROM item_addons")
		db.Exec("DELETE FROM item_variants")
		db.Exec("DELETE FROM menu_items")
		db.Exec("DELETE FROM menu_categories")
	})
	return db
}

func seedCategory(t *testing.T, db *gorm.DB, restaurantID uuid.UUID, name string, sortOrder int, visible bool) *models.MenuCategory {
	t.Helper()

	category := &models.MenuCategory{
		ID:           uuid.New(),
		RestaurantID: restaurantID,
		Name:         name,
		SortOrder:    sortOrder,
		BotVisible:   visible,
	}
	require.NoError(t, db.Create(category).Error)
	return category
}

func seedItem(t *testing.T, db *gorm.DB, restaurantID, categoryID uuid.UUID, name string, priceCents int, available, visible bool) *models.MenuItem {
	t.Helper()

	item := &models.MenuItem{
		ID:             uuid.New(),
		RestaurantID:   restaurantID,
		CategoryID:     categoryID,
		Name:           name,
		BasePriceCents: priceCents,
		IsAvailable:    available,
		BotVisible:     visible,
	}
	require.NoError(t, db.Create(item).Error)
	return item
}

func TestListVisibleCategoriesOrdersAndFilters(t *testing.T) {
	db := setupMenuTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	restaurantID := uuid.New()

	seedCategory(t, db, restaurantID, "Drinks", 2, true)
	seedCategory(t, db, restaurantID, "Mains", 1, true)
	seedCategory(t, db, restaurantID, "Staff Specials", 0, false)
	seedCategory(t, db, uuid.New(), "Other Tenant", 0, true)

	categories, err := repo.ListVisibleCategories(ctx, restaurantID)
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "Mains", categories[0].Name)
	assert.Equal(t, "Drinks", categories[1].Name)
}

func TestListVisibleItemsFiltersUnavailable(t *testing.T) {
	db := setupMenuTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	restaurantID := uuid.New()
	category := seedCategory(t, db, restaurantID, "Mains", 0, true)

	seedItem(t, db, restaurantID, category.ID, "Chicken Burger", 1000, true, true)
	seedItem(t, db, restaurantID, category.ID, "Eighty-Sixed Special", 1500, false, true)
	seedItem(t, db, restaurantID, category.ID, "Dashboard Only", 900, true, false)

	items, err := repo.ListVisibleItems(ctx, restaurantID, category.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Chicken Burger", items[0].Name)
}

func TestSearchVisibleItems(t *testing.T) {
	db := setupMenuTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	restaurantID := uuid.New()
	category := seedCategory(t, db, restaurantID, "Mains", 0, true)

	seedItem(t, db, restaurantID, category.ID, "Chicken Burger", 1000, true, true)
	seedItem(t, db, restaurantID, category.ID, "Beef Burger", 1200, true, true)
	seedItem(t, db, restaurantID, category.ID, "Fries", 300, true, true)
	seedItem(t, db, restaurantID, category.ID, "Burger Hidden", 1100, true, false)

	results, err := repo.SearchVisibleItems(ctx, restaurantID, "  BURGER ")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Beef Burger", results[0].Name)
	assert.Equal(t, "Chicken Burger", results[1].Name)

	empty, err := repo.SearchVisibleItems(ctx, restaurantID, "   ")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGetItemDetailPreloadsOptions(t *testing.T) {
	db := setupMenuTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	restaurantID := uuid.New()
	category := seedCategory(t, db, restaurantID, "Mains", 0, true)
	item := seedItem(t, db, restaurantID, category.ID, "Chicken Burger", 1000, true, true)

	require.NoError(t, db.Create(&models.ItemVariant{
		ID: uuid.New(), MenuItemID: item.ID, Name: "Large", PriceAdjustmentCents: 200, SortOrder: 1,
	}).Error)
	require.NoError(t, db.Create(&models.ItemVariant{
		ID: uuid.New(), MenuItemID: item.ID, Name: "Regular", PriceAdjustmentCents: 0, SortOrder: 0,
	}).Error)
	require.NoError(t, db.Create(&models.ItemAddon{
		ID: uuid.New(), MenuItemID: item.ID, Name: "Extra cheese", PriceCents: 100, SortOrder: 0,
	}).Error)

	detail, err := repo.GetItemDetail(ctx, restaurantID, item.ID)
	require.NoError(t, err)
	require.Len(t, detail.Variants, 2)
	assert.Equal(t, "Regular", detail.Variants[0].Name)
	assert.Equal(t, "Large", detail.Variants[1].Name)
	require.Len(t, detail.Addons, 1)
	assert.Equal(t, 100, detail.Addons[0].PriceCents)
}

func TestGetItemDetailHidesUnavailable(t *testing.T) {
	db := setupMenuTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	restaurantID := uuid.New()
	category := seedCategory(t, db, restaurantID, "Mains", 0, true)
	item := seedItem(t, db, restaurantID, category.ID, "Gone", 1000, false, true)

	_, err := repo.GetItemDetail(ctx, restaurantID, item.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
