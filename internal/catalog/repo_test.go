package catalog

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/devicehub-backend/pkg/db/models"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:catalog-%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  image TEXT,
  brand_id TEXT,
  price TEXT NOT NULL,
  discount_percent TEXT NOT NULL DEFAULT '0',
  stock INTEGER,
  colors TEXT,
  storage_options TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	bundles := `
CREATE TABLE IF NOT EXISTS bundle_offers (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  image TEXT,
  price TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(products).Error)
	require.NoError(t, db.Exec(bundles).Error)
	return db
}

func TestRepositoryLookups(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	brand := uuid.New()
	product := models.Product{
		ID:              uuid.New(),
		Name:            "Phone X",
		BrandID:         &brand,
		Price:           decimal.NewFromInt(100),
		DiscountPercent: decimal.Zero,
		Colors:          []string{"black", "white"},
	}
	bundle := models.BundleOffer{ID: uuid.New(), Name: "Starter Kit", Price: decimal.NewFromInt(40)}
	require.NoError(t, db.Create(&product).Error)
	require.NoError(t, db.Create(&bundle).Error)

	found, err := repo.FindProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Phone X", found.Name)
	assert.True(t, found.Price.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, []string{"black", "white"}, []string(found.Colors))
	require.NotNil(t, found.BrandID)
	assert.Equal(t, brand, *found.BrandID)

	_, err = repo.FindProduct(ctx, uuid.New())
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	products, err := repo.ProductsByIDs(ctx, []uuid.UUID{product.ID, bundle.ID})
	require.NoError(t, err)
	assert.Len(t, products, 1)
	assert.Contains(t, products, product.ID)

	bundles, err := repo.BundleOffersByIDs(ctx, []uuid.UUID{product.ID, bundle.ID})
	require.NoError(t, err)
	assert.Len(t, bundles, 1)
	assert.Equal(t, "Starter Kit", bundles[bundle.ID].Name)

	empty, err := repo.ProductsByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
