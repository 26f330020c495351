package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/devicehub-backend/pkg/db/models"
	"github.com/angelmondragon/devicehub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/devicehub-backend/pkg/errors"
	"github.com/angelmondragon/devicehub-backend/pkg/metrics"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type countingCache struct {
	invalidations int
}

func (c *countingCache) Invalidate(context.Context) error {
	c.invalidations++
	return nil
}

func seedOrder(t *testing.T, repo Repository, name, phone string, code *string) uuid.UUID {
	t.Helper()
	order := &models.Order{CustomerName: name, PhoneNumber: phone, Address: "a", Status: enums.OrderStatusPending, PromoCode: code}
	require.NoError(t, repo.Create(context.Background(), order))
	return order.ID
}

func statusOf(t *testing.T, db *gorm.DB, id uuid.UUID) enums.OrderStatus {
	t.Helper()
	var order models.Order
	require.NoError(t, db.Where("id = ?", id).First(&order).Error)
	return order.Status
}

func TestBulkSetStatusTouchesOnlySelectedGroups(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	cache := &countingCache{}
	mutator, err := NewBulkMutator(repo, gormTxRunner{db: db}, cache, metrics.NewOrderMetrics(prometheus.NewRegistry()), nil)
	require.NoError(t, err)

	ali1 := seedOrder(t, repo, "Ali", "0590000000", strPtr("SAVE10"))
	ali2 := seedOrder(t, repo, "Ali", "0590000000", strPtr("save10"))
	sara := seedOrder(t, repo, "Sara", "0599999999", nil)

	result, err := mutator.SetStatus(context.Background(), []GroupKey{
		{PromoKey: "save10", CustomerName: "Ali", PhoneNumber: "0590000000"},
	}, enums.OrderStatusCompleted)
	require.NoError(t, err)
	assert.EqualValues(t, 2, result.Affected)
	assert.ElementsMatch(t, []uuid.UUID{ali1, ali2}, result.OrderIDs)
	assert.Equal(t, 1, cache.invalidations)

	assert.Equal(t, enums.OrderStatusCompleted, statusOf(t, db, ali1))
	assert.Equal(t, enums.OrderStatusCompleted, statusOf(t, db, ali2))
	assert.Equal(t, enums.OrderStatusPending, statusOf(t, db, sara))
}

func TestBulkDeleteSentinelGroup(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	cache := &countingCache{}
	mutator, err := NewBulkMutator(repo, gormTxRunner{db: db}, cache, nil, nil)
	require.NoError(t, err)

	seedOrder(t, repo, "Ali", "1", strPtr("SAVE10"))
	seedOrder(t, repo, "Sara", "2", nil)
	seedOrder(t, repo, "Sara", "2", nil)

	result, err := mutator.Delete(context.Background(), []GroupKey{
		{PromoKey: NoPromotionKey, CustomerName: "Sara", PhoneNumber: "2"},
		{PromoKey: NoPromotionKey, CustomerName: "Sara", PhoneNumber: "2"},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, result.Affected)
	assert.Equal(t, 1, result.Groups)

	var remaining int64
	require.NoError(t, db.Model(&models.Order{}).Count(&remaining).Error)
	assert.EqualValues(t, 1, remaining)
}

func TestBulkUnknownGroupAppliesNothing(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	cache := &countingCache{}
	mutator, err := NewBulkMutator(repo, gormTxRunner{db: db}, cache, nil, nil)
	require.NoError(t, err)

	ali := seedOrder(t, repo, "Ali", "1", strPtr("SAVE10"))

	_, err = mutator.SetStatus(context.Background(), []GroupKey{
		{PromoKey: "SAVE10", CustomerName: "Ali", PhoneNumber: "1"},
		{PromoKey: "SAVE10", CustomerName: "Ghost", PhoneNumber: "9"},
	}, enums.OrderStatusCompleted)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	details, ok := pkgerrors.As(err).Details().(MissingGroupsDetails)
	require.True(t, ok)
	assert.Len(t, details.Missing, 1)

	assert.Equal(t, enums.OrderStatusPending, statusOf(t, db, ali))
	assert.Zero(t, cache.invalidations)
}

type shortRepo struct {
	Repository
}

func (s shortRepo) WithTx(tx *gorm.DB) Repository {
	return shortRepo{Repository: s.Repository.WithTx(tx)}
}

func (s shortRepo) UpdateStatus(ctx context.Context, ids []uuid.UUID, status enums.OrderStatus) (int64, error) {
	affected, err := s.Repository.UpdateStatus(ctx, ids, status)
	return affected - 1, err
}

func (s shortRepo) Delete(context.Context, []uuid.UUID) (int64, error) {
	return 0, errors.New("constraint violation")
}

func TestBulkPartialApplicationRollsBack(t *testing.T) {
	db := setupOrdersTestDB(t)
	base := NewRepository(db)
	cache := &countingCache{}
	mutator, err := NewBulkMutator(shortRepo{Repository: base}, gormTxRunner{db: db}, cache, nil, nil)
	require.NoError(t, err)

	first := seedOrder(t, base, "Ali", "1", nil)
	second := seedOrder(t, base, "Ali", "1", nil)
	keys := []GroupKey{{PromoKey: NoPromotionKey, CustomerName: "Ali", PhoneNumber: "1"}}

	_, err = mutator.SetStatus(context.Background(), keys, enums.OrderStatusInProgress)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeBulkMutation))
	assert.Equal(t, enums.OrderStatusPending, statusOf(t, db, first))
	assert.Equal(t, enums.OrderStatusPending, statusOf(t, db, second))

	_, err = mutator.Delete(context.Background(), keys)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeBulkMutation))
	assert.Zero(t, cache.invalidations)
}

func TestBulkValidation(t *testing.T) {
	db := setupOrdersTestDB(t)
	mutator, err := NewBulkMutator(NewRepository(db), gormTxRunner{db: db}, &countingCache{}, nil, nil)
	require.NoError(t, err)

	_, err = mutator.SetStatus(context.Background(), []GroupKey{{PromoKey: "A", CustomerName: "x", PhoneNumber: "1"}}, enums.OrderStatus("shipped"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = mutator.Delete(context.Background(), nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
