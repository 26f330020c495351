package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/angelmondragon/devicehub-backend/pkg/db"
	"github.com/angelmondragon/devicehub-backend/pkg/db/models"
	"github.com/angelmondragon/devicehub-backend/pkg/enums"
	"github.com/angelmondragon/devicehub-backend/pkg/pagination"
)

// ErrDuplicateIdempotencyKey is returned by Create when another order of the
// same session already holds the idempotency key.
var ErrDuplicateIdempotencyKey = errors.New("order idempotency key already used")

// Repository is the persistence surface of the orders ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByIdempotencyKey(ctx context.Context, sessionID, key string) (*models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)
	List(ctx context.Context, params ListParams) ([]models.Order, *pagination.Cursor, error)
	UpdateStatus(ctx context.Context, ids []uuid.UUID, status enums.OrderStatus) (int64, error)
	Delete(ctx context.Context, ids []uuid.UUID) (int64, error)
}

// ListParams filters the paginated ledger listing.
type ListParams struct {
	Limit  int
	Cursor *pagination.Cursor
	Status *enums.OrderStatus
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

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	err := r.db.WithContext(ctx).Create(order).Error
	if err != nil && order.IdempotencyKey != nil && dbpkg.IsUniqueViolation(err, "idempotency_key") {
		return fmt.Errorf("%w: %v", ErrDuplicateIdempotencyKey, err)
	}
	return err
}

func (r *repository) FindByIdempotencyKey(ctx context.Context, sessionID, key string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND idempotency_key = ?", sessionID, key).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListAll reads the full ledger, oldest first.
func (r *repository) ListAll(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) List(ctx context.Context, params ListParams) ([]models.Order, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{})
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var orders []models.Order
	if err := query.Order("created_at DESC, id DESC").Limit(pagination.LimitWithBuffer(params.Limit)).Find(&orders).Error; err != nil {
		return nil, nil, err
	}

	page, next := pagination.Trim(orders, params.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	return page, next, nil
}

// UpdateStatus returns the number of rows changed.
func (r *repository) UpdateStatus(ctx context.Context, ids []uuid.UUID, status enums.OrderStatus) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id IN ?", ids).
		Updates(map[string]any{"status": status})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// Delete returns the number of rows removed.
func (r *repository) Delete(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Order{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
