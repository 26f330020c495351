package promotions

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/devicehub-backend/pkg/db/models"
)

// Repository is the persistence surface for promotions and their brand discounts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindActiveByCode(ctx context.Context, code string) (*models.Promotion, error)
	IncrementUsage(ctx context.Context, code string) error
	ProfitPercentages(ctx context.Context, codes []string) (map[string]decimal.Decimal, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a promotions repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// FindActiveByCode loads an active promotion with its brand discounts ordered
// by creation. Returns gorm.ErrRecordNotFound when no active promotion matches.
func (r *repository) FindActiveByCode(ctx context.Context, code string) (*models.Promotion, error) {
	var promo models.Promotion
	err := r.db.WithContext(ctx).
		Preload("BrandDiscounts", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC").Order("id ASC")
		}).
		Where("code = ? AND active = ?", canonicalCode(code), true).
		First(&promo).Error
	if err != nil {
		return nil, err
	}
	return &promo, nil
}

// IncrementUsage bumps usage_count in a single UPDATE so concurrent checkouts
// never lose an increment.
func (r *repository) IncrementUsage(ctx context.Context, code string) error {
	res := r.db.WithContext(ctx).
		Model(&models.Promotion{}).
		Where("code = ?", canonicalCode(code)).
		UpdateColumn("usage_count", gorm.Expr("usage_count + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ProfitPercentages resolves the referral profit rate of each code, active or
// not. The rate of a promotion is the profit percentage of its first brand
// discount; codes without brand discounts are omitted.
func (r *repository) ProfitPercentages(ctx context.Context, codes []string) (map[string]decimal.Decimal, error) {
	out := map[string]decimal.Decimal{}
	if len(codes) == 0 {
		return out, nil
	}
	canonical := make([]string, 0, len(codes))
	for _, code := range codes {
		canonical = append(canonical, canonicalCode(code))
	}

	var promos []models.Promotion
	err := r.db.WithContext(ctx).
		Preload("BrandDiscounts", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC").Order("id ASC")
		}).
		Where("code IN ?", canonical).
		Find(&promos).Error
	if err != nil {
		return nil, err
	}
	for _, promo := range promos {
		if len(promo.BrandDiscounts) == 0 {
			continue
		}
		out[promo.Code] = promo.BrandDiscounts[0].ProfitPercentage
	}
	return out, nil
}

func canonicalCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
