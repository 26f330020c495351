package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Promotion is a promo code scoped to one or more brands.
type Promotion struct {
	ID             uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code           string                   `gorm:"column:code;not null;uniqueIndex"`
	Active         bool                     `gorm:"column:active;not null;default:true"`
	UsageCount     int                      `gorm:"column:usage_count;not null;default:0"`
	BrandDiscounts []PromotionBrandDiscount `gorm:"foreignKey:PromotionID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

// PromotionBrandDiscount is the discount/profit pair a promotion grants one brand.
type PromotionBrandDiscount struct {
	ID                 uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PromotionID        uuid.UUID       `gorm:"column:promotion_id;type:uuid;not null"`
	BrandID            uuid.UUID       `gorm:"column:brand_id;type:uuid;not null"`
	DiscountPercentage decimal.Decimal `gorm:"column:discount_percentage;type:numeric(5,2);not null"`
	ProfitPercentage   decimal.Decimal `gorm:"column:profit_percentage;type:numeric(5,2);not null;default:0"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime"`
}
