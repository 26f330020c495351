package promotions

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/devicehub-backend/internal/pricing"
	"github.com/angelmondragon/devicehub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/devicehub-backend/pkg/errors"
)

// Validator resolves promo codes against the brand-discount directory.
type Validator interface {
	Validate(ctx context.Context, code string, cartBrandIDs []uuid.UUID) (*pricing.AppliedPromotion, error)
}

type validator struct {
	repo Repository
}

// NewValidator builds a read-only promotion validator.
func NewValidator(repo Repository) (Validator, error) {
	if repo == nil {
		return nil, fmt.Errorf("promotion repository required")
	}
	return &validator{repo: repo}, nil
}

// Validate canonicalizes code and returns only the brand discounts that match
// cartBrandIDs. Rejections are PROMOTION_REJECTED errors; see Rejection.
func (v *validator) Validate(ctx context.Context, code string, cartBrandIDs []uuid.UUID) (*pricing.AppliedPromotion, error) {
	canonical := canonicalCode(code)
	if canonical == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promotion code is required")
	}

	promo, err := v.repo.FindActiveByCode(ctx, canonical)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, reject(enums.PromotionRejectionNotFound, canonical)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load promotion")
	}
	if len(promo.BrandDiscounts) == 0 {
		return nil, reject(enums.PromotionRejectionNoBrandRules, canonical)
	}

	inCart := make(map[uuid.UUID]struct{}, len(cartBrandIDs))
	for _, id := range cartBrandIDs {
		inCart[id] = struct{}{}
	}

	applied := &pricing.AppliedPromotion{Code: promo.Code}
	for _, entry := range promo.BrandDiscounts {
		if _, ok := inCart[entry.BrandID]; !ok {
			continue
		}
		applied.Discounts = append(applied.Discounts, pricing.BrandDiscount{
			BrandID:            entry.BrandID,
			DiscountPercentage: entry.DiscountPercentage,
			ProfitPercentage:   entry.ProfitPercentage,
		})
	}
	if len(applied.Discounts) == 0 {
		return nil, reject(enums.PromotionRejectionNoApplicableItems, canonical)
	}
	return applied, nil
}

// RejectionDetails is attached to PROMOTION_REJECTED errors.
type RejectionDetails struct {
	Code   string                   `json:"code"`
	Reason enums.PromotionRejection `json:"reason"`
}

func reject(reason enums.PromotionRejection, code string) error {
	return pkgerrors.New(pkgerrors.CodePromotionRejected, reason.Message()).
		WithDetails(RejectionDetails{Code: code, Reason: reason})
}

// Rejection extracts the rejection reason from err, if err is a promotion rejection.
func Rejection(err error) (enums.PromotionRejection, bool) {
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodePromotionRejected {
		return "", false
	}
	details, ok := typed.Details().(RejectionDetails)
	if !ok {
		return "", false
	}
	return details.Reason, true
}

// CanonicalCode upper-cases and trims a promo code.
func CanonicalCode(code string) string {
	return canonicalCode(code)
}
