package enums

// PromotionRejection names why a promotion code could not be applied to a cart.
type PromotionRejection string

const (
	PromotionRejectionNotFound          PromotionRejection = "not_found"
	PromotionRejectionNoBrandRules      PromotionRejection = "no_brand_rules"
	PromotionRejectionNoApplicableItems PromotionRejection = "no_applicable_items"
)

// String implements fmt.Stringer.
func (p PromotionRejection) String() string {
	return string(p)
}

// Message returns the shopper-facing explanation for the rejection.
func (p PromotionRejection) Message() string {
	switch p {
	case PromotionRejectionNotFound:
		return "promotion code not found"
	case PromotionRejectionNoBrandRules:
		return "promotion has no brand discounts configured"
	case PromotionRejectionNoApplicableItems:
		return "promotion does not apply to any item in the cart"
	}
	return "promotion cannot be applied"
}
