package cartdto

import "github.com/google/uuid"

// AddItemRequest adds a catalog product with the selected options.
type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity"`
	Color     *string   `json:"color,omitempty" validate:"omitempty,max=64"`
	Storage   *string   `json:"storage,omitempty" validate:"omitempty,max=64"`
}

// LineRef identifies one cart line by product and options.
type LineRef struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Color     *string   `json:"color,omitempty" validate:"omitempty,max=64"`
	Storage   *string   `json:"storage,omitempty" validate:"omitempty,max=64"`
}

// UpdateItemRequest sets a line quantity. Out-of-range values are clamped by
// the cart, not rejected.
type UpdateItemRequest struct {
	LineRef
	Quantity int `json:"quantity"`
}

type RemoveItemRequest struct {
	LineRef
}

type ApplyPromotionRequest struct {
	Code string `json:"code" validate:"notblank,max=64"`
}
