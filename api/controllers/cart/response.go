package cart

import (
	cartdto "github.com/angelmondragon/devicehub-backend/api/controllers/cart/dto"
	cartsvc "github.com/angelmondragon/devicehub-backend/internal/cart"
	"github.com/angelmondragon/devicehub-backend/internal/pricing"
)

func newCartView(state cartsvc.State) cartdto.CartView {
	totals := state.Totals()
	view := cartdto.CartView{
		Items:     make([]cartdto.LineView, 0, len(state.Items)),
		Open:      state.IsOpen,
		Subtotal:  totals.Subtotal,
		Discount:  totals.Discount,
		Total:     totals.Total,
		ItemCount: totals.ItemCount,
	}

	for _, item := range state.Items {
		line := pricing.Line{UnitPrice: item.UnitPrice, Quantity: item.Quantity, BrandID: item.BrandID}
		lineView := cartdto.LineView{
			ProductID:         item.ProductID,
			Name:              item.Name,
			Image:             item.Image,
			Color:             item.Color,
			Storage:           item.Storage,
			BrandID:           item.BrandID,
			UnitPrice:         item.UnitPrice,
			OriginalUnitPrice: item.EffectiveOriginalPrice(),
			DiscountPercent:   item.DiscountPercent,
			Quantity:          item.Quantity,
			MaxStock:          item.MaxStock,
			LineTotal:         line.Gross(),
		}
		if discount, ok := state.Promotion.DiscountFor(item.BrandID); ok {
			lineView.PromotionDiscount = pricing.ItemDiscount(line, discount.DiscountPercentage)
		}
		view.Items = append(view.Items, lineView)
	}

	if state.Promotion != nil {
		promo := &cartdto.PromotionView{
			Code:   state.Promotion.Code,
			Brands: make([]cartdto.BrandDiscountView, 0, len(state.Promotion.Discounts)),
		}
		for _, d := range state.Promotion.Discounts {
			promo.Brands = append(promo.Brands, cartdto.BrandDiscountView{
				BrandID:            d.BrandID,
				DiscountPercentage: d.DiscountPercentage,
			})
		}
		view.Promotion = promo
	}
	return view
}
