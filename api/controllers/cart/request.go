package cart

import (
	cartdto "github.com/angelmondragon/devicehub-backend/api/controllers/cart/dto"
	cartsvc "github.com/angelmondragon/devicehub-backend/internal/cart"
)

func toAddItemInput(payload cartdto.AddItemRequest) cartsvc.AddItemInput {
	return cartsvc.AddItemInput{
		ProductID: payload.ProductID,
		Quantity:  payload.Quantity,
		Color:     payload.Color,
		Storage:   payload.Storage,
	}
}

func toIdentity(ref cartdto.LineRef) cartsvc.Identity {
	return cartsvc.NewIdentity(ref.ProductID, ref.Color, ref.Storage)
}
