package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/devicehub-backend/internal/pricing"
	"github.com/angelmondragon/devicehub-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/devicehub-backend/pkg/errors"
)

type productLoader interface {
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type promotionValidator interface {
	Validate(ctx context.Context, code string, cartBrandIDs []uuid.UUID) (*pricing.AppliedPromotion, error)
}

// Service exposes the session cart operations.
type Service interface {
	Get(ctx context.Context, sessionID string) (State, error)
	AddItem(ctx context.Context, sessionID string, input AddItemInput) (State, error)
	UpdateQuantity(ctx context.Context, sessionID string, id Identity, qty int) (State, error)
	RemoveItem(ctx context.Context, sessionID string, id Identity) (State, error)
	Clear(ctx context.Context, sessionID string) (State, error)
	Open(ctx context.Context, sessionID string) (State, error)
	Close(ctx context.Context, sessionID string) (State, error)
	ApplyPromotion(ctx context.Context, sessionID, code string) (State, error)
	RemovePromotion(ctx context.Context, sessionID string) (State, error)
	// Reset empties the cart after a successful checkout but keeps it open.
	Reset(ctx context.Context, sessionID string) error
}

// AddItemInput identifies the catalog product and options being added.
type AddItemInput struct {
	ProductID uuid.UUID
	Quantity  int
	Color     *string
	Storage   *string
}

type service struct {
	store     SessionStore
	products  productLoader
	validator promotionValidator
	locks     sessionLocks
}

// NewService builds a cart service over the provided session store.
func NewService(store SessionStore, products productLoader, validator promotionValidator) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("session store required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if validator == nil {
		return nil, fmt.Errorf("promotion validator required")
	}
	return &service{
		store:     store,
		products:  products,
		validator: validator,
	}, nil
}

func (s *service) Get(ctx context.Context, sessionID string) (State, error) {
	if err := requireSession(sessionID); err != nil {
		return State{}, err
	}
	state, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return State{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return state, nil
}

func (s *service) AddItem(ctx context.Context, sessionID string, input AddItemInput) (State, error) {
	if input.ProductID == uuid.Nil {
		return State{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.Quantity < 1 {
		input.Quantity = 1
	}

	product, err := s.products.FindProduct(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return State{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return State{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if product.Stock != nil && *product.Stock < 1 {
		return State{}, pkgerrors.New(pkgerrors.CodeValidation, "product is out of stock")
	}
	color, err := checkOption("color", input.Color, product.Colors)
	if err != nil {
		return State{}, err
	}
	storage, err := checkOption("storage", input.Storage, product.StorageOptions)
	if err != nil {
		return State{}, err
	}

	line := LineItem{
		ProductID:         product.ID,
		Color:             color,
		Storage:           storage,
		Name:              product.Name,
		Image:             product.Image,
		UnitPrice:         pricing.DiscountedUnitPrice(product.Price, product.DiscountPercent),
		OriginalUnitPrice: product.Price,
		DiscountPercent:   product.DiscountPercent,
		Quantity:          input.Quantity,
		BrandID:           product.BrandID,
		MaxStock:          product.Stock,
	}
	return s.mutate(ctx, sessionID, func(state State) (State, error) {
		return state.Add(line), nil
	})
}

func (s *service) UpdateQuantity(ctx context.Context, sessionID string, id Identity, qty int) (State, error) {
	return s.mutate(ctx, sessionID, func(state State) (State, error) {
		return state.UpdateQuantity(id, qty), nil
	})
}

func (s *service) RemoveItem(ctx context.Context, sessionID string, id Identity) (State, error) {
	return s.mutate(ctx, sessionID, func(state State) (State, error) {
		return state.Remove(id), nil
	})
}

func (s *service) Clear(ctx context.Context, sessionID string) (State, error) {
	return s.mutate(ctx, sessionID, func(state State) (State, error) {
		return state.Clear(), nil
	})
}

func (s *service) Open(ctx context.Context, sessionID string) (State, error) {
	return s.mutate(ctx, sessionID, func(state State) (State, error) {
		return state.Open(), nil
	})
}

func (s *service) Close(ctx context.Context, sessionID string) (State, error) {
	return s.mutate(ctx, sessionID, func(state State) (State, error) {
		return state.Close(), nil
	})
}

// ApplyPromotion validates code against the cart's brands. A rejection leaves
// the stored cart unchanged.
func (s *service) ApplyPromotion(ctx context.Context, sessionID, code string) (State, error) {
	return s.mutate(ctx, sessionID, func(state State) (State, error) {
		applied, err := s.validator.Validate(ctx, code, state.BrandIDs())
		if err != nil {
			return State{}, err
		}
		return state.WithPromotion(*applied), nil
	})
}

func (s *service) RemovePromotion(ctx context.Context, sessionID string) (State, error) {
	return s.mutate(ctx, sessionID, func(state State) (State, error) {
		return state.WithoutPromotion(), nil
	})
}

func (s *service) Reset(ctx context.Context, sessionID string) error {
	_, err := s.mutate(ctx, sessionID, func(state State) (State, error) {
		return state.Clear().Open(), nil
	})
	return err
}

func (s *service) mutate(ctx context.Context, sessionID string, transition func(State) (State, error)) (State, error) {
	if err := requireSession(sessionID); err != nil {
		return State{}, err
	}
	unlock := s.locks.lock(sessionID)
	defer unlock()

	current, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return State{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	next, err := transition(current)
	if err != nil {
		return State{}, err
	}
	if err := s.store.Save(ctx, sessionID, next); err != nil {
		return State{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return next, nil
}

func requireSession(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	return nil
}

// checkOption resolves selected against the catalog options and returns the
// catalog spelling.
func checkOption(field string, selected *string, allowed []string) (*string, error) {
	value := trimmed(selected)
	if value == nil || len(allowed) == 0 {
		return value, nil
	}
	for _, candidate := range allowed {
		if strings.EqualFold(strings.TrimSpace(candidate), *value) {
			match := strings.TrimSpace(candidate)
			return &match, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s %q is not available for this product", field, *value))
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}
