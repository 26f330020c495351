package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/devicehub-backend/internal/cart"
	"github.com/angelmondragon/devicehub-backend/internal/notifications"
	"github.com/angelmondragon/devicehub-backend/internal/orders"
	"github.com/angelmondragon/devicehub-backend/internal/pricing"
	"github.com/angelmondragon/devicehub-backend/pkg/db/models"
	"github.com/angelmondragon/devicehub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/devicehub-backend/pkg/errors"
	"github.com/angelmondragon/devicehub-backend/pkg/logger"
	"github.com/angelmondragon/devicehub-backend/pkg/metrics"
	"github.com/angelmondragon/devicehub-backend/pkg/types"
)

const defaultNotifyTimeout = 15 * time.Second

var validate = validator.New()

type cartService interface {
	Get(ctx context.Context, sessionID string) (cart.State, error)
	Reset(ctx context.Context, sessionID string) error
}

type promotionValidator interface {
	Validate(ctx context.Context, code string, cartBrandIDs []uuid.UUID) (*pricing.AppliedPromotion, error)
}

type orderWriter interface {
	Create(ctx context.Context, order *models.Order) error
	FindByIdempotencyKey(ctx context.Context, sessionID, key string) (*models.Order, error)
}

type usageCounter interface {
	IncrementUsage(ctx context.Context, code string) error
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Service turns a session cart into a persisted order.
type Service interface {
	Checkout(ctx context.Context, input Input) (Result, error)
	// InProgress reports whether a checkout for the session is in flight.
	InProgress(ctx context.Context, sessionID string) (bool, error)
}

// CustomerInfo is the delivery contact captured at checkout.
type CustomerInfo struct {
	Name    string `json:"customer_name" validate:"required,max=200"`
	Phone   string `json:"phone_number" validate:"required,max=32"`
	Address string `json:"address" validate:"required,max=500"`
}

// Input is one checkout attempt. IdempotencyKey is optional.
type Input struct {
	SessionID      string
	Customer       CustomerInfo
	IdempotencyKey *string
}

// Result identifies the order a checkout produced. Replayed is set when the
// idempotency key matched an order written earlier.
type Result struct {
	OrderID   uuid.UUID       `json:"order_id"`
	Total     decimal.Decimal `json:"total"`
	PromoCode *string         `json:"promo_code,omitempty"`
	Replayed  bool            `json:"replayed"`
}

// Deps groups the collaborators of the checkout service.
type Deps struct {
	Cart          cartService
	Validator     promotionValidator
	Orders        orderWriter
	Usage         usageCounter
	Guard         Guard
	Notifier      notifications.Notifier
	Reports       cacheInvalidator
	Metrics       *metrics.OrderMetrics
	Logger        *logger.Logger
	NotifyTimeout time.Duration
	// Dispatch runs the notification. Defaults to a new goroutine.
	Dispatch func(fn func())
}

type service struct {
	cart          cartService
	validator     promotionValidator
	orders        orderWriter
	usage         usageCounter
	guard         Guard
	notifier      notifications.Notifier
	reports       cacheInvalidator
	metrics       *metrics.OrderMetrics
	logg          *logger.Logger
	notifyTimeout time.Duration
	dispatch      func(fn func())
	now           func() time.Time
}

// NewService builds the checkout service.
func NewService(deps Deps) (Service, error) {
	if deps.Cart == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if deps.Validator == nil {
		return nil, fmt.Errorf("promotion validator required")
	}
	if deps.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if deps.Usage == nil {
		return nil, fmt.Errorf("usage counter required")
	}
	if deps.Guard == nil {
		return nil, fmt.Errorf("checkout guard required")
	}
	if deps.Notifier == nil {
		deps.Notifier = notifications.Noop{}
	}
	if deps.NotifyTimeout <= 0 {
		deps.NotifyTimeout = defaultNotifyTimeout
	}
	if deps.Dispatch == nil {
		deps.Dispatch = func(fn func()) { go fn() }
	}
	return &service{
		cart:          deps.Cart,
		validator:     deps.Validator,
		orders:        deps.Orders,
		usage:         deps.Usage,
		guard:         deps.Guard,
		notifier:      deps.Notifier,
		reports:       deps.Reports,
		metrics:       deps.Metrics,
		logg:          deps.Logger,
		notifyTimeout: deps.NotifyTimeout,
		dispatch:      deps.Dispatch,
		now:           time.Now,
	}, nil
}

func (s *service) InProgress(ctx context.Context, sessionID string) (bool, error) {
	held, err := s.guard.Held(ctx, sessionID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read checkout lock")
	}
	return held, nil
}

func (s *service) Checkout(ctx context.Context, input Input) (Result, error) {
	start := s.now()
	result, err := s.checkout(ctx, input)
	s.metrics.ObserveCheckout(resultLabel(err), s.now().Sub(start))
	return result, err
}

func (s *service) checkout(ctx context.Context, input Input) (Result, error) {
	customer, err := normalizeCustomer(input.Customer)
	if err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(input.SessionID) == "" {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	idemKey := cleanKey(input.IdempotencyKey)

	token, acquired, err := s.guard.Acquire(ctx, input.SessionID)
	if err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire checkout lock")
	}
	if !acquired {
		return Result{}, pkgerrors.New(pkgerrors.CodeConflict, "checkout already in progress")
	}
	defer func() {
		if err := s.guard.Release(context.WithoutCancel(ctx), input.SessionID, token); err != nil {
			s.logError(ctx, "release checkout lock", err)
		}
	}()

	if idemKey != nil {
		existing, err := s.orders.FindByIdempotencyKey(ctx, input.SessionID, *idemKey)
		switch {
		case err == nil:
			return replayed(existing, customer)
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup idempotency key")
		}
	}

	state, err := s.cart.Get(ctx, input.SessionID)
	if err != nil {
		return Result{}, err
	}
	if state.IsEmpty() {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	var applied *pricing.AppliedPromotion
	if state.Promotion != nil {
		applied, err = s.validator.Validate(ctx, state.Promotion.Code, state.BrandIDs())
		if err != nil {
			return Result{}, err
		}
	}

	order := BuildOrder(state, applied, customer)
	if idemKey != nil {
		sessionID := input.SessionID
		order.SessionID = &sessionID
		order.IdempotencyKey = idemKey
	}
	if err := s.orders.Create(ctx, order); err != nil {
		if idemKey != nil && errors.Is(err, orders.ErrDuplicateIdempotencyKey) {
			if existing, findErr := s.orders.FindByIdempotencyKey(ctx, input.SessionID, *idemKey); findErr == nil {
				return replayed(existing, customer)
			}
		}
		return Result{}, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "save order")
	}

	ctx = s.withOrder(ctx, order.ID)
	s.notify(ctx, orderPlacedEvent(order))

	if order.PromoCode != nil {
		if err := s.usage.IncrementUsage(ctx, *order.PromoCode); err != nil {
			s.metrics.IncUsageIncrementFailure()
			s.logError(ctx, "increment promotion usage", err)
		}
	}
	if err := s.cart.Reset(ctx, input.SessionID); err != nil {
		s.logError(ctx, "reset cart after checkout", err)
	}
	if s.reports != nil {
		if err := s.reports.Invalidate(ctx); err != nil {
			s.logError(ctx, "invalidate order report", err)
		}
	}

	return Result{
		OrderID:   order.ID,
		Total:     order.TotalPrice.Decimal,
		PromoCode: order.PromoCode,
	}, nil
}

// BuildOrder snapshots the cart into a pending order. Lines whose brand is
// covered by applied carry the promotion price baked in; other lines keep
// their cart price.
func BuildOrder(state cart.State, applied *pricing.AppliedPromotion, customer CustomerInfo) *models.Order {
	items := make(types.OrderLineItems, 0, len(state.Items))
	total := decimal.Zero
	for _, line := range state.Items {
		item := types.OrderLineItem{
			ID:              line.ProductID,
			Image:           line.Image,
			BrandID:         line.BrandID,
			Price:           line.UnitPrice,
			OriginalPrice:   line.EffectiveOriginalPrice(),
			DiscountPercent: line.DiscountPercent,
			Quantity:        line.Quantity,
			Color:           line.Color,
			Storage:         line.Storage,
		}
		if line.Name != "" {
			name := line.Name
			item.Name = &name
		}
		if discount, ok := applied.DiscountFor(line.BrandID); ok {
			item.Price = pricing.DiscountedUnitPrice(item.OriginalPrice, discount.DiscountPercentage)
			item.DiscountPercent = discount.DiscountPercentage
		}
		total = total.Add(item.LineTotal())
		items = append(items, item)
	}

	order := &models.Order{
		ID:           uuid.New(),
		CustomerName: customer.Name,
		PhoneNumber:  customer.Phone,
		Address:      customer.Address,
		Status:       enums.OrderStatusPending,
		TotalPrice:   decimal.NewNullDecimal(total),
		Items:        items,
	}
	if applied != nil {
		code := applied.Code
		order.PromoCode = &code
	}
	return order
}

func (s *service) notify(ctx context.Context, event notifications.OrderPlaced) {
	detached := context.WithoutCancel(ctx)
	s.dispatch(func() {
		notifyCtx, cancel := context.WithTimeout(detached, s.notifyTimeout)
		defer cancel()
		if err := s.notifier.NotifyOrderPlaced(notifyCtx, event); err != nil {
			s.logError(notifyCtx, "order notification failed", err)
		}
	})
}

// orderPlacedEvent derives the discount from the persisted lines so that
// undiscounted total minus discount equals the order total.
func orderPlacedEvent(order *models.Order) notifications.OrderPlaced {
	items := make([]notifications.OrderItem, 0, len(order.Items))
	discount := decimal.Zero
	for _, item := range order.Items {
		discount = discount.Add(item.OriginalPrice.Sub(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity))))
		name := ""
		if item.Name != nil {
			name = *item.Name
		}
		items = append(items, notifications.OrderItem{
			Name:      name,
			Quantity:  item.Quantity,
			UnitPrice: item.Price,
			LineTotal: item.LineTotal(),
			Color:     item.Color,
			Storage:   item.Storage,
		})
	}
	return notifications.OrderPlaced{
		OrderID:      order.ID,
		OrderNumber:  strings.ToUpper(order.ID.String()[:8]),
		CustomerName: order.CustomerName,
		PhoneNumber:  order.PhoneNumber,
		Address:      order.Address,
		PromoCode:    order.PromoCode,
		Items:        items,
		Total:        order.TotalPrice.Decimal,
		Discount:     discount,
		PlacedAt:     time.Now().UTC(),
	}
}

func normalizeCustomer(info CustomerInfo) (CustomerInfo, error) {
	info = CustomerInfo{
		Name:    strings.TrimSpace(info.Name),
		Phone:   strings.TrimSpace(info.Phone),
		Address: strings.TrimSpace(info.Address),
	}
	if err := validate.Struct(info); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			details := map[string]string{}
			for _, fe := range fieldErrs {
				details[fe.Field()] = fe.Tag()
			}
			return CustomerInfo{}, pkgerrors.New(pkgerrors.CodeValidation, "customer details are incomplete").WithDetails(details)
		}
		return CustomerInfo{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "customer details are invalid")
	}
	return info, nil
}

func cleanKey(key *string) *string {
	if key == nil {
		return nil
	}
	v := strings.TrimSpace(*key)
	if v == "" {
		return nil
	}
	return &v
}

// replayed returns the order an idempotency key already produced. A key
// reused for different delivery details is rejected rather than replayed.
func replayed(order *models.Order, customer CustomerInfo) (Result, error) {
	if order.CustomerName != customer.Name || order.PhoneNumber != customer.Phone || order.Address != customer.Address {
		return Result{}, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key was used for a different order")
	}
	return Result{
		OrderID:   order.ID,
		Total:     order.TotalPrice.Decimal,
		PromoCode: order.PromoCode,
		Replayed:  true,
	}, nil
}

func resultLabel(err error) string {
	if err == nil {
		return metrics.CheckoutSuccess
	}
	switch pkgerrors.As(err).Code() {
	case pkgerrors.CodeValidation:
		return metrics.CheckoutValidation
	case pkgerrors.CodePromotionRejected:
		return metrics.CheckoutRejected
	case pkgerrors.CodeConflict, pkgerrors.CodeIdempotency:
		return metrics.CheckoutConflict
	default:
		return metrics.CheckoutPersistence
	}
}

func (s *service) withOrder(ctx context.Context, id uuid.UUID) context.Context {
	if s.logg == nil {
		return ctx
	}
	return s.logg.WithOrderID(ctx, id.String())
}

func (s *service) logError(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Error(ctx, msg, err)
}
