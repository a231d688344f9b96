package service

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/thread-storefront/domain"
	"github.com/fjod/thread-storefront/internal/pricing"
	"github.com/fjod/thread-storefront/internal/repository"
	"github.com/fjod/thread-storefront/pkg/logger"
	"github.com/fjod/thread-storefront/pkg/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/fjod/thread-storefront/internal/service"

// OrderPublisher announces placed orders to other systems.
type OrderPublisher interface {
	PublishOrderPlaced(ctx context.Context, order domain.Order) error
}

type PlaceOrderResult struct {
	Order       domain.Order `json:"order"`
	CartCleared bool         `json:"cart_cleared"`
}

type CheckoutService struct {
	cart      *CartService
	store     repository.DocumentStore
	ns        repository.Namespace
	drafts    *DraftStore
	publisher OrderPublisher
	metrics   *metrics.ServerMetrics
	logger    *zap.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

func NewCheckoutService(
	cart *CartService,
	store repository.DocumentStore,
	ns repository.Namespace,
	drafts *DraftStore,
	publisher OrderPublisher,
	m *metrics.ServerMetrics,
	logger *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		cart:      cart,
		store:     store,
		ns:        ns,
		drafts:    drafts,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		tracer:    otel.Tracer(tracerName),
		now:       time.Now,
	}
}

// Begin snapshots the live cart into a new draft. An empty cart creates
// nothing and returns ErrEmptyCart.
func (s *CheckoutService) Begin(ctx context.Context, userID, email string) (domain.CheckoutState, error) {
	if userID == "" {
		return domain.CheckoutState{}, &domain.AuthRequiredError{Action: "check out"}
	}
	cart, err := s.cart.Live(ctx, userID)
	if err != nil {
		return domain.CheckoutState{}, err
	}
	if cart.IsEmpty() {
		return domain.CheckoutState{}, domain.ErrEmptyCart
	}
	return s.drafts.Create(domain.CheckoutState{
		UserID:         userID,
		Email:          email,
		ShippingMethod: domain.ShippingStandard,
		Items:          cart.Items,
		StartedAt:      s.now().UTC(),
	}), nil
}

func (s *CheckoutService) Get(userID, checkoutID string) (domain.CheckoutState, error) {
	return s.drafts.Get(checkoutID, userID)
}

func (s *CheckoutService) SetShippingMethod(userID, checkoutID string, method domain.ShippingMethod) (domain.CheckoutState, error) {
	if !method.Valid() {
		return domain.CheckoutState{}, &domain.ValidationError{Field: "shipping_method", Message: "must be standard or express"}
	}
	return s.drafts.Update(checkoutID, userID, func(state *domain.CheckoutState) error {
		state.ShippingMethod = method
		return nil
	})
}

// SetDetails stores contact and address after validating them. An invalid
// form leaves the draft untouched.
func (s *CheckoutService) SetDetails(userID, checkoutID, email string, address domain.ShippingAddress) (domain.CheckoutState, error) {
	return s.drafts.Update(checkoutID, userID, func(state *domain.CheckoutState) error {
		next := *state
		next.Email = email
		next.ShippingAddress = address
		if err := next.ValidateDetails(); err != nil {
			return err
		}
		*state = next
		return nil
	})
}

// Quote prices the draft's snapshot.
func (s *CheckoutService) Quote(userID, checkoutID string) (pricing.Totals, error) {
	state, err := s.drafts.Get(checkoutID, userID)
	if err != nil {
		return pricing.Totals{}, err
	}
	return pricing.ComputeTotals(state.Items, state.ShippingMethod), nil
}

// PlaceOrder persists the draft as a pending order.
//
// The live cart must still match the snapshot taken by Begin, otherwise
// ErrCartChanged is returned and nothing is written. Once the order is stored
// the cart is cleared; a failed clear is logged and reported through
// CartCleared but does not undo the order.
func (s *CheckoutService) PlaceOrder(ctx context.Context, userID, checkoutID string) (PlaceOrderResult, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.PlaceOrder")
	defer span.End()
	log := logger.WithContext(ctx, s.logger).With(zap.String("user_id", userID), zap.String("checkout_id", checkoutID))

	result, err := s.placeOrder(ctx, log, userID, checkoutID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return PlaceOrderResult{}, err
	}
	span.SetAttributes(
		attribute.String("order.number", result.Order.OrderNumber),
		attribute.Bool("cart.cleared", result.CartCleared),
	)
	return result, nil
}

func (s *CheckoutService) placeOrder(ctx context.Context, log *zap.Logger, userID, checkoutID string) (PlaceOrderResult, error) {
	if userID == "" {
		return PlaceOrderResult{}, &domain.AuthRequiredError{Action: "place an order"}
	}
	state, err := s.drafts.Get(checkoutID, userID)
	if err != nil {
		return PlaceOrderResult{}, err
	}

	live, err := s.cart.Live(ctx, userID)
	if err != nil {
		return PlaceOrderResult{}, err
	}
	if !domain.SameContents(state.Items, live.Items) {
		if s.metrics != nil {
			s.metrics.CartChanged.Inc()
		}
		log.Info("cart changed during checkout")
		return PlaceOrderResult{}, domain.ErrCartChanged
	}

	order, err := pricing.AssembleOrder(state, userID, s.now())
	if err != nil {
		return PlaceOrderResult{}, err
	}
	fields, err := repository.Encode(order)
	if err != nil {
		return PlaceOrderResult{}, err
	}
	id, err := s.store.Add(ctx, s.ns.User(userID, repository.CollectionOrders), fields)
	if err != nil {
		log.Error("order not saved", zap.Error(err))
		return PlaceOrderResult{}, domain.Remote("place order", err)
	}
	order.ID = id
	log = log.With(zap.String("order_number", order.OrderNumber))

	result := PlaceOrderResult{Order: order, CartCleared: true}
	if err := s.cart.Clear(ctx, userID); err != nil {
		result.CartCleared = false
		log.Error("order placed but cart not cleared", zap.Error(err))
	}

	if s.publisher != nil {
		if err := s.publisher.PublishOrderPlaced(ctx, order); err != nil {
			log.Warn("order.placed not published", zap.Error(err))
		}
	}

	s.drafts.Delete(checkoutID)
	if s.metrics != nil {
		s.metrics.OrdersPlaced.Inc()
		s.metrics.OrderValue.Observe(order.Total.InexactFloat64())
	}
	log.Info("order placed", zap.String("total", order.Total.StringFixed(2)))
	return result, nil
}

// IsRedirectToShop reports errors after which the shopper goes back to the catalog.
func IsRedirectToShop(err error) bool {
	return errors.Is(err, domain.ErrEmptyCart)
}
