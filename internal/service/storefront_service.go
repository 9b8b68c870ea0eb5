package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/gateway"
	"github.com/fjod/go_cart/storefront/internal/metrics"
	"github.com/fjod/go_cart/storefront/internal/publisher"
	"github.com/fjod/go_cart/storefront/internal/session"

	d "github.com/fjod/go_cart/storefront/domain"
)

const InventoryUnavailableMessage = "Inventory service is currently unavailable."

type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, event publisher.OrderPlaced) error
}

// Catalog is what a shopper sees when browsing. A failed inventory fetch is
// reported through Unavailable rather than as an error.
type Catalog struct {
	Products    []d.Product `json:"products"`
	Unavailable bool        `json:"unavailable"`
	Message     string      `json:"error,omitempty"`
}

type StorefrontService struct {
	gateway   gateway.Gateway
	sessions  *session.Manager
	events    EventPublisher
	metrics   *metrics.Registry
	inventory singleflight.Group
	newKey    func() string
	now       func() time.Time
}

// NewStorefrontService wires the storefront. events and m may be nil.
func NewStorefrontService(gw gateway.Gateway, sessions *session.Manager, events EventPublisher, m *metrics.Registry) *StorefrontService {
	return &StorefrontService{
		gateway:  gw,
		sessions: sessions,
		events:   events,
		metrics:  m,
		newKey:   uuid.NewString,
		now:      time.Now,
	}
}

func (s *StorefrontService) BindCustomer(ctx context.Context, sessionID string, customerID int64) error {
	if customerID <= 0 {
		return invalid(ErrMissingCustomer)
	}
	return s.sessions.Update(ctx, sessionID, func(st *session.State) error {
		st.CustomerID = customerID
		return nil
	})
}

// EndSession drops the session together with its cart.
func (s *StorefrontService) EndSession(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}

// Browse refreshes the session's inventory snapshot. Concurrent refreshes
// share a single backend call. On failure the previous snapshot is kept and an
// empty, unavailable catalog is returned.
func (s *StorefrontService) Browse(ctx context.Context, sessionID string) (Catalog, error) {
	logger := zerolog.Ctx(ctx)

	v, err, shared := s.inventory.Do("inventory", func() (any, error) {
		return s.gateway.FetchInventory(context.WithoutCancel(ctx))
	})
	if err != nil {
		logger.Warn().Err(err).Str("kind", gateway.Kind(err)).Msg("inventory fetch failed")
		s.metrics.InventoryFetched(false)
		return Catalog{
			Products:    []d.Product{},
			Unavailable: true,
			Message:     InventoryUnavailableMessage,
		}, nil
	}
	s.metrics.InventoryFetched(true)

	snapshot := v.(*d.InventorySnapshot)
	logger.Debug().Int("products", snapshot.Len()).Bool("shared", shared).Msg("inventory refreshed")

	err = s.sessions.Update(ctx, sessionID, func(st *session.State) error {
		st.Inventory = snapshot
		return nil
	})
	if err != nil {
		return Catalog{}, fmt.Errorf("store inventory snapshot: %w", err)
	}
	return Catalog{Products: snapshot.List()}, nil
}

func (s *StorefrontService) AddItem(ctx context.Context, sessionID string, productID int64) (d.CartSnapshot, error) {
	return s.mutateCart(ctx, sessionID, productID, "add", func(c *d.Cart) { c.Add(productID) })
}

// RemoveItem takes one unit of productID out of the cart. Removing a product
// that is not in the cart is a no-op.
func (s *StorefrontService) RemoveItem(ctx context.Context, sessionID string, productID int64) (d.CartSnapshot, error) {
	return s.mutateCart(ctx, sessionID, productID, "remove", func(c *d.Cart) { c.Remove(productID) })
}

func (s *StorefrontService) ClearCart(ctx context.Context, sessionID string) error {
	err := s.sessions.Update(ctx, sessionID, func(st *session.State) error {
		st.Cart.Clear()
		return nil
	})
	if err != nil {
		return err
	}
	s.metrics.CartMutated("clear")
	return nil
}

func (s *StorefrontService) mutateCart(ctx context.Context, sessionID string, productID int64, action string, fn func(*d.Cart)) (d.CartSnapshot, error) {
	if productID <= 0 {
		return d.CartSnapshot{}, invalid(ErrInvalidProduct)
	}

	var snapshot d.CartSnapshot
	err := s.sessions.Update(ctx, sessionID, func(st *session.State) error {
		fn(&st.Cart)
		snapshot = st.Cart.Snapshot()
		return nil
	})
	if err != nil {
		return d.CartSnapshot{}, err
	}

	s.metrics.CartMutated(action)
	zerolog.Ctx(ctx).Debug().
		Str("action", action).
		Int64("product_id", productID).
		Int("entries", snapshot.Len()).
		Msg("cart updated")
	return snapshot, nil
}

func (s *StorefrontService) Cart(ctx context.Context, sessionID string) (d.CartSnapshot, error) {
	st, err := s.sessions.View(ctx, sessionID)
	if err != nil {
		return d.CartSnapshot{}, err
	}
	return st.Cart.Snapshot(), nil
}

// Checkout prices the cart against the last inventory snapshot the session saw.
func (s *StorefrontService) Checkout(ctx context.Context, sessionID string) (d.CheckoutSummary, checkout.Diagnostics, error) {
	st, err := s.sessions.View(ctx, sessionID)
	if err != nil {
		return d.CheckoutSummary{}, checkout.Diagnostics{}, err
	}

	summary, diag := checkout.Compute(st.Cart.Snapshot(), st.Inventory)
	if diag.HasOmissions() {
		s.metrics.EntriesOmitted(len(diag.Omitted))
		zerolog.Ctx(ctx).Info().Int("omitted", len(diag.Omitted)).Msg("checkout skipped unavailable cart entries")
	}
	return summary, diag, nil
}

// PlaceOrder submits the session's cart. The session stays locked from reading
// the cart until the cart is cleared, so a concurrent second attempt waits and
// then finds an empty cart. A positive customerID is bound to the session
// first, a zero one falls back to the bound customer.
//
// The attempt is recorded in the session before the order service is called.
// Until its outcome is final, resubmitting the same cart reuses its
// idempotency key, so an order confirmed upstream but never cleared locally is
// not placed twice.
func (s *StorefrontService) PlaceOrder(ctx context.Context, sessionID string, customerID int64) (d.OrderSubmissionResult, error) {
	logger := zerolog.Ctx(ctx)

	var (
		result   d.OrderSubmissionResult
		runErr   error
		workflow *Workflow
	)
	err := s.sessions.UpdateStaged(ctx, sessionID, func(st *session.State, save func() error) error {
		if customerID > 0 {
			st.CustomerID = customerID
		}
		if customerID == 0 {
			customerID = st.CustomerID
		}

		key := s.newKey()
		if st.Pending.Matches(st.Cart.Snapshot()) {
			key = st.Pending.IdempotencyKey
			logger.Info().Str("idempotency_key", key).Msg("resubmitting unresolved order attempt")
		}

		workflow = NewWorkflow(s.gateway, func() string { return key })
		workflow.OnSubmit(func(request d.OrderRequest) error {
			st.Pending = &session.PendingSubmission{
				IdempotencyKey: request.IdempotencyKey,
				Lines:          request.Lines,
				StartedAt:      s.now().UTC(),
			}
			return save()
		})
		result, runErr = workflow.Run(ctx, customerID, &st.Cart, st.Inventory)

		switch result.State {
		case d.SubmissionConfirmed:
			st.Pending = nil
		case d.SubmissionFailed:
			if isFinalRejection(runErr) {
				st.Pending = nil
			}
		case d.SubmissionRejected:
		default:
			return runErr
		}
		return nil
	})
	if err != nil {
		if result.State != d.SubmissionConfirmed {
			return d.OrderSubmissionResult{}, err
		}
		// the pending attempt is still recorded, so a retry reuses its key
		logger.Error().Err(err).Str("session_id", sessionID).Msg("confirmed order but failed to persist cleared cart")
	}

	s.metrics.SubmissionFinished(result.State.String())
	event := logger.Info()
	if runErr != nil {
		event = logger.Warn().Err(runErr).Str("kind", gateway.Kind(runErr))
	}
	event.Str("state", result.State.String()).Int64("customer_id", customerID).Msg("order submission finished")

	if result.State == d.SubmissionConfirmed {
		s.publishOrderPlaced(ctx, sessionID, result.Order, workflow.Request())
	}
	return result, runErr
}

// isFinalRejection reports whether the order service definitely did not create
// the order. Server errors, timeouts and unreadable bodies leave it unknown.
func isFinalRejection(err error) bool {
	var se *gateway.ServiceError
	return errors.As(err, &se) && se.StatusCode < 500
}

func (s *StorefrontService) publishOrderPlaced(ctx context.Context, sessionID string, order *d.Order, request *d.OrderRequest) {
	if s.events == nil || order == nil {
		return
	}

	lines := order.Lines
	if len(lines) == 0 && request != nil {
		lines = request.Lines
	}
	event := publisher.OrderPlaced{
		OrderID:     order.OrderID,
		CustomerID:  order.CustomerID,
		SessionID:   sessionID,
		Status:      order.Status,
		TotalAmount: order.TotalAmount,
		Lines:       lines,
		PlacedAt:    s.now().UTC(),
	}
	if err := s.events.PublishOrderPlaced(context.WithoutCancel(ctx), event); err != nil {
		s.metrics.OrderEventFailed()
		zerolog.Ctx(ctx).Error().Err(err).Int64("order_id", order.OrderID).Msg("failed to publish order event")
	}
}

func (s *StorefrontService) Customer(ctx context.Context, sessionID string) (*d.Customer, error) {
	customerID, err := s.boundCustomer(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.gateway.FetchCustomer(ctx, customerID)
}

func (s *StorefrontService) OrderHistory(ctx context.Context, sessionID string) (*d.OrderHistory, error) {
	customerID, err := s.boundCustomer(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.gateway.FetchOrderHistory(ctx, customerID)
}

func (s *StorefrontService) boundCustomer(ctx context.Context, sessionID string) (int64, error) {
	st, err := s.sessions.View(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	if !st.HasCustomer() {
		return 0, invalid(ErrMissingCustomer)
	}
	return st.CustomerID, nil
}
