package service

import (
	"context"
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/gateway"

	d "github.com/fjod/go_cart/storefront/domain"
)

const (
	OrderFailedMessage    = "Order could not be placed. Your cart has been kept so you can try again."
	OrderConfirmedMessage = "Order placed successfully."
)

type OrderSubmitter interface {
	SubmitOrder(ctx context.Context, request d.OrderRequest) (*gateway.OrderConfirmation, error)
}

// Workflow drives a single order submission attempt. It is not reusable: a
// new attempt needs a new Workflow.
type Workflow struct {
	submitter OrderSubmitter
	newKey    func() string
	onSubmit  func(d.OrderRequest) error
	state     d.SubmissionState
	request   *d.OrderRequest
}

func NewWorkflow(submitter OrderSubmitter, newKey func() string) *Workflow {
	return &Workflow{
		submitter: submitter,
		newKey:    newKey,
		state:     d.SubmissionNotStarted,
	}
}

// OnSubmit registers fn to run with the built request right before it is
// sent. If fn fails the attempt stops in VALIDATING and nothing is sent.
func (w *Workflow) OnSubmit(fn func(d.OrderRequest) error) {
	w.onSubmit = fn
}

func (w *Workflow) State() d.SubmissionState {
	return w.state
}

// Request returns the order request sent to the backend, or nil if the attempt
// never reached SUBMITTING.
func (w *Workflow) Request() *d.OrderRequest {
	return w.request
}

func (w *Workflow) transition(to d.SubmissionState) error {
	if !d.CanTransitionTo(w.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, w.state, to)
	}
	w.state = to
	return nil
}

// Run submits the cart as an order for customerID. The cart is cleared only
// when the order service confirms the order. The caller must hold the session
// lock for the whole call.
func (w *Workflow) Run(ctx context.Context, customerID int64, cart *d.Cart, inventory *d.InventorySnapshot) (d.OrderSubmissionResult, error) {
	if err := w.transition(d.SubmissionValidating); err != nil {
		return d.OrderSubmissionResult{State: w.state}, err
	}

	switch {
	case customerID < 0:
		return w.reject(ErrInvalidCustomer)
	case customerID == 0:
		return w.reject(ErrMissingCustomer)
	case cart.IsEmpty():
		return w.reject(ErrEmptyCart)
	}

	request := w.buildRequest(customerID, cart.Snapshot(), inventory)
	if w.onSubmit != nil {
		if err := w.onSubmit(request); err != nil {
			return d.OrderSubmissionResult{State: w.state}, fmt.Errorf("record submission: %w", err)
		}
	}
	if err := w.transition(d.SubmissionSubmitting); err != nil {
		return d.OrderSubmissionResult{State: w.state}, err
	}
	w.request = &request

	// once submitted, the outcome must be observed even if the shopper disconnects
	confirmation, err := w.submitter.SubmitOrder(context.WithoutCancel(ctx), request)
	if err != nil {
		if terr := w.transition(d.SubmissionFailed); terr != nil {
			return d.OrderSubmissionResult{State: w.state}, terr
		}
		return d.OrderSubmissionResult{
			Succeeded: false,
			Message:   OrderFailedMessage,
			State:     w.state,
		}, err
	}

	if err := w.transition(d.SubmissionConfirmed); err != nil {
		return d.OrderSubmissionResult{State: w.state}, err
	}
	cart.Clear()

	message := confirmation.Message
	if message == "" {
		message = OrderConfirmedMessage
	}
	order := confirmation.Order
	return d.OrderSubmissionResult{
		Succeeded: true,
		Message:   message,
		Order:     &order,
		State:     w.state,
	}, nil
}

func (w *Workflow) reject(reason error) (d.OrderSubmissionResult, error) {
	if err := w.transition(d.SubmissionRejected); err != nil {
		return d.OrderSubmissionResult{State: w.state}, err
	}
	return d.OrderSubmissionResult{
		Succeeded: false,
		Message:   reason.Error(),
		State:     w.state,
	}, invalid(reason)
}

// buildRequest copies every cart entry verbatim. The total is the calculator's
// total over the entries it could price; it is omitted when no inventory
// snapshot has been loaded yet.
func (w *Workflow) buildRequest(customerID int64, cart d.CartSnapshot, inventory *d.InventorySnapshot) d.OrderRequest {
	entries := cart.Entries()
	lines := make([]d.OrderLine, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, d.OrderLine{ProductID: e.ProductID, Quantity: e.Quantity})
	}

	request := d.OrderRequest{
		CustomerID:     customerID,
		Lines:          lines,
		IdempotencyKey: w.newKey(),
	}
	if inventory != nil {
		summary, _ := checkout.Compute(cart, inventory)
		total := summary.Total
		request.TotalAmount = &total
	}
	return request
}
