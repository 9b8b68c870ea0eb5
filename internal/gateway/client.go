package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	d "github.com/fjod/go_cart/storefront/domain"
)

const maxResponseBodySize = 1 << 20 // 1MB

// Gateway is the storefront's view of the inventory, order and customer backends.
// Calls are never retried; every failure surfaces as a *ServiceError, *ParseError
// or *TransportError.
type Gateway interface {
	FetchInventory(ctx context.Context) (*d.InventorySnapshot, error)
	SubmitOrder(ctx context.Context, request d.OrderRequest) (*OrderConfirmation, error)
	FetchCustomer(ctx context.Context, customerID int64) (*d.Customer, error)
	FetchOrderHistory(ctx context.Context, customerID int64) (*d.OrderHistory, error)
}

type OrderConfirmation struct {
	Order   d.Order
	Message string
}

// Endpoints holds the base URL of each backend, without a trailing slash.
type Endpoints struct {
	InventoryURL    string
	OrderURL        string
	CustomerURL     string
	OrderHistoryURL string
}

// Observer receives one call per backend request with its outcome
// ("ok", "service_error", "parse_error", "transport_error").
type Observer interface {
	ObserveBackendCall(service, outcome string, elapsed time.Duration)
}

type Options struct {
	ConnectTimeout     time.Duration
	RequestTimeout     time.Duration
	BreakerFailures    uint32
	BreakerOpenTimeout time.Duration
	Observer           Observer
	// Logger receives breaker state changes; nil discards them.
	Logger *zerolog.Logger
}

type HTTPGateway struct {
	client    *http.Client
	endpoints Endpoints
	breakers  map[string]*gobreaker.CircuitBreaker[*rawResponse]
	observer  Observer
	now       func() time.Time
}

func NewHTTPGateway(endpoints Endpoints, opts Options) *HTTPGateway {
	dialer := &net.Dialer{
		Timeout:   opts.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = dialer.DialContext

	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("component", "gateway").Logger()
	}

	breakers := make(map[string]*gobreaker.CircuitBreaker[*rawResponse], 4)
	for _, name := range []string{ServiceInventory, ServiceOrders, ServiceCustomers, ServiceOrderHistory} {
		breakers[name] = newBreaker(name, opts.BreakerFailures, opts.BreakerOpenTimeout, logger)
	}

	return &HTTPGateway{
		client: &http.Client{
			Transport: otelhttp.NewTransport(transport),
			Timeout:   opts.RequestTimeout,
		},
		endpoints: endpoints,
		breakers:  breakers,
		observer:  opts.Observer,
		now:       time.Now,
	}
}

type rawResponse struct {
	status int
	body   []byte
}

var errServerStatus = errors.New("server error status")

// do sends req through the backend's circuit breaker. 5xx answers count as
// breaker failures but are still returned to the caller as a response.
func (g *HTTPGateway) do(ctx context.Context, service string, req *http.Request) (*rawResponse, error) {
	if requestID := middleware.GetReqID(ctx); requestID != "" {
		req.Header.Set(middleware.RequestIDHeader, requestID)
	}
	req.Header.Set("Accept", "application/json")

	raw, err := g.breakers[service].Execute(func() (*rawResponse, error) {
		res, err := g.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer res.Body.Close()

		body, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBodySize))
		if err != nil {
			return nil, err
		}
		out := &rawResponse{status: res.StatusCode, body: body}
		if res.StatusCode >= http.StatusInternalServerError {
			return out, errServerStatus
		}
		return out, nil
	})
	if err != nil && !errors.Is(err, errServerStatus) {
		return nil, &TransportError{Service: service, Err: err}
	}

	zerolog.Ctx(ctx).Debug().
		Str("backend", service).
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Int("status", raw.status).
		Msg("backend call")
	return raw, nil
}

func (g *HTTPGateway) observe(service string, start time.Time, err error) {
	if g.observer == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		if kind := Kind(err); kind != "" {
			outcome = kind
		} else {
			outcome = "error"
		}
	}
	g.observer.ObserveBackendCall(service, outcome, time.Since(start))
}

func (g *HTTPGateway) FetchInventory(ctx context.Context) (_ *d.InventorySnapshot, err error) {
	defer func(start time.Time) { g.observe(ServiceInventory, start, err) }(time.Now())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoints.InventoryURL+"/api/inventory/all", nil)
	if err != nil {
		return nil, fmt.Errorf("build inventory request: %w", err)
	}
	raw, err := g.do(ctx, ServiceInventory, req)
	if err != nil {
		return nil, err
	}
	if raw.status != http.StatusOK {
		return nil, &ServiceError{Service: ServiceInventory, StatusCode: raw.status, Message: errorMessage(raw.body)}
	}

	var payload inventoryResponse
	if err = decode(ServiceInventory, raw.body, &payload); err != nil {
		return nil, err
	}
	if payload.Success == nil {
		return nil, &ParseError{Service: ServiceInventory, Err: missingField("success")}
	}
	if !*payload.Success {
		return nil, &ServiceError{Service: ServiceInventory, StatusCode: raw.status, Message: "inventory reported failure"}
	}
	if payload.Products == nil {
		return nil, &ParseError{Service: ServiceInventory, Err: missingField("products")}
	}

	products := make([]d.Product, 0, len(payload.Products))
	for _, p := range payload.Products {
		product, convErr := p.toDomain()
		if convErr != nil {
			return nil, &ParseError{Service: ServiceInventory, Err: convErr}
		}
		products = append(products, product)
	}
	return d.NewInventorySnapshot(products, g.now()), nil
}

func (g *HTTPGateway) SubmitOrder(ctx context.Context, request d.OrderRequest) (_ *OrderConfirmation, err error) {
	defer func(start time.Time) { g.observe(ServiceOrders, start, err) }(time.Now())

	body, err := json.Marshal(createOrderRequest{
		CustomerID:  request.CustomerID,
		Products:    request.Lines,
		TotalAmount: request.TotalAmount,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal order request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoints.OrderURL+"/api/orders/create", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if request.IdempotencyKey != "" {
		req.Header.Set("Idempotency-Key", request.IdempotencyKey)
	}

	raw, err := g.do(ctx, ServiceOrders, req)
	if err != nil {
		return nil, err
	}
	if raw.status != http.StatusOK && raw.status != http.StatusCreated {
		return nil, &ServiceError{Service: ServiceOrders, StatusCode: raw.status, Message: errorMessage(raw.body)}
	}

	var payload createOrderResponse
	if err = decode(ServiceOrders, raw.body, &payload); err != nil {
		return nil, err
	}
	if payload.Success == nil {
		return nil, &ParseError{Service: ServiceOrders, Err: missingField("success")}
	}
	if !*payload.Success {
		msg := payload.Message
		if msg == "" {
			msg = payload.Error
		}
		return nil, &ServiceError{Service: ServiceOrders, StatusCode: raw.status, Message: msg}
	}
	if payload.Order == nil {
		return nil, &ParseError{Service: ServiceOrders, Err: missingField("order")}
	}
	order, convErr := payload.Order.toDomain()
	if convErr != nil {
		return nil, &ParseError{Service: ServiceOrders, Err: convErr}
	}
	return &OrderConfirmation{Order: order, Message: payload.Message}, nil
}

func (g *HTTPGateway) FetchCustomer(ctx context.Context, customerID int64) (_ *d.Customer, err error) {
	defer func(start time.Time) { g.observe(ServiceCustomers, start, err) }(time.Now())

	url := fmt.Sprintf("%s/api/customers/%d", g.endpoints.CustomerURL, customerID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build customer request: %w", err)
	}
	raw, err := g.do(ctx, ServiceCustomers, req)
	if err != nil {
		return nil, err
	}
	if raw.status != http.StatusOK {
		return nil, &ServiceError{Service: ServiceCustomers, StatusCode: raw.status, Message: errorMessage(raw.body)}
	}

	var payload customerResponse
	if err = decode(ServiceCustomers, raw.body, &payload); err != nil {
		return nil, err
	}
	c := payload.Customer
	switch {
	case c == nil:
		return nil, &ParseError{Service: ServiceCustomers, Err: missingField("customer")}
	case c.CustomerID == nil:
		return nil, &ParseError{Service: ServiceCustomers, Err: missingField("customer_id")}
	case c.Name == nil:
		return nil, &ParseError{Service: ServiceCustomers, Err: missingField("name")}
	}
	return &d.Customer{
		CustomerID:    *c.CustomerID,
		Name:          *c.Name,
		Email:         c.Email,
		Phone:         c.Phone,
		LoyaltyPoints: c.LoyaltyPoints,
		CreatedAt:     c.CreatedAt,
	}, nil
}

func (g *HTTPGateway) FetchOrderHistory(ctx context.Context, customerID int64) (_ *d.OrderHistory, err error) {
	defer func(start time.Time) { g.observe(ServiceOrderHistory, start, err) }(time.Now())

	url := fmt.Sprintf("%s/api/customers/%d/orders", g.endpoints.OrderHistoryURL, customerID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build order history request: %w", err)
	}
	raw, err := g.do(ctx, ServiceOrderHistory, req)
	if err != nil {
		return nil, err
	}
	if raw.status != http.StatusOK {
		return nil, &ServiceError{Service: ServiceOrderHistory, StatusCode: raw.status, Message: errorMessage(raw.body)}
	}

	var payload orderHistoryResponse
	if err = decode(ServiceOrderHistory, raw.body, &payload); err != nil {
		return nil, err
	}
	s := payload.OrderSummary
	switch {
	case s == nil:
		return nil, &ParseError{Service: ServiceOrderHistory, Err: missingField("order_summary")}
	case s.TotalOrders == nil:
		return nil, &ParseError{Service: ServiceOrderHistory, Err: missingField("total_orders")}
	case s.TotalSpent == nil:
		return nil, &ParseError{Service: ServiceOrderHistory, Err: missingField("total_spent")}
	case payload.Orders == nil:
		return nil, &ParseError{Service: ServiceOrderHistory, Err: missingField("orders")}
	}

	orders := make([]d.Order, 0, len(payload.Orders))
	for i := range payload.Orders {
		order, convErr := payload.Orders[i].toDomain()
		if convErr != nil {
			return nil, &ParseError{Service: ServiceOrderHistory, Err: convErr}
		}
		orders = append(orders, order)
	}
	return &d.OrderHistory{
		Summary: d.OrderSummary{TotalOrders: *s.TotalOrders, TotalSpent: *s.TotalSpent},
		Orders:  orders,
	}, nil
}

func decode(service string, body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return &ParseError{Service: service, Err: err}
	}
	return nil
}

// errorMessage pulls a human readable reason out of an error body, if there is one.
func errorMessage(body []byte) string {
	var e struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &e) != nil {
		return ""
	}
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}
