package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/gateway"
	"github.com/fjod/go_cart/storefront/internal/service"

	d "github.com/fjod/go_cart/storefront/domain"
)

type Storefront interface {
	BindCustomer(ctx context.Context, sessionID string, customerID int64) error
	EndSession(ctx context.Context, sessionID string) error
	Browse(ctx context.Context, sessionID string) (service.Catalog, error)
	AddItem(ctx context.Context, sessionID string, productID int64) (d.CartSnapshot, error)
	RemoveItem(ctx context.Context, sessionID string, productID int64) (d.CartSnapshot, error)
	ClearCart(ctx context.Context, sessionID string) error
	Cart(ctx context.Context, sessionID string) (d.CartSnapshot, error)
	Checkout(ctx context.Context, sessionID string) (d.CheckoutSummary, checkout.Diagnostics, error)
	PlaceOrder(ctx context.Context, sessionID string, customerID int64) (d.OrderSubmissionResult, error)
	Customer(ctx context.Context, sessionID string) (*d.Customer, error)
	OrderHistory(ctx context.Context, sessionID string) (*d.OrderHistory, error)
}

type StorefrontHandler struct {
	storefront Storefront
	timeout    time.Duration
}

func NewStorefrontHandler(storefront Storefront, timeout time.Duration) *StorefrontHandler {
	return &StorefrontHandler{
		storefront: storefront,
		timeout:    timeout,
	}
}

type CustomerRequestDTO struct {
	CustomerID int64 `json:"customer_id"`
}

type CartItemDTO struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type CartResponseDTO struct {
	Items      []CartItemDTO `json:"items"`
	TotalItems int           `json:"total_items"`
}

type LineItemDTO struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type CheckoutResponseDTO struct {
	Items   []LineItemDTO       `json:"items"`
	Total   decimal.Decimal     `json:"total"`
	Omitted []checkout.Omission `json:"omitted"`
}

type OrderResultDTO struct {
	State     d.SubmissionState `json:"state"`
	Succeeded bool              `json:"succeeded"`
	Message   string            `json:"message"`
	Code      string            `json:"code,omitempty"`
	Order     *d.Order          `json:"order,omitempty"`
}

// POST /api/v1/session
func (h *StorefrontHandler) BindCustomer(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CustomerRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.CustomerID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_customer_id", "customer_id must be positive")
		return
	}

	if err := h.storefront.BindCustomer(ctx, getSessionID(r.Context()), req.CustomerID); err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, req)
}

// DELETE /api/v1/session
func (h *StorefrontHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.storefront.EndSession(ctx, getSessionID(r.Context())); err != nil {
		handleServiceError(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: SessionCookieName, Value: "", Path: "/", MaxAge: -1})
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/products
func (h *StorefrontHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	catalog, err := h.storefront.Browse(ctx, getSessionID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, catalog)
}

// GET /api/v1/cart
func (h *StorefrontHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cart, err := h.storefront.Cart(ctx, getSessionID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, convertCart(cart))
}

// POST /api/v1/cart/items/{product_id}
func (h *StorefrontHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	h.changeItem(w, r, h.storefront.AddItem)
}

// DELETE /api/v1/cart/items/{product_id}
func (h *StorefrontHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	h.changeItem(w, r, h.storefront.RemoveItem)
}

func (h *StorefrontHandler) changeItem(
	w http.ResponseWriter,
	r *http.Request,
	change func(context.Context, string, int64) (d.CartSnapshot, error)) {

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return
	}

	cart, err := change(ctx, getSessionID(r.Context()), productID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, convertCart(cart))
}

// DELETE /api/v1/cart
func (h *StorefrontHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.storefront.ClearCart(ctx, getSessionID(r.Context())); err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, CartResponseDTO{Items: []CartItemDTO{}})
}

// GET /api/v1/checkout
func (h *StorefrontHandler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	summary, diag, err := h.storefront.Checkout(ctx, getSessionID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	items := make([]LineItemDTO, 0, len(summary.Items))
	for _, item := range summary.Items {
		items = append(items, LineItemDTO{
			ProductID:   item.Product.ProductID,
			ProductName: item.Product.Name,
			UnitPrice:   item.Product.UnitPrice,
			Quantity:    item.Quantity,
			Subtotal:    item.Subtotal,
		})
	}
	omitted := diag.Omitted
	if omitted == nil {
		omitted = []checkout.Omission{}
	}
	respondJSON(w, http.StatusOK, CheckoutResponseDTO{
		Items:   items,
		Total:   summary.Total,
		Omitted: omitted,
	})
}

// POST /api/v1/orders
func (h *StorefrontHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	// body is optional; without it the customer bound to the session is used
	var req CustomerRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	result, err := h.storefront.PlaceOrder(ctx, getSessionID(r.Context()), req.CustomerID)
	dto := OrderResultDTO{
		State:     result.State,
		Succeeded: result.Succeeded,
		Message:   result.Message,
		Order:     result.Order,
	}

	switch result.State {
	case d.SubmissionConfirmed:
		respondJSON(w, http.StatusCreated, dto)
	case d.SubmissionRejected:
		dto.Code = validationCode(err)
		respondJSON(w, http.StatusUnprocessableEntity, dto)
	case d.SubmissionFailed:
		dto.Code = gateway.Kind(err)
		respondJSON(w, http.StatusBadGateway, dto)
	default:
		handleServiceError(w, r, err)
	}
}

// GET /api/v1/orders
func (h *StorefrontHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	history, err := h.storefront.OrderHistory(ctx, getSessionID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if history.Orders == nil {
		history.Orders = []d.Order{}
	}
	respondJSON(w, http.StatusOK, history)
}

// GET /api/v1/customer
func (h *StorefrontHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	customer, err := h.storefront.Customer(ctx, getSessionID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, customer)
}

func convertCart(cart d.CartSnapshot) CartResponseDTO {
	entries := cart.Entries()
	dto := CartResponseDTO{Items: make([]CartItemDTO, 0, len(entries))}
	for _, e := range entries {
		dto.Items = append(dto.Items, CartItemDTO{ProductID: e.ProductID, Quantity: e.Quantity})
		dto.TotalItems += e.Quantity
	}
	return dto
}
