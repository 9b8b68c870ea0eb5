package gateway

import (
	"github.com/shopspring/decimal"

	d "github.com/fjod/go_cart/storefront/domain"
)

// Wire shapes of the backend services. Pointer fields are required; a nil after
// decoding is reported as a ParseError.

type inventoryResponse struct {
	Success  *bool              `json:"success"`
	Count    int                `json:"count"`
	Products []inventoryProduct `json:"products"`
}

type inventoryProduct struct {
	ProductID         *int64           `json:"product_id"`
	ProductName       *string          `json:"product_name"`
	QuantityAvailable *int             `json:"quantity_available"`
	UnitPrice         *decimal.Decimal `json:"unit_price"`
}

func (p inventoryProduct) toDomain() (d.Product, error) {
	switch {
	case p.ProductID == nil:
		return d.Product{}, missingField("product_id")
	case p.ProductName == nil:
		return d.Product{}, missingField("product_name")
	case p.QuantityAvailable == nil:
		return d.Product{}, missingField("quantity_available")
	case p.UnitPrice == nil:
		return d.Product{}, missingField("unit_price")
	}
	return d.Product{
		ProductID:         *p.ProductID,
		Name:              *p.ProductName,
		QuantityAvailable: *p.QuantityAvailable,
		UnitPrice:         *p.UnitPrice,
	}, nil
}

type createOrderRequest struct {
	CustomerID  int64            `json:"customer_id"`
	Products    []d.OrderLine    `json:"products"`
	TotalAmount *decimal.Decimal `json:"total_amount,omitempty"`
}

type orderLine struct {
	ProductID *int64 `json:"product_id"`
	Quantity  *int   `json:"quantity"`
}

type createOrderResponse struct {
	Success *bool         `json:"success"`
	Message string        `json:"message"`
	Error   string        `json:"error"`
	Order   *orderPayload `json:"order"`
}

type orderPayload struct {
	OrderID     *int64           `json:"order_id"`
	CustomerID  *int64           `json:"customer_id"`
	Status      *string          `json:"status"`
	CreatedAt   *string          `json:"created_at"`
	TotalAmount *decimal.Decimal `json:"total_amount"`
	Products    []orderLine      `json:"products"`
	Items       []orderLine      `json:"items"`
}

func (o *orderPayload) toDomain() (d.Order, error) {
	switch {
	case o.OrderID == nil:
		return d.Order{}, missingField("order_id")
	case o.CustomerID == nil:
		return d.Order{}, missingField("customer_id")
	case o.Status == nil:
		return d.Order{}, missingField("status")
	case o.CreatedAt == nil:
		return d.Order{}, missingField("created_at")
	case o.TotalAmount == nil:
		return d.Order{}, missingField("total_amount")
	}

	// order creation answers with "products", order history with "items"
	wire := o.Products
	if wire == nil {
		wire = o.Items
	}
	if wire == nil {
		return d.Order{}, missingField("products")
	}
	lines := make([]d.OrderLine, 0, len(wire))
	for _, l := range wire {
		if l.ProductID == nil || l.Quantity == nil {
			return d.Order{}, missingField("product_id/quantity")
		}
		lines = append(lines, d.OrderLine{ProductID: *l.ProductID, Quantity: *l.Quantity})
	}

	return d.Order{
		OrderID:     *o.OrderID,
		CustomerID:  *o.CustomerID,
		Status:      *o.Status,
		CreatedAt:   *o.CreatedAt,
		TotalAmount: *o.TotalAmount,
		Lines:       lines,
	}, nil
}

type customerResponse struct {
	Customer *customerPayload `json:"customer"`
}

type customerPayload struct {
	CustomerID    *int64  `json:"customer_id"`
	Name          *string `json:"name"`
	Email         string  `json:"email"`
	Phone         string  `json:"phone"`
	LoyaltyPoints int     `json:"loyalty_points"`
	CreatedAt     string  `json:"created_at"`
}

type orderHistoryResponse struct {
	OrderSummary *struct {
		TotalOrders *int             `json:"total_orders"`
		TotalSpent  *decimal.Decimal `json:"total_spent"`
	} `json:"order_summary"`
	Orders []orderPayload `json:"orders"`
}
