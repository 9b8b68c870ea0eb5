package domain

import "github.com/shopspring/decimal"

type OrderLine struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// OrderRequest is built once per submission attempt from the cart contents.
type OrderRequest struct {
	CustomerID     int64
	Lines          []OrderLine
	TotalAmount    *decimal.Decimal
	IdempotencyKey string
}

type Order struct {
	OrderID     int64           `json:"order_id"`
	CustomerID  int64           `json:"customer_id"`
	Status      string          `json:"status"`
	CreatedAt   string          `json:"created_at"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Lines       []OrderLine     `json:"products"`
}

type OrderSubmissionResult struct {
	Succeeded bool            `json:"succeeded"`
	Message   string          `json:"message"`
	Order     *Order          `json:"order,omitempty"`
	State     SubmissionState `json:"state"`
}

type Customer struct {
	CustomerID    int64  `json:"customer_id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	LoyaltyPoints int    `json:"loyalty_points"`
	CreatedAt     string `json:"created_at"`
}

type OrderSummary struct {
	TotalOrders int             `json:"total_orders"`
	TotalSpent  decimal.Decimal `json:"total_spent"`
}

type OrderHistory struct {
	Summary OrderSummary `json:"order_summary"`
	Orders  []Order      `json:"orders"`
}
