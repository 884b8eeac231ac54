package validation

// Item represents a single order line in the checkout payload.
type Item struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name" validate:"required"`
	UnitPrice float64 `json:"unit_price" validate:"required,gt=0"` // price per unit
	Quantity  int     `json:"quantity" validate:"required,min=1"`  // must be >= 1
}

// Customer is the contact block of the checkout payload. Address is only
// required for delivery orders; that rule is struct-level on the request.
type Customer struct {
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone" validate:"required"`
	Address string `json:"address,omitempty"`
}

// CreateOrderRequest is the payload for POST /orders.
type CreateOrderRequest struct {
	Items     []Item   `json:"items" validate:"required,min=1,dive"` // at least one item
	Customer  Customer `json:"customer" validate:"required"`
	OrderType string   `json:"order_type" validate:"required,oneof=delivery pickup"`
	Priority  string   `json:"priority,omitempty" validate:"omitempty,oneof=normal high"`
	Amount    *float64 `json:"amount,omitempty"` // total the client claims; checked against items when present
}

// TransitionRequest is the payload for POST /orders/:id/transitions.
type TransitionRequest struct {
	To     string `json:"to" validate:"required"`
	Reason string `json:"reason,omitempty"`
}

// ProgressRequest is the payload for PATCH /orders/:id/progress.
type ProgressRequest struct {
	Progress *int `json:"progress" validate:"required,min=0,max=100"`
}
