package orders

import (
	"errors"
	"time"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusNew        Status = "new"
	StatusAccepted   Status = "accepted"
	StatusPreparing  Status = "preparing"
	StatusReady      Status = "ready"
	StatusDelivering Status = "delivering"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// OrderType selects the tail of the lifecycle: delivery orders pass through
// delivering, pickup orders complete straight from ready.
type OrderType string

const (
	TypeDelivery OrderType = "delivery"
	TypePickup   OrderType = "pickup"
)

// Priority is set at creation and never changes.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Typed failures of the lifecycle operations. The HTTP layer maps these to
// response codes; none of them leave the collection in a partial state.
var (
	ErrEmptyCart              = errors.New("order has no items")
	ErrIncompleteCustomerInfo = errors.New("incomplete customer info")
	ErrOrderNotFound          = errors.New("order not found")
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrStockUnavailable       = errors.New("stock unavailable")
)

// Item is a single order line. Lines are immutable once the order leaves new.
type Item struct {
	ProductID string  `json:"product_id" dynamodbav:"product_id"`
	Name      string  `json:"name" dynamodbav:"name"`
	UnitPrice float64 `json:"unit_price" dynamodbav:"unit_price"`
	Quantity  int     `json:"quantity" dynamodbav:"quantity"`
}

// Subtotal is the line total.
func (i Item) Subtotal() float64 {
	return i.UnitPrice * float64(i.Quantity)
}

// Customer holds contact details; Address is required for delivery orders.
type Customer struct {
	Name    string `json:"name" dynamodbav:"name"`
	Phone   string `json:"phone" dynamodbav:"phone"`
	Address string `json:"address,omitempty" dynamodbav:"address,omitempty"`
}

// Order represents the item stored in the orders DynamoDB table.
type Order struct {
	ID           string    `json:"id" dynamodbav:"order_id"` // PK
	Number       string    `json:"order_number" dynamodbav:"order_number"`
	Items        []Item    `json:"items" dynamodbav:"items"`
	Customer     Customer  `json:"customer" dynamodbav:"customer"`
	Type         OrderType `json:"order_type" dynamodbav:"order_type"`
	Status       Status    `json:"status" dynamodbav:"status"`
	Total        float64   `json:"total" dynamodbav:"total"`
	Priority     Priority  `json:"priority" dynamodbav:"priority"`
	Progress     int       `json:"progress,omitempty" dynamodbav:"progress,omitempty"` // advisory, kitchen display only
	CancelReason string    `json:"cancel_reason,omitempty" dynamodbav:"cancel_reason,omitempty"`
	CreatedAt    time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

// ComputeTotal sums line subtotals. Total is always derived from Items,
// never maintained independently.
func ComputeTotal(items []Item) float64 {
	var sum float64
	for _, it := range items {
		sum += it.Subtotal()
	}
	return sum
}

// Terminal reports whether the order can make no further progress.
func (o *Order) Terminal() bool {
	return o.Status == StatusDelivered || o.Status == StatusCancelled
}

// transitions is the single authoritative table of legal status edges.
// Order-type guards on the ready edges live in CanTransition.
var transitions = map[Status][]Status{
	StatusNew:        {StatusAccepted, StatusCancelled},
	StatusAccepted:   {StatusPreparing, StatusCancelled},
	StatusPreparing:  {StatusReady},
	StatusReady:      {StatusDelivering, StatusDelivered},
	StatusDelivering: {StatusDelivered},
}

// CanTransition reports whether the order may move to target from its
// current status. Pickup orders complete directly from ready; delivery
// orders must pass through delivering and are completed only by the
// explicit delivering -> delivered edge.
func (o *Order) CanTransition(target Status) bool {
	for _, t := range transitions[o.Status] {
		if t != target {
			continue
		}
		if o.Status == StatusReady {
			if target == StatusDelivering {
				return o.Type == TypeDelivery
			}
			return o.Type == TypePickup
		}
		return true
	}
	return false
}

// IsValidStatus reports whether s names a known lifecycle state.
func IsValidStatus(s Status) bool {
	switch s {
	case StatusNew, StatusAccepted, StatusPreparing, StatusReady,
		StatusDelivering, StatusDelivered, StatusCancelled:
		return true
	default:
		return false
	}
}
