package validation

import (
	"fmt"
	"math"

	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a configured validator with custom struct-level validation registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	v.RegisterStructValidation(createOrderStructValidation, CreateOrderRequest{})

	return v
}

// createOrderStructValidation enforces the rules that cross fields: delivery
// orders must carry an address, and when the client claims a total it has to
// equal the sum of the lines (compared in cents to dodge float rounding).
func createOrderStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(CreateOrderRequest)

	if req.OrderType == "delivery" && req.Customer.Address == "" {
		sl.ReportError(req.Customer.Address, "customer.address", "Address", "required_for_delivery", "")
	}

	if req.Amount == nil {
		return
	}
	var sum float64
	for _, it := range req.Items {
		sum += float64(it.Quantity) * it.UnitPrice
	}
	sumCents := int(math.Round(sum * 100))
	amountCents := int(math.Round(*req.Amount * 100))
	if sumCents != amountCents {
		sl.ReportError(req.Amount, "amount", "Amount", "amount_match_items", fmt.Sprintf("items sum %.2f != amount %.2f", sum, *req.Amount))
	}
}
