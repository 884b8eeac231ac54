package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/foodgocafe/orderflow/internal/aws"
	"github.com/foodgocafe/orderflow/internal/idempotency"
	"github.com/foodgocafe/orderflow/internal/metrics"
	"github.com/foodgocafe/orderflow/internal/orders"
	"github.com/foodgocafe/orderflow/internal/stock"
)

// HandlerConfig groups dependencies for the HTTP handlers.
type HandlerConfig struct {
	Manager     *orders.Manager
	Stock       *stock.Catalog
	Idempotency *idempotency.Store
	Publisher   *aws.Publisher
	Recorder    *aws.MetricsRecorder // CloudWatch, optional
	Metrics     *metrics.ServerMetrics
	Log         *logrus.Logger
}

// statusForError maps lifecycle failures onto HTTP statuses.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, orders.ErrOrderNotFound):
		return http.StatusNotFound, "order_not_found"
	case errors.Is(err, orders.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, orders.ErrStockUnavailable):
		return http.StatusConflict, "stock_unavailable"
	case errors.Is(err, orders.ErrEmptyCart):
		return http.StatusUnprocessableEntity, "empty_cart"
	case errors.Is(err, orders.ErrIncompleteCustomerInfo):
		return http.StatusUnprocessableEntity, "incomplete_customer_info"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// Observe is the request metrics middleware.
func Observe(m *metrics.ServerMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		handler := c.FullPath()
		if handler == "" {
			handler = "unmatched"
		}
		m.ObserveRequest(handler, strconv.Itoa(c.Writer.Status()), float64(time.Since(start).Milliseconds()))
	}
}
