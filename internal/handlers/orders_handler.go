package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/foodgocafe/orderflow/internal/aws"
	"github.com/foodgocafe/orderflow/internal/idempotency"
	"github.com/foodgocafe/orderflow/internal/orders"
	"github.com/foodgocafe/orderflow/internal/validation"
)

// RegisterOrderRoutes registers the customer-facing order API.
func RegisterOrderRoutes(r gin.IRouter, cfg HandlerConfig) {
	v := validation.New()

	r.POST("/orders", func(c *gin.Context) {
		ctx := c.Request.Context()

		var req validation.CreateOrderRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			// BindAndValidate already wrote a 400
			return
		}

		// Require idempotency key header so checkout retries are safe
		idempKey := c.GetHeader("Idempotency-Key")
		if idempKey == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing_idempotency_key"})
			return
		}

		created, err := cfg.Idempotency.CreateIfNotExists(ctx, idempKey)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "idempotency_check_failed", "detail": err.Error()})
			return
		}
		if !created {
			replayIdempotent(c, cfg, idempKey)
			return
		}

		items := make([]orders.Item, 0, len(req.Items))
		for _, it := range req.Items {
			items = append(items, orders.Item{
				ProductID: it.ProductID,
				Name:      it.Name,
				UnitPrice: it.UnitPrice,
				Quantity:  it.Quantity,
			})
		}
		customer := orders.Customer{
			Name:    req.Customer.Name,
			Phone:   req.Customer.Phone,
			Address: req.Customer.Address,
		}

		order, err := cfg.Manager.CreateOrder(ctx, items, customer, orders.OrderType(req.OrderType), orders.Priority(req.Priority))
		if err != nil {
			_ = cfg.Idempotency.MarkFailed(ctx, idempKey, fmt.Sprintf("create_failed: %v", err))
			status, code := statusForError(err)
			cfg.Log.WithError(err).Warn("order creation rejected")
			c.JSON(status, gin.H{"error": code, "detail": err.Error()})
			return
		}

		// Hand the order to the kitchen queue; the worker runs admission.
		msg := aws.OrderCreatedMessage{
			OrderID:        order.ID,
			OrderNumber:    order.Number,
			IdempotencyKey: idempKey,
			CorrelationID:  c.GetHeader("X-Request-Id"),
		}
		if err := cfg.Publisher.SendOrderCreated(ctx, msg); err != nil {
			// mark idempotency failed so client can retry
			_ = cfg.Idempotency.MarkFailed(ctx, idempKey, fmt.Sprintf("enqueue_failed: %v", err))
			cfg.Log.WithError(err).Error("failed to enqueue order")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "enqueue_failed", "detail": err.Error()})
			return
		}

		responseBody, _ := json.Marshal(order)
		_ = cfg.Idempotency.MarkDone(ctx, idempKey, order.ID, string(responseBody), http.StatusCreated)

		if cfg.Metrics != nil {
			cfg.Metrics.OrdersCreated.Inc()
		}
		if cfg.Recorder != nil {
			if err := cfg.Recorder.Count(ctx, "OrdersCreated", 1, map[string]string{"OrderType": string(order.Type)}); err != nil {
				cfg.Log.WithError(err).Warn("cloudwatch put failed")
			}
		}

		cfg.Log.WithFields(map[string]interface{}{
			"order_id":     order.ID,
			"order_number": order.Number,
			"order_type":   order.Type,
			"total":        order.Total,
		}).Info("order created")

		c.Header("Location", fmt.Sprintf("/orders/%s", order.ID))
		c.JSON(http.StatusCreated, order)
	})

	r.POST("/orders/:id/transitions", func(c *gin.Context) {
		ctx := c.Request.Context()
		id := c.Param("id")

		var req validation.TransitionRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		target := orders.Status(req.To)
		if !orders.IsValidStatus(target) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_status", "detail": req.To})
			return
		}

		prev, err := cfg.Manager.Get(id)
		if err != nil {
			status, code := statusForError(err)
			c.JSON(status, gin.H{"error": code})
			return
		}

		order, err := cfg.Manager.Transition(ctx, id, target, req.Reason)
		if err != nil {
			status, code := statusForError(err)
			cfg.Log.WithError(err).WithField("order_id", id).Warn("transition rejected")
			c.JSON(status, gin.H{"error": code, "detail": err.Error()})
			return
		}

		if cfg.Metrics != nil {
			cfg.Metrics.Transitions.WithLabelValues(string(prev.Status), string(order.Status)).Inc()
		}
		cfg.Log.WithFields(map[string]interface{}{
			"order_id": order.ID,
			"from":     prev.Status,
			"to":       order.Status,
		}).Info("order transitioned")

		c.JSON(http.StatusOK, order)
	})

	r.GET("/orders", func(c *gin.Context) {
		statusParam := c.Query("status")
		if statusParam == "" {
			c.JSON(http.StatusOK, gin.H{"orders": cfg.Manager.Snapshot()})
			return
		}
		status := orders.Status(statusParam)
		if !orders.IsValidStatus(status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_status", "detail": statusParam})
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": cfg.Manager.ListByStatus(status)})
	})

	r.GET("/orders/:id", func(c *gin.Context) {
		order, err := cfg.Manager.Get(c.Param("id"))
		if err != nil {
			status, code := statusForError(err)
			c.JSON(status, gin.H{"error": code})
			return
		}
		c.JSON(http.StatusOK, order)
	})

	r.PATCH("/orders/:id/progress", func(c *gin.Context) {
		ctx := c.Request.Context()

		var req validation.ProgressRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		order, err := cfg.Manager.SetProgress(ctx, c.Param("id"), *req.Progress)
		if err != nil {
			status, code := statusForError(err)
			c.JSON(status, gin.H{"error": code, "detail": err.Error()})
			return
		}
		c.JSON(http.StatusOK, order)
	})
}

// replayIdempotent answers a duplicate create with whatever the first
// attempt produced.
func replayIdempotent(c *gin.Context, cfg HandlerConfig, key string) {
	rec, err := cfg.Idempotency.Get(c.Request.Context(), key)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "idempotency_check_failed", "detail": err.Error()})
		return
	}
	if rec == nil {
		// record vanished between the conditional put and this read
		c.JSON(http.StatusInternalServerError, gin.H{"error": "idempotency_record_missing"})
		return
	}
	switch rec.Status {
	case idempotency.StatusDone:
		if rec.ResponseBody != "" {
			c.Data(rec.ResponseStatus, "application/json", []byte(rec.ResponseBody))
			return
		}
		c.JSON(http.StatusOK, gin.H{"order_id": rec.OrderID})
	case idempotency.StatusInProgress:
		c.JSON(http.StatusAccepted, gin.H{"message": "request already in progress", "order_id": rec.OrderID})
	case idempotency.StatusFailed:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "previous_attempt_failed", "detail": rec.Note})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unknown_idempotency_status"})
	}
}
