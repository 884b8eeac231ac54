package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/sirupsen/logrus"

	"github.com/foodgocafe/orderflow/internal/aws"
	"github.com/foodgocafe/orderflow/internal/idempotency"
	"github.com/foodgocafe/orderflow/internal/orders"
	"github.com/foodgocafe/orderflow/internal/stock"
)

// Processor consumes kitchen-queue messages and runs the stock-gated
// admission for freshly created orders: new -> accepted when every line is
// in stock, or a recorded rejection when something is out.
type Processor struct {
	orderStore *orders.Store
	stock      orders.StockChecker
	idemp      *idempotency.Store
	recorder   *aws.MetricsRecorder
	log        *logrus.Logger
	nowFunc    func() time.Time
}

// NewProcessor creates a worker processor with its collaborators injected.
func NewProcessor(orderStore *orders.Store, checker orders.StockChecker, idemp *idempotency.Store, recorder *aws.MetricsRecorder, log *logrus.Logger) *Processor {
	return &Processor{
		orderStore: orderStore,
		stock:      checker,
		idemp:      idemp,
		recorder:   recorder,
		log:        log,
		nowFunc:    time.Now,
	}
}

// Handle receives an SQS batch event and processes each message.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) error {
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			// Return error: Lambda will retry. If failed too many times, message goes to DLQ.
			p.log.WithError(err).Error("worker error")
			return err
		}
	}
	return nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var msg aws.OrderCreatedMessage
	if err := json.Unmarshal([]byte(rec.Body), &msg); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}

	logger := p.log.WithFields(logrus.Fields{
		"order_id":     msg.OrderID,
		"order_number": msg.OrderNumber,
		"corr":         msg.CorrelationID,
	})
	logger.Info("received order-created event")

	order, err := p.orderStore.Get(ctx, msg.OrderID)
	if err != nil {
		return fmt.Errorf("fetch order: %w", err)
	}
	if order == nil {
		// should never happen; retry and eventually DLQ if it does
		return fmt.Errorf("order not found: %s", msg.OrderID)
	}
	if order.Status != orders.StatusNew {
		// duplicate delivery, or staff already acted on the order
		logger.WithField("status", order.Status).Info("order already handled")
		return nil
	}

	// Admission: every line must resolve to an item that is not out.
	for _, it := range order.Items {
		level, err := p.stock.GetStockLevel(ctx, it.Name)
		if err != nil {
			return fmt.Errorf("stock lookup for %q: %w", it.Name, err)
		}
		if level != stock.LevelOut {
			continue
		}
		note := fmt.Sprintf("stock_unavailable: %s", it.Name)
		if err := p.idemp.MarkFailed(ctx, msg.IdempotencyKey, note); err != nil {
			return fmt.Errorf("record rejection: %w", err)
		}
		if p.recorder != nil {
			if cwErr := p.recorder.Count(ctx, "AdmissionRejections", 1, map[string]string{"Item": it.Name}); cwErr != nil {
				logger.WithError(cwErr).Warn("cloudwatch put failed")
			}
		}
		// The order stays in new; staff decide whether to cancel or wait
		// for a restock. Not a retryable failure, so swallow the message.
		logger.WithField("item", it.Name).Warn("admission rejected, item out of stock")
		return nil
	}

	next := *order
	next.Status = orders.StatusAccepted
	next.UpdatedAt = p.nowFunc().UTC()
	err = p.orderStore.SaveTransition(ctx, next, orders.StatusNew)
	if errors.Is(err, orders.ErrStatusConflict) {
		// Competing writer (another worker or a staff device) got there
		// first; re-read to log what happened and swallow the duplicate.
		if o2, getErr := p.orderStore.Get(ctx, msg.OrderID); getErr == nil && o2 != nil {
			logger.WithField("status", o2.Status).Info("order admitted elsewhere")
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("accept order: %w", err)
	}

	response, _ := json.Marshal(map[string]string{
		"order_id": next.ID,
		"status":   string(orders.StatusAccepted),
	})
	if err := p.idemp.MarkDone(ctx, msg.IdempotencyKey, next.ID, string(response), 200); err != nil {
		return fmt.Errorf("update idempotency: %w", err)
	}

	if p.recorder != nil {
		if cwErr := p.recorder.Count(ctx, "OrdersAccepted", 1, nil); cwErr != nil {
			logger.WithError(cwErr).Warn("cloudwatch put failed")
		}
	}
	logger.Info("order accepted")
	return nil
}
