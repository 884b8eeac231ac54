package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/sirupsen/logrus"

	"github.com/foodgocafe/orderflow/internal/aws"
	"github.com/foodgocafe/orderflow/internal/config"
	"github.com/foodgocafe/orderflow/internal/idempotency"
	"github.com/foodgocafe/orderflow/internal/orders"
	"github.com/foodgocafe/orderflow/internal/stock"
)

func newLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.JSONFormatter{})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
		logger.Warnf("invalid LOG_LEVEL %q, using %s", level, lvl)
	}
	logger.SetLevel(lvl)
	return logger
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := newLogger(cfg.LogLevel)

	ctx := context.Background()
	clients, err := aws.NewAWSClients(ctx)
	if err != nil {
		logger.Fatalf("failed to init aws clients: %v", err)
	}

	p := NewProcessor(
		orders.NewStore(clients.DynamoDB, cfg.OrdersTable),
		stock.NewCatalog(clients.DynamoDB, cfg.StockTable),
		idempotency.NewStore(clients.DynamoDB, cfg.IdempotencyTable, cfg.IdempotencyTTL),
		aws.NewMetricsRecorder(clients.CloudWatch, cfg.MetricsNamespace),
		logger,
	)

	// RUN_LOCAL=true simulates a single SQS event for local testing.
	if cfg.RunLocal {
		body := os.Getenv("LOCAL_SQS_BODY")
		if body == "" {
			body = `{"order_id":"local-order-1","order_number":"FGC-0001","idempotency_key":"local-key-1"}`
		}
		ev := events.SQSEvent{
			Records: []events.SQSMessage{
				{Body: body},
			},
		}
		if err := p.Handle(ctx, ev); err != nil {
			logger.Fatalf("local handler error: %v", err)
		}
		return
	}

	lambda.Start(p.Handle)
}
