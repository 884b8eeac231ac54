package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/foodgocafe/orderflow/internal/aws"
	"github.com/foodgocafe/orderflow/internal/config"
	"github.com/foodgocafe/orderflow/internal/handlers"
	"github.com/foodgocafe/orderflow/internal/idempotency"
	"github.com/foodgocafe/orderflow/internal/metrics"
	"github.com/foodgocafe/orderflow/internal/orders"
	"github.com/foodgocafe/orderflow/internal/stock"
)

func setupRouter(cfg handlers.HandlerConfig, local bool) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(handlers.Observe(cfg.Metrics))

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if local {
		r.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	handlers.RegisterOrderRoutes(r, cfg)
	handlers.RegisterDashboardRoutes(r, cfg)

	return r
}

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

	catalog := stock.NewCatalog(clients.DynamoDB, cfg.StockTable)
	manager := orders.NewManager(orders.NewStore(clients.DynamoDB, cfg.OrdersTable), catalog)
	if err := manager.Load(ctx); err != nil {
		logger.Fatalf("failed to load orders: %v", err)
	}

	hcfg := handlers.HandlerConfig{
		Manager:     manager,
		Stock:       catalog,
		Idempotency: idempotency.NewStore(clients.DynamoDB, cfg.IdempotencyTable, cfg.IdempotencyTTL),
		Publisher:   aws.NewPublisher(clients.SQS, cfg.KitchenQueueURL),
		Recorder:    aws.NewMetricsRecorder(clients.CloudWatch, cfg.MetricsNamespace),
		Metrics:     metrics.New("api"),
		Log:         logger,
	}

	r := setupRouter(hcfg, cfg.RunLocal)

	// RUN_LOCAL=true runs a plain HTTP server for development.
	if cfg.RunLocal {
		logger.Infof("running local server on %s", cfg.Port)
		if err := r.Run(cfg.Port); err != nil {
			logger.Fatalf("failed to run local server: %v", err)
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (interface{}, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
