package aws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// OrderCreatedMessage is the payload sent from the API to the kitchen queue.
// The worker consumes it to run the stock-gated admission for the order.
type OrderCreatedMessage struct {
	OrderID        string `json:"order_id"`
	OrderNumber    string `json:"order_number"`
	IdempotencyKey string `json:"idempotency_key"`
	CorrelationID  string `json:"correlation_id,omitempty"`
}

// Publisher wraps an SQS client and a queue URL.
type Publisher struct {
	SQS      SQSAPI
	QueueURL string
}

// NewPublisher returns a Publisher bound to a queue URL.
func NewPublisher(sqsClient SQSAPI, queueURL string) *Publisher {
	return &Publisher{
		SQS:      sqsClient,
		QueueURL: queueURL,
	}
}

// SendOrderCreated publishes an order-created event. The order id and number
// are duplicated into message attributes so operators can filter in the
// console without parsing bodies.
func (p *Publisher) SendOrderCreated(ctx context.Context, msg OrderCreatedMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	bodyStr := string(body)

	attrs := map[string]sqstypes.MessageAttributeValue{
		"order_id": {
			DataType:    awsString("String"),
			StringValue: awsString(msg.OrderID),
		},
		"order_number": {
			DataType:    awsString("String"),
			StringValue: awsString(msg.OrderNumber),
		},
	}
	if msg.CorrelationID != "" {
		attrs["correlation_id"] = sqstypes.MessageAttributeValue{
			DataType:    awsString("String"),
			StringValue: awsString(msg.CorrelationID),
		}
	}

	_, err = p.SQS.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:          &p.QueueURL,
		MessageBody:       &bodyStr,
		MessageAttributes: attrs,
	})
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// awsString helper
func awsString(s string) *string { return &s }
