package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sirupsen/logrus"

	"github.com/foodgocafe/orderflow/internal/idempotency"
	"github.com/foodgocafe/orderflow/internal/orders"
	"github.com/foodgocafe/orderflow/internal/stock"
)

// workerMockDynamo backs both the orders table and the idempotency table.
type workerMockDynamo struct {
	mu     sync.Mutex
	tables map[string]map[string]map[string]types.AttributeValue
}

func newWorkerMockDynamo() *workerMockDynamo {
	return &workerMockDynamo{tables: map[string]map[string]map[string]types.AttributeValue{}}
}

func (m *workerMockDynamo) table(name string) map[string]map[string]types.AttributeValue {
	t, ok := m.tables[name]
	if !ok {
		t = map[string]map[string]types.AttributeValue{}
		m.tables[name] = t
	}
	return t
}

func itemPK(item map[string]types.AttributeValue) (string, error) {
	for _, attr := range []string{"order_id", "idempotency_key", "name"} {
		if v, ok := item[attr].(*types.AttributeValueMemberS); ok {
			return v.Value, nil
		}
	}
	return "", fmt.Errorf("no known key attribute in item")
}

func (m *workerMockDynamo) PutItem(ctx context.Context, in *dyn.PutItemInput, _ ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.table(*in.TableName)
	pk, err := itemPK(in.Item)
	if err != nil {
		return nil, err
	}

	if in.ConditionExpression != nil {
		cond := *in.ConditionExpression
		switch {
		case strings.HasPrefix(cond, "attribute_not_exists"):
			if _, exists := t[pk]; exists {
				return nil, &types.ConditionalCheckFailedException{}
			}
		case cond == "#s = :expected":
			existing, exists := t[pk]
			if !exists {
				return nil, &types.ConditionalCheckFailedException{}
			}
			expected := in.ExpressionAttributeValues[":expected"].(*types.AttributeValueMemberS).Value
			current, ok := existing["status"].(*types.AttributeValueMemberS)
			if !ok || current.Value != expected {
				return nil, &types.ConditionalCheckFailedException{}
			}
		default:
			return nil, fmt.Errorf("unsupported condition: %s", cond)
		}
	}

	t[pk] = in.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *workerMockDynamo) GetItem(ctx context.Context, in *dyn.GetItemInput, _ ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pk, err := itemPK(in.Key)
	if err != nil {
		return nil, err
	}
	return &dyn.GetItemOutput{Item: m.table(*in.TableName)[pk]}, nil
}

func (m *workerMockDynamo) UpdateItem(ctx context.Context, in *dyn.UpdateItemInput, _ ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.table(*in.TableName)
	pk, err := itemPK(in.Key)
	if err != nil {
		return nil, err
	}
	item, ok := t[pk]
	if !ok {
		return nil, fmt.Errorf("item not found: %s", pk)
	}

	vals := in.ExpressionAttributeValues
	if v, ok := vals[":done"]; ok {
		item["status"] = v
		item["order_id"] = vals[":oid"]
		item["response_body"] = vals[":rb"]
		item["response_status"] = vals[":rs"]
	}
	if v, ok := vals[":failed"]; ok {
		item["status"] = v
		item["note"] = vals[":n"]
	}
	if v, ok := vals[":ua"]; ok {
		item["updated_at"] = v
	}
	return &dyn.UpdateItemOutput{}, nil
}

func (m *workerMockDynamo) Scan(ctx context.Context, in *dyn.ScanInput, _ ...func(*dyn.Options)) (*dyn.ScanOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := &dyn.ScanOutput{}
	for _, item := range m.table(*in.TableName) {
		out.Items = append(out.Items, item)
	}
	return out, nil
}

type stubChecker struct {
	levels map[string]stock.Level
}

func (s *stubChecker) GetStockLevel(ctx context.Context, name string) (stock.Level, error) {
	if lvl, ok := s.levels[name]; ok {
		return lvl, nil
	}
	return stock.LevelAvailable, nil
}

const (
	testOrdersTable = "orders-table"
	testIdempTable  = "idempotency-table"
)

func newTestProcessor(db *workerMockDynamo, checker orders.StockChecker) *Processor {
	log := logrus.New()
	log.SetOutput(io.Discard)
	p := NewProcessor(
		orders.NewStore(db, testOrdersTable),
		checker,
		idempotency.NewStore(db, testIdempTable, 48*time.Hour),
		nil,
		log,
	)
	p.nowFunc = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return p
}

func seedOrder(t *testing.T, db *workerMockDynamo, o orders.Order) {
	t.Helper()
	item, err := attributevalue.MarshalMap(o)
	if err != nil {
		t.Fatalf("marshal order: %v", err)
	}
	db.table(testOrdersTable)[o.ID] = item
}

func newOrder(id string, status orders.Status) orders.Order {
	created := time.Date(2024, 6, 1, 11, 0, 0, 0, time.UTC)
	return orders.Order{
		ID:     id,
		Number: "FGC-0042",
		Items: []orders.Item{
			{ProductID: "p-1", Name: "Burger", UnitPrice: 89.00, Quantity: 2},
			{ProductID: "p-2", Name: "Fries", UnitPrice: 25.50, Quantity: 1},
		},
		Customer:  orders.Customer{Name: "Jordan", Phone: "555-0101"},
		Type:      orders.TypePickup,
		Status:    status,
		Total:     203.50,
		Priority:  orders.PriorityNormal,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func sqsEvent(orderID, key string) events.SQSEvent {
	body, _ := json.Marshal(map[string]string{
		"order_id":        orderID,
		"order_number":    "FGC-0042",
		"idempotency_key": key,
	})
	return events.SQSEvent{Records: []events.SQSMessage{{MessageId: "m-1", Body: string(body)}}}
}

func idempStatus(t *testing.T, db *workerMockDynamo, key string) string {
	t.Helper()
	item := db.table(testIdempTable)[key]
	if item == nil {
		t.Fatalf("idempotency record %s missing", key)
	}
	s, ok := item["status"].(*types.AttributeValueMemberS)
	if !ok {
		t.Fatalf("idempotency record %s has no status", key)
	}
	return s.Value
}

func TestHandle_AdmitsOrderWhenStocked(t *testing.T) {
	db := newWorkerMockDynamo()
	p := newTestProcessor(db, &stubChecker{})

	seedOrder(t, db, newOrder("order-1", orders.StatusNew))
	if _, err := p.idemp.CreateIfNotExists(context.Background(), "key-1"); err != nil {
		t.Fatalf("seed idempotency: %v", err)
	}

	if err := p.Handle(context.Background(), sqsEvent("order-1", "key-1")); err != nil {
		t.Fatalf("Handle error: %v", err)
	}

	got, err := p.orderStore.Get(context.Background(), "order-1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.Status != orders.StatusAccepted {
		t.Fatalf("order status = %s, want accepted", got.Status)
	}
	if st := idempStatus(t, db, "key-1"); st != idempotency.StatusDone {
		t.Fatalf("idempotency status = %s, want DONE", st)
	}
}

func TestHandle_RejectsOutOfStockItem(t *testing.T) {
	db := newWorkerMockDynamo()
	p := newTestProcessor(db, &stubChecker{levels: map[string]stock.Level{
		"Fries": stock.LevelOut,
	}})

	seedOrder(t, db, newOrder("order-2", orders.StatusNew))
	if _, err := p.idemp.CreateIfNotExists(context.Background(), "key-2"); err != nil {
		t.Fatalf("seed idempotency: %v", err)
	}

	// Rejection is a business outcome, not a processing failure.
	if err := p.Handle(context.Background(), sqsEvent("order-2", "key-2")); err != nil {
		t.Fatalf("Handle error: %v", err)
	}

	got, _ := p.orderStore.Get(context.Background(), "order-2")
	if got.Status != orders.StatusNew {
		t.Fatalf("order status = %s, want new (rejection keeps the order pending)", got.Status)
	}
	if st := idempStatus(t, db, "key-2"); st != idempotency.StatusFailed {
		t.Fatalf("idempotency status = %s, want FAILED", st)
	}
	note := db.table(testIdempTable)["key-2"]["note"].(*types.AttributeValueMemberS).Value
	if !strings.Contains(note, "Fries") {
		t.Fatalf("rejection note should name the item, got %q", note)
	}
}

func TestHandle_SwallowsAlreadyHandledOrder(t *testing.T) {
	db := newWorkerMockDynamo()
	p := newTestProcessor(db, &stubChecker{})

	seedOrder(t, db, newOrder("order-3", orders.StatusAccepted))
	if _, err := p.idemp.CreateIfNotExists(context.Background(), "key-3"); err != nil {
		t.Fatalf("seed idempotency: %v", err)
	}

	if err := p.Handle(context.Background(), sqsEvent("order-3", "key-3")); err != nil {
		t.Fatalf("duplicate delivery should be swallowed, got %v", err)
	}
	if st := idempStatus(t, db, "key-3"); st != idempotency.StatusInProgress {
		t.Fatalf("idempotency status = %s, want untouched IN_PROGRESS", st)
	}
}

func TestHandle_UnknownOrderErrors(t *testing.T) {
	db := newWorkerMockDynamo()
	p := newTestProcessor(db, &stubChecker{})

	if err := p.Handle(context.Background(), sqsEvent("order-missing", "key-4")); err == nil {
		t.Fatalf("expected error for missing order")
	}
}
