package stock

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/foodgocafe/orderflow/internal/aws"
)

// Catalog reads stock items from DynamoDB, keyed by item name.
type Catalog struct {
	client    aws.DynamoDBAPI
	tableName string
}

// NewCatalog returns a Catalog bound to a table.
func NewCatalog(client aws.DynamoDBAPI, tableName string) *Catalog {
	return &Catalog{
		client:    client,
		tableName: tableName,
	}
}

// Get fetches a stock item by name. Returns (nil, nil) if not found.
func (c *Catalog) Get(ctx context.Context, name string) (*Item, error) {
	out, err := c.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &c.tableName,
		Key: map[string]types.AttributeValue{
			"name": &types.AttributeValueMemberS{Value: name},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get stock item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var it Item
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, fmt.Errorf("unmarshal stock item: %w", err)
	}
	return &it, nil
}

// GetStockLevel resolves the live availability for a menu item. An item the
// catalog does not know about cannot be sold, so a missing record reads as out.
func (c *Catalog) GetStockLevel(ctx context.Context, name string) (Level, error) {
	it, err := c.Get(ctx, name)
	if err != nil {
		return "", err
	}
	if it == nil {
		return LevelOut, nil
	}
	return it.Level(), nil
}

// List scans the whole catalog, sorted by name. The stock table is small
// (one row per menu item), so a full scan is fine here.
func (c *Catalog) List(ctx context.Context) ([]Item, error) {
	var items []Item
	var startKey map[string]types.AttributeValue
	for {
		out, err := c.client.Scan(ctx, &dyn.ScanInput{
			TableName:         &c.tableName,
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("scan stock table: %w", err)
		}
		var page []Item
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshal stock items: %w", err)
		}
		items = append(items, page...)
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}
