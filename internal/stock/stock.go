package stock

// Level is the derived availability of a menu item. It is computed from the
// raw count and never stored.
type Level string

const (
	LevelAvailable Level = "available"
	LevelLow       Level = "low"
	LevelOut       Level = "out"
)

// Item represents the record stored in the stock DynamoDB table.
// The catalog is maintained by the inventory tooling; the ordering
// service only reads it.
type Item struct {
	ID           string `json:"id" dynamodbav:"item_id"`
	Name         string `json:"name" dynamodbav:"name"` // PK
	CurrentStock int    `json:"current_stock" dynamodbav:"current_stock"`
	Threshold    int    `json:"threshold" dynamodbav:"threshold"`
}

// Level derives the availability: out when the count is zero, low when at or
// below the restock threshold, available otherwise.
func (i Item) Level() Level {
	switch {
	case i.CurrentStock <= 0:
		return LevelOut
	case i.CurrentStock <= i.Threshold:
		return LevelLow
	default:
		return LevelAvailable
	}
}
