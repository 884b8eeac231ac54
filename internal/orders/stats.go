package orders

// DailyStats aggregates one day of orders for the admin dashboard.
type DailyStats struct {
	TotalOrders       int     `json:"total_orders"`
	TotalRevenue      float64 `json:"total_revenue"`
	AverageOrderValue float64 `json:"average_order_value"`
	TopSellingItem    string  `json:"top_selling_item"`
}

// ComputeDailyStats aggregates the given orders. Cancelled orders count
// toward TotalOrders but contribute neither revenue nor item quantities.
// Ties on the top seller go to the item encountered first.
func ComputeDailyStats(orders []Order) DailyStats {
	stats := DailyStats{TotalOrders: len(orders)}

	quantities := map[string]int{}
	var seen []string
	for _, o := range orders {
		if o.Status == StatusCancelled {
			continue
		}
		stats.TotalRevenue += o.Total
		for _, it := range o.Items {
			if _, ok := quantities[it.Name]; !ok {
				seen = append(seen, it.Name)
			}
			quantities[it.Name] += it.Quantity
		}
	}

	if stats.TotalOrders > 0 {
		stats.AverageOrderValue = stats.TotalRevenue / float64(stats.TotalOrders)
	}

	best := 0
	for _, name := range seen {
		if quantities[name] > best {
			best = quantities[name]
			stats.TopSellingItem = name
		}
	}
	return stats
}
