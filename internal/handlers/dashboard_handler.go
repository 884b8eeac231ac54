package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/foodgocafe/orderflow/internal/orders"
	"github.com/foodgocafe/orderflow/internal/stock"
)

// stockView is a catalog row plus its derived availability.
type stockView struct {
	stock.Item
	Status stock.Level `json:"status"`
}

// RegisterDashboardRoutes registers the admin-facing stats and stock views.
func RegisterDashboardRoutes(r gin.IRouter, cfg HandlerConfig) {
	r.GET("/stats/daily", func(c *gin.Context) {
		today := cfg.Manager.Snapshot()
		now := time.Now().UTC()
		y, m, d := now.Date()

		filtered := today[:0]
		for _, o := range today {
			oy, om, od := o.CreatedAt.UTC().Date()
			if oy == y && om == m && od == d {
				filtered = append(filtered, o)
			}
		}
		c.JSON(http.StatusOK, orders.ComputeDailyStats(filtered))
	})

	r.GET("/stock", func(c *gin.Context) {
		items, err := cfg.Stock.List(c.Request.Context())
		if err != nil {
			cfg.Log.WithError(err).Error("stock list failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "stock_list_failed"})
			return
		}
		views := make([]stockView, 0, len(items))
		for _, it := range items {
			views = append(views, stockView{Item: it, Status: it.Level()})
		}
		c.JSON(http.StatusOK, gin.H{"items": views})
	})
}
