package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FeedStats summarizes an owner's stores and accumulated orders
type FeedStats struct {
	TotalStores     int             `json:"totalStores"`
	ConnectedStores int             `json:"connectedStores"`
	TotalOrders     int             `json:"totalOrders"`
	OrdersToday     int             `json:"ordersToday"`
	RevenueToday    decimal.Decimal `json:"revenueToday"`
	LastSyncAt      *time.Time      `json:"lastSyncAt"`
}

// OrdersToday returns the orders created on the same calendar day as now,
// in now's location.
func OrdersToday(orders []Order, now time.Time) []Order {
	loc := now.Location()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)

	var today []Order
	for _, o := range orders {
		at, ok := o.CreatedTime(loc)
		if !ok {
			continue
		}
		if !at.Before(start) && at.Before(end) {
			today = append(today, o)
		}
	}
	return today
}

// RevenueToday sums the totals of today's orders. Missing or non-numeric
// totals count as zero.
func RevenueToday(orders []Order, now time.Time) decimal.Decimal {
	sum := decimal.Zero
	for _, o := range OrdersToday(orders, now) {
		sum = sum.Add(ParseTotal(o.Total))
	}
	return sum
}

// ParseTotal reads a decimal total, returning zero when it is not numeric
func ParseTotal(raw string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FormatTotal renders a decimal keeping its scale, so "199.00" stays "199.00"
func FormatTotal(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	if exp := d.Exponent(); exp < 0 {
		return d.StringFixed(-exp)
	}
	return d.String()
}
