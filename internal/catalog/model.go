package catalog

import "time"

// Product represents a catalog entry. Monetary values are integer Naira.
//
// TotalStock is the central warehouse pool; StockPerRegion holds the
// per-hub counters. The two are independent pools: a transfer moves
// quantity between them, but manual adjustments touch only one side.
type Product struct {
	ID             int64            `json:"id"`
	Name           string           `json:"name"`
	SKU            string           `json:"sku"`
	CostPrice      int64            `json:"cost_price"`
	SellingPrice   int64            `json:"selling_price"`
	BatchNumber    string           `json:"batch_number,omitempty"`
	ExpiryDate     *time.Time       `json:"expiry_date,omitempty"`
	TotalStock     int64            `json:"total_stock"`
	StockPerRegion map[string]int64 `json:"stock_per_region"`
	IsActive       bool             `json:"is_active"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// Snapshot carries the pricing fields captured into an order line at
// creation time. Later catalog changes never affect existing orders.
type Snapshot struct {
	Name         string
	SellingPrice int64
	CostPrice    int64
}

// ListFilters narrows product listings.
type ListFilters struct {
	Search   string
	IsActive *bool
	Page     int
	PerPage  int
}
