package dashboard

import "time"

// Financials are the realized money aggregates over delivered orders.
// Revenue and expenses come from order snapshots; COGS is the unit cost
// captured on each delivered line times its quantity.
type Financials struct {
	Revenue          int64 `json:"revenue"`
	LogisticsExpense int64 `json:"logistics_expense"`
	COGS             int64 `json:"cogs"`
	NetProfit        int64 `json:"net_profit"`
}

// Overview is the full dashboard payload.
type Overview struct {
	Financials     Financials       `json:"financials"`
	OrdersByStatus map[string]int64 `json:"orders_by_status"`
	PendingUsers   int64            `json:"pending_users"`
	OpenLeads      int64            `json:"open_leads"`
	From           time.Time        `json:"from"`
	To             time.Time        `json:"to"`
	GeneratedAt    time.Time        `json:"generated_at"`
}
