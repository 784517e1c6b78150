package domain

import "time"

// Product is the authoritative stock/price/cost record for one item,
// scoped to a single business. Stock only changes through a checkout
// commit or an explicit restock edit.
type Product struct {
	ID         string    `json:"id"`
	BusinessID string    `json:"business_id"`
	Name       string    `json:"name"`
	Category   string    `json:"category"`
	Stock      int       `json:"stock"`
	Price      float64   `json:"price"`
	CostPrice  float64   `json:"cost_price"`
	MinStock   int       `json:"min_stock"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Sale is an immutable ledger row. ProductName, CostAtSale and Profit are
// snapshots frozen at commit time; later product edits never change them.
// All lines of one checkout share the same SoldAt timestamp, which is the
// only linkage regrouping them into one order.
type Sale struct {
	ID          string    `json:"id"`
	BusinessID  string    `json:"business_id"`
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	TotalAmount float64   `json:"total_amount"`
	CostAtSale  float64   `json:"cost_at_sale"`
	Profit      float64   `json:"profit"`
	SoldAt      time.Time `json:"sold_at"`
}

type Expense struct {
	ID          string    `json:"id"`
	BusinessID  string    `json:"business_id"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Category    string    `json:"category"`
	SpentAt     time.Time `json:"spent_at"`
}

// Business is the singleton settings record per owner; its id is the
// owner's identity. Loaded per request, never held as a process global.
type Business struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Address    string    `json:"address"`
	Phone      string    `json:"phone"`
	Currency   string    `json:"currency"`
	TaxRate    float64   `json:"tax_rate"`
	Categories []string  `json:"categories"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type StaffMember struct {
	ID         string    `json:"id"`
	BusinessID string    `json:"business_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Role       string    `json:"role"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// CheckoutLine is one cart line as submitted to the checkout committer.
// Price and Cost are the unit figures captured when the line was added;
// the committer re-validates stock against the store, not the snapshot.
type CheckoutLine struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	Cost      float64 `json:"cost"`
}

type CheckoutResult struct {
	SaleIDs []string  `json:"sale_ids"`
	Total   float64   `json:"total"`
	SoldAt  time.Time `json:"sold_at"`
}

type DashboardSummary struct {
	TotalProducts  int     `json:"total_products"`
	LowStockCount  int     `json:"low_stock_count"`
	TodayRevenue   float64 `json:"today_revenue"`
	MonthRevenue   float64 `json:"month_revenue"`
	InventoryValue float64 `json:"inventory_value"`
}
