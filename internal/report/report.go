package report

import (
	"sort"
	"time"

	"stockkeeper/internal/config"
	"stockkeeper/internal/domain"
)

const (
	windowMonths = 12
	topLimit     = 5
)

type MonthBucket struct {
	Month string  `json:"month"`
	Total float64 `json:"total"`
	Items int     `json:"items"`
}

type TopProduct struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Revenue  float64 `json:"revenue"`
}

type TaxEstimate struct {
	VATRate            float64 `json:"vat_rate"`
	VAT                float64 `json:"vat"`
	CITRate            float64 `json:"cit_rate"`
	CIT                float64 `json:"cit"`
	Exempt             bool    `json:"exempt"`
	ExemptionThreshold float64 `json:"exemption_threshold"`
}

type Report struct {
	TotalRevenue           float64       `json:"total_revenue"`
	TotalGrossProfit       float64       `json:"total_gross_profit"`
	TotalOperatingExpenses float64       `json:"total_operating_expenses"`
	NetProfit              float64       `json:"net_profit"`
	TotalItemsSold         int           `json:"total_items_sold"`
	AverageMonthlyRevenue  float64       `json:"average_monthly_revenue"`
	SalesByMonth           []MonthBucket `json:"sales_by_month"`
	TopProducts            []TopProduct  `json:"top_products"`
	Tax                    TaxEstimate   `json:"tax"`
	GeneratedAt            time.Time     `json:"generated_at"`
}

// Aggregate recomputes every derived figure from the sale and expense
// ledgers. Nothing here is ever stored; the ledgers stay the only source
// of truth and recomputation is idempotent and order-independent.
//
// Buckets always number exactly twelve calendar months ending at now,
// zero-filled so charts keep a fixed-width axis. Sales older than the
// window are excluded from buckets but still count toward the lifetime
// totals. Gross profit reuses the per-sale profit frozen at commit time
// rather than recomputing from current prices.
func Aggregate(now time.Time, sales []domain.Sale, expenses []domain.Expense, policy config.TaxPolicy) Report {
	r := Report{GeneratedAt: now}

	type monthKey struct {
		year  int
		month time.Month
	}
	buckets := make([]MonthBucket, windowMonths)
	index := make(map[monthKey]int, windowMonths)
	anchor := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	for i := 0; i < windowMonths; i++ {
		m := anchor.AddDate(0, i-(windowMonths-1), 0)
		buckets[i] = MonthBucket{Month: m.Format("Jan 2006")}
		index[monthKey{m.Year(), m.Month()}] = i
	}

	type productAgg struct {
		name     string
		quantity int
		revenue  float64
	}
	var products []productAgg
	productIndex := make(map[string]int)

	for _, sale := range sales {
		r.TotalRevenue += sale.TotalAmount
		r.TotalGrossProfit += sale.Profit
		r.TotalItemsSold += sale.Quantity

		soldAt := sale.SoldAt.In(now.Location())
		if i, ok := index[monthKey{soldAt.Year(), soldAt.Month()}]; ok {
			buckets[i].Total += sale.TotalAmount
			buckets[i].Items += sale.Quantity
		}

		if i, ok := productIndex[sale.ProductName]; ok {
			products[i].quantity += sale.Quantity
			products[i].revenue += sale.TotalAmount
		} else {
			productIndex[sale.ProductName] = len(products)
			products = append(products, productAgg{
				name:     sale.ProductName,
				quantity: sale.Quantity,
				revenue:  sale.TotalAmount,
			})
		}
	}

	for _, expense := range expenses {
		r.TotalOperatingExpenses += expense.Amount
	}

	// Negative net profit is a valid result and is reported as-is.
	r.NetProfit = r.TotalGrossProfit - r.TotalOperatingExpenses

	windowRevenue := 0.0
	for _, bucket := range buckets {
		windowRevenue += bucket.Total
	}
	r.AverageMonthlyRevenue = windowRevenue / windowMonths
	r.SalesByMonth = buckets

	// Ties keep first-seen order: the stable sort never reorders equal
	// revenues, and products were appended in input order.
	sort.SliceStable(products, func(i, j int) bool {
		return products[i].revenue > products[j].revenue
	})
	limit := topLimit
	if len(products) < limit {
		limit = len(products)
	}
	r.TopProducts = make([]TopProduct, 0, limit)
	for _, p := range products[:limit] {
		r.TopProducts = append(r.TopProducts, TopProduct{
			Name:     p.name,
			Quantity: p.quantity,
			Revenue:  p.revenue,
		})
	}

	r.Tax = estimateTax(r.TotalRevenue, r.NetProfit, policy)
	return r
}

// estimateTax applies the configured policy: VAT on revenue, and company
// income tax on net profit unless revenue is strictly below the exemption
// threshold. Revenue exactly at the threshold is liable.
func estimateTax(revenue, netProfit float64, policy config.TaxPolicy) TaxEstimate {
	estimate := TaxEstimate{
		VATRate:            policy.VATRate,
		VAT:                revenue * policy.VATRate,
		CITRate:            policy.CITRate,
		ExemptionThreshold: policy.ExemptionThreshold,
		Exempt:             revenue < policy.ExemptionThreshold,
	}
	if !estimate.Exempt {
		cit := netProfit * policy.CITRate
		if cit < 0 {
			cit = 0
		}
		estimate.CIT = cit
	}
	return estimate
}
