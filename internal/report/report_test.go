package report

import (
	"math"
	"reflect"
	"testing"
	"time"

	"stockkeeper/internal/config"
	"stockkeeper/internal/domain"
)

var testNow = time.Date(2026, 8, 14, 12, 0, 0, 0, time.UTC)

func sale(name string, qty int, total, profit float64, soldAt time.Time) domain.Sale {
	return domain.Sale{
		ProductName: name,
		Quantity:    qty,
		TotalAmount: total,
		Profit:      profit,
		SoldAt:      soldAt,
	}
}

func TestAggregateEmpty(t *testing.T) {
	r := Aggregate(testNow, nil, nil, config.DefaultTaxPolicy())

	if len(r.SalesByMonth) != 12 {
		t.Fatalf("got %d buckets, want 12", len(r.SalesByMonth))
	}
	if r.SalesByMonth[0].Month != "Sep 2025" || r.SalesByMonth[11].Month != "Aug 2026" {
		t.Errorf("window = %s .. %s, want Sep 2025 .. Aug 2026",
			r.SalesByMonth[0].Month, r.SalesByMonth[11].Month)
	}
	for _, b := range r.SalesByMonth {
		if b.Total != 0 || b.Items != 0 {
			t.Errorf("bucket %s not zero-filled: %+v", b.Month, b)
		}
	}
	if r.TotalRevenue != 0 || r.NetProfit != 0 || len(r.TopProducts) != 0 {
		t.Errorf("empty ledgers produced nonzero report: %+v", r)
	}
	if !r.Tax.Exempt {
		t.Error("zero revenue should be tax exempt")
	}
}

func TestAggregateTotalsAndBuckets(t *testing.T) {
	sales := []domain.Sale{
		sale("Soap", 2, 1000, 400, testNow),
		sale("Oil", 1, 1000, 300, testNow.AddDate(0, -1, 0)),
		// Older than the window: excluded from buckets, kept in totals.
		sale("Rice", 1, 5000, 1000, testNow.AddDate(0, -14, 0)),
	}
	expenses := []domain.Expense{
		{Amount: 200, SpentAt: testNow},
		{Amount: 300, SpentAt: testNow},
	}

	r := Aggregate(testNow, sales, expenses, config.DefaultTaxPolicy())

	if r.TotalRevenue != 7000 {
		t.Errorf("revenue = %v, want 7000", r.TotalRevenue)
	}
	if r.TotalGrossProfit != 1700 {
		t.Errorf("gross profit = %v, want 1700", r.TotalGrossProfit)
	}
	if r.TotalOperatingExpenses != 500 {
		t.Errorf("expenses = %v, want 500", r.TotalOperatingExpenses)
	}
	if r.NetProfit != 1200 {
		t.Errorf("net profit = %v, want 1200", r.NetProfit)
	}
	if r.TotalItemsSold != 4 {
		t.Errorf("items sold = %v, want 4", r.TotalItemsSold)
	}

	windowRevenue := 0.0
	for _, b := range r.SalesByMonth {
		windowRevenue += b.Total
	}
	if windowRevenue != 2000 {
		t.Errorf("window revenue = %v, want 2000", windowRevenue)
	}
	if got := r.SalesByMonth[11]; got.Total != 1000 || got.Items != 2 {
		t.Errorf("current month bucket = %+v, want total 1000 items 2", got)
	}
	if got := r.AverageMonthlyRevenue; math.Abs(got-2000.0/12) > 1e-9 {
		t.Errorf("average monthly revenue = %v, want %v", got, 2000.0/12)
	}
}

func TestAggregateNegativeNetProfit(t *testing.T) {
	sales := []domain.Sale{sale("Soap", 1, 1000, 400, testNow)}
	expenses := []domain.Expense{{Amount: 5400, SpentAt: testNow}}

	r := Aggregate(testNow, sales, expenses, config.DefaultTaxPolicy())
	if r.NetProfit != -5000 {
		t.Fatalf("net profit = %v, want -5000", r.NetProfit)
	}
}

func TestAggregateOrderIndependent(t *testing.T) {
	sales := []domain.Sale{
		sale("Soap", 2, 1000, 400, testNow),
		sale("Oil", 1, 800, 300, testNow.AddDate(0, -2, 0)),
		sale("Rice", 3, 3000, 900, testNow.AddDate(0, -5, 0)),
	}
	reversed := []domain.Sale{sales[2], sales[1], sales[0]}

	a := Aggregate(testNow, sales, nil, config.DefaultTaxPolicy())
	b := Aggregate(testNow, reversed, nil, config.DefaultTaxPolicy())

	if a.TotalRevenue != b.TotalRevenue || a.NetProfit != b.NetProfit {
		t.Error("totals depend on input order")
	}
	if !reflect.DeepEqual(a.SalesByMonth, b.SalesByMonth) {
		t.Error("buckets depend on input order")
	}

	// Re-running over the same ledgers reproduces the same report.
	again := Aggregate(testNow, sales, nil, config.DefaultTaxPolicy())
	again.GeneratedAt = a.GeneratedAt
	if !reflect.DeepEqual(a, again) {
		t.Error("aggregation is not idempotent")
	}
}

func TestTopProducts(t *testing.T) {
	sales := []domain.Sale{
		sale("A", 1, 100, 10, testNow),
		sale("B", 1, 500, 50, testNow),
		sale("C", 1, 100, 10, testNow), // ties with A, seen later
		sale("A", 1, 50, 5, testNow),
		sale("D", 1, 900, 90, testNow),
		sale("E", 1, 20, 2, testNow),
		sale("F", 1, 10, 1, testNow),
	}

	r := Aggregate(testNow, sales, nil, config.DefaultTaxPolicy())
	if len(r.TopProducts) != 5 {
		t.Fatalf("got %d top products, want 5", len(r.TopProducts))
	}
	if r.TopProducts[0].Name != "D" || r.TopProducts[1].Name != "B" {
		t.Errorf("top two = %s, %s; want D, B", r.TopProducts[0].Name, r.TopProducts[1].Name)
	}
	// A and C both end at revenue 150; A was seen first and must stay ahead.
	if r.TopProducts[2].Name != "A" || r.TopProducts[3].Name != "C" {
		t.Errorf("tie break gave %s before %s, want A before C",
			r.TopProducts[2].Name, r.TopProducts[3].Name)
	}
	if r.TopProducts[2].Revenue != 150 || r.TopProducts[2].Quantity != 2 {
		t.Errorf("A aggregate = %+v, want revenue 150 quantity 2", r.TopProducts[2])
	}
}

func TestEstimateTax(t *testing.T) {
	policy := config.DefaultTaxPolicy()

	tests := []struct {
		name      string
		revenue   float64
		netProfit float64
		exempt    bool
		cit       float64
	}{
		{"below threshold", 24_999_999, 1_000_000, true, 0},
		{"exactly at threshold is liable", 25_000_000, 1_000_000, false, 300_000},
		{"above threshold", 30_000_000, 2_000_000, false, 600_000},
		{"liable but loss-making pays no cit", 30_000_000, -500_000, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := estimateTax(tt.revenue, tt.netProfit, policy)
			if got.Exempt != tt.exempt {
				t.Errorf("exempt = %v, want %v", got.Exempt, tt.exempt)
			}
			if math.Abs(got.CIT-tt.cit) > 1e-6 {
				t.Errorf("cit = %v, want %v", got.CIT, tt.cit)
			}
			if want := tt.revenue * policy.VATRate; math.Abs(got.VAT-want) > 1e-6 {
				t.Errorf("vat = %v, want %v", got.VAT, want)
			}
		})
	}
}
