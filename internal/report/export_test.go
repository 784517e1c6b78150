package report

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"stockkeeper/internal/config"
	"stockkeeper/internal/domain"
)

func TestSalesCSVRoundTrip(t *testing.T) {
	soldAt := time.Date(2026, 8, 14, 10, 30, 0, 0, time.UTC)
	sales := []domain.Sale{
		{ID: "s1", ProductName: "Soap", Quantity: 2, TotalAmount: 1000, CostAtSale: 600, Profit: 400, SoldAt: soldAt},
		{ID: "s2", ProductName: `Rice, 50kg "Gold"`, Quantity: 1, TotalAmount: 55000, CostAtSale: 48000, Profit: 7000, SoldAt: soldAt},
	}

	out, err := SalesCSV(sales)
	if err != nil {
		t.Fatalf("SalesCSV: %v", err)
	}

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("read back csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want header + 2 rows", len(records))
	}
	if got := strings.Join(records[0], ","); got != "id,product_name,quantity,total_amount,cost_at_sale,profit,sold_at" {
		t.Errorf("header = %q", got)
	}

	// Delimiters and quotes inside the product name must survive the trip.
	if records[2][1] != `Rice, 50kg "Gold"` {
		t.Errorf("product name = %q", records[2][1])
	}
	if records[1][3] != "1000.00" || records[1][5] != "400.00" {
		t.Errorf("row 1 amounts = %q / %q", records[1][3], records[1][5])
	}
	if records[1][6] != soldAt.Format(time.RFC3339) {
		t.Errorf("sold_at = %q", records[1][6])
	}
}

func TestSalesCSVEmpty(t *testing.T) {
	out, err := SalesCSV(nil)
	if err != nil {
		t.Fatalf("SalesCSV: %v", err)
	}
	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("read back csv: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want header only", len(records))
	}
}

func TestSummaryCSV(t *testing.T) {
	sales := []domain.Sale{
		sale("Soap", 2, 1000, 400, testNow),
		sale("Oil", 1, 1000, 300, testNow),
	}
	r := Aggregate(testNow, sales, []domain.Expense{{Amount: 200}}, config.DefaultTaxPolicy())

	out, err := SummaryCSV(r)
	if err != nil {
		t.Fatalf("SummaryCSV: %v", err)
	}
	body := string(out)
	for _, want := range []string{
		"STOCKKEEPER REPORT SUMMARY",
		"Total Revenue (Sales),2000.00",
		"Net Profit (Est.),500.00",
		"Total Items Sold,3",
		"TOP SELLING PRODUCTS",
		"Soap,2,1000.00",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("summary csv missing %q", want)
		}
	}
}

func TestWriteXLSX(t *testing.T) {
	r := Aggregate(testNow, []domain.Sale{sale("Soap", 2, 1000, 400, testNow)}, nil, config.DefaultTaxPolicy())

	out, err := WriteXLSX(r)
	if err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	want := []string{"Summary", "Monthly Trend", "Top Products"}
	if len(sheets) != len(want) {
		t.Fatalf("sheets = %v, want %v", sheets, want)
	}
	for i, name := range want {
		if sheets[i] != name {
			t.Errorf("sheet %d = %q, want %q", i, sheets[i], name)
		}
	}

	rows, err := f.GetRows("Monthly Trend")
	if err != nil {
		t.Fatalf("read monthly sheet: %v", err)
	}
	if len(rows) != 13 {
		t.Fatalf("monthly sheet has %d rows, want header + 12 buckets", len(rows))
	}
	if rows[len(rows)-1][0] != "Aug 2026" {
		t.Errorf("last bucket = %q, want Aug 2026", rows[len(rows)-1][0])
	}
}
