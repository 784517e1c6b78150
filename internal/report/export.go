package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"stockkeeper/internal/domain"
)

var salesCSVHeader = []string{"id", "product_name", "quantity", "total_amount", "cost_at_sale", "profit", "sold_at"}

// SalesCSV flattens sale rows into delimited text: one header row plus one
// data row per sale. Free-text fields are quoted and escaped by the csv
// writer, so embedded delimiters round-trip.
func SalesCSV(sales []domain.Sale) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(salesCSVHeader); err != nil {
		return nil, fmt.Errorf("write sales csv header: %w", err)
	}
	for _, sale := range sales {
		record := []string{
			sale.ID,
			sale.ProductName,
			strconv.Itoa(sale.Quantity),
			formatAmount(sale.TotalAmount),
			formatAmount(sale.CostAtSale),
			formatAmount(sale.Profit),
			sale.SoldAt.Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write sales csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush sales csv: %w", err)
	}
	return buf.Bytes(), nil
}

// SummaryCSV mirrors the report summary layout: financials, metrics and
// the top-products table in labeled sections.
func SummaryCSV(r Report) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	sections := [][]string{
		{"STOCKKEEPER REPORT SUMMARY"},
		{"Generated Date", r.GeneratedAt.Format("2006-01-02")},
		{},
		{"FINANCIALS"},
		{"Total Revenue (Sales)", formatAmount(r.TotalRevenue)},
		{"Total Gross Profit", formatAmount(r.TotalGrossProfit)},
		{"Operating Expenses", formatAmount(r.TotalOperatingExpenses)},
		{"Net Profit (Est.)", formatAmount(r.NetProfit)},
		{fmt.Sprintf("VAT Collected (%.1f%%)", r.Tax.VATRate*100), formatAmount(r.Tax.VAT)},
		{"Est. CIT", formatAmount(r.Tax.CIT)},
		{},
		{"METRICS"},
		{"Total Items Sold", strconv.Itoa(r.TotalItemsSold)},
		{"Avg. Monthly Revenue", formatAmount(r.AverageMonthlyRevenue)},
		{},
		{"TOP SELLING PRODUCTS"},
		{"Product Name", "Quantity Sold", "Revenue Generated"},
	}
	for _, record := range sections {
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write summary csv: %w", err)
		}
	}
	for _, product := range r.TopProducts {
		record := []string{product.Name, strconv.Itoa(product.Quantity), formatAmount(product.Revenue)}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write summary csv: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush summary csv: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteXLSX builds a three-sheet workbook: summary figures, the twelve
// monthly buckets, and the top products.
func WriteXLSX(r Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const summary = "Summary"
	if err := f.SetSheetName("Sheet1", summary); err != nil {
		return nil, fmt.Errorf("rename summary sheet: %w", err)
	}

	summaryRows := [][]any{
		{"Stockkeeper Report", r.GeneratedAt.Format("2006-01-02")},
		{},
		{"Total Revenue", r.TotalRevenue},
		{"Total Gross Profit", r.TotalGrossProfit},
		{"Operating Expenses", r.TotalOperatingExpenses},
		{"Net Profit", r.NetProfit},
		{"Total Items Sold", r.TotalItemsSold},
		{"Avg. Monthly Revenue", r.AverageMonthlyRevenue},
		{},
		{fmt.Sprintf("VAT (%.1f%%)", r.Tax.VATRate*100), r.Tax.VAT},
		{"CIT Exempt", r.Tax.Exempt},
		{"Est. CIT", r.Tax.CIT},
	}
	for i, row := range summaryRows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, fmt.Errorf("summary cell name: %w", err)
		}
		if err := f.SetSheetRow(summary, cell, &row); err != nil {
			return nil, fmt.Errorf("write summary row: %w", err)
		}
	}

	const monthly = "Monthly Trend"
	if _, err := f.NewSheet(monthly); err != nil {
		return nil, fmt.Errorf("create monthly sheet: %w", err)
	}
	if err := f.SetSheetRow(monthly, "A1", &[]any{"Month", "Revenue", "Items Sold"}); err != nil {
		return nil, fmt.Errorf("write monthly header: %w", err)
	}
	for i, bucket := range r.SalesByMonth {
		row := []any{bucket.Month, bucket.Total, bucket.Items}
		if err := f.SetSheetRow(monthly, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return nil, fmt.Errorf("write monthly row: %w", err)
		}
	}

	const top = "Top Products"
	if _, err := f.NewSheet(top); err != nil {
		return nil, fmt.Errorf("create top products sheet: %w", err)
	}
	if err := f.SetSheetRow(top, "A1", &[]any{"Product Name", "Quantity Sold", "Revenue"}); err != nil {
		return nil, fmt.Errorf("write top products header: %w", err)
	}
	for i, product := range r.TopProducts {
		row := []any{product.Name, product.Quantity, product.Revenue}
		if err := f.SetSheetRow(top, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return nil, fmt.Errorf("write top product row: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write report workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func formatAmount(value float64) string {
	return strconv.FormatFloat(value, 'f', 2, 64)
}
