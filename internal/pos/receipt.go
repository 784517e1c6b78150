package pos

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"stockkeeper/internal/domain"
)

type ReceiptLine struct {
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	LineTotal float64 `json:"line_total"`
}

// Receipt is the export structure handed to the print layer. LineTotal
// values always sum to Total.
type Receipt struct {
	BusinessName string        `json:"business_name"`
	Address      string        `json:"address"`
	Phone        string        `json:"phone"`
	Currency     string        `json:"currency"`
	Lines        []ReceiptLine `json:"lines"`
	Total        float64       `json:"total"`
	IssuedAt     time.Time     `json:"issued_at"`
}

// BuildReceipt reassembles one order from its sale rows. The rows are the
// frozen snapshots written at commit time, so the receipt reproduces the
// original sale even after product renames or price edits.
func BuildReceipt(business domain.Business, sales []domain.Sale) (Receipt, error) {
	if len(sales) == 0 {
		return Receipt{}, fmt.Errorf("%w: no sale rows for receipt", domain.ErrNotFound)
	}

	receipt := Receipt{
		BusinessName: business.Name,
		Address:      business.Address,
		Phone:        business.Phone,
		Currency:     business.Currency,
		IssuedAt:     sales[0].SoldAt,
	}
	for _, sale := range sales {
		unit := 0.0
		if sale.Quantity > 0 {
			unit = sale.TotalAmount / float64(sale.Quantity)
		}
		receipt.Lines = append(receipt.Lines, ReceiptLine{
			Name:      sale.ProductName,
			Quantity:  sale.Quantity,
			UnitPrice: unit,
			LineTotal: sale.TotalAmount,
		})
		receipt.Total += sale.TotalAmount
	}
	return receipt, nil
}

// RenderPDF lays the receipt out for an 80mm thermal printer.
func (r Receipt) RenderPDF() ([]byte, error) {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: 80, Ht: 200},
	})
	pdf.SetMargins(5, 8, 5)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 12)
	title := r.BusinessName
	if title == "" {
		title = "SALES RECEIPT"
	}
	pdf.CellFormat(70, 6, title, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	if r.Address != "" {
		pdf.CellFormat(70, 4, r.Address, "", 1, "C", false, 0, "")
	}
	if r.Phone != "" {
		pdf.CellFormat(70, 4, r.Phone, "", 1, "C", false, 0, "")
	}
	pdf.CellFormat(70, 4, r.IssuedAt.Format("2006-01-02 15:04:05"), "", 1, "C", false, 0, "")
	pdf.CellFormat(70, 4, "--------------------------------", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(34, 5, "Item", "", 0, "L", false, 0, "")
	pdf.CellFormat(10, 5, "Qty", "", 0, "C", false, 0, "")
	pdf.CellFormat(26, 5, "Amount", "", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	for _, line := range r.Lines {
		pdf.CellFormat(34, 5, line.Name, "", 0, "L", false, 0, "")
		pdf.CellFormat(10, 5, fmt.Sprintf("%d", line.Quantity), "", 0, "C", false, 0, "")
		pdf.CellFormat(26, 5, fmt.Sprintf("%s %.2f", r.Currency, line.LineTotal), "", 1, "R", false, 0, "")
	}

	pdf.CellFormat(70, 4, "--------------------------------", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(44, 6, "TOTAL", "", 0, "L", false, 0, "")
	pdf.CellFormat(26, 6, fmt.Sprintf("%s %.2f", r.Currency, r.Total), "", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(70, 5, "Thank you for your patronage!", "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render receipt pdf: %w", err)
	}
	return buf.Bytes(), nil
}
