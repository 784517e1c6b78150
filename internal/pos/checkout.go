package pos

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"stockkeeper/internal/domain"
)

// BuildSales turns validated cart lines into sale rows. Every row carries
// the same soldAt timestamp unmodified; that shared timestamp is the only
// linkage that regroups the lines back into one order later.
func BuildSales(businessID string, soldAt time.Time, lines []domain.CheckoutLine) ([]domain.Sale, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", domain.ErrInvalidInput)
	}

	sales := make([]domain.Sale, 0, len(lines))
	for _, line := range lines {
		if line.ProductID == "" {
			return nil, fmt.Errorf("%w: product id is required", domain.ErrInvalidInput)
		}
		if line.Quantity < 1 {
			return nil, fmt.Errorf("%w: invalid quantity for %q", domain.ErrInvalidInput, line.Name)
		}
		if line.Price < 0 || line.Cost < 0 {
			return nil, fmt.Errorf("%w: negative price for %q", domain.ErrInvalidInput, line.Name)
		}

		total := line.Price * float64(line.Quantity)
		cost := line.Cost * float64(line.Quantity)
		sales = append(sales, domain.Sale{
			ID:          uuid.NewString(),
			BusinessID:  businessID,
			ProductID:   line.ProductID,
			ProductName: line.Name,
			Quantity:    line.Quantity,
			TotalAmount: total,
			CostAtSale:  cost,
			Profit:      total - cost,
			SoldAt:      soldAt,
		})
	}
	return sales, nil
}

// SalesTotal sums the sale rows of one order; it must equal the cart total
// computed before commit.
func SalesTotal(sales []domain.Sale) float64 {
	total := 0.0
	for _, sale := range sales {
		total += sale.TotalAmount
	}
	return total
}
