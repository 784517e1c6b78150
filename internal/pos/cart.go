package pos

import "stockkeeper/internal/domain"

// Line is one pending cart entry. Price, Cost and the stock cap are
// captured from the product snapshot at add time; the cap only guards the
// UI against obvious overselling — the checkout transaction re-checks
// stock against the store.
type Line struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	Cost      float64 `json:"cost"`
	Stock     int     `json:"stock"`
}

// Cart accumulates lines for one checkout session. Insertion order is
// preserved for display and receipt reproducibility. The cart carries no
// authority over stock.
type Cart struct {
	lines []Line
	index map[string]int
}

func NewCart() *Cart {
	return &Cart{index: make(map[string]int)}
}

// AddLine adds one unit of the product, or increments an existing line.
// Incrementing past the snapshot stock is a silent no-op, not an error.
func (c *Cart) AddLine(product domain.Product) {
	if i, ok := c.index[product.ID]; ok {
		if c.lines[i].Quantity >= c.lines[i].Stock {
			return
		}
		c.lines[i].Quantity++
		return
	}
	if product.Stock < 1 {
		return
	}
	c.index[product.ID] = len(c.lines)
	c.lines = append(c.lines, Line{
		ProductID: product.ID,
		Name:      product.Name,
		Quantity:  1,
		Price:     product.Price,
		Cost:      product.CostPrice,
		Stock:     product.Stock,
	})
}

// AdjustQuantity applies delta, clamped to [1, snapshot stock].
// Out-of-range requests are no-ops since this is advisory pre-commit state.
func (c *Cart) AdjustQuantity(productID string, delta int) {
	i, ok := c.index[productID]
	if !ok {
		return
	}
	next := c.lines[i].Quantity + delta
	if next < 1 || next > c.lines[i].Stock {
		return
	}
	c.lines[i].Quantity = next
}

func (c *Cart) RemoveLine(productID string) {
	i, ok := c.index[productID]
	if !ok {
		return
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	delete(c.index, productID)
	for j := i; j < len(c.lines); j++ {
		c.index[c.lines[j].ProductID] = j
	}
}

// Total is the display total: sum of unit price times quantity.
func (c *Cart) Total() float64 {
	total := 0.0
	for _, line := range c.lines {
		total += line.Price * float64(line.Quantity)
	}
	return total
}

func (c *Cart) Len() int {
	return len(c.lines)
}

// Lines returns the cart contents in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// CheckoutLines converts the cart into the shape the checkout committer
// accepts, preserving line order.
func (c *Cart) CheckoutLines() []domain.CheckoutLine {
	out := make([]domain.CheckoutLine, 0, len(c.lines))
	for _, line := range c.lines {
		out = append(out, domain.CheckoutLine{
			ProductID: line.ProductID,
			Name:      line.Name,
			Quantity:  line.Quantity,
			Price:     line.Price,
			Cost:      line.Cost,
		})
	}
	return out
}
