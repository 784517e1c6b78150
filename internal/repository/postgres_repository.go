package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"stockkeeper/internal/domain"
)

type ProductListFilter struct {
	Search       string
	LowStockOnly bool
	Limit        int
	Offset       int
}

type ProductCreateInput struct {
	BusinessID string
	Name       string
	Category   string
	Stock      int
	Price      float64
	CostPrice  float64
	MinStock   int
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) ListProducts(ctx context.Context, businessID string, filter ProductListFilter) ([]domain.Product, error) {
	limit := normalizeLimit(filter.Limit)
	offset := normalizeOffset(filter.Offset)
	search := strings.TrimSpace(filter.Search)

	query := `
		SELECT
			id,
			business_id,
			name,
			category,
			stock,
			price::double precision,
			cost_price::double precision,
			min_stock,
			created_at,
			updated_at
		FROM products
		WHERE business_id = $1
		  AND ($2 = '' OR name ILIKE '%' || $2 || '%' OR category ILIKE '%' || $2 || '%')
	`
	if filter.LowStockOnly {
		query += " AND stock <= min_stock"
	}
	query += " ORDER BY created_at ASC, id ASC LIMIT $3 OFFSET $4"

	rows, err := r.pool.Query(ctx, query, businessID, search, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0, limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

func (r *Repository) GetProduct(ctx context.Context, businessID, id string) (*domain.Product, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT
			id,
			business_id,
			name,
			category,
			stock,
			price::double precision,
			cost_price::double precision,
			min_stock,
			created_at,
			updated_at
		FROM products
		WHERE id = $1 AND business_id = $2
	`, id, businessID)
	product, err := scanProductRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	return &product, nil
}

func (r *Repository) CreateProduct(ctx context.Context, input ProductCreateInput) (domain.Product, error) {
	if err := r.ensureBusiness(ctx, input.BusinessID); err != nil {
		return domain.Product{}, err
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO products (
			id,
			business_id,
			name,
			category,
			stock,
			price,
			cost_price,
			min_stock
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING
			id,
			business_id,
			name,
			category,
			stock,
			price::double precision,
			cost_price::double precision,
			min_stock,
			created_at,
			updated_at
	`,
		uuid.NewString(),
		input.BusinessID,
		input.Name,
		input.Category,
		input.Stock,
		input.Price,
		input.CostPrice,
		input.MinStock,
	)
	product, err := scanProductRow(row)
	if err != nil {
		return domain.Product{}, fmt.Errorf("create product: %w", err)
	}
	return product, nil
}

// UpdatePrice changes the selling price only; cost price stays untouched so
// profit never collapses into a single "price" field.
func (r *Repository) UpdatePrice(ctx context.Context, businessID, id string, price float64) error {
	cmd, err := r.pool.Exec(ctx, `
		UPDATE products
		SET price = $3, updated_at = NOW()
		WHERE id = $1 AND business_id = $2
	`, id, businessID, price)
	if err != nil {
		return fmt.Errorf("update price for %s: %w", id, err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AdjustStock applies a signed delta conditionally: the guard is part of
// the UPDATE itself so the check always runs against the stored value,
// never a snapshot a caller read earlier.
func (r *Repository) AdjustStock(ctx context.Context, businessID, id string, delta int) error {
	cmd, err := r.pool.Exec(ctx, `
		UPDATE products
		SET stock = stock + $3, updated_at = NOW()
		WHERE id = $1 AND business_id = $2 AND stock + $3 >= 0
	`, id, businessID, delta)
	if err != nil {
		return fmt.Errorf("adjust stock for %s: %w", id, err)
	}
	if cmd.RowsAffected() == 0 {
		return r.classifyStockFailure(ctx, businessID, id)
	}
	return nil
}

// SetStock is the manual restock edit: an absolute non-negative value.
func (r *Repository) SetStock(ctx context.Context, businessID, id string, stock int) error {
	cmd, err := r.pool.Exec(ctx, `
		UPDATE products
		SET stock = $3, updated_at = NOW()
		WHERE id = $1 AND business_id = $2
	`, id, businessID, stock)
	if err != nil {
		return fmt.Errorf("set stock for %s: %w", id, err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Checkout commits one order as a single all-or-nothing transaction: per
// cart line, in cart order, it inserts the sale row and then decrements
// stock with a conditional update. A decrement that matches no row because
// stock fell below the requested quantity aborts the whole checkout with
// ErrInsufficientStock, so two concurrent checkouts can never oversell the
// same unit — the loser's update simply finds too little stock and the
// transaction rolls back.
func (r *Repository) Checkout(ctx context.Context, businessID string, sales []domain.Sale) error {
	if len(sales) == 0 {
		return fmt.Errorf("%w: no sale rows", domain.ErrInvalidInput)
	}
	if err := r.ensureBusiness(ctx, businessID); err != nil {
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin checkout tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, sale := range sales {
		if _, err := tx.Exec(ctx, `
			INSERT INTO sales (
				id,
				business_id,
				product_id,
				product_name,
				quantity,
				total_amount,
				cost_at_sale,
				profit,
				sold_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`,
			sale.ID,
			businessID,
			sale.ProductID,
			sale.ProductName,
			sale.Quantity,
			sale.TotalAmount,
			sale.CostAtSale,
			sale.Profit,
			sale.SoldAt,
		); err != nil {
			return fmt.Errorf("insert sale for %q: %w", sale.ProductName, err)
		}

		cmd, err := tx.Exec(ctx, `
			UPDATE products
			SET stock = stock - $3, updated_at = NOW()
			WHERE id = $1 AND business_id = $2 AND stock >= $3
		`, sale.ProductID, businessID, sale.Quantity)
		if err != nil {
			return fmt.Errorf("decrement stock for %q: %w", sale.ProductName, err)
		}
		if cmd.RowsAffected() == 0 {
			if err := txClassifyStockFailure(ctx, tx, businessID, sale.ProductID); err != nil {
				return fmt.Errorf("%w: %s", err, sale.ProductName)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit checkout tx: %w", err)
	}
	return nil
}

func (r *Repository) ListSales(ctx context.Context, businessID string, limit, offset int) ([]domain.Sale, error) {
	return r.querySales(ctx, `
		SELECT
			id, business_id, product_id, product_name,
			quantity, total_amount::double precision,
			cost_at_sale::double precision, profit::double precision, sold_at
		FROM sales
		WHERE business_id = $1
		ORDER BY sold_at DESC, id ASC
		LIMIT $2 OFFSET $3
	`, businessID, normalizeLimit(limit), normalizeOffset(offset))
}

// ListAllSales feeds the report aggregator: lifetime totals need every row.
func (r *Repository) ListAllSales(ctx context.Context, businessID string) ([]domain.Sale, error) {
	return r.querySales(ctx, `
		SELECT
			id, business_id, product_id, product_name,
			quantity, total_amount::double precision,
			cost_at_sale::double precision, profit::double precision, sold_at
		FROM sales
		WHERE business_id = $1
		ORDER BY sold_at ASC, id ASC
	`, businessID)
}

// SalesBySoldAt returns the lines of one order. The shared checkout
// timestamp is the only linkage between them.
func (r *Repository) SalesBySoldAt(ctx context.Context, businessID string, soldAt time.Time) ([]domain.Sale, error) {
	return r.querySales(ctx, `
		SELECT
			id, business_id, product_id, product_name,
			quantity, total_amount::double precision,
			cost_at_sale::double precision, profit::double precision, sold_at
		FROM sales
		WHERE business_id = $1 AND sold_at = $2
		ORDER BY id ASC
	`, businessID, soldAt)
}

func (r *Repository) DeleteSale(ctx context.Context, businessID, id string) error {
	cmd, err := r.pool.Exec(ctx, "DELETE FROM sales WHERE id = $1 AND business_id = $2", id, businessID)
	if err != nil {
		return fmt.Errorf("delete sale %s: %w", id, err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) RecordExpense(ctx context.Context, expense domain.Expense) (domain.Expense, error) {
	if err := r.ensureBusiness(ctx, expense.BusinessID); err != nil {
		return domain.Expense{}, err
	}
	expense.ID = uuid.NewString()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO expenses (id, business_id, description, amount, category, spent_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, business_id, description, amount::double precision, category, spent_at
	`,
		expense.ID,
		expense.BusinessID,
		expense.Description,
		expense.Amount,
		expense.Category,
		expense.SpentAt,
	)
	var created domain.Expense
	if err := row.Scan(
		&created.ID,
		&created.BusinessID,
		&created.Description,
		&created.Amount,
		&created.Category,
		&created.SpentAt,
	); err != nil {
		return domain.Expense{}, fmt.Errorf("record expense: %w", err)
	}
	return created, nil
}

func (r *Repository) DeleteExpense(ctx context.Context, businessID, id string) error {
	cmd, err := r.pool.Exec(ctx, "DELETE FROM expenses WHERE id = $1 AND business_id = $2", id, businessID)
	if err != nil {
		return fmt.Errorf("delete expense %s: %w", id, err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) ListExpenses(ctx context.Context, businessID string) ([]domain.Expense, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, business_id, description, amount::double precision, category, spent_at
		FROM expenses
		WHERE business_id = $1
		ORDER BY spent_at DESC, id ASC
	`, businessID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	expenses := make([]domain.Expense, 0)
	for rows.Next() {
		var e domain.Expense
		if err := rows.Scan(&e.ID, &e.BusinessID, &e.Description, &e.Amount, &e.Category, &e.SpentAt); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return expenses, nil
}

// GetBusiness loads the per-owner settings record, creating it with
// defaults on first touch so new sign-ups always have one.
func (r *Repository) GetBusiness(ctx context.Context, businessID string) (*domain.Business, error) {
	if err := r.ensureBusiness(ctx, businessID); err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		SELECT id, name, address, phone, currency, tax_rate::double precision, categories, updated_at
		FROM businesses
		WHERE id = $1
	`, businessID)
	var b domain.Business
	if err := row.Scan(&b.ID, &b.Name, &b.Address, &b.Phone, &b.Currency, &b.TaxRate, &b.Categories, &b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get business %s: %w", businessID, err)
	}
	return &b, nil
}

func (r *Repository) UpdateBusiness(ctx context.Context, b domain.Business) (*domain.Business, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO businesses (id, name, address, phone, currency, tax_rate, categories, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			address = EXCLUDED.address,
			phone = EXCLUDED.phone,
			currency = EXCLUDED.currency,
			tax_rate = EXCLUDED.tax_rate,
			categories = EXCLUDED.categories,
			updated_at = NOW()
		RETURNING id, name, address, phone, currency, tax_rate::double precision, categories, updated_at
	`, b.ID, b.Name, b.Address, b.Phone, b.Currency, b.TaxRate, b.Categories)
	var updated domain.Business
	if err := row.Scan(
		&updated.ID,
		&updated.Name,
		&updated.Address,
		&updated.Phone,
		&updated.Currency,
		&updated.TaxRate,
		&updated.Categories,
		&updated.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("update business %s: %w", b.ID, err)
	}
	return &updated, nil
}

func (r *Repository) ListStaff(ctx context.Context, businessID string) ([]domain.StaffMember, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, business_id, name, email, phone, role, status, created_at
		FROM staff
		WHERE business_id = $1
		ORDER BY created_at ASC, id ASC
	`, businessID)
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	defer rows.Close()

	members := make([]domain.StaffMember, 0)
	for rows.Next() {
		var m domain.StaffMember
		if err := rows.Scan(&m.ID, &m.BusinessID, &m.Name, &m.Email, &m.Phone, &m.Role, &m.Status, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan staff member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate staff: %w", err)
	}
	return members, nil
}

func (r *Repository) AddStaff(ctx context.Context, member domain.StaffMember) (domain.StaffMember, error) {
	if err := r.ensureBusiness(ctx, member.BusinessID); err != nil {
		return domain.StaffMember{}, err
	}
	member.ID = uuid.NewString()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO staff (id, business_id, name, email, phone, role, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, business_id, name, email, phone, role, status, created_at
	`, member.ID, member.BusinessID, member.Name, member.Email, member.Phone, member.Role, member.Status)
	var created domain.StaffMember
	if err := row.Scan(
		&created.ID,
		&created.BusinessID,
		&created.Name,
		&created.Email,
		&created.Phone,
		&created.Role,
		&created.Status,
		&created.CreatedAt,
	); err != nil {
		return domain.StaffMember{}, fmt.Errorf("add staff member: %w", err)
	}
	return created, nil
}

func (r *Repository) SetStaffStatus(ctx context.Context, businessID, id, status string) error {
	cmd, err := r.pool.Exec(ctx, `
		UPDATE staff SET status = $3
		WHERE id = $1 AND business_id = $2
	`, id, businessID, status)
	if err != nil {
		return fmt.Errorf("set staff status %s: %w", id, err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteStaff(ctx context.Context, businessID, id string) error {
	cmd, err := r.pool.Exec(ctx, "DELETE FROM staff WHERE id = $1 AND business_id = $2", id, businessID)
	if err != nil {
		return fmt.Errorf("delete staff member %s: %w", id, err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) GetDashboardSummary(ctx context.Context, businessID string) (domain.DashboardSummary, error) {
	var summary domain.DashboardSummary

	row := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*)::int,
			COUNT(CASE WHEN stock <= min_stock THEN 1 END)::int,
			COALESCE(SUM(stock * cost_price), 0)::double precision
		FROM products
		WHERE business_id = $1
	`, businessID)
	if err := row.Scan(&summary.TotalProducts, &summary.LowStockCount, &summary.InventoryValue); err != nil {
		return domain.DashboardSummary{}, fmt.Errorf("dashboard product summary: %w", err)
	}

	row = r.pool.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN sold_at >= DATE_TRUNC('day', NOW()) THEN total_amount ELSE 0 END), 0)::double precision,
			COALESCE(SUM(CASE WHEN sold_at >= DATE_TRUNC('month', NOW()) THEN total_amount ELSE 0 END), 0)::double precision
		FROM sales
		WHERE business_id = $1
	`, businessID)
	if err := row.Scan(&summary.TodayRevenue, &summary.MonthRevenue); err != nil {
		return domain.DashboardSummary{}, fmt.Errorf("dashboard sales summary: %w", err)
	}

	return summary, nil
}

// ensureBusiness creates the settings row on first touch. Every ledger
// table carries a foreign key to businesses, so a fresh business id must
// get its row before its first write, not just when settings are opened.
func (r *Repository) ensureBusiness(ctx context.Context, businessID string) error {
	if _, err := r.pool.Exec(ctx, `
		INSERT INTO businesses (id) VALUES ($1)
		ON CONFLICT (id) DO NOTHING
	`, businessID); err != nil {
		return fmt.Errorf("ensure business %s: %w", businessID, err)
	}
	return nil
}

func (r *Repository) classifyStockFailure(ctx context.Context, businessID, id string) error {
	var exists bool
	if err := r.pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM products WHERE id = $1 AND business_id = $2)",
		id, businessID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("check product %s: %w", id, err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrInsufficientStock
}

func txClassifyStockFailure(ctx context.Context, tx pgx.Tx, businessID, id string) error {
	var exists bool
	if err := tx.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM products WHERE id = $1 AND business_id = $2)",
		id, businessID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("check product %s: %w", id, err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrInsufficientStock
}

func (r *Repository) querySales(ctx context.Context, query string, args ...any) ([]domain.Sale, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sales: %w", err)
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0)
	for rows.Next() {
		var s domain.Sale
		if err := rows.Scan(
			&s.ID,
			&s.BusinessID,
			&s.ProductID,
			&s.ProductName,
			&s.Quantity,
			&s.TotalAmount,
			&s.CostAtSale,
			&s.Profit,
			&s.SoldAt,
		); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		sales = append(sales, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sales: %w", err)
	}
	return sales, nil
}

func scanProduct(rows pgx.CollectableRow) (domain.Product, error) {
	return scanProductRow(rows)
}

func scanProductRow(row pgx.Row) (domain.Product, error) {
	var p domain.Product
	if err := row.Scan(
		&p.ID,
		&p.BusinessID,
		&p.Name,
		&p.Category,
		&p.Stock,
		&p.Price,
		&p.CostPrice,
		&p.MinStock,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 200
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
