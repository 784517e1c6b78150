//go:build integration

package repository

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"stockkeeper/internal/db"
	"stockkeeper/internal/domain"
	"stockkeeper/internal/pos"
)

// These tests need a reachable Postgres; run them with
//
//	DATABASE_URL=postgres://... go test -tags integration ./internal/repository
func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, url, 10)
	if err != nil {
		t.Fatalf("open pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := db.RunMigrations(ctx, pool); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return New(pool)
}

func createTestProduct(t *testing.T, repo *Repository, businessID, name string, stock int, price, cost float64) domain.Product {
	t.Helper()
	product, err := repo.CreateProduct(context.Background(), ProductCreateInput{
		BusinessID: businessID,
		Name:       name,
		Category:   "Test",
		Stock:      stock,
		Price:      price,
		CostPrice:  cost,
		MinStock:   5,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

func buildTestSales(t *testing.T, businessID string, soldAt time.Time, lines []domain.CheckoutLine) []domain.Sale {
	t.Helper()
	sales, err := pos.BuildSales(businessID, soldAt, lines)
	if err != nil {
		t.Fatalf("build sales: %v", err)
	}
	return sales
}

// A brand-new business id must be able to write its first record without
// visiting the settings endpoint first.
func TestFirstWriteCreatesBusinessRow(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	businessID := uuid.NewString()
	product := createTestProduct(t, repo, businessID, "First Product", 3, 500, 300)
	if product.BusinessID != businessID {
		t.Fatalf("businessID = %q, want %q", product.BusinessID, businessID)
	}

	otherID := uuid.NewString()
	if _, err := repo.RecordExpense(ctx, domain.Expense{
		BusinessID:  otherID,
		Description: "Fuel",
		Amount:      1500,
		SpentAt:     time.Now().UTC(),
	}); err != nil {
		t.Fatalf("record expense for fresh business: %v", err)
	}

	thirdID := uuid.NewString()
	if _, err := repo.AddStaff(ctx, domain.StaffMember{
		BusinessID: thirdID,
		Name:       "Ada",
		Role:       "staff",
		Status:     "active",
	}); err != nil {
		t.Fatalf("add staff for fresh business: %v", err)
	}
}

func TestCheckoutCommitsSalesAndStock(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	businessID := uuid.NewString()
	a := createTestProduct(t, repo, businessID, "Soap", 10, 500, 300)
	b := createTestProduct(t, repo, businessID, "Oil", 10, 1000, 700)

	soldAt := time.Now().UTC().Truncate(time.Microsecond)
	sales := buildTestSales(t, businessID, soldAt, []domain.CheckoutLine{
		{ProductID: a.ID, Name: a.Name, Quantity: 2, Price: 500, Cost: 300},
		{ProductID: b.ID, Name: b.Name, Quantity: 1, Price: 1000, Cost: 700},
	})
	if err := repo.Checkout(ctx, businessID, sales); err != nil {
		t.Fatalf("checkout: %v", err)
	}

	rows, err := repo.SalesBySoldAt(ctx, businessID, soldAt)
	if err != nil {
		t.Fatalf("sales by sold_at: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d sale rows, want 2", len(rows))
	}

	gotA, err := repo.GetProduct(ctx, businessID, a.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	gotB, err := repo.GetProduct(ctx, businessID, b.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if gotA.Stock != 8 || gotB.Stock != 9 {
		t.Fatalf("stock = %d/%d, want 8/9", gotA.Stock, gotB.Stock)
	}
}

// A failed line must abort the whole order: no sale rows survive and no
// stock moves, including lines committed before the failing one.
func TestCheckoutRollsBackWholeOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	businessID := uuid.NewString()
	a := createTestProduct(t, repo, businessID, "Soap", 5, 500, 300)
	b := createTestProduct(t, repo, businessID, "Oil", 1, 1000, 700)

	soldAt := time.Now().UTC().Truncate(time.Microsecond)
	sales := buildTestSales(t, businessID, soldAt, []domain.CheckoutLine{
		{ProductID: a.ID, Name: a.Name, Quantity: 1, Price: 500, Cost: 300},
		{ProductID: b.ID, Name: b.Name, Quantity: 2, Price: 1000, Cost: 700},
	})

	err := repo.Checkout(ctx, businessID, sales)
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}

	rows, err := repo.SalesBySoldAt(ctx, businessID, soldAt)
	if err != nil {
		t.Fatalf("sales by sold_at: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("got %d sale rows after rollback, want 0", len(rows))
	}

	gotA, err := repo.GetProduct(ctx, businessID, a.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if gotA.Stock != 5 {
		t.Fatalf("first line's stock = %d after rollback, want 5", gotA.Stock)
	}
}

func TestCheckoutMissingProduct(t *testing.T) {
	repo := newTestRepo(t)

	businessID := uuid.NewString()
	createTestProduct(t, repo, businessID, "Soap", 5, 500, 300)

	soldAt := time.Now().UTC().Truncate(time.Microsecond)
	sales := buildTestSales(t, businessID, soldAt, []domain.CheckoutLine{
		{ProductID: uuid.NewString(), Name: "Ghost", Quantity: 1, Price: 100, Cost: 50},
	})

	if err := repo.Checkout(context.Background(), businessID, sales); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

// Two checkouts racing for the last unit: exactly one commits, the loser
// fails with ErrInsufficientStock, and stock never goes negative.
func TestCheckoutConcurrentOversell(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	businessID := uuid.NewString()
	product := createTestProduct(t, repo, businessID, "Last Unit", 1, 500, 300)

	base := time.Now().UTC().Truncate(time.Microsecond)
	orders := make([][]domain.Sale, 2)
	for i := range orders {
		orders[i] = buildTestSales(t, businessID, base.Add(time.Duration(i)*time.Microsecond), []domain.CheckoutLine{
			{ProductID: product.ID, Name: product.Name, Quantity: 1, Price: 500, Cost: 300},
		})
	}

	results := make([]error, 2)
	var wg sync.WaitGroup
	for i := range orders {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = repo.Checkout(ctx, businessID, orders[i])
		}(i)
	}
	wg.Wait()

	var committed, insufficient int
	for _, err := range results {
		switch {
		case err == nil:
			committed++
		case errors.Is(err, domain.ErrInsufficientStock):
			insufficient++
		default:
			t.Fatalf("unexpected checkout error: %v", err)
		}
	}
	if committed != 1 || insufficient != 1 {
		t.Fatalf("committed=%d insufficient=%d, want exactly one of each", committed, insufficient)
	}

	got, err := repo.GetProduct(ctx, businessID, product.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if got.Stock != 0 {
		t.Fatalf("stock = %d after racing checkouts, want 0", got.Stock)
	}

	all, err := repo.ListAllSales(ctx, businessID)
	if err != nil {
		t.Fatalf("list sales: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("got %d committed sale rows, want 1", len(all))
	}
}
