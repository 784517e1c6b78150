package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stockkeeper/internal/config"
	"stockkeeper/internal/domain"
	"stockkeeper/internal/pos"
	"stockkeeper/internal/report"
	"stockkeeper/internal/repository"
)

const defaultMinStock = 5

type Service struct {
	repo *repository.Repository
	tax  config.TaxPolicy
}

func New(repo *repository.Repository, tax config.TaxPolicy) *Service {
	return &Service{repo: repo, tax: tax}
}

func (s *Service) ListProducts(ctx context.Context, businessID string, filter repository.ProductListFilter) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx, businessID, filter)
}

func (s *Service) GetProduct(ctx context.Context, businessID, id string) (*domain.Product, error) {
	return s.repo.GetProduct(ctx, businessID, id)
}

func (s *Service) AddProduct(ctx context.Context, input repository.ProductCreateInput) (domain.Product, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Category = strings.TrimSpace(input.Category)
	if input.Name == "" {
		return domain.Product{}, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if input.Category == "" {
		return domain.Product{}, fmt.Errorf("%w: category is required", domain.ErrInvalidInput)
	}
	if input.Stock < 0 {
		return domain.Product{}, fmt.Errorf("%w: stock cannot be negative", domain.ErrInvalidInput)
	}
	if input.Price < 0 || input.CostPrice < 0 {
		return domain.Product{}, fmt.Errorf("%w: prices cannot be negative", domain.ErrInvalidInput)
	}
	if input.MinStock <= 0 {
		input.MinStock = defaultMinStock
	}
	return s.repo.CreateProduct(ctx, input)
}

func (s *Service) UpdatePrice(ctx context.Context, businessID, id string, price float64) error {
	if price < 0 {
		return fmt.Errorf("%w: price cannot be negative", domain.ErrInvalidInput)
	}
	return s.repo.UpdatePrice(ctx, businessID, id, price)
}

func (s *Service) AdjustStock(ctx context.Context, businessID, id string, delta int) error {
	if delta == 0 {
		return fmt.Errorf("%w: delta cannot be zero", domain.ErrInvalidInput)
	}
	return s.repo.AdjustStock(ctx, businessID, id, delta)
}

func (s *Service) SetStock(ctx context.Context, businessID, id string, stock int) error {
	if stock < 0 {
		return fmt.Errorf("%w: stock cannot be negative", domain.ErrInvalidInput)
	}
	return s.repo.SetStock(ctx, businessID, id, stock)
}

// Checkout converts cart lines into committed sale rows and stock
// decrements. The shared timestamp is assigned exactly once here and
// reused unmodified on every row of the order.
func (s *Service) Checkout(ctx context.Context, businessID string, lines []domain.CheckoutLine) (*domain.CheckoutResult, error) {
	soldAt := time.Now().UTC().Truncate(time.Microsecond)
	sales, err := pos.BuildSales(businessID, soldAt, lines)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Checkout(ctx, businessID, sales); err != nil {
		return nil, err
	}

	result := &domain.CheckoutResult{
		Total:  pos.SalesTotal(sales),
		SoldAt: soldAt,
	}
	for _, sale := range sales {
		result.SaleIDs = append(result.SaleIDs, sale.ID)
	}
	return result, nil
}

func (s *Service) ListSales(ctx context.Context, businessID string, limit, offset int) ([]domain.Sale, error) {
	return s.repo.ListSales(ctx, businessID, limit, offset)
}

// SalesHistory returns the whole sales ledger oldest-first, for exports.
func (s *Service) SalesHistory(ctx context.Context, businessID string) ([]domain.Sale, error) {
	return s.repo.ListAllSales(ctx, businessID)
}

func (s *Service) DeleteSale(ctx context.Context, businessID, id string) error {
	return s.repo.DeleteSale(ctx, businessID, id)
}

// OrderReceipt rebuilds the receipt for one order from its sale rows,
// located by the shared checkout timestamp.
func (s *Service) OrderReceipt(ctx context.Context, businessID string, soldAt time.Time) (*pos.Receipt, error) {
	business, err := s.repo.GetBusiness(ctx, businessID)
	if err != nil {
		return nil, err
	}
	sales, err := s.repo.SalesBySoldAt(ctx, businessID, soldAt)
	if err != nil {
		return nil, err
	}
	receipt, err := pos.BuildReceipt(*business, sales)
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (s *Service) RecordExpense(ctx context.Context, expense domain.Expense) (domain.Expense, error) {
	expense.Description = strings.TrimSpace(expense.Description)
	if expense.Description == "" {
		return domain.Expense{}, fmt.Errorf("%w: description is required", domain.ErrInvalidInput)
	}
	if expense.Amount <= 0 {
		return domain.Expense{}, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidInput)
	}
	if expense.SpentAt.IsZero() {
		expense.SpentAt = time.Now().UTC()
	}
	return s.repo.RecordExpense(ctx, expense)
}

func (s *Service) DeleteExpense(ctx context.Context, businessID, id string) error {
	return s.repo.DeleteExpense(ctx, businessID, id)
}

func (s *Service) ListExpenses(ctx context.Context, businessID string) ([]domain.Expense, error) {
	return s.repo.ListExpenses(ctx, businessID)
}

// GetReport recomputes the whole report from the ledgers on every call;
// nothing derived is ever cached or stored.
func (s *Service) GetReport(ctx context.Context, businessID string) (report.Report, error) {
	sales, err := s.repo.ListAllSales(ctx, businessID)
	if err != nil {
		return report.Report{}, err
	}
	expenses, err := s.repo.ListExpenses(ctx, businessID)
	if err != nil {
		return report.Report{}, err
	}
	return report.Aggregate(time.Now(), sales, expenses, s.tax), nil
}

func (s *Service) GetBusiness(ctx context.Context, businessID string) (*domain.Business, error) {
	return s.repo.GetBusiness(ctx, businessID)
}

func (s *Service) UpdateBusiness(ctx context.Context, b domain.Business) (*domain.Business, error) {
	b.Name = strings.TrimSpace(b.Name)
	if b.Currency == "" {
		b.Currency = "NGN"
	}
	if b.TaxRate < 0 {
		return nil, fmt.Errorf("%w: tax rate cannot be negative", domain.ErrInvalidInput)
	}
	if b.Categories == nil {
		b.Categories = []string{}
	}
	return s.repo.UpdateBusiness(ctx, b)
}

func (s *Service) ListStaff(ctx context.Context, businessID string) ([]domain.StaffMember, error) {
	return s.repo.ListStaff(ctx, businessID)
}

func (s *Service) AddStaff(ctx context.Context, member domain.StaffMember) (domain.StaffMember, error) {
	member.Name = strings.TrimSpace(member.Name)
	if member.Name == "" {
		return domain.StaffMember{}, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if member.Role == "" {
		member.Role = "staff"
	}
	if member.Status == "" {
		member.Status = "active"
	}
	return s.repo.AddStaff(ctx, member)
}

func (s *Service) ToggleStaffStatus(ctx context.Context, businessID, id, currentStatus string) error {
	next := "active"
	if currentStatus == "active" {
		next = "inactive"
	}
	return s.repo.SetStaffStatus(ctx, businessID, id, next)
}

func (s *Service) DeleteStaff(ctx context.Context, businessID, id string) error {
	return s.repo.DeleteStaff(ctx, businessID, id)
}

func (s *Service) DashboardSummary(ctx context.Context, businessID string) (domain.DashboardSummary, error) {
	return s.repo.GetDashboardSummary(ctx, businessID)
}
