package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"fogonpos/backend/internal/domain"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("invalid input")
)

type OrderFilter struct {
	TenantID string
	BranchID string
	Status   domain.OrderStatus
	Page     int64
	PageSize int64
}

type ShiftFilter struct {
	TenantID string
	BranchID string
	From     time.Time
	To       time.Time
	Page     int64
	PageSize int64
}

type ExpenseFilter struct {
	TenantID string
	BranchID string
	From     time.Time
	To       time.Time
	Page     int64
	PageSize int64
}

// ShiftClose carries the close-time inputs the repository persists in a single
// conditional update. Movement sums and the derived expected/difference are
// computed inside that update so a movement appended after the caller's read
// cannot be silently discarded.
type ShiftClose struct {
	ClosedAt      time.Time
	CashSales     decimal.Decimal
	Denominations []domain.Denomination
	Counted       decimal.Decimal
	Notes         string
}

// Repository is the persistent document store the core orchestrates over.
// Implementations must supply single-document atomicity: unique-constraint
// inserts report ErrConflict, conditional updates succeed only when the
// guard condition still holds at write time.
type Repository interface {
	// Users
	FindActiveUser(ctx context.Context, tenantID, branchID, username string) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	CreateUser(ctx context.Context, user domain.User) (*domain.User, error)
	UpdateUser(ctx context.Context, user domain.User) (*domain.User, error)
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context, tenantID, branchID string) ([]domain.User, error)
	CountUsers(ctx context.Context) (int64, error)

	// Products
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	GetProductByID(ctx context.Context, id string) (*domain.Product, error)
	GetProductsByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	ListProducts(ctx context.Context, tenantID, branchID, category string) ([]domain.Product, error)

	// Orders
	NextOrderNumber(ctx context.Context, tenantID, branchID, day string) (int, error)
	CreateOrder(ctx context.Context, order domain.Order) (*domain.Order, error)
	GetOrderByID(ctx context.Context, id string) (*domain.Order, error)
	ListOrders(ctx context.Context, filter OrderFilter) (domain.Page[domain.Order], error)
	UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus, at time.Time) (*domain.Order, error)
	DeleteOrder(ctx context.Context, id string) error
	CashSalesTotal(ctx context.Context, tenantID, branchID string, from, to time.Time) (decimal.Decimal, error)

	// Cash shifts
	InsertShift(ctx context.Context, shift domain.CashShift) (*domain.CashShift, error)
	GetShiftByID(ctx context.Context, id string) (*domain.CashShift, error)
	GetOpenShift(ctx context.Context, tenantID, branchID string) (*domain.CashShift, error)
	AppendMovement(ctx context.Context, shiftID string, mv domain.CashMovement) error
	CloseShift(ctx context.Context, shiftID string, close ShiftClose) (*domain.CashShift, error)
	ListShifts(ctx context.Context, filter ShiftFilter) (domain.Page[domain.CashShift], error)

	// Expenses
	CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error)
	DeleteExpense(ctx context.Context, id string) error
	ListExpenses(ctx context.Context, filter ExpenseFilter) (domain.Page[domain.Expense], error)

	// Report aggregations (read-only)
	SalesSummary(ctx context.Context, tenantID, branchID string, from, to time.Time) (domain.SalesSummary, error)
	SalesByMethod(ctx context.Context, tenantID, branchID string, from, to time.Time) ([]domain.MethodTotal, error)
	SalesTimeseries(ctx context.Context, tenantID, branchID string, from, to time.Time) ([]domain.Point, error)
	TopProducts(ctx context.Context, tenantID, branchID string, from, to time.Time, limit int) ([]domain.TopProduct, error)
	ExpenseTotal(ctx context.Context, tenantID, branchID string, from, to time.Time) (decimal.Decimal, error)
	ExpenseTimeseries(ctx context.Context, tenantID, branchID string, from, to time.Time) ([]domain.Point, error)
	MonthlySales(ctx context.Context, tenantID, branchID string, year int) (map[int]decimal.Decimal, error)
	MonthlyExpenses(ctx context.Context, tenantID, branchID string, year int) (map[int]decimal.Decimal, error)
}
