// Package memory implements store.Repository with in-process maps guarded by
// a single reader-writer lock. It backs dev mode and the service tests; every
// operation that the postgres store makes atomic (counter increments, unique
// open-shift inserts, conditional closes) happens here under the write lock,
// so the concurrency guarantees are the same.
package memory

import (
	"context"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"fogonpos/backend/internal/domain"
	"fogonpos/backend/internal/store"
)

type Store struct {
	mu               sync.RWMutex
	usersByID        map[string]domain.User
	productsByID     map[string]domain.Product
	ordersByID       map[string]domain.Order
	orderCounters    map[string]int
	shiftsByID       map[string]domain.CashShift
	openShiftByScope map[string]string
	movementsByShift map[string][]domain.CashMovement
	postedOrderIDs   map[string]bool
	expensesByID     map[string]domain.Expense
}

func New() *Store {
	return &Store{
		usersByID:        make(map[string]domain.User),
		productsByID:     make(map[string]domain.Product),
		ordersByID:       make(map[string]domain.Order),
		orderCounters:    make(map[string]int),
		shiftsByID:       make(map[string]domain.CashShift),
		openShiftByScope: make(map[string]string),
		movementsByShift: make(map[string][]domain.CashMovement),
		postedOrderIDs:   make(map[string]bool),
		expensesByID:     make(map[string]domain.Expense),
	}
}

// NewSeeded builds a store preloaded with demo users and a small menu for
// tenant T1 / branch B1. Seed credentials come from SEED_ADMIN_PASSWORD and
// SEED_STAFF_PASSWORD; hardcoded dev defaults are used with a warning when
// unset. Production deployments use PostgreSQL, never this seed.
func NewSeeded() *Store {
	s := New()

	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	staffPwd := envOr("SEED_STAFF_PASSWORD", "staff123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_STAFF_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_STAFF_PASSWORD to override.")
	}

	now := time.Now().UTC()
	for _, u := range []struct {
		name     string
		username string
		password string
		role     domain.Role
	}{
		{"Administrador", "admin", adminPwd, domain.RoleAdmin},
		{"Mostrador", "mostrador", staffPwd, domain.RoleStaff},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		user := domain.User{
			ID:           uuid.NewString(),
			TenantID:     "T1",
			BranchID:     "B1",
			Name:         u.name,
			Username:     u.username,
			Role:         u.role,
			Active:       true,
			PasswordHash: string(hash),
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		s.usersByID[user.ID] = user
	}

	for _, p := range []struct {
		name     string
		category string
		price    string
	}{
		{"Alitas BBQ x8", "alitas", "180.00"},
		{"Alitas Mango Habanero x8", "alitas", "185.00"},
		{"Boneless x10", "boneless", "160.00"},
		{"Papas Gajo", "acompañamientos", "65.00"},
		{"Aros de Cebolla", "acompañamientos", "70.00"},
		{"Refresco 600ml", "bebidas", "30.00"},
		{"Cerveza Artesanal", "bebidas", "75.00"},
	} {
		price, _ := decimal.NewFromString(p.price)
		product := domain.Product{
			ID:        uuid.NewString(),
			TenantID:  "T1",
			BranchID:  "B1",
			Name:      p.name,
			Category:  p.category,
			Price:     price,
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		s.productsByID[product.ID] = product
	}

	return s
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func scopeKey(tenantID, branchID string) string {
	return tenantID + "|" + branchID
}

func counterKey(tenantID, branchID, day string) string {
	return tenantID + "|" + branchID + "|" + day
}

func clampPage(page, size int64) (int64, int64) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	if size > 200 {
		size = 200
	}
	return page, size
}

func paginate[T any](items []T, page, size int64) domain.Page[T] {
	page, size = clampPage(page, size)
	total := int64(len(items))
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	out := make([]T, end-start)
	copy(out, items[start:end])
	return domain.Page[T]{Data: out, Total: total, Page: page, PageSize: size}
}

// Users

func (s *Store) FindActiveUser(_ context.Context, tenantID, branchID, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.usersByID {
		if u.TenantID == tenantID && u.BranchID == branchID && u.Username == username && u.Active {
			found := u
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.usersByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	found := u
	return &found, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.User) (*domain.User, error) {
	if user.Username == "" || user.TenantID == "" || user.BranchID == "" {
		return nil, store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.usersByID {
		if existing.TenantID == user.TenantID && existing.BranchID == user.BranchID && existing.Username == user.Username {
			return nil, store.ErrConflict
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	s.usersByID[user.ID] = user
	created := user
	return &created, nil
}

func (s *Store) UpdateUser(_ context.Context, user domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.usersByID[user.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if user.Username != current.Username {
		for _, existing := range s.usersByID {
			if existing.ID != user.ID && existing.TenantID == user.TenantID && existing.BranchID == user.BranchID && existing.Username == user.Username {
				return nil, store.ErrConflict
			}
		}
	}
	s.usersByID[user.ID] = user
	updated := user
	return &updated, nil
}

func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.usersByID[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.usersByID, id)
	return nil
}

func (s *Store) ListUsers(_ context.Context, tenantID, branchID string) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.User, 0, len(s.usersByID))
	for _, u := range s.usersByID {
		if u.TenantID == tenantID && u.BranchID == branchID {
			users = append(users, u)
		}
	}
	slices.SortFunc(users, func(a, b domain.User) int {
		return strings.Compare(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) CountUsers(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.usersByID)), nil
}

// Products

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	if product.Name == "" || product.TenantID == "" || product.BranchID == "" {
		return nil, store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	s.productsByID[product.ID] = product
	created := product
	return &created, nil
}

func (s *Store) GetProductByID(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.productsByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	found := p
	return &found, nil
}

func (s *Store) GetProductsByIDs(_ context.Context, ids []string) (map[string]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]domain.Product, len(ids))
	for _, id := range ids {
		if p, ok := s.productsByID[id]; ok {
			result[id] = p
		}
	}
	return result, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.productsByID[product.ID]; !ok {
		return nil, store.ErrNotFound
	}
	s.productsByID[product.ID] = product
	updated := product
	return &updated, nil
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.productsByID[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.productsByID, id)
	return nil
}

func (s *Store) ListProducts(_ context.Context, tenantID, branchID, category string) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.productsByID))
	for _, p := range s.productsByID {
		if p.TenantID != tenantID || p.BranchID != branchID {
			continue
		}
		if category != "" && p.Category != category {
			continue
		}
		products = append(products, p)
	}
	slices.SortFunc(products, func(a, b domain.Product) int {
		if a.Category == b.Category {
			return strings.Compare(a.Name, b.Name)
		}
		return strings.Compare(a.Category, b.Category)
	})
	return products, nil
}

// Orders

func (s *Store) NextOrderNumber(_ context.Context, tenantID, branchID, day string) (int, error) {
	if tenantID == "" || branchID == "" || day == "" {
		return 0, store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := counterKey(tenantID, branchID, day)
	s.orderCounters[key]++
	return s.orderCounters[key], nil
}

func (s *Store) CreateOrder(_ context.Context, order domain.Order) (*domain.Order, error) {
	if order.TenantID == "" || order.BranchID == "" || len(order.Items) == 0 || order.Number < 1 || order.Day == "" {
		return nil, store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	s.ordersByID[order.ID] = order
	created := order
	return &created, nil
}

func (s *Store) GetOrderByID(_ context.Context, id string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.ordersByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	found := o
	return &found, nil
}

func (s *Store) ListOrders(_ context.Context, filter store.OrderFilter) (domain.Page[domain.Order], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := make([]domain.Order, 0, len(s.ordersByID))
	for _, o := range s.ordersByID {
		if o.TenantID != filter.TenantID || o.BranchID != filter.BranchID {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		orders = append(orders, o)
	}
	slices.SortFunc(orders, func(a, b domain.Order) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return strings.Compare(b.ID, a.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	return paginate(orders, filter.Page, filter.PageSize), nil
}

func (s *Store) UpdateOrderStatus(_ context.Context, id string, status domain.OrderStatus, at time.Time) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.ordersByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = at
	s.ordersByID[id] = o
	updated := o
	return &updated, nil
}

func (s *Store) DeleteOrder(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ordersByID[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.ordersByID, id)
	return nil
}

func (s *Store) CashSalesTotal(_ context.Context, tenantID, branchID string, from, to time.Time) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, o := range s.ordersByID {
		if o.TenantID != tenantID || o.BranchID != branchID {
			continue
		}
		if o.Status != domain.OrderDelivered || o.PaymentMethod != domain.PayCash {
			continue
		}
		if o.CreatedAt.Before(from) || o.CreatedAt.After(to) {
			continue
		}
		total = total.Add(o.Total)
	}
	return total, nil
}

// Cash shifts

func (s *Store) InsertShift(_ context.Context, shift domain.CashShift) (*domain.CashShift, error) {
	if shift.TenantID == "" || shift.BranchID == "" {
		return nil, store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := scopeKey(shift.TenantID, shift.BranchID)
	if _, exists := s.openShiftByScope[key]; exists {
		return nil, store.ErrConflict
	}
	if shift.ID == "" {
		shift.ID = uuid.NewString()
	}
	if shift.OpenedAt.IsZero() {
		shift.OpenedAt = time.Now().UTC()
	}
	shift.Status = domain.ShiftOpen
	shift.ClosedAt = nil
	shift.Movements = nil

	s.shiftsByID[shift.ID] = shift
	s.openShiftByScope[key] = shift.ID
	created := shift
	created.Movements = []domain.CashMovement{}
	return &created, nil
}

func (s *Store) GetShiftByID(_ context.Context, id string) (*domain.CashShift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sh, ok := s.shiftsByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	found := sh
	found.Movements = slices.Clone(s.movementsByShift[id])
	return &found, nil
}

func (s *Store) GetOpenShift(_ context.Context, tenantID, branchID string) (*domain.CashShift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	shiftID, ok := s.openShiftByScope[scopeKey(tenantID, branchID)]
	if !ok {
		return nil, store.ErrNotFound
	}
	sh, ok := s.shiftsByID[shiftID]
	if !ok || sh.Status != domain.ShiftOpen {
		return nil, store.ErrNotFound
	}
	found := sh
	found.Movements = slices.Clone(s.movementsByShift[shiftID])
	return &found, nil
}

func (s *Store) AppendMovement(_ context.Context, shiftID string, mv domain.CashMovement) error {
	if mv.Kind != domain.MovementIn && mv.Kind != domain.MovementOut {
		return store.ErrValidation
	}
	if !mv.Amount.IsPositive() {
		return store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sh, ok := s.shiftsByID[shiftID]
	if !ok {
		return store.ErrNotFound
	}
	if sh.Status != domain.ShiftOpen {
		return store.ErrConflict
	}
	if mv.Source == domain.SourceOrder {
		if mv.RefOrderID == "" {
			return store.ErrValidation
		}
		// At most one ORDER movement per order across the system.
		if s.postedOrderIDs[mv.RefOrderID] {
			return nil
		}
		s.postedOrderIDs[mv.RefOrderID] = true
	}
	if mv.ID == "" {
		mv.ID = uuid.NewString()
	}
	if mv.At.IsZero() {
		mv.At = time.Now().UTC()
	}
	mv.ShiftID = shiftID
	s.movementsByShift[shiftID] = append(s.movementsByShift[shiftID], mv)
	return nil
}

func (s *Store) CloseShift(_ context.Context, shiftID string, close store.ShiftClose) (*domain.CashShift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sh, ok := s.shiftsByID[shiftID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if sh.Status != domain.ShiftOpen {
		return nil, store.ErrConflict
	}

	manualIns := decimal.Zero
	manualOuts := decimal.Zero
	for _, mv := range s.movementsByShift[shiftID] {
		if mv.Source != domain.SourceManual {
			continue
		}
		switch mv.Kind {
		case domain.MovementIn:
			manualIns = manualIns.Add(mv.Amount)
		case domain.MovementOut:
			manualOuts = manualOuts.Add(mv.Amount)
		}
	}

	expected := sh.OpeningFloat.Add(close.CashSales).Add(manualIns).Sub(manualOuts)
	difference := close.Counted.Sub(expected)

	closedAt := close.ClosedAt
	if closedAt.IsZero() {
		closedAt = time.Now().UTC()
	}
	sh.Status = domain.ShiftClosed
	sh.ClosedAt = &closedAt
	sh.Denominations = slices.Clone(close.Denominations)
	sh.Counted = &close.Counted
	sh.Expected = &expected
	sh.Difference = &difference
	ins, outs, sales := manualIns, manualOuts, close.CashSales
	sh.ManualIns = &ins
	sh.ManualOuts = &outs
	sh.CashSales = &sales
	sh.Notes = close.Notes

	s.shiftsByID[shiftID] = sh
	delete(s.openShiftByScope, scopeKey(sh.TenantID, sh.BranchID))

	closed := sh
	closed.Movements = slices.Clone(s.movementsByShift[shiftID])
	return &closed, nil
}

func (s *Store) ListShifts(_ context.Context, filter store.ShiftFilter) (domain.Page[domain.CashShift], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	shifts := make([]domain.CashShift, 0, len(s.shiftsByID))
	for id, sh := range s.shiftsByID {
		if sh.TenantID != filter.TenantID || sh.BranchID != filter.BranchID {
			continue
		}
		if !filter.From.IsZero() && sh.OpenedAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && sh.OpenedAt.After(filter.To) {
			continue
		}
		withMovements := sh
		withMovements.Movements = slices.Clone(s.movementsByShift[id])
		shifts = append(shifts, withMovements)
	}
	slices.SortFunc(shifts, func(a, b domain.CashShift) int {
		if a.OpenedAt.Equal(b.OpenedAt) {
			return strings.Compare(b.ID, a.ID)
		}
		if a.OpenedAt.After(b.OpenedAt) {
			return -1
		}
		return 1
	})
	return paginate(shifts, filter.Page, filter.PageSize), nil
}

// Expenses

func (s *Store) CreateExpense(_ context.Context, expense domain.Expense) (*domain.Expense, error) {
	if expense.TenantID == "" || expense.BranchID == "" || expense.Description == "" {
		return nil, store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if expense.ID == "" {
		expense.ID = uuid.NewString()
	}
	s.expensesByID[expense.ID] = expense
	created := expense
	return &created, nil
}

func (s *Store) DeleteExpense(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.expensesByID[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.expensesByID, id)
	return nil
}

func (s *Store) ListExpenses(_ context.Context, filter store.ExpenseFilter) (domain.Page[domain.Expense], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expenses := make([]domain.Expense, 0, len(s.expensesByID))
	for _, e := range s.expensesByID {
		if e.TenantID != filter.TenantID || e.BranchID != filter.BranchID {
			continue
		}
		if !filter.From.IsZero() && e.Date.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && e.Date.After(filter.To) {
			continue
		}
		expenses = append(expenses, e)
	}
	slices.SortFunc(expenses, func(a, b domain.Expense) int {
		if a.Date.Equal(b.Date) {
			return strings.Compare(b.ID, a.ID)
		}
		if a.Date.After(b.Date) {
			return -1
		}
		return 1
	})
	return paginate(expenses, filter.Page, filter.PageSize), nil
}

// Report aggregations

func (s *Store) deliveredOrders(tenantID, branchID string, from, to time.Time) []domain.Order {
	orders := make([]domain.Order, 0)
	for _, o := range s.ordersByID {
		if o.TenantID != tenantID || o.BranchID != branchID || o.Status != domain.OrderDelivered {
			continue
		}
		if o.CreatedAt.Before(from) || o.CreatedAt.After(to) {
			continue
		}
		orders = append(orders, o)
	}
	return orders
}

func (s *Store) SalesSummary(_ context.Context, tenantID, branchID string, from, to time.Time) (domain.SalesSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := domain.SalesSummary{TotalSales: decimal.Zero}
	for _, o := range s.deliveredOrders(tenantID, branchID, from, to) {
		summary.TotalSales = summary.TotalSales.Add(o.Total)
		summary.Orders++
	}
	return summary, nil
}

func (s *Store) SalesByMethod(_ context.Context, tenantID, branchID string, from, to time.Time) ([]domain.MethodTotal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byMethod := make(map[string]decimal.Decimal)
	for _, o := range s.deliveredOrders(tenantID, branchID, from, to) {
		method := string(o.PaymentMethod)
		byMethod[method] = byMethod[method].Add(o.Total)
	}
	return sortedTotals(byMethod, func(method string, amount decimal.Decimal) domain.MethodTotal {
		return domain.MethodTotal{Method: method, Amount: amount}
	}), nil
}

func (s *Store) SalesTimeseries(_ context.Context, tenantID, branchID string, from, to time.Time) ([]domain.Point, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byDay := make(map[string]decimal.Decimal)
	for _, o := range s.deliveredOrders(tenantID, branchID, from, to) {
		day := o.CreatedAt.UTC().Format("2006-01-02")
		byDay[day] = byDay[day].Add(o.Total)
	}
	return sortedTotals(byDay, func(day string, amount decimal.Decimal) domain.Point {
		return domain.Point{Date: day, Amount: amount}
	}), nil
}

func (s *Store) TopProducts(_ context.Context, tenantID, branchID string, from, to time.Time, limit int) ([]domain.TopProduct, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type acc struct {
		qty   int64
		sales decimal.Decimal
	}
	byName := make(map[string]acc)
	for _, o := range s.deliveredOrders(tenantID, branchID, from, to) {
		for _, item := range o.Items {
			a := byName[item.Name]
			a.qty += int64(item.Quantity)
			a.sales = a.sales.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
			byName[item.Name] = a
		}
	}

	top := make([]domain.TopProduct, 0, len(byName))
	for name, a := range byName {
		top = append(top, domain.TopProduct{Name: name, Qty: a.qty, Sales: a.sales})
	}
	slices.SortFunc(top, func(a, b domain.TopProduct) int {
		if a.Qty == b.Qty {
			return strings.Compare(a.Name, b.Name)
		}
		if a.Qty > b.Qty {
			return -1
		}
		return 1
	})
	if limit > 0 && len(top) > limit {
		top = top[:limit]
	}
	return top, nil
}

func (s *Store) ExpenseTotal(_ context.Context, tenantID, branchID string, from, to time.Time) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, e := range s.expensesByID {
		if e.TenantID != tenantID || e.BranchID != branchID {
			continue
		}
		if e.Date.Before(from) || e.Date.After(to) {
			continue
		}
		total = total.Add(e.Amount)
	}
	return total, nil
}

func (s *Store) ExpenseTimeseries(_ context.Context, tenantID, branchID string, from, to time.Time) ([]domain.Point, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byDay := make(map[string]decimal.Decimal)
	for _, e := range s.expensesByID {
		if e.TenantID != tenantID || e.BranchID != branchID {
			continue
		}
		if e.Date.Before(from) || e.Date.After(to) {
			continue
		}
		day := e.Date.UTC().Format("2006-01-02")
		byDay[day] = byDay[day].Add(e.Amount)
	}
	return sortedTotals(byDay, func(day string, amount decimal.Decimal) domain.Point {
		return domain.Point{Date: day, Amount: amount}
	}), nil
}

func (s *Store) MonthlySales(_ context.Context, tenantID, branchID string, year int) (map[int]decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byMonth := make(map[int]decimal.Decimal)
	for _, o := range s.ordersByID {
		if o.TenantID != tenantID || o.BranchID != branchID || o.Status != domain.OrderDelivered {
			continue
		}
		at := o.CreatedAt.UTC()
		if at.Year() != year {
			continue
		}
		m := int(at.Month())
		byMonth[m] = byMonth[m].Add(o.Total)
	}
	return byMonth, nil
}

func (s *Store) MonthlyExpenses(_ context.Context, tenantID, branchID string, year int) (map[int]decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byMonth := make(map[int]decimal.Decimal)
	for _, e := range s.expensesByID {
		if e.TenantID != tenantID || e.BranchID != branchID {
			continue
		}
		at := e.Date.UTC()
		if at.Year() != year {
			continue
		}
		m := int(at.Month())
		byMonth[m] = byMonth[m].Add(e.Amount)
	}
	return byMonth, nil
}

func sortedTotals[T any](totals map[string]decimal.Decimal, build func(string, decimal.Decimal) T) []T {
	keys := make([]string, 0, len(totals))
	for k := range totals {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, build(k, totals[k]))
	}
	return out
}

var _ store.Repository = (*Store)(nil)
