package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"fogonpos/backend/internal/domain"
	"fogonpos/backend/internal/session"
	"fogonpos/backend/internal/store"
	"fogonpos/backend/internal/store/memory"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

type fixture struct {
	svc        *Service
	repo       *memory.Store
	adminToken string
	staffToken string
	productID  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo := memory.New()
	sessions := session.NewStore(0)
	svc := New(repo, sessions, nil, nil)
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	now := time.Now().UTC()

	admin, err := repo.CreateUser(ctx, domain.User{
		TenantID: "T1", BranchID: "B1", Name: "Admin", Username: "admin",
		Role: domain.RoleAdmin, Active: true, PasswordHash: string(hash),
		CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	staff, err := repo.CreateUser(ctx, domain.User{
		TenantID: "T1", BranchID: "B1", Name: "Staff", Username: "staff",
		Role: domain.RoleStaff, Active: true, PasswordHash: string(hash),
		CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("seed staff: %v", err)
	}

	product, err := repo.CreateProduct(ctx, domain.Product{
		TenantID: "T1", BranchID: "B1", Name: "Alitas BBQ", Category: "alitas",
		Price: dec("125.00"), Active: true, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}

	return &fixture{
		svc:        svc,
		repo:       repo,
		adminToken: sessions.Create(*admin).Token,
		staffToken: sessions.Create(*staff).Token,
		productID:  product.ID,
	}
}

func (f *fixture) createOrder(t *testing.T, method domain.PaymentMethod, qty int) *domain.Order {
	t.Helper()
	order, err := f.svc.CreateOrder(context.Background(), f.staffToken, domain.OrderCreateRequest{
		Items:         []domain.OrderItemRequest{{ProductID: f.productID, Quantity: qty}},
		PaymentMethod: method,
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	return order
}

func (f *fixture) dispatch(t *testing.T, orderID string) *domain.Order {
	t.Helper()
	order, err := f.svc.UpdateOrderStatus(context.Background(), f.staffToken, orderID, domain.OrderDelivered)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	return order
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.svc.Login(ctx, domain.LoginRequest{TenantID: "T1", BranchID: "B1", Username: "admin", Password: "secret1"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if result.Session.Token == "" || result.Session.Role != domain.RoleAdmin {
		t.Fatalf("unexpected session: %+v", result.Session)
	}
	if _, err := f.svc.Login(ctx, domain.LoginRequest{TenantID: "T1", BranchID: "B1", Username: "admin", Password: "wrong"}); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("wrong password err = %v, want ErrBadCredentials", err)
	}
	if _, err := f.svc.Login(ctx, domain.LoginRequest{TenantID: "T1", BranchID: "B1", Username: "ghost", Password: "secret1"}); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("unknown user err = %v, want ErrBadCredentials", err)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.svc.Login(ctx, domain.LoginRequest{TenantID: "T1", BranchID: "B1", Username: "staff", Password: "secret1"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	token := result.Session.Token

	f.svc.Logout(ctx, token)
	if _, err := f.svc.ListProducts(ctx, token, ""); !errors.Is(err, session.ErrNoSession) {
		t.Fatalf("err after logout = %v, want ErrNoSession", err)
	}
	// Revoking twice is fine.
	f.svc.Logout(ctx, token)
}

func TestOrderNumbersAreConsecutivePerDay(t *testing.T) {
	f := newFixture(t)

	for want := 1; want <= 4; want++ {
		order := f.createOrder(t, domain.PayCash, 1)
		if order.Number != want {
			t.Fatalf("order number = %d, want %d", order.Number, want)
		}
	}
}

func TestConcurrentOrdersGetDistinctNumbers(t *testing.T) {
	f := newFixture(t)

	const n = 40
	var wg sync.WaitGroup
	numbers := make(chan int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			order, err := f.svc.CreateOrder(context.Background(), f.staffToken, domain.OrderCreateRequest{
				Items:         []domain.OrderItemRequest{{ProductID: f.productID, Quantity: 1}},
				PaymentMethod: domain.PayCard,
			})
			if err != nil {
				t.Errorf("CreateOrder: %v", err)
				return
			}
			numbers <- order.Number
		}()
	}
	wg.Wait()
	close(numbers)

	got := make([]int, 0, n)
	for num := range numbers {
		got = append(got, num)
	}
	sort.Ints(got)
	for i, num := range got {
		if num != i+1 {
			t.Fatalf("gap or duplicate at %d: %v", i, got)
		}
	}
}

func TestCreateOrderCashChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	paid := dec("300")
	order, err := f.svc.CreateOrder(ctx, f.staffToken, domain.OrderCreateRequest{
		Items:         []domain.OrderItemRequest{{ProductID: f.productID, Quantity: 2}},
		PaymentMethod: domain.PayCash,
		CashAmount:    &paid,
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if !order.Total.Equal(dec("250")) {
		t.Fatalf("total = %s, want 250", order.Total)
	}
	if order.CashChange == nil || !order.CashChange.Equal(dec("50")) {
		t.Fatalf("change = %v, want 50", order.CashChange)
	}

	short := dec("100")
	if _, err := f.svc.CreateOrder(ctx, f.staffToken, domain.OrderCreateRequest{
		Items:         []domain.OrderItemRequest{{ProductID: f.productID, Quantity: 2}},
		PaymentMethod: domain.PayCash,
		CashAmount:    &short,
	}); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("short cash err = %v, want ErrValidation", err)
	}
}

func TestDispatchWithoutOpenShift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order := f.createOrder(t, domain.PayCash, 1)

	_, err := f.svc.UpdateOrderStatus(ctx, f.staffToken, order.ID, domain.OrderDelivered)
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("dispatch err = %v, want ErrConflict", err)
	}

	// The order is untouched and nothing was posted anywhere.
	got, err := f.svc.GetOrder(ctx, f.staffToken, order.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if got.Status != domain.OrderPending {
		t.Fatalf("status = %s, want PENDING", got.Status)
	}

	if _, err := f.svc.OpenShift(ctx, f.staffToken, domain.ShiftOpenRequest{OpeningFloat: dec("100")}); err != nil {
		t.Fatalf("OpenShift: %v", err)
	}
	shift, err := f.svc.ActiveShift(ctx, f.staffToken)
	if err != nil {
		t.Fatalf("ActiveShift: %v", err)
	}
	if len(shift.Movements) != 0 {
		t.Fatalf("movements = %d, want 0", len(shift.Movements))
	}
}

func TestDispatchPostsOrderMovementOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.OpenShift(ctx, f.staffToken, domain.ShiftOpenRequest{OpeningFloat: dec("100")}); err != nil {
		t.Fatalf("OpenShift: %v", err)
	}

	order := f.createOrder(t, domain.PayCard, 1)
	f.dispatch(t, order.ID)
	// Re-dispatching a delivered order is a no-op, not a second posting.
	f.dispatch(t, order.ID)

	shift, err := f.svc.ActiveShift(ctx, f.staffToken)
	if err != nil {
		t.Fatalf("ActiveShift: %v", err)
	}
	if len(shift.Movements) != 1 {
		t.Fatalf("movements = %d, want 1", len(shift.Movements))
	}
	mv := shift.Movements[0]
	if mv.Source != domain.SourceOrder || mv.Kind != domain.MovementIn || !mv.Amount.Equal(order.Total) {
		t.Fatalf("unexpected movement: %+v", mv)
	}
	if mv.RefOrderID != order.ID {
		t.Fatalf("ref_order_id = %s, want %s", mv.RefOrderID, order.ID)
	}
}

// sequencerDayRepo records the day the counter was bumped under and the day
// stamped on the stored order; the per-day backstop index only guards the
// right bucket when the two match.
type sequencerDayRepo struct {
	store.Repository
	counterDay string
	orderDay   string
}

func (r *sequencerDayRepo) NextOrderNumber(ctx context.Context, tenantID, branchID, day string) (int, error) {
	r.counterDay = day
	return r.Repository.NextOrderNumber(ctx, tenantID, branchID, day)
}

func (r *sequencerDayRepo) CreateOrder(ctx context.Context, order domain.Order) (*domain.Order, error) {
	r.orderDay = order.Day
	return r.Repository.CreateOrder(ctx, order)
}

func TestOrderDayMatchesCounterDay(t *testing.T) {
	f := newFixture(t)

	recorder := &sequencerDayRepo{Repository: f.repo}
	svc := New(recorder, f.svc.sessions, nil, nil)
	// A zone far enough from UTC that the wall-clock day differs right now,
	// so a UTC-derived day would be caught out.
	if time.Now().UTC().Hour() < 12 {
		svc.loc = time.FixedZone("west", -13*60*60)
	} else {
		svc.loc = time.FixedZone("east", 13*60*60)
	}

	order, err := svc.CreateOrder(context.Background(), f.staffToken, domain.OrderCreateRequest{
		Items:         []domain.OrderItemRequest{{ProductID: f.productID, Quantity: 1}},
		PaymentMethod: domain.PayCard,
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	utcDay := time.Now().UTC().Format("2006-01-02")
	if recorder.counterDay == utcDay {
		t.Fatalf("test zone did not move the wall-clock day off %s", utcDay)
	}
	if recorder.orderDay != recorder.counterDay {
		t.Fatalf("stored day %q, want counter day %q", recorder.orderDay, recorder.counterDay)
	}
	if order.Day != recorder.counterDay {
		t.Fatalf("order day %q, want counter day %q", order.Day, recorder.counterDay)
	}
}

// closeBehindRepo closes the shift right after handing it out, modeling the
// register being closed in the middle of a dispatch.
type closeBehindRepo struct {
	store.Repository
	once sync.Once
}

func (r *closeBehindRepo) GetOpenShift(ctx context.Context, tenantID, branchID string) (*domain.CashShift, error) {
	shift, err := r.Repository.GetOpenShift(ctx, tenantID, branchID)
	if err != nil {
		return nil, err
	}
	r.once.Do(func() {
		_, _ = r.Repository.CloseShift(ctx, shift.ID, store.ShiftClose{ClosedAt: time.Now().UTC()})
	})
	return shift, nil
}

func TestDispatchRefusedWhenShiftClosesMidway(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	shift, err := f.svc.OpenShift(ctx, f.staffToken, domain.ShiftOpenRequest{OpeningFloat: dec("100")})
	if err != nil {
		t.Fatalf("OpenShift: %v", err)
	}
	order := f.createOrder(t, domain.PayCash, 1)

	racy := New(&closeBehindRepo{Repository: f.repo}, f.svc.sessions, nil, nil)
	if _, err := racy.UpdateOrderStatus(ctx, f.staffToken, order.ID, domain.OrderDelivered); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("dispatch err = %v, want ErrConflict", err)
	}

	// The whole transition is refused: no half-dispatched order, no movement.
	got, err := f.repo.GetOrderByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetOrderByID: %v", err)
	}
	if got.Status != domain.OrderPending {
		t.Fatalf("status = %s, want PENDING", got.Status)
	}
	closed, err := f.repo.GetShiftByID(ctx, shift.ID)
	if err != nil {
		t.Fatalf("GetShiftByID: %v", err)
	}
	if len(closed.Movements) != 0 {
		t.Fatalf("movements = %d, want 0", len(closed.Movements))
	}
}

func TestSecondOpenShiftRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.OpenShift(ctx, f.staffToken, domain.ShiftOpenRequest{OpeningFloat: dec("100")}); err != nil {
		t.Fatalf("OpenShift: %v", err)
	}
	if _, err := f.svc.OpenShift(ctx, f.adminToken, domain.ShiftOpenRequest{OpeningFloat: dec("200")}); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("second open err = %v, want ErrConflict", err)
	}
	if _, err := f.svc.OpenShift(ctx, f.staffToken, domain.ShiftOpenRequest{OpeningFloat: dec("-1")}); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("negative float err = %v, want ErrValidation", err)
	}
}

// Reconciliation walk-through: float 100, one manual in of 20, one manual out
// of 30, 250 of delivered cash sales, counted 335. Expected lands on 340 and
// the drawer is 5 short.
func TestCloseShiftReconciliation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	shift, err := f.svc.OpenShift(ctx, f.staffToken, domain.ShiftOpenRequest{OpeningFloat: dec("100")})
	if err != nil {
		t.Fatalf("OpenShift: %v", err)
	}
	if _, err := f.svc.RegisterMovement(ctx, f.staffToken, shift.ID, domain.MovementRequest{Kind: domain.MovementIn, Amount: dec("20"), Note: "cambio"}); err != nil {
		t.Fatalf("RegisterMovement in: %v", err)
	}
	if _, err := f.svc.RegisterMovement(ctx, f.staffToken, shift.ID, domain.MovementRequest{Kind: domain.MovementOut, Amount: dec("30"), Note: "hielo"}); err != nil {
		t.Fatalf("RegisterMovement out: %v", err)
	}

	// 250 in delivered cash orders: 2x125. A card order must not count.
	cash := f.createOrder(t, domain.PayCash, 2)
	f.dispatch(t, cash.ID)
	card := f.createOrder(t, domain.PayCard, 1)
	f.dispatch(t, card.ID)

	closed, err := f.svc.CloseShift(ctx, f.staffToken, shift.ID, domain.ShiftCloseRequest{
		Denominations: []domain.Denomination{
			{Value: dec("100"), Qty: 3},
			{Value: dec("20"), Qty: 1},
			{Value: dec("5"), Qty: 3},
		},
	})
	if err != nil {
		t.Fatalf("CloseShift: %v", err)
	}

	if !closed.CashSales.Equal(dec("250")) {
		t.Errorf("cash_sales = %s, want 250", closed.CashSales)
	}
	if !closed.Expected.Equal(dec("340")) {
		t.Errorf("expected = %s, want 340", closed.Expected)
	}
	if !closed.Counted.Equal(dec("335")) {
		t.Errorf("counted = %s, want 335", closed.Counted)
	}
	if !closed.Difference.Equal(dec("-5")) {
		t.Errorf("difference = %s, want -5", closed.Difference)
	}
	if closed.Status != domain.ShiftClosed {
		t.Errorf("status = %s, want CLOSED", closed.Status)
	}
}

// Balanced day: float 0, no manual movements, one delivered cash order of 50,
// drawer counted at 50. Everything nets to zero.
func TestCloseShiftBalanced(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	now := time.Now().UTC()
	cheap, err := f.repo.CreateProduct(ctx, domain.Product{
		TenantID: "T1", BranchID: "B1", Name: "Refresco", Category: "bebidas",
		Price: dec("50"), Active: true, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}

	shift, err := f.svc.OpenShift(ctx, f.staffToken, domain.ShiftOpenRequest{OpeningFloat: dec("0")})
	if err != nil {
		t.Fatalf("OpenShift: %v", err)
	}

	order, err := f.svc.CreateOrder(ctx, f.staffToken, domain.OrderCreateRequest{
		Items:         []domain.OrderItemRequest{{ProductID: cheap.ID, Quantity: 1}},
		PaymentMethod: domain.PayCash,
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	f.dispatch(t, order.ID)

	closed, err := f.svc.CloseShift(ctx, f.staffToken, shift.ID, domain.ShiftCloseRequest{
		Denominations: []domain.Denomination{{Value: dec("50"), Qty: 1}},
	})
	if err != nil {
		t.Fatalf("CloseShift: %v", err)
	}
	if !closed.CashSales.Equal(dec("50")) {
		t.Errorf("cash_sales = %s, want 50", closed.CashSales)
	}
	if !closed.Expected.Equal(dec("50")) {
		t.Errorf("expected = %s, want 50", closed.Expected)
	}
	if !closed.Counted.Equal(dec("50")) {
		t.Errorf("counted = %s, want 50", closed.Counted)
	}
	if !closed.Difference.IsZero() {
		t.Errorf("difference = %s, want 0", closed.Difference)
	}
}

func TestCloseShiftTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	shift, err := f.svc.OpenShift(ctx, f.staffToken, domain.ShiftOpenRequest{OpeningFloat: dec("50")})
	if err != nil {
		t.Fatalf("OpenShift: %v", err)
	}
	if _, err := f.svc.CloseShift(ctx, f.staffToken, shift.ID, domain.ShiftCloseRequest{}); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if _, err := f.svc.CloseShift(ctx, f.staffToken, shift.ID, domain.ShiftCloseRequest{}); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("second close err = %v, want ErrConflict", err)
	}
}

func TestMovementOnClosedOrUnknownShift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mv := domain.MovementRequest{Kind: domain.MovementIn, Amount: dec("10")}
	if _, err := f.svc.RegisterMovement(ctx, f.staffToken, uuid.NewString(), mv); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("unknown shift err = %v, want ErrNotFound", err)
	}

	shift, err := f.svc.OpenShift(ctx, f.staffToken, domain.ShiftOpenRequest{OpeningFloat: dec("10")})
	if err != nil {
		t.Fatalf("OpenShift: %v", err)
	}
	if _, err := f.svc.CloseShift(ctx, f.staffToken, shift.ID, domain.ShiftCloseRequest{}); err != nil {
		t.Fatalf("CloseShift: %v", err)
	}
	if _, err := f.svc.RegisterMovement(ctx, f.staffToken, shift.ID, mv); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("closed shift err = %v, want ErrConflict", err)
	}
}

func TestStaffCannotManageUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateUser(ctx, f.staffToken, domain.UserCreateRequest{
		TenantID: "T1", BranchID: "B1", Name: "X", Username: "x",
		Role: domain.RoleStaff, Password: "secret1", Active: true,
	})
	if !errors.Is(err, session.ErrForbidden) {
		t.Fatalf("staff CreateUser err = %v, want ErrForbidden", err)
	}
	if _, err := f.svc.ListUsers(ctx, f.staffToken); !errors.Is(err, session.ErrForbidden) {
		t.Fatalf("staff ListUsers err = %v, want ErrForbidden", err)
	}
}

func TestAdminUserLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateUser(ctx, f.adminToken, domain.UserCreateRequest{
		TenantID: "T1", BranchID: "B1", Name: "Nueva", Username: "nueva",
		Role: domain.RoleStaff, Password: "secret1", Active: true,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	role := domain.RoleAdmin
	updated, err := f.svc.UpdateUser(ctx, f.adminToken, created.ID, domain.UserUpdateRequest{Role: &role})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if updated.Role != domain.RoleAdmin {
		t.Fatalf("role = %s, want ADMIN", updated.Role)
	}

	if err := f.svc.DeleteUser(ctx, f.adminToken, created.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
}

func TestAdminCannotDeleteSelf(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.svc.CurrentSession(f.adminToken)
	if err != nil {
		t.Fatalf("CurrentSession: %v", err)
	}
	if err := f.svc.DeleteUser(ctx, f.adminToken, sess.UserID); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("self delete err = %v, want ErrValidation", err)
	}
}

func TestEnsureDefaultAdminOnlyOnEmptyStore(t *testing.T) {
	repo := memory.New()
	svc := New(repo, session.NewStore(0), nil, nil)
	ctx := context.Background()

	t.Setenv("BOOTSTRAP_ADMIN_PASSWORD", "bootpass")
	if err := svc.EnsureDefaultAdmin(ctx, "T1", "B1"); err != nil {
		t.Fatalf("EnsureDefaultAdmin: %v", err)
	}

	result, err := svc.Login(ctx, domain.LoginRequest{TenantID: "T1", BranchID: "B1", Username: "admin", Password: "bootpass"})
	if err != nil {
		t.Fatalf("Login as bootstrap admin: %v", err)
	}
	if result.Session.Role != domain.RoleAdmin {
		t.Fatalf("role = %s, want ADMIN", result.Session.Role)
	}

	// A second call must not touch the populated table.
	if err := svc.EnsureDefaultAdmin(ctx, "T1", "B1"); err != nil {
		t.Fatalf("second EnsureDefaultAdmin: %v", err)
	}
	count, _ := repo.CountUsers(ctx)
	if count != 1 {
		t.Fatalf("users = %d, want 1", count)
	}
}

func TestSalesOverview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.OpenShift(ctx, f.staffToken, domain.ShiftOpenRequest{OpeningFloat: dec("0")}); err != nil {
		t.Fatalf("OpenShift: %v", err)
	}
	f.dispatch(t, f.createOrder(t, domain.PayCash, 2).ID)
	f.dispatch(t, f.createOrder(t, domain.PayCard, 1).ID)
	// Pending orders never count as sales.
	f.createOrder(t, domain.PayCash, 5)

	from := time.Now().UTC().Add(-time.Hour)
	to := time.Now().UTC().Add(time.Hour)

	overview, err := f.svc.SalesOverview(ctx, f.adminToken, from, to)
	if err != nil {
		t.Fatalf("SalesOverview: %v", err)
	}
	if !overview.TotalSales.Equal(dec("375")) {
		t.Errorf("total_sales = %s, want 375", overview.TotalSales)
	}
	if overview.Orders != 2 {
		t.Errorf("orders = %d, want 2", overview.Orders)
	}
	if !overview.AvgTicket.Equal(dec("187.5")) {
		t.Errorf("avg_ticket = %s, want 187.5", overview.AvgTicket)
	}
	if len(overview.ByMethod) != 2 {
		t.Errorf("by_method = %d entries, want 2", len(overview.ByMethod))
	}

	if _, err := f.svc.SalesOverview(ctx, f.staffToken, from, to); !errors.Is(err, session.ErrForbidden) {
		t.Fatalf("staff overview err = %v, want ErrForbidden", err)
	}
}

func TestProfitLoss(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.OpenShift(ctx, f.staffToken, domain.ShiftOpenRequest{OpeningFloat: dec("0")}); err != nil {
		t.Fatalf("OpenShift: %v", err)
	}
	f.dispatch(t, f.createOrder(t, domain.PayCash, 4).ID)

	if _, err := f.svc.CreateExpense(ctx, f.adminToken, domain.ExpenseCreateRequest{
		Description: "gas", Amount: dec("120"),
	}); err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}

	from := time.Now().UTC().Add(-time.Hour)
	to := time.Now().UTC().Add(time.Hour)
	pnl, err := f.svc.ProfitLoss(ctx, f.adminToken, from, to)
	if err != nil {
		t.Fatalf("ProfitLoss: %v", err)
	}
	if !pnl.Income.Equal(dec("500")) {
		t.Errorf("income = %s, want 500", pnl.Income)
	}
	if !pnl.Expenses.Equal(dec("120")) {
		t.Errorf("expenses = %s, want 120", pnl.Expenses)
	}
	if !pnl.Net.Equal(dec("380")) {
		t.Errorf("net = %s, want 380", pnl.Net)
	}
}
