package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fogonpos/backend/internal/domain"
	"fogonpos/backend/internal/store"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestNextOrderNumberSequential(t *testing.T) {
	s := New()
	ctx := context.Background()

	for want := 1; want <= 5; want++ {
		got, err := s.NextOrderNumber(ctx, "T1", "B1", "2026-08-31")
		if err != nil {
			t.Fatalf("NextOrderNumber: %v", err)
		}
		if got != want {
			t.Fatalf("number = %d, want %d", got, want)
		}
	}

	// A new day and a different branch each start back at 1.
	if got, _ := s.NextOrderNumber(ctx, "T1", "B1", "2026-09-01"); got != 1 {
		t.Fatalf("new day number = %d, want 1", got)
	}
	if got, _ := s.NextOrderNumber(ctx, "T1", "B2", "2026-08-31"); got != 1 {
		t.Fatalf("other branch number = %d, want 1", got)
	}
}

func TestNextOrderNumberConcurrent(t *testing.T) {
	s := New()
	ctx := context.Background()

	const n = 100
	results := make(chan int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			num, err := s.NextOrderNumber(ctx, "T1", "B1", "2026-08-31")
			if err != nil {
				t.Errorf("NextOrderNumber: %v", err)
				return
			}
			results <- num
		}()
	}
	wg.Wait()
	close(results)

	got := make([]int, 0, n)
	for num := range results {
		got = append(got, num)
	}
	sort.Ints(got)
	if len(got) != n {
		t.Fatalf("got %d numbers, want %d", len(got), n)
	}
	for i, num := range got {
		if num != i+1 {
			t.Fatalf("numbers have a gap or duplicate at index %d: %v", i, got[:i+1])
		}
	}
}

func TestInsertShiftSecondOpenConflicts(t *testing.T) {
	s := New()
	ctx := context.Background()

	first, err := s.InsertShift(ctx, domain.CashShift{TenantID: "T1", BranchID: "B1", OpeningFloat: dec("100")})
	if err != nil {
		t.Fatalf("first InsertShift: %v", err)
	}
	if first.Status != domain.ShiftOpen {
		t.Fatalf("status = %s, want OPEN", first.Status)
	}

	if _, err := s.InsertShift(ctx, domain.CashShift{TenantID: "T1", BranchID: "B1", OpeningFloat: dec("50")}); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("second InsertShift err = %v, want ErrConflict", err)
	}

	// A different branch is an independent scope.
	if _, err := s.InsertShift(ctx, domain.CashShift{TenantID: "T1", BranchID: "B2", OpeningFloat: dec("50")}); err != nil {
		t.Fatalf("other branch InsertShift: %v", err)
	}
}

func TestInsertShiftConcurrentSingleWinner(t *testing.T) {
	s := New()
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	var okCount, conflictCount int
	var mu sync.Mutex
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.InsertShift(ctx, domain.CashShift{TenantID: "T1", BranchID: "B1", OpeningFloat: dec("100")})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				okCount++
			case errors.Is(err, store.ErrConflict):
				conflictCount++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if okCount != 1 {
		t.Fatalf("winners = %d, want exactly 1", okCount)
	}
	if conflictCount != n-1 {
		t.Fatalf("conflicts = %d, want %d", conflictCount, n-1)
	}
}

func TestAppendMovementOrderSourceIsIdempotent(t *testing.T) {
	s := New()
	ctx := context.Background()

	shift, err := s.InsertShift(ctx, domain.CashShift{TenantID: "T1", BranchID: "B1", OpeningFloat: dec("100")})
	if err != nil {
		t.Fatalf("InsertShift: %v", err)
	}

	mv := domain.CashMovement{
		Kind:       domain.MovementIn,
		Amount:     dec("250"),
		Source:     domain.SourceOrder,
		RefOrderID: "order-1",
	}
	for i := 0; i < 3; i++ {
		if err := s.AppendMovement(ctx, shift.ID, mv); err != nil {
			t.Fatalf("AppendMovement attempt %d: %v", i+1, err)
		}
	}

	got, err := s.GetShiftByID(ctx, shift.ID)
	if err != nil {
		t.Fatalf("GetShiftByID: %v", err)
	}
	if len(got.Movements) != 1 {
		t.Fatalf("movements = %d, want 1", len(got.Movements))
	}
}

func TestAppendMovementValidation(t *testing.T) {
	s := New()
	ctx := context.Background()

	shift, _ := s.InsertShift(ctx, domain.CashShift{TenantID: "T1", BranchID: "B1", OpeningFloat: dec("100")})

	cases := []struct {
		name string
		mv   domain.CashMovement
	}{
		{"zero amount", domain.CashMovement{Kind: domain.MovementIn, Amount: decimal.Zero, Source: domain.SourceManual}},
		{"negative amount", domain.CashMovement{Kind: domain.MovementOut, Amount: dec("-5"), Source: domain.SourceManual}},
		{"bad kind", domain.CashMovement{Kind: "SIDEWAYS", Amount: dec("5"), Source: domain.SourceManual}},
		{"order without ref", domain.CashMovement{Kind: domain.MovementIn, Amount: dec("5"), Source: domain.SourceOrder}},
	}
	for _, tc := range cases {
		if err := s.AppendMovement(ctx, shift.ID, tc.mv); !errors.Is(err, store.ErrValidation) {
			t.Errorf("%s: err = %v, want ErrValidation", tc.name, err)
		}
	}

	if err := s.AppendMovement(ctx, "missing", domain.CashMovement{Kind: domain.MovementIn, Amount: dec("5"), Source: domain.SourceManual}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("missing shift err = %v, want ErrNotFound", err)
	}

	if _, err := s.CloseShift(ctx, shift.ID, store.ShiftClose{ClosedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("CloseShift: %v", err)
	}
	if err := s.AppendMovement(ctx, shift.ID, domain.CashMovement{Kind: domain.MovementIn, Amount: dec("5"), Source: domain.SourceManual}); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("closed shift err = %v, want ErrConflict", err)
	}
}

func TestCloseShiftComputesManualSums(t *testing.T) {
	s := New()
	ctx := context.Background()

	shift, err := s.InsertShift(ctx, domain.CashShift{TenantID: "T1", BranchID: "B1", OpeningFloat: dec("100")})
	if err != nil {
		t.Fatalf("InsertShift: %v", err)
	}

	movements := []domain.CashMovement{
		{Kind: domain.MovementIn, Amount: dec("20"), Source: domain.SourceManual},
		{Kind: domain.MovementOut, Amount: dec("30"), Source: domain.SourceManual},
		// ORDER movements are audit trail only and must not land in manual sums.
		{Kind: domain.MovementIn, Amount: dec("999"), Source: domain.SourceOrder, RefOrderID: "o1"},
	}
	for _, mv := range movements {
		if err := s.AppendMovement(ctx, shift.ID, mv); err != nil {
			t.Fatalf("AppendMovement: %v", err)
		}
	}

	closed, err := s.CloseShift(ctx, shift.ID, store.ShiftClose{
		ClosedAt:  time.Now().UTC(),
		CashSales: dec("250"),
		Counted:   dec("335"),
	})
	if err != nil {
		t.Fatalf("CloseShift: %v", err)
	}

	if closed.Status != domain.ShiftClosed {
		t.Fatalf("status = %s, want CLOSED", closed.Status)
	}
	if !closed.ManualIns.Equal(dec("20")) {
		t.Errorf("manual_ins = %s, want 20", closed.ManualIns)
	}
	if !closed.ManualOuts.Equal(dec("30")) {
		t.Errorf("manual_outs = %s, want 30", closed.ManualOuts)
	}
	if !closed.Expected.Equal(dec("340")) {
		t.Errorf("expected = %s, want 340", closed.Expected)
	}
	if !closed.Difference.Equal(dec("-5")) {
		t.Errorf("difference = %s, want -5", closed.Difference)
	}
}

func TestCloseShiftSecondCloseConflicts(t *testing.T) {
	s := New()
	ctx := context.Background()

	shift, _ := s.InsertShift(ctx, domain.CashShift{TenantID: "T1", BranchID: "B1", OpeningFloat: dec("50")})

	first, err := s.CloseShift(ctx, shift.ID, store.ShiftClose{CashSales: decimal.Zero, Counted: dec("50")})
	if err != nil {
		t.Fatalf("first close: %v", err)
	}
	if !first.Difference.Equal(decimal.Zero) {
		t.Fatalf("difference = %s, want 0", first.Difference)
	}

	if _, err := s.CloseShift(ctx, shift.ID, store.ShiftClose{CashSales: dec("1000"), Counted: dec("1000")}); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("second close err = %v, want ErrConflict", err)
	}

	// The first close's figures survive the rejected second attempt.
	got, _ := s.GetShiftByID(ctx, shift.ID)
	if !got.Counted.Equal(dec("50")) {
		t.Fatalf("counted after double close = %s, want 50", got.Counted)
	}

	// Scope is free again for a new shift.
	if _, err := s.InsertShift(ctx, domain.CashShift{TenantID: "T1", BranchID: "B1", OpeningFloat: dec("80")}); err != nil {
		t.Fatalf("reopen after close: %v", err)
	}
}

func TestCashSalesTotalFiltersStatusMethodAndWindow(t *testing.T) {
	s := New()
	ctx := context.Background()

	base := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	orders := []domain.Order{
		{TenantID: "T1", BranchID: "B1", Number: 1, Items: []domain.OrderItem{{Name: "x", Quantity: 1}}, Total: dec("100"), PaymentMethod: domain.PayCash, Status: domain.OrderDelivered, CreatedAt: base},
		{TenantID: "T1", BranchID: "B1", Number: 2, Items: []domain.OrderItem{{Name: "x", Quantity: 1}}, Total: dec("150"), PaymentMethod: domain.PayCash, Status: domain.OrderDelivered, CreatedAt: base.Add(time.Hour)},
		{TenantID: "T1", BranchID: "B1", Number: 3, Items: []domain.OrderItem{{Name: "x", Quantity: 1}}, Total: dec("40"), PaymentMethod: domain.PayCard, Status: domain.OrderDelivered, CreatedAt: base},
		{TenantID: "T1", BranchID: "B1", Number: 4, Items: []domain.OrderItem{{Name: "x", Quantity: 1}}, Total: dec("60"), PaymentMethod: domain.PayCash, Status: domain.OrderPending, CreatedAt: base},
		{TenantID: "T1", BranchID: "B1", Number: 5, Items: []domain.OrderItem{{Name: "x", Quantity: 1}}, Total: dec("70"), PaymentMethod: domain.PayCash, Status: domain.OrderDelivered, CreatedAt: base.Add(-48 * time.Hour)},
	}
	for _, o := range orders {
		o.Day = o.CreatedAt.Format("2006-01-02")
		if _, err := s.CreateOrder(ctx, o); err != nil {
			t.Fatalf("CreateOrder: %v", err)
		}
	}

	total, err := s.CashSalesTotal(ctx, "T1", "B1", base.Add(-time.Hour), base.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("CashSalesTotal: %v", err)
	}
	if !total.Equal(dec("250")) {
		t.Fatalf("cash sales = %s, want 250", total)
	}
}

func TestCreateUserDuplicateUsernameConflicts(t *testing.T) {
	s := New()
	ctx := context.Background()

	u := domain.User{TenantID: "T1", BranchID: "B1", Username: "ana", Name: "Ana", Role: domain.RoleStaff, Active: true}
	if _, err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, err := s.CreateUser(ctx, u); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("duplicate err = %v, want ErrConflict", err)
	}
	// Same username in another branch is fine.
	u.BranchID = "B2"
	if _, err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("other branch CreateUser: %v", err)
	}
}

func TestListOrdersPagination(t *testing.T) {
	s := New()
	ctx := context.Background()

	base := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		_, err := s.CreateOrder(ctx, domain.Order{
			TenantID:      "T1",
			BranchID:      "B1",
			Number:        i + 1,
			Day:           "2026-08-31",
			Items:         []domain.OrderItem{{Name: "x", Quantity: 1}},
			Total:         dec("10"),
			PaymentMethod: domain.PayCash,
			Status:        domain.OrderPending,
			CreatedAt:     base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("CreateOrder: %v", err)
		}
	}

	page, err := s.ListOrders(ctx, store.OrderFilter{TenantID: "T1", BranchID: "B1", Page: 2, PageSize: 10})
	if err != nil {
		t.Fatalf("ListOrders: %v", err)
	}
	if page.Total != 25 || len(page.Data) != 10 {
		t.Fatalf("total = %d, len = %d; want 25, 10", page.Total, len(page.Data))
	}
	// Newest first: page 2 starts at the 11th newest order.
	if page.Data[0].Number != 15 {
		t.Fatalf("first number on page 2 = %d, want 15", page.Data[0].Number)
	}
}
