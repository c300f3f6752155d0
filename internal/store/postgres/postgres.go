// Package postgres implements store.Repository on PostgreSQL through
// database/sql with the pgx stdlib driver. The concurrency-sensitive writes
// rely on the database, not on application-level locking: the order counter
// is an upsert-increment, the single-open-shift rule and the one-movement-
// per-order rule are partial unique indexes, and shift close is one
// conditional UPDATE that also computes the movement sums.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"fogonpos/backend/internal/domain"
	"fogonpos/backend/internal/store"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for migrations.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Users

func (s *Store) FindActiveUser(ctx context.Context, tenantID, branchID, username string) (*domain.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, branch_id, name, username, role, active, password_hash, created_at, updated_at
		FROM users
		WHERE tenant_id = $1 AND branch_id = $2 AND username = $3 AND active = true
	`, tenantID, branchID, username))
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, branch_id, name, username, role, active, password_hash, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id))
}

func (s *Store) scanUser(row *sql.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.TenantID, &u.BranchID, &u.Name, &u.Username, &u.Role, &u.Active, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.User) (*domain.User, error) {
	if user.Username == "" || user.TenantID == "" || user.BranchID == "" {
		return nil, store.ErrValidation
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, tenant_id, branch_id, name, username, role, active, password_hash, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, user.ID, user.TenantID, user.BranchID, user.Name, user.Username, user.Role, user.Active, user.PasswordHash, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}

	created := user
	return &created, nil
}

func (s *Store) UpdateUser(ctx context.Context, user domain.User) (*domain.User, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET name = $2, username = $3, role = $4, active = $5, password_hash = $6, updated_at = $7
		WHERE id = $1
	`, user.ID, user.Name, user.Username, user.Role, user.Active, user.PasswordHash, user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, store.ErrNotFound
	}

	updated := user
	return &updated, nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context, tenantID, branchID string) ([]domain.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, branch_id, name, username, role, active, password_hash, created_at, updated_at
		FROM users
		WHERE tenant_id = $1 AND branch_id = $2
		ORDER BY username
	`, tenantID, branchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.User, 0, 16)
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.TenantID, &u.BranchID, &u.Name, &u.Username, &u.Role, &u.Active, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}

// Products

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.Name == "" || product.TenantID == "" || product.BranchID == "" {
		return nil, store.ErrValidation
	}
	if product.ID == "" {
		product.ID = uuid.NewString()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, tenant_id, branch_id, name, category, price, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, product.ID, product.TenantID, product.BranchID, product.Name, product.Category, product.Price, product.Active, product.CreatedAt, product.UpdatedAt)
	if err != nil {
		return nil, err
	}

	created := product
	return &created, nil
}

func (s *Store) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	err := s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, branch_id, name, category, price, active, created_at, updated_at
		FROM products
		WHERE id = $1
	`, id).Scan(&p.ID, &p.TenantID, &p.BranchID, &p.Name, &p.Category, &p.Price, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) GetProductsByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	if len(ids) == 0 {
		return map[string]domain.Product{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, branch_id, name, category, price, active, created_at, updated_at
		FROM products
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make(map[string]domain.Product, len(ids))
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.TenantID, &p.BranchID, &p.Name, &p.Category, &p.Price, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		products[p.ID] = p
	}
	return products, rows.Err()
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = $2, category = $3, price = $4, active = $5, updated_at = $6
		WHERE id = $1
	`, product.ID, product.Name, product.Category, product.Price, product.Active, product.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, store.ErrNotFound
	}

	updated := product
	return &updated, nil
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListProducts(ctx context.Context, tenantID, branchID, category string) ([]domain.Product, error) {
	query := `
		SELECT id, tenant_id, branch_id, name, category, price, active, created_at, updated_at
		FROM products
		WHERE tenant_id = $1 AND branch_id = $2
	`
	args := []any{tenantID, branchID}
	if category != "" {
		query += ` AND category = $3`
		args = append(args, category)
	}
	query += ` ORDER BY category, name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 64)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.TenantID, &p.BranchID, &p.Name, &p.Category, &p.Price, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// Orders

// NextOrderNumber allocates the next per-day order number with a single
// upsert-increment. Concurrent callers serialize on the counter row, so each
// gets a distinct consecutive number.
func (s *Store) NextOrderNumber(ctx context.Context, tenantID, branchID, day string) (int, error) {
	if tenantID == "" || branchID == "" || day == "" {
		return 0, store.ErrValidation
	}

	var number int
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO order_counters (tenant_id, branch_id, day, last_number)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (tenant_id, branch_id, day)
		DO UPDATE SET last_number = order_counters.last_number + 1
		RETURNING last_number
	`, tenantID, branchID, day).Scan(&number)
	if err != nil {
		return 0, err
	}
	return number, nil
}

func (s *Store) CreateOrder(ctx context.Context, order domain.Order) (*domain.Order, error) {
	if order.TenantID == "" || order.BranchID == "" || len(order.Items) == 0 || order.Number < 1 || order.Day == "" {
		return nil, store.ErrValidation
	}
	if order.ID == "" {
		order.ID = uuid.NewString()
	}

	items, err := json.Marshal(order.Items)
	if err != nil {
		return nil, err
	}
	var delivery []byte
	if order.Delivery != nil {
		if delivery, err = json.Marshal(order.Delivery); err != nil {
			return nil, err
		}
	}

	// order_day must be the same calendar day the number was allocated under,
	// or the backstop index guards a different bucket than the counter.
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO orders (id, tenant_id, branch_id, order_day, order_number, items, total,
		                    payment_method, cash_amount, cash_change, delivery, comments, status,
		                    created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`, order.ID, order.TenantID, order.BranchID, order.Day, order.Number, items, order.Total,
		order.PaymentMethod, order.CashAmount, order.CashChange, delivery, order.Comments, order.Status,
		order.CreatedAt, order.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}

	created := order
	return &created, nil
}

const orderColumns = `id, tenant_id, branch_id, order_day, order_number, items, total, payment_method,
	cash_amount, cash_change, delivery, comments, status, created_at, updated_at`

func scanOrder(scan func(dest ...any) error) (domain.Order, error) {
	var (
		o        domain.Order
		items    []byte
		delivery []byte
	)
	err := scan(&o.ID, &o.TenantID, &o.BranchID, &o.Day, &o.Number, &items, &o.Total, &o.PaymentMethod,
		&o.CashAmount, &o.CashChange, &delivery, &o.Comments, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return domain.Order{}, err
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return domain.Order{}, err
	}
	if len(delivery) > 0 {
		o.Delivery = &domain.DeliveryInfo{}
		if err := json.Unmarshal(delivery, o.Delivery); err != nil {
			return domain.Order{}, err
		}
	}
	return o, nil
}

func (s *Store) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (s *Store) ListOrders(ctx context.Context, filter store.OrderFilter) (domain.Page[domain.Order], error) {
	page, size := clampPage(filter.Page, filter.PageSize)
	empty := domain.Page[domain.Order]{Data: []domain.Order{}, Page: page, PageSize: size}

	where := ` WHERE tenant_id = $1 AND branch_id = $2`
	args := []any{filter.TenantID, filter.BranchID}
	if filter.Status != "" {
		where += ` AND status = $3`
		args = append(args, filter.Status)
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`+where, args...).Scan(&total); err != nil {
		return empty, err
	}

	query := `SELECT ` + orderColumns + ` FROM orders` + where +
		` ORDER BY created_at DESC, id DESC LIMIT ` + placeholder(len(args)+1) + ` OFFSET ` + placeholder(len(args)+2)
	args = append(args, size, (page-1)*size)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return empty, err
	}
	defer rows.Close()

	orders := make([]domain.Order, 0, size)
	for rows.Next() {
		o, err := scanOrder(rows.Scan)
		if err != nil {
			return empty, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return empty, err
	}

	return domain.Page[domain.Order]{Data: orders, Total: total, Page: page, PageSize: size}, nil
}

func (s *Store) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus, at time.Time) (*domain.Order, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE orders
		SET status = $2, updated_at = $3
		WHERE id = $1
		RETURNING `+orderColumns+`
	`, id, status, at)
	o, err := scanOrder(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (s *Store) DeleteOrder(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CashSalesTotal(ctx context.Context, tenantID, branchID string, from, to time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(total), 0)
		FROM orders
		WHERE tenant_id = $1 AND branch_id = $2
		  AND status = 'DELIVERED' AND payment_method = 'CASH'
		  AND created_at >= $3 AND created_at <= $4
	`, tenantID, branchID, from, to).Scan(&total)
	return total, err
}

// Cash shifts

func (s *Store) InsertShift(ctx context.Context, shift domain.CashShift) (*domain.CashShift, error) {
	if shift.TenantID == "" || shift.BranchID == "" {
		return nil, store.ErrValidation
	}
	if shift.ID == "" {
		shift.ID = uuid.NewString()
	}
	if shift.OpenedAt.IsZero() {
		shift.OpenedAt = time.Now().UTC()
	}
	shift.Status = domain.ShiftOpen

	// uq_cash_shifts_open rejects a second OPEN row for the scope, so the
	// losers of a concurrent open race get ErrConflict without any
	// read-then-insert window.
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cash_shifts (id, tenant_id, branch_id, user_id, username, opened_at, opening_float, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,'OPEN')
	`, shift.ID, shift.TenantID, shift.BranchID, shift.UserID, shift.Username, shift.OpenedAt, shift.OpeningFloat)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}

	created := shift
	created.Movements = []domain.CashMovement{}
	return &created, nil
}

const shiftColumns = `id, tenant_id, branch_id, user_id, username, opened_at, closed_at, opening_float,
	denominations, counted, expected, difference, manual_ins, manual_outs, cash_sales, status, notes`

func scanShift(scan func(dest ...any) error) (domain.CashShift, error) {
	var (
		sh    domain.CashShift
		denos []byte
		notes sql.NullString
	)
	err := scan(&sh.ID, &sh.TenantID, &sh.BranchID, &sh.UserID, &sh.Username, &sh.OpenedAt, &sh.ClosedAt, &sh.OpeningFloat,
		&denos, &sh.Counted, &sh.Expected, &sh.Difference, &sh.ManualIns, &sh.ManualOuts, &sh.CashSales, &sh.Status, &notes)
	if err != nil {
		return domain.CashShift{}, err
	}
	if len(denos) > 0 {
		if err := json.Unmarshal(denos, &sh.Denominations); err != nil {
			return domain.CashShift{}, err
		}
	}
	sh.Notes = notes.String
	return sh, nil
}

func (s *Store) GetShiftByID(ctx context.Context, id string) (*domain.CashShift, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+shiftColumns+` FROM cash_shifts WHERE id = $1`, id)
	sh, err := scanShift(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if sh.Movements, err = s.shiftMovements(ctx, sh.ID); err != nil {
		return nil, err
	}
	return &sh, nil
}

func (s *Store) GetOpenShift(ctx context.Context, tenantID, branchID string) (*domain.CashShift, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+shiftColumns+`
		FROM cash_shifts
		WHERE tenant_id = $1 AND branch_id = $2 AND status = 'OPEN'
	`, tenantID, branchID)
	sh, err := scanShift(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if sh.Movements, err = s.shiftMovements(ctx, sh.ID); err != nil {
		return nil, err
	}
	return &sh, nil
}

func (s *Store) shiftMovements(ctx context.Context, shiftID string) ([]domain.CashMovement, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, shift_id, kind, amount, source, COALESCE(ref_order_id, ''), COALESCE(note, ''), at
		FROM cash_movements
		WHERE shift_id = $1
		ORDER BY at, id
	`, shiftID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	movements := make([]domain.CashMovement, 0, 16)
	for rows.Next() {
		var mv domain.CashMovement
		if err := rows.Scan(&mv.ID, &mv.ShiftID, &mv.Kind, &mv.Amount, &mv.Source, &mv.RefOrderID, &mv.Note, &mv.At); err != nil {
			return nil, err
		}
		movements = append(movements, mv)
	}
	return movements, rows.Err()
}

func (s *Store) AppendMovement(ctx context.Context, shiftID string, mv domain.CashMovement) error {
	if mv.Kind != domain.MovementIn && mv.Kind != domain.MovementOut {
		return store.ErrValidation
	}
	if !mv.Amount.IsPositive() {
		return store.ErrValidation
	}
	if mv.Source == domain.SourceOrder && mv.RefOrderID == "" {
		return store.ErrValidation
	}
	if mv.ID == "" {
		mv.ID = uuid.NewString()
	}
	if mv.At.IsZero() {
		mv.At = time.Now().UTC()
	}

	var refOrderID *string
	if mv.RefOrderID != "" {
		refOrderID = &mv.RefOrderID
	}

	// The shift subquery keeps the insert conditional on the shift still
	// being OPEN. uq_cash_movements_order plus ON CONFLICT DO NOTHING makes
	// ORDER-source posting idempotent per order.
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO cash_movements (id, shift_id, kind, amount, source, ref_order_id, note, at)
		SELECT $1, cs.id, $3, $4, $5, $6, $7, $8
		FROM cash_shifts cs
		WHERE cs.id = $2 AND cs.status = 'OPEN'
		ON CONFLICT (ref_order_id) WHERE source = 'ORDER' DO NOTHING
	`, mv.ID, shiftID, mv.Kind, mv.Amount, mv.Source, refOrderID, mv.Note, mv.At)
	if err != nil {
		return err
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		if mv.Source == domain.SourceOrder {
			// Either the duplicate was skipped or the shift is unusable;
			// distinguish so a missing shift does not pass as idempotency.
			var exists bool
			if err := s.db.QueryRowContext(ctx, `
				SELECT EXISTS (SELECT 1 FROM cash_movements WHERE ref_order_id = $1 AND source = 'ORDER')
			`, mv.RefOrderID).Scan(&exists); err != nil {
				return err
			}
			if exists {
				return nil
			}
		}
		var status domain.ShiftStatus
		err := s.db.QueryRowContext(ctx, `SELECT status FROM cash_shifts WHERE id = $1`, shiftID).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrNotFound
		}
		if err != nil {
			return err
		}
		return store.ErrConflict
	}
	return nil
}

// CloseShift finalizes an open shift in one conditional UPDATE. The manual
// movement sums are aggregated inside the statement, so a movement appended
// between the caller's read and the close still lands in the totals.
func (s *Store) CloseShift(ctx context.Context, shiftID string, close store.ShiftClose) (*domain.CashShift, error) {
	denos, err := json.Marshal(close.Denominations)
	if err != nil {
		return nil, err
	}
	closedAt := close.ClosedAt
	if closedAt.IsZero() {
		closedAt = time.Now().UTC()
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE cash_shifts cs
		SET status = 'CLOSED',
		    closed_at = $2,
		    cash_sales = $3,
		    denominations = $4,
		    counted = $5,
		    notes = $6,
		    manual_ins = m.ins,
		    manual_outs = m.outs,
		    expected = cs.opening_float + $3 + m.ins - m.outs,
		    difference = $5 - (cs.opening_float + $3 + m.ins - m.outs)
		FROM (
			SELECT COALESCE(SUM(amount) FILTER (WHERE kind = 'IN'  AND source = 'MANUAL'), 0) AS ins,
			       COALESCE(SUM(amount) FILTER (WHERE kind = 'OUT' AND source = 'MANUAL'), 0) AS outs
			FROM cash_movements
			WHERE shift_id = $1
		) m
		WHERE cs.id = $1 AND cs.status = 'OPEN'
		RETURNING cs.id, cs.tenant_id, cs.branch_id, cs.user_id, cs.username, cs.opened_at, cs.closed_at,
		          cs.opening_float, cs.denominations, cs.counted, cs.expected, cs.difference,
		          cs.manual_ins, cs.manual_outs, cs.cash_sales, cs.status, cs.notes
	`, shiftID, closedAt, close.CashSales, denos, close.Counted, close.Notes)

	sh, err := scanShift(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			var status domain.ShiftStatus
			statusErr := s.db.QueryRowContext(ctx, `SELECT status FROM cash_shifts WHERE id = $1`, shiftID).Scan(&status)
			if statusErr == nil && status == domain.ShiftClosed {
				return nil, store.ErrConflict
			}
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if sh.Movements, err = s.shiftMovements(ctx, sh.ID); err != nil {
		return nil, err
	}
	return &sh, nil
}

func (s *Store) ListShifts(ctx context.Context, filter store.ShiftFilter) (domain.Page[domain.CashShift], error) {
	page, size := clampPage(filter.Page, filter.PageSize)
	empty := domain.Page[domain.CashShift]{Data: []domain.CashShift{}, Page: page, PageSize: size}

	where := ` WHERE tenant_id = $1 AND branch_id = $2`
	args := []any{filter.TenantID, filter.BranchID}
	if !filter.From.IsZero() {
		where += ` AND opened_at >= ` + placeholder(len(args)+1)
		args = append(args, filter.From)
	}
	if !filter.To.IsZero() {
		where += ` AND opened_at <= ` + placeholder(len(args)+1)
		args = append(args, filter.To)
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cash_shifts`+where, args...).Scan(&total); err != nil {
		return empty, err
	}

	query := `SELECT ` + shiftColumns + ` FROM cash_shifts` + where +
		` ORDER BY opened_at DESC, id DESC LIMIT ` + placeholder(len(args)+1) + ` OFFSET ` + placeholder(len(args)+2)
	args = append(args, size, (page-1)*size)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return empty, err
	}
	defer rows.Close()

	shifts := make([]domain.CashShift, 0, size)
	for rows.Next() {
		sh, err := scanShift(rows.Scan)
		if err != nil {
			return empty, err
		}
		shifts = append(shifts, sh)
	}
	if err := rows.Err(); err != nil {
		return empty, err
	}

	for i := range shifts {
		if shifts[i].Movements, err = s.shiftMovements(ctx, shifts[i].ID); err != nil {
			return empty, err
		}
	}

	return domain.Page[domain.CashShift]{Data: shifts, Total: total, Page: page, PageSize: size}, nil
}

// Expenses

func (s *Store) CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error) {
	if expense.TenantID == "" || expense.BranchID == "" || expense.Description == "" {
		return nil, store.ErrValidation
	}
	if expense.ID == "" {
		expense.ID = uuid.NewString()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (id, tenant_id, branch_id, description, category, amount, date, created_by, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, expense.ID, expense.TenantID, expense.BranchID, expense.Description, expense.Category, expense.Amount, expense.Date, expense.CreatedBy, expense.CreatedAt)
	if err != nil {
		return nil, err
	}

	created := expense
	return &created, nil
}

func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListExpenses(ctx context.Context, filter store.ExpenseFilter) (domain.Page[domain.Expense], error) {
	page, size := clampPage(filter.Page, filter.PageSize)
	empty := domain.Page[domain.Expense]{Data: []domain.Expense{}, Page: page, PageSize: size}

	where := ` WHERE tenant_id = $1 AND branch_id = $2`
	args := []any{filter.TenantID, filter.BranchID}
	if !filter.From.IsZero() {
		where += ` AND date >= ` + placeholder(len(args)+1)
		args = append(args, filter.From)
	}
	if !filter.To.IsZero() {
		where += ` AND date <= ` + placeholder(len(args)+1)
		args = append(args, filter.To)
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM expenses`+where, args...).Scan(&total); err != nil {
		return empty, err
	}

	query := `
		SELECT id, tenant_id, branch_id, description, COALESCE(category, ''), amount, date, COALESCE(created_by, ''), created_at
		FROM expenses` + where +
		` ORDER BY date DESC, id DESC LIMIT ` + placeholder(len(args)+1) + ` OFFSET ` + placeholder(len(args)+2)
	args = append(args, size, (page-1)*size)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return empty, err
	}
	defer rows.Close()

	expenses := make([]domain.Expense, 0, size)
	for rows.Next() {
		var e domain.Expense
		if err := rows.Scan(&e.ID, &e.TenantID, &e.BranchID, &e.Description, &e.Category, &e.Amount, &e.Date, &e.CreatedBy, &e.CreatedAt); err != nil {
			return empty, err
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return empty, err
	}

	return domain.Page[domain.Expense]{Data: expenses, Total: total, Page: page, PageSize: size}, nil
}

// Report aggregations

func (s *Store) SalesSummary(ctx context.Context, tenantID, branchID string, from, to time.Time) (domain.SalesSummary, error) {
	var summary domain.SalesSummary
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(total), 0), COUNT(*)
		FROM orders
		WHERE tenant_id = $1 AND branch_id = $2 AND status = 'DELIVERED'
		  AND created_at >= $3 AND created_at <= $4
	`, tenantID, branchID, from, to).Scan(&summary.TotalSales, &summary.Orders)
	return summary, err
}

func (s *Store) SalesByMethod(ctx context.Context, tenantID, branchID string, from, to time.Time) ([]domain.MethodTotal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT payment_method, COALESCE(SUM(total), 0)
		FROM orders
		WHERE tenant_id = $1 AND branch_id = $2 AND status = 'DELIVERED'
		  AND created_at >= $3 AND created_at <= $4
		GROUP BY payment_method
		ORDER BY payment_method
	`, tenantID, branchID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make([]domain.MethodTotal, 0, 3)
	for rows.Next() {
		var mt domain.MethodTotal
		if err := rows.Scan(&mt.Method, &mt.Amount); err != nil {
			return nil, err
		}
		totals = append(totals, mt)
	}
	return totals, rows.Err()
}

func (s *Store) SalesTimeseries(ctx context.Context, tenantID, branchID string, from, to time.Time) ([]domain.Point, error) {
	return s.timeseries(ctx, `
		SELECT to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day, COALESCE(SUM(total), 0)
		FROM orders
		WHERE tenant_id = $1 AND branch_id = $2 AND status = 'DELIVERED'
		  AND created_at >= $3 AND created_at <= $4
		GROUP BY day
		ORDER BY day
	`, tenantID, branchID, from, to)
}

func (s *Store) ExpenseTimeseries(ctx context.Context, tenantID, branchID string, from, to time.Time) ([]domain.Point, error) {
	return s.timeseries(ctx, `
		SELECT to_char(date AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day, COALESCE(SUM(amount), 0)
		FROM expenses
		WHERE tenant_id = $1 AND branch_id = $2
		  AND date >= $3 AND date <= $4
		GROUP BY day
		ORDER BY day
	`, tenantID, branchID, from, to)
}

func (s *Store) timeseries(ctx context.Context, query string, args ...any) ([]domain.Point, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	points := make([]domain.Point, 0, 31)
	for rows.Next() {
		var p domain.Point
		if err := rows.Scan(&p.Date, &p.Amount); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

func (s *Store) TopProducts(ctx context.Context, tenantID, branchID string, from, to time.Time, limit int) ([]domain.TopProduct, error) {
	if limit < 1 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT item->>'name' AS name,
		       SUM((item->>'quantity')::bigint) AS qty,
		       COALESCE(SUM((item->>'price')::numeric * (item->>'quantity')::numeric), 0) AS sales
		FROM orders, jsonb_array_elements(items) AS item
		WHERE tenant_id = $1 AND branch_id = $2 AND status = 'DELIVERED'
		  AND created_at >= $3 AND created_at <= $4
		GROUP BY name
		ORDER BY qty DESC, name
		LIMIT $5
	`, tenantID, branchID, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	top := make([]domain.TopProduct, 0, limit)
	for rows.Next() {
		var tp domain.TopProduct
		if err := rows.Scan(&tp.Name, &tp.Qty, &tp.Sales); err != nil {
			return nil, err
		}
		top = append(top, tp)
	}
	return top, rows.Err()
}

func (s *Store) ExpenseTotal(ctx context.Context, tenantID, branchID string, from, to time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM expenses
		WHERE tenant_id = $1 AND branch_id = $2
		  AND date >= $3 AND date <= $4
	`, tenantID, branchID, from, to).Scan(&total)
	return total, err
}

func (s *Store) MonthlySales(ctx context.Context, tenantID, branchID string, year int) (map[int]decimal.Decimal, error) {
	return s.monthly(ctx, `
		SELECT EXTRACT(MONTH FROM created_at AT TIME ZONE 'UTC')::int AS month, COALESCE(SUM(total), 0)
		FROM orders
		WHERE tenant_id = $1 AND branch_id = $2 AND status = 'DELIVERED'
		  AND EXTRACT(YEAR FROM created_at AT TIME ZONE 'UTC') = $3
		GROUP BY month
	`, tenantID, branchID, year)
}

func (s *Store) MonthlyExpenses(ctx context.Context, tenantID, branchID string, year int) (map[int]decimal.Decimal, error) {
	return s.monthly(ctx, `
		SELECT EXTRACT(MONTH FROM date AT TIME ZONE 'UTC')::int AS month, COALESCE(SUM(amount), 0)
		FROM expenses
		WHERE tenant_id = $1 AND branch_id = $2
		  AND EXTRACT(YEAR FROM date AT TIME ZONE 'UTC') = $3
		GROUP BY month
	`, tenantID, branchID, year)
}

func (s *Store) monthly(ctx context.Context, query string, args ...any) (map[int]decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byMonth := make(map[int]decimal.Decimal, 12)
	for rows.Next() {
		var (
			month  int
			amount decimal.Decimal
		)
		if err := rows.Scan(&month, &amount); err != nil {
			return nil, err
		}
		byMonth[month] = amount
	}
	return byMonth, rows.Err()
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

func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

var _ store.Repository = (*Store)(nil)
