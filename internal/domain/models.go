package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleStaff Role = "STAFF"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleStaff
}

// Session is an in-process authentication handle. It is never persisted;
// a process restart forces re-login.
type Session struct {
	Token     string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	TenantID  string    `json:"tenant_id"`
	BranchID  string    `json:"branch_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

type User struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenant_id"`
	BranchID     string    `json:"branch_id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	Role         Role      `json:"role"`
	Active       bool      `json:"active"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type LoginRequest struct {
	TenantID string `json:"tenant_id"`
	BranchID string `json:"branch_id"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type UserCreateRequest struct {
	TenantID string `json:"tenant_id"`
	BranchID string `json:"branch_id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	Password string `json:"password"`
	Active   bool   `json:"active"`
}

type UserUpdateRequest struct {
	Name        *string `json:"name,omitempty"`
	Username    *string `json:"username,omitempty"`
	Role        *Role   `json:"role,omitempty"`
	Active      *bool   `json:"active,omitempty"`
	NewPassword *string `json:"new_password,omitempty"`
}

type Product struct {
	ID        string          `json:"id"`
	TenantID  string          `json:"tenant_id"`
	BranchID  string          `json:"branch_id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Price     decimal.Decimal `json:"price"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type ProductCreateRequest struct {
	TenantID string          `json:"tenant_id"`
	BranchID string          `json:"branch_id"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
}

type ProductUpdateRequest struct {
	Name     *string          `json:"name,omitempty"`
	Category *string          `json:"category,omitempty"`
	Price    *decimal.Decimal `json:"price,omitempty"`
	Active   *bool            `json:"active,omitempty"`
}

type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderInProgress OrderStatus = "IN_PROGRESS"
	OrderReady      OrderStatus = "READY"
	OrderDelivered  OrderStatus = "DELIVERED"
	OrderCancelled  OrderStatus = "CANCELLED"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderInProgress, OrderReady, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PayCash PaymentMethod = "CASH"
	PayCard PaymentMethod = "CARD"
	PayQR   PaymentMethod = "QR"
)

func (m PaymentMethod) Valid() bool {
	return m == PayCash || m == PayCard || m == PayQR
}

type OrderItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

type DeliveryInfo struct {
	Company string `json:"company"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

type Order struct {
	ID            string           `json:"id"`
	TenantID      string           `json:"tenant_id"`
	BranchID      string           `json:"branch_id"`
	Number        int              `json:"order_number"`
	Day           string           `json:"order_day"`
	Items         []OrderItem      `json:"items"`
	Total         decimal.Decimal  `json:"total"`
	PaymentMethod PaymentMethod    `json:"payment_method"`
	CashAmount    *decimal.Decimal `json:"cash_amount,omitempty"`
	CashChange    *decimal.Decimal `json:"cash_change,omitempty"`
	Delivery      *DeliveryInfo    `json:"delivery,omitempty"`
	Comments      string           `json:"comments,omitempty"`
	Status        OrderStatus      `json:"status"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

type OrderItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type OrderCreateRequest struct {
	TenantID      string             `json:"tenant_id"`
	BranchID      string             `json:"branch_id"`
	Items         []OrderItemRequest `json:"items"`
	PaymentMethod PaymentMethod      `json:"payment_method"`
	CashAmount    *decimal.Decimal   `json:"cash_amount,omitempty"`
	Delivery      *DeliveryInfo      `json:"delivery,omitempty"`
	Comments      string             `json:"comments,omitempty"`
}

type MovementKind string

const (
	MovementIn  MovementKind = "IN"
	MovementOut MovementKind = "OUT"
)

type MovementSource string

const (
	SourceManual MovementSource = "MANUAL"
	SourceOrder  MovementSource = "ORDER"
)

type CashMovement struct {
	ID         string          `json:"id"`
	ShiftID    string          `json:"shift_id"`
	Kind       MovementKind    `json:"kind"`
	Amount     decimal.Decimal `json:"amount"`
	Source     MovementSource  `json:"source"`
	RefOrderID string          `json:"ref_order_id,omitempty"`
	Note       string          `json:"note,omitempty"`
	At         time.Time       `json:"at"`
}

type Denomination struct {
	Value decimal.Decimal `json:"value"`
	Qty   int             `json:"qty"`
}

type ShiftStatus string

const (
	ShiftOpen   ShiftStatus = "OPEN"
	ShiftClosed ShiftStatus = "CLOSED"
)

type CashShift struct {
	ID            string           `json:"id"`
	TenantID      string           `json:"tenant_id"`
	BranchID      string           `json:"branch_id"`
	UserID        string           `json:"user_id"`
	Username      string           `json:"username"`
	OpenedAt      time.Time        `json:"opened_at"`
	ClosedAt      *time.Time       `json:"closed_at,omitempty"`
	OpeningFloat  decimal.Decimal  `json:"opening_float"`
	Movements     []CashMovement   `json:"movements"`
	Denominations []Denomination   `json:"denominations,omitempty"`
	Counted       *decimal.Decimal `json:"counted,omitempty"`
	Expected      *decimal.Decimal `json:"expected,omitempty"`
	Difference    *decimal.Decimal `json:"difference,omitempty"`
	ManualIns     *decimal.Decimal `json:"manual_ins,omitempty"`
	ManualOuts    *decimal.Decimal `json:"manual_outs,omitempty"`
	CashSales     *decimal.Decimal `json:"cash_sales,omitempty"`
	Status        ShiftStatus      `json:"status"`
	Notes         string           `json:"notes,omitempty"`
}

type ShiftOpenRequest struct {
	TenantID     string          `json:"tenant_id"`
	BranchID     string          `json:"branch_id"`
	OpeningFloat decimal.Decimal `json:"opening_float"`
}

type MovementRequest struct {
	Kind   MovementKind    `json:"kind"`
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note,omitempty"`
}

type ShiftCloseRequest struct {
	Denominations []Denomination `json:"denominations"`
	Notes         string         `json:"notes,omitempty"`
}

type Expense struct {
	ID          string          `json:"id"`
	TenantID    string          `json:"tenant_id"`
	BranchID    string          `json:"branch_id"`
	Description string          `json:"description"`
	Category    string          `json:"category,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	CreatedBy   string          `json:"created_by,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

type ExpenseCreateRequest struct {
	TenantID    string          `json:"tenant_id"`
	BranchID    string          `json:"branch_id"`
	Description string          `json:"description"`
	Category    string          `json:"category,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date,omitempty"`
}

// Page is the envelope for every paginated list response.
type Page[T any] struct {
	Data     []T   `json:"data"`
	Total    int64 `json:"total"`
	Page     int64 `json:"page"`
	PageSize int64 `json:"page_size"`
}

type MethodTotal struct {
	Method string          `json:"method"`
	Amount decimal.Decimal `json:"amount"`
}

type Point struct {
	Date   string          `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

type TopProduct struct {
	Name  string          `json:"name"`
	Qty   int64           `json:"qty"`
	Sales decimal.Decimal `json:"sales"`
}

type SalesSummary struct {
	TotalSales decimal.Decimal `json:"total_sales"`
	Orders     int64           `json:"orders"`
}

type SalesOverview struct {
	TotalSales  decimal.Decimal `json:"total_sales"`
	Orders      int64           `json:"orders"`
	AvgTicket   decimal.Decimal `json:"avg_ticket"`
	ByMethod    []MethodTotal   `json:"by_method"`
	Timeseries  []Point         `json:"timeseries"`
	TopProducts []TopProduct    `json:"top_products"`
}

type ProfitLoss struct {
	Income        decimal.Decimal `json:"income"`
	Expenses      decimal.Decimal `json:"expenses"`
	Net           decimal.Decimal `json:"net"`
	IncomeSeries  []Point         `json:"income_series"`
	ExpenseSeries []Point         `json:"expense_series"`
}

type MonthPnL struct {
	Month    string          `json:"month"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Net      decimal.Decimal `json:"net"`
}
