package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"fogonpos/backend/internal/domain"
	"fogonpos/backend/internal/store"
)

// createOrderAttempts bounds the retry loop around the day-number backstop
// index. The counter makes collisions next to impossible, so hitting the cap
// means something is genuinely wrong.
const createOrderAttempts = 3

func (s *Service) CreateOrder(ctx context.Context, token string, req domain.OrderCreateRequest) (*domain.Order, error) {
	sess, err := s.sessions.Require(token)
	if err != nil {
		return nil, err
	}

	if len(req.Items) == 0 || !req.PaymentMethod.Valid() {
		return nil, store.ErrValidation
	}
	ids := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		if item.ProductID == "" || item.Quantity < 1 {
			return nil, store.ErrValidation
		}
		ids = append(ids, item.ProductID)
	}

	products, err := s.repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	// Snapshot name and price into the order; later catalog edits must not
	// rewrite what was sold.
	items := make([]domain.OrderItem, 0, len(req.Items))
	total := decimal.Zero
	for _, item := range req.Items {
		product, ok := products[item.ProductID]
		if !ok || !product.Active {
			return nil, fmt.Errorf("%w: unknown product %s", store.ErrValidation, item.ProductID)
		}
		items = append(items, domain.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  item.Quantity,
		})
		total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	var cashAmount, cashChange *decimal.Decimal
	if req.PaymentMethod == domain.PayCash && req.CashAmount != nil {
		if req.CashAmount.LessThan(total) {
			return nil, fmt.Errorf("%w: cash amount below total", store.ErrValidation)
		}
		change := req.CashAmount.Sub(total)
		cashAmount = req.CashAmount
		cashChange = &change
	}

	now := time.Now().UTC()
	day := s.localDay(now)

	for attempt := 0; attempt < createOrderAttempts; attempt++ {
		number, err := s.repo.NextOrderNumber(ctx, sess.TenantID, sess.BranchID, day)
		if err != nil {
			return nil, err
		}

		order, err := s.repo.CreateOrder(ctx, domain.Order{
			TenantID:      sess.TenantID,
			BranchID:      sess.BranchID,
			Number:        number,
			Day:           day,
			Items:         items,
			Total:         total,
			PaymentMethod: req.PaymentMethod,
			CashAmount:    cashAmount,
			CashChange:    cashChange,
			Delivery:      req.Delivery,
			Comments:      req.Comments,
			Status:        domain.OrderPending,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
		if errors.Is(err, store.ErrConflict) {
			s.logger.Warn("order number collision, retrying",
				zap.String("tenant_id", sess.TenantID),
				zap.String("branch_id", sess.BranchID),
				zap.String("day", day),
				zap.Int("number", number))
			continue
		}
		if err != nil {
			return nil, err
		}
		return order, nil
	}

	return nil, fmt.Errorf("%w: could not allocate order number", store.ErrConflict)
}

func (s *Service) GetOrder(ctx context.Context, token, orderID string) (*domain.Order, error) {
	if _, err := s.sessions.Require(token); err != nil {
		return nil, err
	}
	return s.repo.GetOrderByID(ctx, orderID)
}

func (s *Service) ListOrders(ctx context.Context, token string, status domain.OrderStatus, page, pageSize int64) (domain.Page[domain.Order], error) {
	sess, err := s.sessions.Require(token)
	if err != nil {
		return domain.Page[domain.Order]{}, err
	}
	if status != "" && !status.Valid() {
		return domain.Page[domain.Order]{}, store.ErrValidation
	}
	return s.repo.ListOrders(ctx, store.OrderFilter{
		TenantID: sess.TenantID,
		BranchID: sess.BranchID,
		Status:   status,
		Page:     page,
		PageSize: pageSize,
	})
}

// UpdateOrderStatus moves an order through the kitchen flow. Dispatching
// (the DELIVERED transition) additionally posts the order's total to the
// open cash shift; when no shift is open the whole transition is refused and
// the order stays as it was.
func (s *Service) UpdateOrderStatus(ctx context.Context, token, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	sess, err := s.sessions.Require(token)
	if err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, store.ErrValidation
	}

	order, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.TenantID != sess.TenantID || order.BranchID != sess.BranchID {
		return nil, store.ErrNotFound
	}

	if order.Status == domain.OrderDelivered || order.Status == domain.OrderCancelled {
		if order.Status == status {
			return order, nil
		}
		return nil, fmt.Errorf("%w: order already %s", store.ErrConflict, order.Status)
	}

	if status == domain.OrderDelivered {
		shift, err := s.repo.GetOpenShift(ctx, sess.TenantID, sess.BranchID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("%w: no open cash shift", store.ErrConflict)
			}
			return nil, err
		}

		// Post before flipping the status. The append only lands while the
		// shift is still OPEN and is keyed on the order id, so a shift that
		// closed since the read refuses the whole dispatch with the order
		// untouched, and a retry after a failed status write skips the
		// duplicate post instead of double-counting.
		err = s.repo.AppendMovement(ctx, shift.ID, domain.CashMovement{
			Kind:       domain.MovementIn,
			Amount:     order.Total,
			Source:     domain.SourceOrder,
			RefOrderID: order.ID,
			Note:       fmt.Sprintf("orden #%d", order.Number),
			At:         time.Now().UTC(),
		})
		if err != nil {
			if errors.Is(err, store.ErrConflict) || errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("%w: no open cash shift", store.ErrConflict)
			}
			return nil, err
		}
	}

	return s.repo.UpdateOrderStatus(ctx, orderID, status, time.Now().UTC())
}

func (s *Service) DeleteOrder(ctx context.Context, token, orderID string) error {
	sess, err := s.sessions.RequireRole(token, domain.RoleAdmin)
	if err != nil {
		return err
	}

	order, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.TenantID != sess.TenantID || order.BranchID != sess.BranchID {
		return store.ErrNotFound
	}
	// A dispatched order already fed the cash ledger and the reports.
	if order.Status == domain.OrderDelivered {
		return fmt.Errorf("%w: delivered orders cannot be deleted", store.ErrConflict)
	}
	return s.repo.DeleteOrder(ctx, orderID)
}
