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

func (s *Service) OpenShift(ctx context.Context, token string, req domain.ShiftOpenRequest) (*domain.CashShift, error) {
	sess, err := s.sessions.Require(token)
	if err != nil {
		return nil, err
	}
	if req.OpeningFloat.IsNegative() {
		return nil, fmt.Errorf("%w: opening float cannot be negative", store.ErrValidation)
	}

	shift, err := s.repo.InsertShift(ctx, domain.CashShift{
		TenantID:     sess.TenantID,
		BranchID:     sess.BranchID,
		UserID:       sess.UserID,
		Username:     sess.Username,
		OpenedAt:     time.Now().UTC(),
		OpeningFloat: req.OpeningFloat,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, fmt.Errorf("%w: a cash shift is already open", store.ErrConflict)
		}
		return nil, err
	}

	s.logger.Info("cash shift opened",
		zap.String("shift_id", shift.ID),
		zap.String("tenant_id", shift.TenantID),
		zap.String("branch_id", shift.BranchID),
		zap.String("opening_float", shift.OpeningFloat.String()))
	return shift, nil
}

// ActiveShift returns the open shift for the caller's branch, or ErrNotFound
// when the register is closed.
func (s *Service) ActiveShift(ctx context.Context, token string) (*domain.CashShift, error) {
	sess, err := s.sessions.Require(token)
	if err != nil {
		return nil, err
	}
	return s.repo.GetOpenShift(ctx, sess.TenantID, sess.BranchID)
}

func (s *Service) RegisterMovement(ctx context.Context, token, shiftID string, req domain.MovementRequest) (*domain.CashShift, error) {
	sess, err := s.sessions.Require(token)
	if err != nil {
		return nil, err
	}
	if req.Kind != domain.MovementIn && req.Kind != domain.MovementOut {
		return nil, store.ErrValidation
	}
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", store.ErrValidation)
	}

	shift, err := s.repo.GetShiftByID(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if shift.TenantID != sess.TenantID || shift.BranchID != sess.BranchID {
		return nil, store.ErrNotFound
	}

	err = s.repo.AppendMovement(ctx, shift.ID, domain.CashMovement{
		Kind:   req.Kind,
		Amount: req.Amount,
		Source: domain.SourceManual,
		Note:   req.Note,
		At:     time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, fmt.Errorf("%w: shift is closed", store.ErrConflict)
		}
		return nil, err
	}

	return s.repo.GetShiftByID(ctx, shift.ID)
}

// CloseShift reconciles and closes the given shift. The cash-sales
// figure is always derived fresh from delivered cash orders inside the shift
// window; counted cash comes from the denomination breakdown the cashier
// keyed in. The store finalizes the row only if it is still OPEN, so two
// cashiers racing to close get one summary, not two.
func (s *Service) CloseShift(ctx context.Context, token, shiftID string, req domain.ShiftCloseRequest) (*domain.CashShift, error) {
	sess, err := s.sessions.Require(token)
	if err != nil {
		return nil, err
	}

	counted := decimal.Zero
	for _, deno := range req.Denominations {
		if deno.Qty < 0 || deno.Value.IsNegative() {
			return nil, fmt.Errorf("%w: invalid denomination", store.ErrValidation)
		}
		counted = counted.Add(deno.Value.Mul(decimal.NewFromInt(int64(deno.Qty))))
	}

	shift, err := s.repo.GetShiftByID(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if shift.TenantID != sess.TenantID || shift.BranchID != sess.BranchID {
		return nil, store.ErrNotFound
	}

	now := time.Now().UTC()
	cashSales, err := s.repo.CashSalesTotal(ctx, sess.TenantID, sess.BranchID, shift.OpenedAt, now)
	if err != nil {
		return nil, err
	}

	closed, err := s.repo.CloseShift(ctx, shift.ID, store.ShiftClose{
		ClosedAt:      now,
		CashSales:     cashSales,
		Denominations: req.Denominations,
		Counted:       counted,
		Notes:         req.Notes,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("cash shift closed",
		zap.String("shift_id", closed.ID),
		zap.String("expected", closed.Expected.String()),
		zap.String("counted", closed.Counted.String()),
		zap.String("difference", closed.Difference.String()))
	return closed, nil
}

func (s *Service) ListShifts(ctx context.Context, token string, from, to time.Time, page, pageSize int64) (domain.Page[domain.CashShift], error) {
	sess, err := s.sessions.Require(token)
	if err != nil {
		return domain.Page[domain.CashShift]{}, err
	}
	return s.repo.ListShifts(ctx, store.ShiftFilter{
		TenantID: sess.TenantID,
		BranchID: sess.BranchID,
		From:     from,
		To:       to,
		Page:     page,
		PageSize: pageSize,
	})
}
