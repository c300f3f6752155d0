package service

import (
	"context"
	"strings"
	"time"

	"fogonpos/backend/internal/domain"
	"fogonpos/backend/internal/store"
)

func (s *Service) CreateExpense(ctx context.Context, token string, req domain.ExpenseCreateRequest) (*domain.Expense, error) {
	sess, err := s.sessions.RequireRole(token, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}

	req.Description = strings.TrimSpace(req.Description)
	if req.Description == "" || !req.Amount.IsPositive() {
		return nil, store.ErrValidation
	}

	now := time.Now().UTC()
	date := now
	if req.Date != "" {
		parsed, err := time.ParseInLocation("2006-01-02", req.Date, s.loc)
		if err != nil {
			return nil, store.ErrValidation
		}
		date = parsed.UTC()
	}

	return s.repo.CreateExpense(ctx, domain.Expense{
		TenantID:    sess.TenantID,
		BranchID:    sess.BranchID,
		Description: req.Description,
		Category:    strings.TrimSpace(req.Category),
		Amount:      req.Amount,
		Date:        date,
		CreatedBy:   sess.Username,
		CreatedAt:   now,
	})
}

func (s *Service) DeleteExpense(ctx context.Context, token, expenseID string) error {
	if _, err := s.sessions.RequireRole(token, domain.RoleAdmin); err != nil {
		return err
	}
	return s.repo.DeleteExpense(ctx, expenseID)
}

func (s *Service) ListExpenses(ctx context.Context, token string, from, to time.Time, page, pageSize int64) (domain.Page[domain.Expense], error) {
	sess, err := s.sessions.RequireRole(token, domain.RoleAdmin)
	if err != nil {
		return domain.Page[domain.Expense]{}, err
	}
	return s.repo.ListExpenses(ctx, store.ExpenseFilter{
		TenantID: sess.TenantID,
		BranchID: sess.BranchID,
		From:     from,
		To:       to,
		Page:     page,
		PageSize: pageSize,
	})
}
