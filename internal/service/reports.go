package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"fogonpos/backend/internal/domain"
	"fogonpos/backend/internal/store"
)

const (
	reportCacheTTL  = time.Minute
	topProductsSize = 10
)

// SalesOverview aggregates the sales dashboard for a date range. The five
// aggregations are independent, so they fan out concurrently; the assembled
// result is cached briefly since the dashboard polls.
func (s *Service) SalesOverview(ctx context.Context, token string, from, to time.Time) (*domain.SalesOverview, error) {
	sess, err := s.sessions.RequireRole(token, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if !from.Before(to) {
		return nil, store.ErrValidation
	}

	key := fmt.Sprintf("reports:overview:%s:%s:%d:%d", sess.TenantID, sess.BranchID, from.Unix(), to.Unix())
	var overview domain.SalesOverview
	if s.cachedReport(ctx, key, &overview) {
		return &overview, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	var summary domain.SalesSummary
	g.Go(func() error {
		var err error
		summary, err = s.repo.SalesSummary(gctx, sess.TenantID, sess.BranchID, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		overview.ByMethod, err = s.repo.SalesByMethod(gctx, sess.TenantID, sess.BranchID, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		overview.Timeseries, err = s.repo.SalesTimeseries(gctx, sess.TenantID, sess.BranchID, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		overview.TopProducts, err = s.repo.TopProducts(gctx, sess.TenantID, sess.BranchID, from, to, topProductsSize)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	overview.TotalSales = summary.TotalSales
	overview.Orders = summary.Orders
	overview.AvgTicket = decimal.Zero
	if summary.Orders > 0 {
		overview.AvgTicket = summary.TotalSales.DivRound(decimal.NewFromInt(summary.Orders), 2)
	}

	s.storeReport(ctx, key, &overview)
	return &overview, nil
}

func (s *Service) ProfitLoss(ctx context.Context, token string, from, to time.Time) (*domain.ProfitLoss, error) {
	sess, err := s.sessions.RequireRole(token, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if !from.Before(to) {
		return nil, store.ErrValidation
	}

	key := fmt.Sprintf("reports:pnl:%s:%s:%d:%d", sess.TenantID, sess.BranchID, from.Unix(), to.Unix())
	var pnl domain.ProfitLoss
	if s.cachedReport(ctx, key, &pnl) {
		return &pnl, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		summary, err := s.repo.SalesSummary(gctx, sess.TenantID, sess.BranchID, from, to)
		if err != nil {
			return err
		}
		pnl.Income = summary.TotalSales
		return nil
	})
	g.Go(func() error {
		var err error
		pnl.Expenses, err = s.repo.ExpenseTotal(gctx, sess.TenantID, sess.BranchID, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		pnl.IncomeSeries, err = s.repo.SalesTimeseries(gctx, sess.TenantID, sess.BranchID, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		pnl.ExpenseSeries, err = s.repo.ExpenseTimeseries(gctx, sess.TenantID, sess.BranchID, from, to)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	pnl.Net = pnl.Income.Sub(pnl.Expenses)
	s.storeReport(ctx, key, &pnl)
	return &pnl, nil
}

// MonthlyPnL returns one row per calendar month of the year, including the
// months with no activity.
func (s *Service) MonthlyPnL(ctx context.Context, token string, year int) ([]domain.MonthPnL, error) {
	sess, err := s.sessions.RequireRole(token, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if year < 2000 || year > 2100 {
		return nil, store.ErrValidation
	}

	key := fmt.Sprintf("reports:monthly:%s:%s:%d", sess.TenantID, sess.BranchID, year)
	var months []domain.MonthPnL
	if s.cachedReport(ctx, key, &months) {
		return months, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	var sales, expenses map[int]decimal.Decimal
	g.Go(func() error {
		var err error
		sales, err = s.repo.MonthlySales(gctx, sess.TenantID, sess.BranchID, year)
		return err
	})
	g.Go(func() error {
		var err error
		expenses, err = s.repo.MonthlyExpenses(gctx, sess.TenantID, sess.BranchID, year)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	months = make([]domain.MonthPnL, 0, 12)
	for m := 1; m <= 12; m++ {
		income := sales[m]
		spent := expenses[m]
		months = append(months, domain.MonthPnL{
			Month:    fmt.Sprintf("%04d-%02d", year, m),
			Income:   income,
			Expenses: spent,
			Net:      income.Sub(spent),
		})
	}

	s.storeReport(ctx, key, &months)
	return months, nil
}

func (s *Service) cachedReport(ctx context.Context, key string, out any) bool {
	payload, ok, err := s.reports.Get(ctx, key)
	if err != nil {
		s.logger.Warn("report cache get failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(payload, out); err != nil {
		s.logger.Warn("report cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *Service) storeReport(ctx context.Context, key string, value any) {
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.reports.Set(ctx, key, payload, reportCacheTTL); err != nil {
		s.logger.Warn("report cache set failed", zap.String("key", key), zap.Error(err))
	}
}
