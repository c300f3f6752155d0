// Package service implements the command layer. Every command takes the
// caller's session token, resolves it against the in-process session store,
// and enforces the role it needs before touching the repository.
package service

import (
	"time"

	"go.uber.org/zap"

	"fogonpos/backend/internal/cache"
	"fogonpos/backend/internal/session"
	"fogonpos/backend/internal/store"
)

type Service struct {
	repo     store.Repository
	sessions *session.Store
	reports  cache.ReportCache
	logger   *zap.Logger
	loc      *time.Location
}

func New(repo store.Repository, sessions *session.Store, reports cache.ReportCache, logger *zap.Logger) *Service {
	if reports == nil {
		reports = cache.NoopReportCache{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		repo:     repo,
		sessions: sessions,
		reports:  reports,
		logger:   logger,
		loc:      time.Local,
	}
}

// localDay is the calendar day the order sequence resets on. Cashiers think
// in wall-clock days, so the branch machine's zone is the right one.
func (s *Service) localDay(t time.Time) string {
	return t.In(s.loc).Format("2006-01-02")
}
