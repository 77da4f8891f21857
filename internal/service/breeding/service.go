// Package breeding implements the reproductive core of the application: the
// breeding-event ledger, the phase inference rules, per-farm breeding
// settings and the follow-up reminders derived from recorded events.
package breeding

import (
	"time"

	"go.uber.org/zap"

	"github.com/herdbook/herdbook/internal/store"
)

// Service exposes the breeding ledger and phase inference over an injected
// datastore. It holds no mutable state of its own; every operation is a
// function over externally persisted rows.
type Service struct {
	store  store.Store
	logger *zap.Logger
	now    func() time.Time
}

// NewService constructs the breeding service.
func NewService(st store.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  st,
		logger: logger,
		now:    time.Now,
	}
}

// today returns the current wall-clock date truncated to midnight UTC, the
// granularity every breeding rule operates at.
func (s *Service) today() time.Time {
	t := s.now().UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
