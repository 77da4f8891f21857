package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/herdbook/herdbook/internal/config"
	"github.com/herdbook/herdbook/internal/repository/sheets"
	"github.com/herdbook/herdbook/internal/service/breeding"
)

// Scheduler runs the daily breeding summary export.
type Scheduler struct {
	cron        *cron.Cron
	breedingSvc *breeding.Service
	sink        sheets.SummarySink
	cfg         config.ReportingConfig
	logger      *zap.Logger
}

// New creates a scheduler instance. The cron runs in the configured
// timezone, falling back to the process-local one when the name does not
// resolve.
func New(cfg config.ReportingConfig, breedingSvc *breeding.Service, sink sheets.SummarySink, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []cron.Option{}
	if loc, err := time.LoadLocation(cfg.Timezone); err == nil {
		opts = append(opts, cron.WithLocation(loc))
	} else {
		logger.Warn("unknown timezone, using local", zap.String("timezone", cfg.Timezone), zap.Error(err))
	}

	return &Scheduler{
		cron:        cron.New(opts...),
		breedingSvc: breedingSvc,
		sink:        sink,
		cfg:         cfg,
		logger:      logger,
	}
}

// Start registers the export job and starts the cron loop.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler", zap.String("schedule", s.cfg.CronSchedule))

	if _, err := s.cron.AddFunc(s.cfg.CronSchedule, s.exportSummaries); err != nil {
		s.logger.Error("failed to schedule summary export", zap.Error(err))
	}

	s.cron.Start()
}

// Stop stops the cron loop.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) exportSummaries() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	now := time.Now().UTC()
	for _, farmID := range s.cfg.FarmIDs {
		counts := s.breedingSvc.Summary(ctx, farmID)
		if err := s.sink.AppendSummary(ctx, farmID, now, counts); err != nil {
			s.logger.Error("failed to export breeding summary",
				zap.String("farm_id", farmID),
				zap.Error(err))
			continue
		}
		s.logger.Info("breeding summary exported", zap.String("farm_id", farmID))
	}
}
