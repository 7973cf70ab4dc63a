// Package scheduler runs periodic index maintenance jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/khoahotran/blog-search/pkg/logger"
)

type Scheduler struct {
	scheduler *gocron.Scheduler
	logger    logger.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

// New returns a UTC scheduler. A job never overlaps with a still-running
// run of itself.
func New(log logger.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := gocron.NewScheduler(time.UTC)
	s.TagsUnique()
	s.SingletonModeAll()

	return &Scheduler{
		scheduler: s,
		logger:    log,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// ScheduleCron registers job under tag. An empty expression disables the job.
func (s *Scheduler) ScheduleCron(tag, cronExpr string, job func(ctx context.Context) error) error {
	if cronExpr == "" {
		s.logger.Info("Job disabled", zap.String("job", tag))
		return nil
	}

	_, err := s.scheduler.Cron(cronExpr).Tag(tag).Do(func() {
		start := time.Now()
		if err := job(s.ctx); err != nil {
			s.logger.Error("Scheduled job failed", err, zap.String("job", tag))
			return
		}
		s.logger.Info("Scheduled job finished", zap.String("job", tag), zap.Duration("took", time.Since(start)))
	})
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", tag, cronExpr, err)
	}
	s.logger.Info("Job scheduled", zap.String("job", tag), zap.String("cron", cronExpr))
	return nil
}

func (s *Scheduler) Start() {
	s.scheduler.StartAsync()
}

// Stop cancels the context handed to running jobs and stops the scheduler.
func (s *Scheduler) Stop() {
	s.cancel()
	s.scheduler.Stop()
}

func (s *Scheduler) Jobs() []*gocron.Job {
	return s.scheduler.Jobs()
}
