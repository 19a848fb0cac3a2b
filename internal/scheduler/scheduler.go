package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"

	"github.com/i474232898/weather-alerts/internal/alerts"
)

// Scanner is the batch operation the scheduler triggers.
type Scanner interface {
	ScanAll(ctx context.Context) (alerts.ScanReport, error)
}

// Scheduler periodically runs a batch alert scan.
type Scheduler struct {
	scheduler *gocron.Scheduler
	scanner   Scanner
	interval  time.Duration
	timeout   time.Duration
	logger    logrus.FieldLogger
}

// New creates a Scheduler. An interval <= 0 makes Start a no-op.
// timeout bounds one whole scan; 0 leaves it unbounded.
func New(scanner Scanner, interval, timeout time.Duration, logger logrus.FieldLogger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		scanner:   scanner,
		interval:  interval,
		timeout:   timeout,
		logger:    logger,
	}
}

// Start schedules the periodic scan and starts the underlying scheduler.
// The first run happens one interval after Start; overlapping runs are skipped.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.logger.Info("scheduler: periodic scan disabled")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).SingletonMode().WaitForSchedule().Do(s.run)
	if err != nil {
		return fmt.Errorf("schedule scan: %w", err)
	}

	s.scheduler.StartAsync()
	s.logger.WithField("interval", s.interval.String()).Info("scheduler: periodic scan started")
	return nil
}

func (s *Scheduler) run() {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	report, err := s.scanner.ScanAll(ctx)
	if err != nil {
		s.logger.WithError(err).Error("scheduler: scan failed")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"locations": report.LocationsScanned,
		"alerts":    report.TotalAlertsGenerated,
	}).Debug("scheduler: scan finished")
}

// Stop stops the scheduler and cancels any future runs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil && s.scheduler.IsRunning() {
		s.scheduler.Stop()
	}
}
