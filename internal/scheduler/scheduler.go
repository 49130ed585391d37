package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/marketlens/screener/pkg/logger"
)

const (
	maxAttempts   = 3
	retryDelay    = 2 * time.Minute
	jobTimeout    = 45 * time.Minute
	historyLength = 50
)

// Scheduler runs registered jobs on their cron schedules with bounded
// retries. Job failures are logged and recorded, never fatal to the
// process.
type Scheduler struct {
	cron    *cron.Cron
	logger  *logger.Logger
	mu      sync.Mutex
	history []RunRecord
}

func New(log *logger.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		logger: log.WithField("component", "scheduler"),
	}
}

// Register adds a job to the schedule.
func (s *Scheduler) Register(job Job) error {
	_, err := s.cron.AddFunc(job.Schedule(), func() {
		s.runJob(job)
	})
	if err != nil {
		return fmt.Errorf("register job %s: %w", job.Name(), err)
	}
	s.logger.WithFields(map[string]interface{}{
		"job":      job.Name(),
		"schedule": job.Schedule(),
	}).Info("job registered")
	return nil
}

// Start begins dispatching jobs. Non-blocking.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started")
}

// Stop halts dispatching and waits for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// History returns recent run records, newest first.
func (s *Scheduler) History() []RunRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RunRecord, len(s.history))
	copy(out, s.history)
	return out
}

func (s *Scheduler) runJob(job Job) {
	record := RunRecord{Job: job.Name(), StartedAt: time.Now()}

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		record.Attempts = attempt

		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		err = job.Run(ctx)
		cancel()

		if err == nil {
			record.Success = true
			break
		}
		s.logger.WithError(err).WithFields(map[string]interface{}{
			"job":     job.Name(),
			"attempt": attempt,
		}).Warn("job attempt failed")
		if attempt < maxAttempts {
			time.Sleep(retryDelay)
		}
	}
	record.Elapsed = time.Since(record.StartedAt)
	if err != nil {
		record.LastError = err.Error()
		s.logger.WithError(err).WithField("job", job.Name()).Error("job failed after retries")
	} else {
		s.logger.WithFields(map[string]interface{}{
			"job":      job.Name(),
			"attempts": record.Attempts,
			"elapsed":  record.Elapsed.String(),
		}).Info("job completed")
	}

	s.mu.Lock()
	s.history = append([]RunRecord{record}, s.history...)
	if len(s.history) > historyLength {
		s.history = s.history[:historyLength]
	}
	s.mu.Unlock()
}
