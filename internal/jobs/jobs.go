// Package jobs runs periodic maintenance tasks such as removing expired
// sessions from the database.
package jobs

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/danesh-portal/danesh/internal/metrics"
)

// DefaultJobTimeout bounds a single job run
const DefaultJobTimeout = 5 * time.Minute

// Job is a named periodic task
type Job struct {
	Name string
	// Schedule is a standard five field cron expression or a descriptor such
	// as "@hourly" or "@every 15m"
	Schedule string
	Run      func(ctx context.Context) error
}

// Scheduler runs Jobs on their schedules
type Scheduler struct {
	cron    *cron.Cron
	timeout time.Duration
}

// NewScheduler creates a new, stopped Scheduler
func NewScheduler() *Scheduler {
	return &Scheduler{
		cron: cron.New(
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger), cron.Recover(cron.DiscardLogger)),
		),
		timeout: DefaultJobTimeout,
	}
}

// Add registers a job
func (s *Scheduler) Add(job Job) error {
	if job.Run == nil {
		return errors.Errorf("jobs: job '%s' has no run function", job.Name)
	}
	if _, err := s.cron.AddFunc(job.Schedule, func() { s.run(job) }); err != nil {
		return errors.Wrapf(err, "jobs: invalid schedule '%s' for job '%s'", job.Schedule, job.Name)
	}
	log.WithFields(log.Fields{"job": job.Name, "schedule": job.Schedule}).Debug("registered job")
	return nil
}

func (s *Scheduler) run(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	start := time.Now()
	if err := job.Run(ctx); err != nil {
		metrics.JobRunsTotal.WithLabelValues(job.Name, "error").Inc()
		log.WithError(err).WithField("job", job.Name).Error("job failed")
		return
	}
	metrics.JobRunsTotal.WithLabelValues(job.Name, "success").Inc()
	log.WithFields(log.Fields{"job": job.Name, "took": time.Since(start)}).Debug("job finished")
}

// RunNow runs a registered job's function synchronously, outside the schedule
func (s *Scheduler) RunNow(job Job) {
	s.run(job)
}

// Start starts the scheduler in its own goroutine
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the scheduler and waits for running jobs until ctx is done
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// ExpiredSessionsDeleter is implemented by session storages that keep
// expired records until they are swept
type ExpiredSessionsDeleter interface {
	DeleteExpired() (int64, error)
}

// SessionCleanup returns a job removing expired sessions from store
func SessionCleanup(store ExpiredSessionsDeleter, schedule string) Job {
	if schedule == "" {
		schedule = "@every 1h"
	}
	return Job{
		Name:     "session_cleanup",
		Schedule: schedule,
		Run: func(context.Context) error {
			n, err := store.DeleteExpired()
			if err != nil {
				return err
			}
			if n > 0 {
				log.WithField("count", n).Info("removed expired sessions")
			}
			return nil
		},
	}
}
