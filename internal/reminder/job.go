package reminder

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/pkg/errors"

	"gmatprep/internal/logger"
	"gmatprep/internal/models"
)

const (
	DefaultNotificationStartHour = 7
	DefaultNotificationEndHour   = 22
)

// DueCounter reports how many questions are due today
type DueCounter interface {
	CountDue() (int, error)
}

// JobConfig controls when reminders go out
type JobConfig struct {
	Location  *time.Location
	StartHour int // first hour of the window
	EndHour   int // hour the window closes, exclusive
	Now       func() time.Time
}

// Job checks every hour and sends at most one reminder per day
type Job struct {
	counter  DueCounter
	notifier Notifier
	log      *logger.Logger
	cfg      JobConfig

	mu       sync.Mutex
	lastSent string

	scheduler *gocron.Scheduler
}

// NewJob creates a reminder job. Zero config fields fall back to local
// time, the default window and time.Now.
func NewJob(counter DueCounter, notifier Notifier, log *logger.Logger, cfg JobConfig) *Job {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.StartHour == 0 && cfg.EndHour == 0 {
		cfg.StartHour = DefaultNotificationStartHour
		cfg.EndHour = DefaultNotificationEndHour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Job{
		counter:  counter,
		notifier: notifier,
		log:      log.With("component", "reminder"),
		cfg:      cfg,
	}
}

// InWindow reports whether t falls inside the notification hours
func (j *Job) InWindow(t time.Time) bool {
	hour := t.In(j.cfg.Location).Hour()
	return hour >= j.cfg.StartHour && hour < j.cfg.EndHour
}

// Tick runs one check and reports whether a reminder was sent. Days with
// nothing due are retried on later ticks.
func (j *Job) Tick(ctx context.Context) (bool, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.cfg.Now().In(j.cfg.Location)
	if !j.InWindow(now) {
		j.log.Debug("outside notification hours, skipping",
			"hour", now.Hour(), "start", j.cfg.StartHour, "end", j.cfg.EndHour)
		return false, nil
	}

	today := now.Format(models.DateLayout)
	if j.lastSent == today {
		return false, nil
	}

	due, err := j.counter.CountDue()
	if err != nil {
		return false, errors.Wrap(err, "failed to count due questions")
	}
	if due == 0 {
		j.log.Debug("nothing due", "date", today)
		return false, nil
	}

	// one attempt per day even if a channel fails
	j.lastSent = today
	if err := j.notifier.Notify(ctx, Reminder{DueCount: due, Date: models.CalendarDay(now)}); err != nil {
		return true, errors.Wrap(err, "failed to send reminder")
	}
	return true, nil
}

// Start schedules Tick every hour, beginning immediately
func (j *Job) Start(ctx context.Context) error {
	j.scheduler = gocron.NewScheduler(j.cfg.Location)
	_, err := j.scheduler.Every(1).Hour().Do(func() {
		if _, err := j.Tick(ctx); err != nil {
			j.log.Error("reminder tick failed", "error", err)
		}
	})
	if err != nil {
		return errors.Wrap(err, "failed to schedule reminder job")
	}

	j.scheduler.StartAsync()
	j.log.Info("reminder job started", "start_hour", j.cfg.StartHour, "end_hour", j.cfg.EndHour)
	return nil
}

// Run starts the job and blocks until ctx is cancelled
func (j *Job) Run(ctx context.Context) error {
	if err := j.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	j.Stop()
	return nil
}

// Stop terminates the scheduler
func (j *Job) Stop() {
	if j.scheduler == nil {
		return
	}
	j.scheduler.Stop()
	j.log.Info("reminder job stopped")
}
