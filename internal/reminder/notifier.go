// Package reminder sends a daily nudge when questions are due for review.
package reminder

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"gmatprep/internal/logger"
	"gmatprep/internal/models"
)

// Reminder is what a notifier is asked to deliver
type Reminder struct {
	DueCount int
	Date     time.Time
}

// Subject is the one-line summary used as an email subject
func (r Reminder) Subject() string {
	return fmt.Sprintf("%d GMAT %s due for review", r.DueCount, plural(r.DueCount, "question", "questions"))
}

// Text is the plain-text body shared by every channel
func (r Reminder) Text() string {
	return fmt.Sprintf("You have %d %s due for review today (%s). Run a practice session to keep your streak going.",
		r.DueCount, plural(r.DueCount, "question", "questions"), r.Date.Format(models.DateLayout))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// Notifier delivers a reminder over one channel
type Notifier interface {
	Name() string
	Notify(ctx context.Context, r Reminder) error
}

// LogNotifier writes the reminder to the log
type LogNotifier struct {
	log *logger.Logger
}

// NewLogNotifier creates a notifier that only logs
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Name() string { return "log" }

func (n *LogNotifier) Notify(_ context.Context, r Reminder) error {
	n.log.Info("review reminder", "due", r.DueCount, "date", r.Date.Format(models.DateLayout))
	return nil
}

// MultiNotifier sends to every notifier. A failure is logged and the rest
// still run; the combined error is returned.
type MultiNotifier struct {
	notifiers []Notifier
	log       *logger.Logger
}

// NewMultiNotifier fans out to notifiers in order
func NewMultiNotifier(log *logger.Logger, notifiers ...Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers, log: log}
}

func (m *MultiNotifier) Name() string { return "multi" }

func (m *MultiNotifier) Notify(ctx context.Context, r Reminder) error {
	var errs error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, r); err != nil {
			m.log.Error("notifier failed", "notifier", n.Name(), "error", err)
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// Len returns how many notifiers are attached
func (m *MultiNotifier) Len() int {
	return len(m.notifiers)
}
