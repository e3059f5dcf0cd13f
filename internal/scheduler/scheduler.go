package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Spok95/tcms/internal/domain/access"
	"github.com/Spok95/tcms/internal/infra/metrics"
)

type LatePayExpirer interface {
	ExpireLatePay(ctx context.Context, day time.Time) (int64, error)
}

type AccessLister interface {
	All(ctx context.Context) ([]access.ClassAccess, error)
}

type Notifier interface {
	NotifyStudent(ctx context.Context, studentID int64, text string) error
}

type Config struct {
	LatePaySpec  string
	ReminderSpec string
	ReminderDays int
	JobTimeout   time.Duration
}

type Scheduler struct {
	cfg      Config
	log      *slog.Logger
	metrics  *metrics.Metrics
	loc      *time.Location
	cron     *cron.Cron
	expirer  LatePayExpirer
	access   AccessLister
	notifier Notifier
	now      func() time.Time
}

// New builds a scheduler; notifier may be nil, in which case reminders are
// only logged.
func New(cfg Config, log *slog.Logger, m *metrics.Metrics, loc *time.Location,
	expirer LatePayExpirer, lister AccessLister, notifier Notifier) *Scheduler {

	if loc == nil {
		loc = time.Local
	}
	if cfg.LatePaySpec == "" {
		cfg.LatePaySpec = "5 0 * * *"
	}
	if cfg.ReminderSpec == "" {
		cfg.ReminderSpec = "0 9 * * *"
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = time.Minute
	}
	return &Scheduler{
		cfg:      cfg,
		log:      log,
		metrics:  m,
		loc:      loc,
		cron:     cron.New(cron.WithLocation(loc)),
		expirer:  expirer,
		access:   lister,
		notifier: notifier,
		now:      time.Now,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.LatePaySpec, s.job("late_pay_expiry", s.ExpireLatePay)); err != nil {
		return fmt.Errorf("late pay spec %q: %w", s.cfg.LatePaySpec, err)
	}
	if _, err := s.cron.AddFunc(s.cfg.ReminderSpec, s.job("grace_reminders", s.SendReminders)); err != nil {
		return fmt.Errorf("reminder spec %q: %w", s.cfg.ReminderSpec, err)
	}
	s.cron.Start()
	s.log.Info("scheduler started",
		"late_pay_spec", s.cfg.LatePaySpec,
		"reminder_spec", s.cfg.ReminderSpec,
	)
	return nil
}

// Stop waits for running jobs to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

func (s *Scheduler) job(name string, fn func(context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.JobTimeout)
		defer cancel()
		err := fn(ctx)
		s.metrics.ObserveJob(name, err)
		if err != nil {
			s.log.Error("scheduler job failed", "job", name, "err", err)
		}
	}
}

// ExpireLatePay ends every late-pay grant issued before today.
func (s *Scheduler) ExpireLatePay(ctx context.Context) error {
	today := access.Day(s.now().In(s.loc))
	n, err := s.expirer.ExpireLatePay(ctx, today)
	if err != nil {
		return err
	}
	s.metrics.ObserveLatePayExpired(n)
	if n > 0 {
		s.log.Info("late pay expired", "count", n)
	}
	return nil
}

// SendReminders notifies students whose access window closes within
// ReminderDays days.
func (s *Scheduler) SendReminders(ctx context.Context) error {
	list, err := s.access.All(ctx)
	if err != nil {
		return err
	}

	var errs []error
	sent := 0
	for _, a := range list {
		if !needsReminder(a, s.cfg.ReminderDays) {
			continue
		}
		text := reminderText(a)
		if s.notifier == nil {
			s.log.Debug("reminder not sent: no notifier", "student_id", a.StudentID, "enrollment_id", a.EnrollmentID)
			continue
		}
		if err := s.notifier.NotifyStudent(ctx, a.StudentID, text); err != nil {
			errs = append(errs, fmt.Errorf("student %d: %w", a.StudentID, err))
			continue
		}
		sent++
	}
	s.log.Info("grace reminders processed", "sent", sent, "failed", len(errs))
	return errors.Join(errs...)
}

func needsReminder(a access.ClassAccess, days int) bool {
	return a.CanAccess &&
		a.Status == access.TagPaid &&
		a.GracePeriodEndDate != nil &&
		a.DaysRemaining <= days
}

func reminderText(a access.ClassAccess) string {
	if a.DaysRemaining == 0 {
		return fmt.Sprintf("%s: today is the last day of access. Please pay the class fee.", a.ClassName)
	}
	return fmt.Sprintf("%s: access ends on %s (%d day(s) left). Please pay the class fee.",
		a.ClassName, a.GracePeriodEndDate.Format(access.DateLayout), a.DaysRemaining)
}
