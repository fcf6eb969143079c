package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/porkyfarm/porcpro/internal/config"
	"github.com/porkyfarm/porcpro/internal/service/export"
	"github.com/porkyfarm/porcpro/internal/service/reporting"
	"github.com/porkyfarm/porcpro/internal/store"
	"github.com/porkyfarm/porcpro/pkg/clients/email"
	"github.com/porkyfarm/porcpro/pkg/clients/whatsapp"
)

const jobTimeout = 2 * time.Minute

// Mailer sends the scheduled emails. *email.Mailer satisfies it.
type Mailer interface {
	SendAlertDigest(ctx context.Context, to, farm string, lines []email.AlertLine) (string, error)
	SendReport(ctx context.Context, to, subject, body string) (string, error)
}

// Deps are the collaborators of the scheduled jobs. Mailer, Messenger and
// Exporter are optional.
type Deps struct {
	Store     *store.Manager
	Reporting *reporting.Service
	Mailer    Mailer
	Messenger whatsapp.Client
	Exporter  *export.Service
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron      *cron.Cron
	store     *store.Manager
	reporting *reporting.Service
	mailer    Mailer
	messenger whatsapp.Client
	exporter  *export.Service
	cfg       config.ReportingConfig
	logger    *zap.Logger
}

// NewScheduler creates a scheduler running in the configured timezone.
func NewScheduler(cfg config.ReportingConfig, deps Deps, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	loc := time.UTC
	if cfg.Timezone != "" {
		l, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
		}
		loc = l
	}

	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		store:     deps.Store,
		reporting: deps.Reporting,
		mailer:    deps.Mailer,
		messenger: deps.Messenger,
		exporter:  deps.Exporter,
		cfg:       cfg,
		logger:    logger,
	}, nil
}

// Start registers the jobs and starts the cron loop. An empty schedule
// disables its job.
func (s *Scheduler) Start() error {
	jobs := []struct {
		name string
		spec string
		run  func(context.Context) int
	}{
		{"alert_digest", s.cfg.DigestSchedule, s.SendDigests},
		{"weekly_report", s.cfg.WeeklySchedule, s.SendWeeklyReports},
		{"sheets_export", s.cfg.ExportSchedule, s.ExportFeeding},
	}
	for _, job := range jobs {
		if job.spec == "" {
			continue
		}
		if _, err := s.cron.AddFunc(job.spec, func() { s.runJob(job.name, job.run) }); err != nil {
			return fmt.Errorf("schedule %s %q: %w", job.name, job.spec, err)
		}
		s.logger.Info("job scheduled", zap.String("job", job.name), zap.String("spec", job.spec))
	}

	s.logger.Info("starting scheduler", zap.Int("recipients", len(s.cfg.Recipients)))
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runJob(name string, run func(context.Context) int) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	started := time.Now()
	served := run(ctx)
	s.logger.Info("job finished",
		zap.String("job", name),
		zap.Int("farms", served),
		zap.Duration("took", time.Since(started)))
}

// SendDigests sends the daily alert digest to every recipient with alerts.
// It returns how many farms were notified.
func (s *Scheduler) SendDigests(ctx context.Context) int {
	sent := 0
	for _, r := range s.cfg.Recipients {
		h, err := s.store.Open(ctx, r.UserID)
		if err != nil {
			s.logger.Error("open farm for digest failed", zap.String("user_id", r.UserID), zap.Error(err))
			continue
		}
		lines := s.reporting.Digest(h, s.store.Now())
		if len(lines) == 0 {
			s.logger.Debug("no alerts to send", zap.String("user_id", r.UserID))
			continue
		}

		farm := farmName(r)
		delivered := false
		if s.mailer != nil && r.Email != "" {
			if _, err := s.mailer.SendAlertDigest(ctx, r.Email, farm, alertLines(lines)); err != nil {
				s.logger.Error("send digest email failed", zap.String("user_id", r.UserID), zap.Error(err))
			} else {
				delivered = true
			}
		}
		if s.messenger != nil && r.Phone != "" {
			if _, err := s.messenger.SendText(ctx, r.Phone, reporting.DigestText(farm, lines)); err != nil {
				s.logger.Error("send digest message failed", zap.String("user_id", r.UserID), zap.Error(err))
			} else {
				delivered = true
			}
		}
		if delivered {
			sent++
		}
	}
	return sent
}

// SendWeeklyReports sends the report of the week ending today to every recipient.
func (s *Scheduler) SendWeeklyReports(ctx context.Context) int {
	sent := 0
	for _, r := range s.cfg.Recipients {
		h, err := s.store.Open(ctx, r.UserID)
		if err != nil {
			s.logger.Error("open farm for weekly report failed", zap.String("user_id", r.UserID), zap.Error(err))
			continue
		}
		now := s.store.Now()
		report := s.reporting.GenerateWeeklyReport(h, now)

		delivered := false
		if s.mailer != nil && r.Email != "" {
			subject := fmt.Sprintf("%s: weekly report %s", farmName(r), now.Format("2006-01-02"))
			if _, err := s.mailer.SendReport(ctx, r.Email, subject, report); err != nil {
				s.logger.Error("send weekly report email failed", zap.String("user_id", r.UserID), zap.Error(err))
			} else {
				delivered = true
			}
		}
		if s.messenger != nil && r.Phone != "" {
			if _, err := s.messenger.SendText(ctx, r.Phone, report); err != nil {
				s.logger.Error("send weekly report message failed", zap.String("user_id", r.UserID), zap.Error(err))
			} else {
				delivered = true
			}
		}
		if delivered {
			sent++
		}
	}
	return sent
}

// ExportFeeding pushes the feeding ledger of every recipient to the spreadsheet.
func (s *Scheduler) ExportFeeding(ctx context.Context) int {
	if !s.exporter.Enabled() {
		return 0
	}
	exported := 0
	for _, r := range s.cfg.Recipients {
		h, err := s.store.Open(ctx, r.UserID)
		if err != nil {
			s.logger.Error("open farm for export failed", zap.String("user_id", r.UserID), zap.Error(err))
			continue
		}
		if _, err := s.exporter.ExportFeeding(ctx, h); err != nil {
			s.logger.Error("scheduled export failed", zap.String("user_id", r.UserID), zap.Error(err))
			continue
		}
		exported++
	}
	return exported
}

func farmName(r config.Recipient) string {
	if r.UserID == "" {
		return "Demo farm"
	}
	return "Farm " + r.UserID
}

func alertLines(lines []reporting.DigestLine) []email.AlertLine {
	out := make([]email.AlertLine, len(lines))
	for i, l := range lines {
		out[i] = email.AlertLine{Priority: l.Priority, Title: l.Title, Detail: l.Detail}
	}
	return out
}
