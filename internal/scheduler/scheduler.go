package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/palmier/internal/config"
	"github.com/mamadbah2/palmier/internal/domain/models"
	"github.com/mamadbah2/palmier/internal/repository/sheets"
	"github.com/mamadbah2/palmier/internal/service/reporting"
)

const jobTimeout = 2 * time.Minute

// Reports is the reporting surface the jobs read from.
type Reports interface {
	WeeklyReport(ctx context.Context) (*models.WeeklyReport, error)
	StockAlerts(ctx context.Context, threshold decimal.Decimal) ([]models.StockAlert, error)
	StockAlertSummary(ctx context.Context) (string, error)
}

// Notifier delivers a message to the plantation manager.
type Notifier interface {
	NotifyManager(ctx context.Context, message string) error
}

// Archive keeps weekly report snapshots.
type Archive interface {
	SaveWeeklyReport(ctx context.Context, report *models.WeeklyReport) error
}

// Exporter appends rows to a spreadsheet.
type Exporter interface {
	AppendRow(ctx context.Context, sheetRange string, values []interface{}) error
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron     *cron.Cron
	cfg      config.ReportingConfig
	reports  Reports
	notifier Notifier
	archive  Archive
	exporter Exporter
	logger   *zap.Logger
}

// Option attaches an optional sink to the scheduler.
type Option func(*Scheduler)

// WithNotifier sends job output to the manager.
func WithNotifier(n Notifier) Option {
	return func(s *Scheduler) { s.notifier = n }
}

// WithArchive stores weekly report snapshots.
func WithArchive(a Archive) Option {
	return func(s *Scheduler) { s.archive = a }
}

// WithExporter appends weekly report rows to a spreadsheet.
func WithExporter(e Exporter) Option {
	return func(s *Scheduler) { s.exporter = e }
}

// NewScheduler creates a new scheduler instance running in loc.
func NewScheduler(cfg config.ReportingConfig, loc *time.Location, reports Reports, logger *zap.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}

	s := &Scheduler{
		cron:    cron.New(cron.WithLocation(loc)),
		cfg:     cfg,
		reports: reports,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler",
		zap.String("weekly_report", s.cfg.CronSchedule),
		zap.String("stock_alert", s.cfg.StockAlertSchedule))

	if _, err := s.cron.AddFunc(s.cfg.CronSchedule, s.job("weekly report", s.RunWeeklyReport)); err != nil {
		return fmt.Errorf("schedule weekly report: %w", err)
	}
	if _, err := s.cron.AddFunc(s.cfg.StockAlertSchedule, s.job("stock alert", s.RunStockAlert)); err != nil {
		return fmt.Errorf("schedule stock alert: %w", err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) job(name string, run func(context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		start := time.Now()
		if err := run(ctx); err != nil {
			s.logger.Error("scheduled job failed", zap.String("job", name), zap.Error(err))
			return
		}
		s.logger.Info("scheduled job done", zap.String("job", name), zap.Duration("elapsed", time.Since(start)))
	}
}

// RunWeeklyReport builds the weekly report and hands it to every configured
// sink. A failing sink does not stop the others.
func (s *Scheduler) RunWeeklyReport(ctx context.Context) error {
	report, err := s.reports.WeeklyReport(ctx)
	if err != nil {
		return fmt.Errorf("build weekly report: %w", err)
	}

	var errs []error
	if s.archive != nil {
		if err := s.archive.SaveWeeklyReport(ctx, report); err != nil {
			errs = append(errs, fmt.Errorf("archive: %w", err))
		}
	}
	if s.exporter != nil {
		if err := s.exporter.AppendRow(ctx, sheets.WeeklyRange, reporting.ReportRow(report)); err != nil {
			errs = append(errs, fmt.Errorf("export: %w", err))
		}
	}
	if s.notifier != nil {
		if err := s.notifier.NotifyManager(ctx, report.Summary); err != nil {
			errs = append(errs, fmt.Errorf("notify: %w", err))
		}
	}
	return errors.Join(errs...)
}

// RunStockAlert notifies the manager when at least one lot is running low.
func (s *Scheduler) RunStockAlert(ctx context.Context) error {
	alerts, err := s.reports.StockAlerts(ctx, s.cfg.StockAlertThreshold)
	if err != nil {
		return fmt.Errorf("load stock alerts: %w", err)
	}
	if len(alerts) == 0 || s.notifier == nil {
		s.logger.Debug("no stock alert sent", zap.Int("alerts", len(alerts)))
		return nil
	}

	message, err := s.reports.StockAlertSummary(ctx)
	if err != nil {
		return fmt.Errorf("render stock alerts: %w", err)
	}
	if err := s.notifier.NotifyManager(ctx, message); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	return nil
}
