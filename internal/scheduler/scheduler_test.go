package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/palmier/internal/config"
	"github.com/mamadbah2/palmier/internal/domain/models"
	"github.com/mamadbah2/palmier/internal/repository/sheets"
)

type fakeReports struct {
	report    *models.WeeklyReport
	alerts    []models.StockAlert
	threshold decimal.Decimal
}

func (f *fakeReports) WeeklyReport(context.Context) (*models.WeeklyReport, error) {
	return f.report, nil
}

func (f *fakeReports) StockAlerts(_ context.Context, threshold decimal.Decimal) ([]models.StockAlert, error) {
	f.threshold = threshold
	return f.alerts, nil
}

func (f *fakeReports) StockAlertSummary(context.Context) (string, error) {
	return "Stock alerts: 1 lot(s)", nil
}

type sink struct {
	messages []string
	reports  []*models.WeeklyReport
	rows     map[string][][]interface{}
	err      error
}

func (s *sink) NotifyManager(_ context.Context, message string) error {
	s.messages = append(s.messages, message)
	return s.err
}

func (s *sink) SaveWeeklyReport(_ context.Context, report *models.WeeklyReport) error {
	s.reports = append(s.reports, report)
	return nil
}

func (s *sink) AppendRow(_ context.Context, sheetRange string, values []interface{}) error {
	if s.rows == nil {
		s.rows = map[string][][]interface{}{}
	}
	s.rows[sheetRange] = append(s.rows[sheetRange], values)
	return nil
}

func weekly() *models.WeeklyReport {
	return &models.WeeklyReport{
		PeriodStart: time.Date(2024, 6, 9, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
		Revenue:     "450000.00",
		Summary:     "Weekly report 2024-06-09 to 2024-06-15",
	}
}

func cfg() config.ReportingConfig {
	return config.ReportingConfig{
		CronSchedule:        "0 20 * * 5",
		StockAlertSchedule:  "0 7 * * *",
		StockAlertThreshold: decimal.NewFromInt(25),
	}
}

func TestRunWeeklyReportFansOut(t *testing.T) {
	out := &sink{}
	s := NewScheduler(cfg(), time.UTC, &fakeReports{report: weekly()}, nil,
		WithNotifier(out), WithArchive(out), WithExporter(out))

	require.NoError(t, s.RunWeeklyReport(context.Background()))
	assert.Len(t, out.reports, 1)
	require.Len(t, out.rows[sheets.WeeklyRange], 1)
	assert.Equal(t, "2024-06-09", out.rows[sheets.WeeklyRange][0][0])
	assert.Equal(t, []string{"Weekly report 2024-06-09 to 2024-06-15"}, out.messages)
}

func TestRunWeeklyReportKeepsGoingWhenNotifyFails(t *testing.T) {
	out := &sink{err: errors.New("whatsapp down")}
	s := NewScheduler(cfg(), time.UTC, &fakeReports{report: weekly()}, nil, WithNotifier(out), WithArchive(out))

	err := s.RunWeeklyReport(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notify")
	assert.Len(t, out.reports, 1)
}

func TestRunStockAlertOnlyWhenLotsAreLow(t *testing.T) {
	out := &sink{}
	reports := &fakeReports{}
	s := NewScheduler(cfg(), time.UTC, reports, nil, WithNotifier(out))

	require.NoError(t, s.RunStockAlert(context.Background()))
	assert.Empty(t, out.messages)
	assert.True(t, reports.threshold.Equal(decimal.NewFromInt(25)))

	reports.alerts = []models.StockAlert{{ProductionID: 3}}
	require.NoError(t, s.RunStockAlert(context.Background()))
	assert.Equal(t, []string{"Stock alerts: 1 lot(s)"}, out.messages)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	c := cfg()
	c.StockAlertSchedule = "every morning"
	s := NewScheduler(c, time.UTC, &fakeReports{}, nil)
	assert.Error(t, s.Start())
	s.Stop()
}
