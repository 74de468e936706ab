package commands

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/palmier/internal/domain/models"
)

// ErrReportingUnavailable indicates the dispatcher was built without reports.
var ErrReportingUnavailable = errors.New("reporting unavailable")

// HelpText lists the commands understood over chat.
const HelpText = "Palmier commands:\n" +
	"- stock (or alertes): lots running low\n" +
	"- ventes: sales and best clients\n" +
	"- caisse: cash balance of the month\n" +
	"- rapport: report of the last seven days"

// ReportingAdapter defines the reporting functions required by the dispatcher.
type ReportingAdapter interface {
	StockAlertSummary(ctx context.Context) (string, error)
	SalesSummary(ctx context.Context) (string, error)
	CashSummary(ctx context.Context) (string, error)
	WeeklySummary(ctx context.Context) (string, error)
}

// Dispatcher answers parsed commands.
type Dispatcher interface {
	HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error)
}

// Service implements the Dispatcher interface.
type Service struct {
	reporting ReportingAdapter
	logger    *zap.Logger
}

// NewService constructs a command dispatcher.
func NewService(reporting ReportingAdapter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{reporting: reporting, logger: logger}
}

// HandleCommand builds the reply text for cmd.
func (s *Service) HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error) {
	s.logger.Debug("dispatching command", zap.String("command", string(cmd.Type)), zap.String("sender", sender), zap.Strings("args", cmd.Args))

	if cmd.Type == models.CommandHelp || cmd.Type == models.CommandUnknown {
		return HelpText, nil
	}
	if s.reporting == nil {
		return "", ErrReportingUnavailable
	}

	var summary func(context.Context) (string, error)
	switch cmd.Type {
	case models.CommandStock:
		summary = s.reporting.StockAlertSummary
	case models.CommandSales:
		summary = s.reporting.SalesSummary
	case models.CommandCash:
		summary = s.reporting.CashSummary
	case models.CommandReport:
		summary = s.reporting.WeeklySummary
	default:
		return HelpText, nil
	}

	reply, err := summary(ctx)
	if err != nil {
		return "", fmt.Errorf("%s summary: %w", cmd.Type, err)
	}
	return reply, nil
}
