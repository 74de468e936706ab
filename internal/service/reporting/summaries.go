package reporting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/palmier/internal/domain/models"
)

// StockAlertSummary renders the current low-stock lots as a chat message.
func (s *Service) StockAlertSummary(ctx context.Context) (string, error) {
	alerts, err := s.StockAlerts(ctx, s.threshold)
	if err != nil {
		return "", err
	}
	if len(alerts) == 0 {
		return fmt.Sprintf("Stock: no lot under %s%% of its harvest.", s.threshold.String()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Stock alerts (< %s%%): %d lot(s)", s.threshold.String(), len(alerts))
	for _, a := range alerts {
		fmt.Fprintf(&b, "\n- #%d %s %s (%s): %s / %s kg (%s%%)",
			a.ProductionID, a.PlantationName, a.HarvestDate, a.Quality,
			a.AvailableStock.StringFixed(2), a.TotalWeight.StringFixed(2), a.StockPercentage.StringFixed(2))
	}
	return b.String(), nil
}

// SalesSummary renders revenue and the best clients.
func (s *Service) SalesSummary(ctx context.Context) (string, error) {
	stats, err := s.SalesStats(ctx, 3)
	if err != nil {
		return "", err
	}
	if stats.SaleCount == 0 {
		return "Sales: no sale recorded yet.", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Sales: %d sale(s), %s kg sold, revenue %s, average %s per kg.",
		stats.SaleCount, stats.TotalQuantity.StringFixed(2), stats.Revenue.StringFixed(2), stats.AveragePricePerKg.StringFixed(2))
	for i, c := range stats.TopClients {
		fmt.Fprintf(&b, "\n%d. %s: %s (%d purchase(s))", i+1, c.Client, c.TotalAmount.StringFixed(2), c.PurchaseCount)
	}
	return b.String(), nil
}

// CashSummary renders the cash book balance of the current month.
func (s *Service) CashSummary(ctx context.Context) (string, error) {
	today := models.Today(s.now())
	from := models.NewDate(today.Year(), today.Month(), 1)
	balance, err := s.CashBalance(ctx, from, today)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Cash (%s to %s): in %s, out %s, balance %s.",
		from, today, balance.TotalEntries.StringFixed(2), balance.TotalExits.StringFixed(2), balance.Balance.StringFixed(2)), nil
}

// WeeklyReport aggregates the seven days ending today.
func (s *Service) WeeklyReport(ctx context.Context) (*models.WeeklyReport, error) {
	today := models.Today(s.now())
	start := today.AddDays(-6)

	productions, err := s.source.ListProductions(ctx, models.ProductionFilter{})
	if err != nil {
		return nil, fmt.Errorf("load productions: %w", err)
	}
	ventes, err := s.source.ListVentes(ctx, models.VenteFilter{From: start, To: today})
	if err != nil {
		return nil, fmt.Errorf("load ventes: %w", err)
	}
	operations, err := s.source.ListOperations(ctx, models.OperationFilter{})
	if err != nil {
		return nil, fmt.Errorf("load operations: %w", err)
	}
	cash, err := s.CashBalance(ctx, start, today)
	if err != nil {
		return nil, err
	}

	harvested, stock, sold, revenue, opCost := decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero
	harvests, lowStock := 0, 0
	for _, p := range productions {
		stock = stock.Add(p.AvailableStock)
		if p.AvailableStock.IsPositive() && belowThreshold(p, s.threshold) {
			lowStock++
		}
		if inPeriod(p.HarvestDate, start, today) {
			harvested = harvested.Add(p.TotalWeight)
			harvests++
		}
	}
	for _, v := range ventes {
		sold = sold.Add(v.Quantity)
		revenue = revenue.Add(v.TotalAmount)
	}
	for _, op := range operations {
		if inPeriod(op.Date, start, today) {
			opCost = opCost.Add(op.Cost)
		}
	}

	report := &models.WeeklyReport{
		PeriodStart:     start.Time,
		PeriodEnd:       today.Time,
		HarvestCount:    harvests,
		HarvestedWeight: harvested.StringFixed(2),
		SaleCount:       len(ventes),
		SoldQuantity:    sold.StringFixed(2),
		Revenue:         revenue.StringFixed(2),
		OperationCost:   opCost.StringFixed(2),
		CashIn:          cash.TotalEntries.StringFixed(2),
		CashOut:         cash.TotalExits.StringFixed(2),
		AvailableStock:  stock.StringFixed(2),
		LowStockLots:    lowStock,
		CreatedAt:       s.now().UTC(),
	}
	report.Summary = formatWeekly(report)
	return report, nil
}

// WeeklySummary renders the weekly report as a chat message.
func (s *Service) WeeklySummary(ctx context.Context) (string, error) {
	report, err := s.WeeklyReport(ctx)
	if err != nil {
		return "", err
	}
	return report.Summary, nil
}

func formatWeekly(r *models.WeeklyReport) string {
	return fmt.Sprintf(
		"Weekly report %s to %s\n"+
			"Harvests: %d lot(s), %s kg\n"+
			"Sales: %d, %s kg, revenue %s\n"+
			"Operations cost: %s\n"+
			"Cash: in %s, out %s\n"+
			"Stock available: %s kg, %d lot(s) running low",
		r.PeriodStart.Format(models.DateLayout), r.PeriodEnd.Format(models.DateLayout),
		r.HarvestCount, r.HarvestedWeight,
		r.SaleCount, r.SoldQuantity, r.Revenue,
		r.OperationCost,
		r.CashIn, r.CashOut,
		r.AvailableStock, r.LowStockLots,
	)
}

func inPeriod(d, start, end models.Date) bool {
	return !d.Before(start) && !d.After(end)
}

// ReportRow flattens a weekly report for spreadsheet export.
func ReportRow(r *models.WeeklyReport) []interface{} {
	return []interface{}{
		r.PeriodStart.Format(models.DateLayout),
		r.PeriodEnd.Format(models.DateLayout),
		r.HarvestCount,
		r.HarvestedWeight,
		r.SaleCount,
		r.SoldQuantity,
		r.Revenue,
		r.OperationCost,
		r.CashIn,
		r.CashOut,
		r.AvailableStock,
		r.LowStockLots,
		r.CreatedAt.Format(time.RFC3339),
	}
}
