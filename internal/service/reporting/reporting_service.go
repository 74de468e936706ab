package reporting

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/palmier/internal/domain/models"
)

const (
	// DefaultAlertThreshold is the stock percentage under which a lot is flagged.
	DefaultAlertThreshold = 20
	// DefaultTopClients is the size of the client ranking.
	DefaultTopClients = 5
)

var hundred = decimal.NewFromInt(100)

// Source is the committed state reports are computed from.
type Source interface {
	GetPlantation(ctx context.Context, id uint) (*models.Plantation, error)
	ListPlantations(ctx context.Context) ([]models.Plantation, error)
	ListOperations(ctx context.Context, filter models.OperationFilter) ([]models.Operation, error)
	ListProductions(ctx context.Context, filter models.ProductionFilter) ([]models.Production, error)
	ListVentes(ctx context.Context, filter models.VenteFilter) ([]models.Vente, error)
	ListCashMovements(ctx context.Context, filter models.CashFilter) ([]models.MouvementCaisse, error)
}

// Service computes read-only aggregates. Every ledger write commits the sale
// and its stock change together, so reports never see one without the other.
type Service struct {
	source    Source
	logger    *zap.Logger
	now       func() time.Time
	threshold decimal.Decimal
}

// Option customises a Service.
type Option func(*Service)

// WithClock overrides the clock used for period reports.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithAlertThreshold sets the default low-stock percentage.
func WithAlertThreshold(threshold decimal.Decimal) Option {
	return func(s *Service) {
		if threshold.IsPositive() {
			s.threshold = threshold
		}
	}
}

// NewService wires a new reporting service instance.
func NewService(source Source, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		source:    source,
		logger:    logger,
		now:       time.Now,
		threshold: decimal.NewFromInt(DefaultAlertThreshold),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AlertThreshold returns the configured low-stock percentage.
func (s *Service) AlertThreshold() decimal.Decimal {
	return s.threshold
}

// PlantationStats aggregates the operations, harvests and revenue of one plantation.
func (s *Service) PlantationStats(ctx context.Context, id uint) (*models.PlantationStats, error) {
	plantation, err := s.source.GetPlantation(ctx, id)
	if err != nil {
		return nil, err
	}
	operations, err := s.source.ListOperations(ctx, models.OperationFilter{PlantationID: id})
	if err != nil {
		return nil, fmt.Errorf("load operations: %w", err)
	}
	productions, err := s.source.ListProductions(ctx, models.ProductionFilter{PlantationID: id})
	if err != nil {
		return nil, fmt.Errorf("load productions: %w", err)
	}
	ventes, err := s.source.ListVentes(ctx, models.VenteFilter{PlantationID: id})
	if err != nil {
		return nil, fmt.Errorf("load ventes: %w", err)
	}

	stats := &models.PlantationStats{
		PlantationID:         plantation.ID,
		Name:                 plantation.Name,
		OperationCount:       len(operations),
		TotalOperationCost:   decimal.Zero,
		ProductionCount:      len(productions),
		TotalHarvestedWeight: decimal.Zero,
		AverageYieldPerTree:  decimal.Zero,
		Revenue:              decimal.Zero,
		ProductionsByQuality: make(map[models.Quality]int, len(models.Qualities)),
	}
	for _, q := range models.Qualities {
		stats.ProductionsByQuality[q] = 0
	}
	for _, op := range operations {
		stats.TotalOperationCost = stats.TotalOperationCost.Add(op.Cost)
	}
	for _, p := range productions {
		stats.TotalHarvestedWeight = stats.TotalHarvestedWeight.Add(p.TotalWeight)
		stats.ProductionsByQuality[p.Quality]++
	}
	for _, v := range ventes {
		stats.Revenue = stats.Revenue.Add(v.TotalAmount)
	}
	if len(productions) > 0 && plantation.TreeCount > 0 {
		average := stats.TotalHarvestedWeight.Div(decimal.NewFromInt(int64(len(productions))))
		stats.AverageYieldPerTree = average.Div(decimal.NewFromInt(int64(plantation.TreeCount))).Round(2)
	}
	return stats, nil
}

type monthKey struct {
	year  int
	month time.Month
	kind  string
}

func keyOf(d models.Date, kind string) monthKey {
	return monthKey{year: d.Year(), month: d.Month(), kind: kind}
}

func (k monthKey) less(other monthKey) bool {
	if k.year != other.year {
		return k.year < other.year
	}
	if k.month != other.month {
		return k.month < other.month
	}
	return k.kind < other.kind
}

// OperationMonthlyStats groups operation costs per month and kind. Year 0
// covers every year.
func (s *Service) OperationMonthlyStats(ctx context.Context, year int) ([]models.MonthlyCost, error) {
	operations, err := s.source.ListOperations(ctx, models.OperationFilter{Year: year})
	if err != nil {
		return nil, fmt.Errorf("load operations: %w", err)
	}

	buckets := make(map[monthKey]*models.MonthlyCost)
	for _, op := range operations {
		key := keyOf(op.Date, string(op.Kind))
		bucket, ok := buckets[key]
		if !ok {
			bucket = &models.MonthlyCost{Year: key.year, Month: key.month, Kind: op.Kind, TotalCost: decimal.Zero}
			buckets[key] = bucket
		}
		bucket.TotalCost = bucket.TotalCost.Add(op.Cost)
		bucket.Count++
	}

	out := make([]models.MonthlyCost, 0, len(buckets))
	for _, key := range sortedKeys(buckets) {
		out = append(out, *buckets[key])
	}
	return out, nil
}

// ProductionStats aggregates every harvest lot.
func (s *Service) ProductionStats(ctx context.Context) (*models.ProductionStats, error) {
	productions, err := s.source.ListProductions(ctx, models.ProductionFilter{})
	if err != nil {
		return nil, fmt.Errorf("load productions: %w", err)
	}

	stats := &models.ProductionStats{
		ProductionCount:     len(productions),
		TotalWeight:         decimal.Zero,
		TotalAvailableStock: decimal.Zero,
		AverageWeight:       decimal.Zero,
		ByQuality:           make([]models.QualityBreakdown, 0, len(models.Qualities)),
		LowStockProductions: []models.ProductionView{},
	}

	byQuality := make(map[models.Quality]*models.QualityBreakdown, len(models.Qualities))
	for _, q := range models.Qualities {
		byQuality[q] = &models.QualityBreakdown{Quality: q, Label: q.Label(), AvailableStock: decimal.Zero}
	}
	monthly := make(map[monthKey]*models.MonthlyHarvest)

	for _, p := range productions {
		stats.TotalWeight = stats.TotalWeight.Add(p.TotalWeight)
		stats.TotalBunches += p.BunchCount
		stats.TotalAvailableStock = stats.TotalAvailableStock.Add(p.AvailableStock)

		if bucket, ok := byQuality[p.Quality]; ok {
			bucket.Count++
			bucket.AvailableStock = bucket.AvailableStock.Add(p.AvailableStock)
		}

		key := keyOf(p.HarvestDate, "")
		month, ok := monthly[key]
		if !ok {
			month = &models.MonthlyHarvest{Year: key.year, Month: key.month, TotalWeight: decimal.Zero, AvailableStock: decimal.Zero}
			monthly[key] = month
		}
		month.TotalWeight = month.TotalWeight.Add(p.TotalWeight)
		month.AvailableStock = month.AvailableStock.Add(p.AvailableStock)
		month.HarvestCount++

		if belowThreshold(p, s.threshold) {
			stats.LowStockProductions = append(stats.LowStockProductions, models.NewProductionView(p))
		}
	}

	if len(productions) > 0 {
		stats.AverageWeight = stats.TotalWeight.Div(decimal.NewFromInt(int64(len(productions)))).Round(2)
	}
	for _, q := range models.Qualities {
		stats.ByQuality = append(stats.ByQuality, *byQuality[q])
	}
	stats.Monthly = make([]models.MonthlyHarvest, 0, len(monthly))
	for _, key := range sortedKeys(monthly) {
		stats.Monthly = append(stats.Monthly, *monthly[key])
	}
	return stats, nil
}

// StockAlerts lists lots whose stock is positive but under threshold percent
// of their harvested weight. A non-positive threshold uses the configured one.
func (s *Service) StockAlerts(ctx context.Context, threshold decimal.Decimal) ([]models.StockAlert, error) {
	if !threshold.IsPositive() {
		threshold = s.threshold
	}
	productions, err := s.source.ListProductions(ctx, models.ProductionFilter{})
	if err != nil {
		return nil, fmt.Errorf("load productions: %w", err)
	}

	alerts := []models.StockAlert{}
	for _, p := range productions {
		if !p.AvailableStock.IsPositive() || !belowThreshold(p, threshold) {
			continue
		}
		alert := models.StockAlert{
			ProductionID:    p.ID,
			HarvestDate:     p.HarvestDate,
			Quality:         p.Quality,
			TotalWeight:     p.TotalWeight,
			AvailableStock:  p.AvailableStock,
			StockPercentage: p.StockPercentage(),
		}
		if p.Plantation != nil {
			alert.PlantationName = p.Plantation.Name
		}
		alerts = append(alerts, alert)
	}
	return alerts, nil
}

// belowThreshold reports available < threshold% of total weight.
func belowThreshold(p models.Production, threshold decimal.Decimal) bool {
	limit := p.TotalWeight.Mul(threshold).Div(hundred)
	return p.AvailableStock.LessThan(limit)
}

// SalesStats aggregates revenue, monthly evolution, the top clients and the
// remaining stock per plantation.
func (s *Service) SalesStats(ctx context.Context, top int) (*models.SalesStats, error) {
	if top <= 0 {
		top = DefaultTopClients
	}
	ventes, err := s.source.ListVentes(ctx, models.VenteFilter{})
	if err != nil {
		return nil, fmt.Errorf("load ventes: %w", err)
	}
	productions, err := s.source.ListProductions(ctx, models.ProductionFilter{})
	if err != nil {
		return nil, fmt.Errorf("load productions: %w", err)
	}

	stats := &models.SalesStats{
		SaleCount:         len(ventes),
		Revenue:           decimal.Zero,
		TotalQuantity:     decimal.Zero,
		AveragePricePerKg: decimal.Zero,
	}
	monthly := make(map[monthKey]*models.MonthlySales)
	clients := make(map[string]*models.ClientTotal)

	for _, v := range ventes {
		stats.Revenue = stats.Revenue.Add(v.TotalAmount)
		stats.TotalQuantity = stats.TotalQuantity.Add(v.Quantity)

		key := keyOf(v.SaleDate, "")
		month, ok := monthly[key]
		if !ok {
			month = &models.MonthlySales{Year: key.year, Month: key.month, Revenue: decimal.Zero, Quantity: decimal.Zero}
			monthly[key] = month
		}
		month.Revenue = month.Revenue.Add(v.TotalAmount)
		month.Quantity = month.Quantity.Add(v.Quantity)
		month.Count++

		client, ok := clients[v.Client]
		if !ok {
			client = &models.ClientTotal{Client: v.Client, TotalAmount: decimal.Zero, TotalQuantity: decimal.Zero}
			clients[v.Client] = client
		}
		client.TotalAmount = client.TotalAmount.Add(v.TotalAmount)
		client.TotalQuantity = client.TotalQuantity.Add(v.Quantity)
		client.PurchaseCount++
	}

	if stats.TotalQuantity.IsPositive() {
		stats.AveragePricePerKg = stats.Revenue.Div(stats.TotalQuantity).Round(2)
	}
	stats.Monthly = make([]models.MonthlySales, 0, len(monthly))
	for _, key := range sortedKeys(monthly) {
		stats.Monthly = append(stats.Monthly, *monthly[key])
	}
	stats.TopClients = topClients(clients, top)
	stats.StockByPlantation = stockByPlantation(productions)
	return stats, nil
}

func topClients(clients map[string]*models.ClientTotal, top int) []models.ClientTotal {
	ranked := make([]models.ClientTotal, 0, len(clients))
	for _, c := range clients {
		ranked = append(ranked, *c)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if cmp := ranked[i].TotalAmount.Cmp(ranked[j].TotalAmount); cmp != 0 {
			return cmp > 0
		}
		return ranked[i].Client < ranked[j].Client
	})
	if len(ranked) > top {
		ranked = ranked[:top]
	}
	return ranked
}

func stockByPlantation(productions []models.Production) []models.PlantationStock {
	type acc struct {
		stock      models.PlantationStock
		percentSum decimal.Decimal
		lots       int64
	}
	byID := make(map[uint]*acc)
	for _, p := range productions {
		a, ok := byID[p.PlantationID]
		if !ok {
			a = &acc{stock: models.PlantationStock{
				PlantationID:   p.PlantationID,
				AvailableStock: decimal.Zero,
				TotalWeight:    decimal.Zero,
			}, percentSum: decimal.Zero}
			if p.Plantation != nil {
				a.stock.PlantationName = p.Plantation.Name
			}
			byID[p.PlantationID] = a
		}
		a.stock.AvailableStock = a.stock.AvailableStock.Add(p.AvailableStock)
		a.stock.TotalWeight = a.stock.TotalWeight.Add(p.TotalWeight)
		a.percentSum = a.percentSum.Add(p.StockPercentage())
		a.lots++
	}

	out := make([]models.PlantationStock, 0, len(byID))
	for _, a := range byID {
		a.stock.AverageStockPercentage = a.percentSum.Div(decimal.NewFromInt(a.lots)).Round(2)
		out = append(out, a.stock)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlantationName < out[j].PlantationName })
	return out
}

// CashBalance totals the cash book between from and to, both inclusive and
// both optional.
func (s *Service) CashBalance(ctx context.Context, from, to models.Date) (*models.CashBalance, error) {
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return nil, models.NewValidationError("from", "must not be after to")
	}
	movements, err := s.source.ListCashMovements(ctx, models.CashFilter{From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("load cash movements: %w", err)
	}

	balance := &models.CashBalance{
		From:         from,
		To:           to,
		TotalEntries: decimal.Zero,
		TotalExits:   decimal.Zero,
	}
	monthly := make(map[monthKey]*models.MonthlyCash)
	for _, m := range movements {
		switch m.Kind {
		case models.CashEntry:
			balance.TotalEntries = balance.TotalEntries.Add(m.Amount)
		case models.CashExit:
			balance.TotalExits = balance.TotalExits.Add(m.Amount)
		}

		key := keyOf(m.Date, string(m.Kind))
		bucket, ok := monthly[key]
		if !ok {
			bucket = &models.MonthlyCash{Year: key.year, Month: key.month, Kind: m.Kind, Amount: decimal.Zero}
			monthly[key] = bucket
		}
		bucket.Amount = bucket.Amount.Add(m.Amount)
		bucket.Count++
	}
	balance.Balance = balance.TotalEntries.Sub(balance.TotalExits)
	balance.Monthly = make([]models.MonthlyCash, 0, len(monthly))
	for _, key := range sortedKeys(monthly) {
		balance.Monthly = append(balance.Monthly, *monthly[key])
	}
	return balance, nil
}

func sortedKeys[V any](buckets map[monthKey]V) []monthKey {
	keys := make([]monthKey, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })
	return keys
}
