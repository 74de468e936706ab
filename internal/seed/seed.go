// Package seed fills an empty database with a small demo plantation set.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/palmier/internal/domain/models"
)

// Resetter wipes every table.
type Resetter interface {
	Reset(ctx context.Context) error
}

// Records creates the non-sale records.
type Records interface {
	CreatePlantation(ctx context.Context, plantation *models.Plantation) error
	CreateOperation(ctx context.Context, operation *models.Operation) error
	CreateProduction(ctx context.Context, production *models.Production) error
	CreateCashMovement(ctx context.Context, movement *models.MouvementCaisse) error
}

// Sales records sales through the stock ledger.
type Sales interface {
	CreateSale(ctx context.Context, input models.SaleInput) (*models.Vente, error)
}

// Summary counts what Load created.
type Summary struct {
	Plantations   int
	Operations    int
	Productions   int
	Ventes        int
	CashMovements int
}

// Loader writes the demo data set.
type Loader struct {
	store   Resetter
	records Records
	sales   Sales
	faker   *gofakeit.Faker
	now     func() time.Time
	logger  *zap.Logger
}

// NewLoader builds a loader. A zero seed picks a random one.
func NewLoader(store Resetter, records Records, sales Sales, seed uint64, now func() time.Time, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &Loader{
		store:   store,
		records: records,
		sales:   sales,
		faker:   gofakeit.New(seed),
		now:     now,
		logger:  logger,
	}
}

type block struct {
	name      string
	area      string
	ageInDays int
	trees     int
	zone      string
}

var blocks = []block{
	{name: "Plantation Nord", area: "100.00", ageInDays: 365, trees: 500, zone: "Zone Nord"},
	{name: "Plantation Sud", area: "75.50", ageInDays: 180, trees: 350, zone: "Zone Sud"},
}

// Load wipes the database, then creates two plantations with their
// operations, one lot each with one sale, and two cash movements.
func (l *Loader) Load(ctx context.Context) (Summary, error) {
	var sum Summary
	today := models.Today(l.now())

	if err := l.store.Reset(ctx); err != nil {
		return sum, fmt.Errorf("reset: %w", err)
	}

	for _, b := range blocks {
		plantation := &models.Plantation{
			Name:         b.name,
			Area:         decimal.RequireFromString(b.area),
			PlantingDate: today.AddDays(-b.ageInDays),
			TreeCount:    b.trees,
			Location:     b.zone,
			Description:  fmt.Sprintf("%s, près de %s", b.zone, l.faker.City()),
		}
		if err := l.records.CreatePlantation(ctx, plantation); err != nil {
			return sum, fmt.Errorf("plantation %s: %w", b.name, err)
		}
		sum.Plantations++

		for _, op := range []struct {
			kind        models.OperationKind
			days        int
			cost        int64
			description string
		}{
			{models.OperationMaintenance, 30, 1500, "Entretien mensuel"},
			{models.OperationFertilization, 15, 2500, "Fertilisation trimestrielle"},
		} {
			operation := &models.Operation{
				PlantationID: plantation.ID,
				Kind:         op.kind,
				Date:         today.AddDays(-op.days),
				Cost:         decimal.NewFromInt(op.cost),
				Description:  op.description,
			}
			if err := l.records.CreateOperation(ctx, operation); err != nil {
				return sum, fmt.Errorf("operation for %s: %w", b.name, err)
			}
			sum.Operations++
		}

		production := &models.Production{
			PlantationID: plantation.ID,
			HarvestDate:  today.AddDays(-7),
			BunchCount:   100,
			TotalWeight:  decimal.NewFromInt(1000),
			Quality:      models.QualityA,
		}
		if err := l.records.CreateProduction(ctx, production); err != nil {
			return sum, fmt.Errorf("production for %s: %w", b.name, err)
		}
		sum.Productions++

		if _, err := l.sales.CreateSale(ctx, models.SaleInput{
			ProductionID: production.ID,
			SaleDate:     today.AddDays(-5),
			Client:       l.faker.Company(),
			Quantity:     decimal.NewFromInt(500),
			UnitPrice:    decimal.RequireFromString("2.50"),
		}); err != nil {
			return sum, fmt.Errorf("sale for %s: %w", b.name, err)
		}
		sum.Ventes++
	}

	for _, m := range []models.MouvementCaisse{
		{Date: today.AddDays(-5), Kind: models.CashEntry, Amount: decimal.NewFromInt(1250), Description: "Vente de production"},
		{Date: today.AddDays(-2), Kind: models.CashExit, Amount: decimal.NewFromInt(800), Description: "Paiement des opérations"},
	} {
		movement := m
		if err := l.records.CreateCashMovement(ctx, &movement); err != nil {
			return sum, fmt.Errorf("cash movement: %w", err)
		}
		sum.CashMovements++
	}

	l.logger.Info("demo data loaded",
		zap.Int("plantations", sum.Plantations),
		zap.Int("productions", sum.Productions),
		zap.Int("ventes", sum.Ventes))
	return sum, nil
}
