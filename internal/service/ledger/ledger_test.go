package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/palmier/internal/config"
	"github.com/mamadbah2/palmier/internal/domain/models"
	"github.com/mamadbah2/palmier/internal/repository/database"
	"github.com/mamadbah2/palmier/internal/service/ledger"
)

var (
	fixedNow = time.Date(2024, time.June, 15, 18, 30, 0, 0, time.UTC)
	today    = models.DateOf(fixedNow)
)

type fixture struct {
	store  *database.Store
	ledger *ledger.Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"}, "error", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	store := database.NewStore(db, nil)
	return fixture{
		store:  store,
		ledger: ledger.NewService(store, nil, ledger.WithClock(func() time.Time { return fixedNow })),
	}
}

func (f fixture) lot(t *testing.T, weight string) *models.Production {
	t.Helper()
	ctx := context.Background()
	plantation := &models.Plantation{
		Name:         "Bloc " + weight,
		Area:         decimal.NewFromInt(8),
		PlantingDate: models.NewDate(2016, time.February, 1),
		TreeCount:    1100,
		Location:     "Forécariah",
	}
	require.NoError(t, f.store.CreatePlantation(ctx, plantation))

	total := decimal.RequireFromString(weight)
	production := &models.Production{
		PlantationID:   plantation.ID,
		HarvestDate:    today,
		BunchCount:     45,
		TotalWeight:    total,
		AvailableStock: total,
		Quality:        models.QualityB,
	}
	require.NoError(t, f.store.CreateProduction(ctx, production))
	return production
}

func (f fixture) stock(t *testing.T, id uint) string {
	t.Helper()
	production, err := f.store.GetProduction(context.Background(), id)
	require.NoError(t, err)
	return production.AvailableStock.StringFixed(2)
}

func sale(productionID uint, quantity string) models.SaleInput {
	return models.SaleInput{
		ProductionID: productionID,
		SaleDate:     today,
		Client:       "SOGUIPAH",
		Quantity:     decimal.RequireFromString(quantity),
		UnitPrice:    decimal.RequireFromString("1250.75"),
	}
}

func ptr[T any](v T) *T { return &v }

func TestCreateSaleConsumesExactStock(t *testing.T) {
	f := newFixture(t)
	lot := f.lot(t, "1000")

	vente, err := f.ledger.CreateSale(context.Background(), sale(lot.ID, "1000"))
	require.NoError(t, err)
	assert.NotZero(t, vente.ID)
	assert.Equal(t, "0.00", f.stock(t, lot.ID))
}

func TestCreateSaleOverStockLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t)
	lot := f.lot(t, "1000")

	_, err := f.ledger.CreateSale(context.Background(), sale(lot.ID, "1000.01"))
	require.ErrorIs(t, err, models.ErrInsufficientStock)

	var stockErr *models.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, "1000.01", stockErr.Requested.String())
	assert.Equal(t, "1000", stockErr.Available.String())

	assert.Equal(t, "1000.00", f.stock(t, lot.ID))
	ventes, err := f.store.ListVentes(context.Background(), models.VenteFilter{})
	require.NoError(t, err)
	assert.Empty(t, ventes)
}

func TestCreateSaleRejections(t *testing.T) {
	f := newFixture(t)
	lot := f.lot(t, "1000")
	ctx := context.Background()

	tomorrow := sale(lot.ID, "10")
	tomorrow.SaleDate = today.AddDays(1)
	_, err := f.ledger.CreateSale(ctx, tomorrow)
	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "sale_date", verr.Field)

	_, err = f.ledger.CreateSale(ctx, sale(lot.ID, "0"))
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "quantity", verr.Field)

	_, err = f.ledger.CreateSale(ctx, sale(lot.ID+100, "10"))
	assert.ErrorIs(t, err, models.ErrNotFound)

	assert.Equal(t, "1000.00", f.stock(t, lot.ID))
}

func TestCreateSaleEnforcesColumnPrecision(t *testing.T) {
	f := newFixture(t)
	lot := f.lot(t, "1000")
	ctx := context.Background()

	var verr *models.ValidationError
	_, err := f.ledger.CreateSale(ctx, sale(lot.ID, "0.004"))
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "quantity", verr.Field)
	assert.Equal(t, "1000.00", f.stock(t, lot.ID))

	_, err = f.ledger.CreateSale(ctx, sale(lot.ID, "100000000"))
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "quantity", verr.Field)
	assert.Equal(t, "1000.00", f.stock(t, lot.ID))

	vente, err := f.ledger.CreateSale(ctx, sale(lot.ID, "0.01"))
	require.NoError(t, err)
	assert.Equal(t, "999.99", f.stock(t, lot.ID))

	_, err = f.ledger.UpdateSale(ctx, vente.ID, models.SaleUpdate{Quantity: ptr(decimal.RequireFromString("0.015"))})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "quantity", verr.Field)
	assert.Equal(t, "999.99", f.stock(t, lot.ID))

	_, err = f.ledger.UpdateSale(ctx, vente.ID, models.SaleUpdate{UnitPrice: ptr(decimal.RequireFromString("99999999.99"))})
	require.NoError(t, err)
	_, err = f.ledger.UpdateSale(ctx, vente.ID, models.SaleUpdate{Quantity: ptr(decimal.NewFromInt(200))})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "total_amount", verr.Field)
	assert.Equal(t, "999.99", f.stock(t, lot.ID))
}

func TestTotalAmountIsDerived(t *testing.T) {
	f := newFixture(t)
	lot := f.lot(t, "1000")
	ctx := context.Background()

	input := sale(lot.ID, "12.5")
	input.UnitPrice = decimal.RequireFromString("0.41")
	vente, err := f.ledger.CreateSale(ctx, input)
	require.NoError(t, err)
	// 12.5 * 0.41 = 5.125, half to even gives 5.12.
	assert.Equal(t, "5.12", vente.TotalAmount.StringFixed(2))

	updated, err := f.ledger.UpdateSale(ctx, vente.ID, models.SaleUpdate{UnitPrice: ptr(decimal.RequireFromString("2"))})
	require.NoError(t, err)
	assert.Equal(t, "25.00", updated.TotalAmount.StringFixed(2))

	stored, err := f.store.GetVente(ctx, vente.ID)
	require.NoError(t, err)
	assert.True(t, stored.TotalAmount.Equal(ledger.TotalAmount(stored.Quantity, stored.UnitPrice)))
}

func TestTotalAmountRounding(t *testing.T) {
	cases := []struct{ quantity, price, want string }{
		{"3", "33.333", "100.00"},
		{"1", "0.005", "0.00"},
		{"1", "0.015", "0.02"},
		{"150.5", "1200", "180600.00"},
	}
	for _, tc := range cases {
		got := ledger.TotalAmount(decimal.RequireFromString(tc.quantity), decimal.RequireFromString(tc.price))
		assert.Equal(t, tc.want, got.StringFixed(2), "%s x %s", tc.quantity, tc.price)
	}
}

func TestCreateUpdateDeleteRoundTrip(t *testing.T) {
	f := newFixture(t)
	lot := f.lot(t, "1000")
	ctx := context.Background()

	vente, err := f.ledger.CreateSale(ctx, sale(lot.ID, "500"))
	require.NoError(t, err)
	assert.Equal(t, "500.00", f.stock(t, lot.ID))

	_, err = f.ledger.UpdateSale(ctx, vente.ID, models.SaleUpdate{Quantity: ptr(decimal.NewFromInt(300))})
	require.NoError(t, err)
	assert.Equal(t, "700.00", f.stock(t, lot.ID))

	require.NoError(t, f.ledger.DeleteSale(ctx, vente.ID))
	assert.Equal(t, "1000.00", f.stock(t, lot.ID))

	assert.ErrorIs(t, f.ledger.DeleteSale(ctx, vente.ID), models.ErrNotFound)
}

func TestUpdateSaleCanGrowUpToRestoredBalance(t *testing.T) {
	f := newFixture(t)
	lot := f.lot(t, "1000")
	ctx := context.Background()

	vente, err := f.ledger.CreateSale(ctx, sale(lot.ID, "600"))
	require.NoError(t, err)

	_, err = f.ledger.UpdateSale(ctx, vente.ID, models.SaleUpdate{Quantity: ptr(decimal.NewFromInt(1000))})
	require.NoError(t, err)
	assert.Equal(t, "0.00", f.stock(t, lot.ID))

	_, err = f.ledger.UpdateSale(ctx, vente.ID, models.SaleUpdate{Quantity: ptr(decimal.RequireFromString("1000.01"))})
	assert.ErrorIs(t, err, models.ErrInsufficientStock)
	assert.Equal(t, "0.00", f.stock(t, lot.ID))

	stored, err := f.store.GetVente(ctx, vente.ID)
	require.NoError(t, err)
	assert.Equal(t, "1000.00", stored.Quantity.StringFixed(2))
}

func TestUpdateSaleMovesBetweenLots(t *testing.T) {
	f := newFixture(t)
	first := f.lot(t, "1000")
	second := f.lot(t, "300")
	ctx := context.Background()

	vente, err := f.ledger.CreateSale(ctx, sale(first.ID, "400"))
	require.NoError(t, err)

	_, err = f.ledger.UpdateSale(ctx, vente.ID, models.SaleUpdate{
		ProductionID: ptr(second.ID),
		Quantity:     ptr(decimal.NewFromInt(350)),
	})
	assert.ErrorIs(t, err, models.ErrInsufficientStock)
	assert.Equal(t, "600.00", f.stock(t, first.ID))
	assert.Equal(t, "300.00", f.stock(t, second.ID))

	moved, err := f.ledger.UpdateSale(ctx, vente.ID, models.SaleUpdate{
		ProductionID: ptr(second.ID),
		Quantity:     ptr(decimal.NewFromInt(250)),
	})
	require.NoError(t, err)
	assert.Equal(t, second.ID, moved.ProductionID)
	assert.Equal(t, "1000.00", f.stock(t, first.ID))
	assert.Equal(t, "50.00", f.stock(t, second.ID))
}

func TestUpdateSaleValidationAndMissing(t *testing.T) {
	f := newFixture(t)
	lot := f.lot(t, "1000")
	ctx := context.Background()

	vente, err := f.ledger.CreateSale(ctx, sale(lot.ID, "100"))
	require.NoError(t, err)

	_, err = f.ledger.UpdateSale(ctx, vente.ID, models.SaleUpdate{SaleDate: ptr(today.AddDays(1))})
	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "sale_date", verr.Field)

	_, err = f.ledger.UpdateSale(ctx, vente.ID, models.SaleUpdate{SaleDate: ptr(today)})
	require.NoError(t, err)

	_, err = f.ledger.UpdateSale(ctx, vente.ID+50, models.SaleUpdate{})
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = f.ledger.UpdateSale(ctx, vente.ID, models.SaleUpdate{ProductionID: ptr(lot.ID + 50)})
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Equal(t, "900.00", f.stock(t, lot.ID))
}

func TestConcurrentSalesNeverOversell(t *testing.T) {
	f := newFixture(t)
	lot := f.lot(t, "1000")

	var (
		wg      sync.WaitGroup
		start   = make(chan struct{})
		results = make([]error, 2)
	)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, results[i] = f.ledger.CreateSale(context.Background(), sale(lot.ID, "600"))
		}(i)
	}
	close(start)
	wg.Wait()

	var ok, rejected int
	for _, err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, models.ErrInsufficientStock):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, rejected)
	assert.Equal(t, "400.00", f.stock(t, lot.ID))
}

func TestDeleteProductionRemovesItsSales(t *testing.T) {
	f := newFixture(t)
	lot := f.lot(t, "1000")
	ctx := context.Background()

	vente, err := f.ledger.CreateSale(ctx, sale(lot.ID, "100"))
	require.NoError(t, err)

	require.NoError(t, f.store.DeleteProduction(ctx, lot.ID))
	_, err = f.store.GetVente(ctx, vente.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestIsClientError(t *testing.T) {
	assert.True(t, ledger.IsClientError(models.NewValidationError("client", "is required")))
	assert.True(t, ledger.IsClientError(&models.InsufficientStockError{}))
	assert.True(t, ledger.IsClientError(models.ErrNotFound))
	assert.False(t, ledger.IsClientError(errors.New("connection reset")))
}
