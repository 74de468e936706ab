package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/palmier/internal/domain/models"
)

// Repositories is the set of row operations available inside one ledger
// transaction. Every read locks the row until the transaction ends.
type Repositories interface {
	LockVente(ctx context.Context, id uint) (*models.Vente, error)
	LockProduction(ctx context.Context, id uint) (*models.Production, error)
	InsertVente(ctx context.Context, vente *models.Vente) error
	SaveVente(ctx context.Context, vente *models.Vente) error
	RemoveVente(ctx context.Context, id uint) error
	SaveStock(ctx context.Context, production *models.Production) error
}

// TransactionScope runs fn atomically. A non-nil error from fn rolls back
// every write made through repos.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}

// Recorder observes ledger outcomes.
type Recorder interface {
	ObserveLedger(operation string, err error, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveLedger(string, error, time.Duration) {}

// Service is the only writer of Production.AvailableStock after a lot is created.
type Service struct {
	scope    TransactionScope
	logger   *zap.Logger
	now      func() time.Time
	recorder Recorder
}

// Option customises a Service.
type Option func(*Service)

// WithClock overrides the clock used to decide what "today" is.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRecorder plugs a metrics recorder.
func WithRecorder(recorder Recorder) Option {
	return func(s *Service) {
		if recorder != nil {
			s.recorder = recorder
		}
	}
}

// NewService wires the ledger over a transaction scope.
func NewService(scope TransactionScope, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		scope:    scope,
		logger:   logger,
		now:      time.Now,
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TotalAmount is quantity times unit price rounded half to even at two decimals.
func TotalAmount(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return quantity.Mul(unitPrice).RoundBank(2)
}

// CreateSale records a sale and withdraws its quantity from the lot.
func (s *Service) CreateSale(ctx context.Context, input models.SaleInput) (*models.Vente, error) {
	start := time.Now()
	if err := input.Validate(models.Today(s.now())); err != nil {
		s.recorder.ObserveLedger("create", err, time.Since(start))
		return nil, err
	}

	vente := &models.Vente{
		ProductionID: input.ProductionID,
		SaleDate:     input.SaleDate,
		Client:       input.Client,
		Quantity:     input.Quantity,
		UnitPrice:    input.UnitPrice,
		TotalAmount:  TotalAmount(input.Quantity, input.UnitPrice),
	}

	err := s.scope.Execute(ctx, func(repos Repositories) error {
		production, err := repos.LockProduction(ctx, input.ProductionID)
		if err != nil {
			return err
		}
		if err := withdraw(production, input.Quantity); err != nil {
			return err
		}
		if err := repos.InsertVente(ctx, vente); err != nil {
			return err
		}
		return repos.SaveStock(ctx, production)
	})
	s.recorder.ObserveLedger("create", err, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("create sale: %w", err)
	}

	s.logger.Info("sale recorded",
		zap.Uint("vente_id", vente.ID),
		zap.Uint("production_id", vente.ProductionID),
		zap.String("quantity", vente.Quantity.String()),
		zap.String("total_amount", vente.TotalAmount.StringFixed(2)),
	)
	return vente, nil
}

// UpdateSale applies a partial edit. The previous quantity goes back to its
// lot before the new quantity is checked and withdrawn, so a sale may move
// between lots or grow up to what its lot held before it.
func (s *Service) UpdateSale(ctx context.Context, id uint, update models.SaleUpdate) (*models.Vente, error) {
	start := time.Now()
	today := models.Today(s.now())

	var vente *models.Vente
	err := s.scope.Execute(ctx, func(repos Repositories) error {
		stored, err := repos.LockVente(ctx, id)
		if err != nil {
			return err
		}

		input := update.Apply(*stored)
		if err := input.Validate(today); err != nil {
			return err
		}

		lots, err := lockLots(ctx, repos, stored.ProductionID, input.ProductionID)
		if err != nil {
			return err
		}
		source, target := lots[stored.ProductionID], lots[input.ProductionID]

		if err := restore(source, stored.Quantity); err != nil {
			return err
		}
		if err := withdraw(target, input.Quantity); err != nil {
			return err
		}

		stored.ProductionID = input.ProductionID
		stored.SaleDate = input.SaleDate
		stored.Client = input.Client
		stored.Quantity = input.Quantity
		stored.UnitPrice = input.UnitPrice
		stored.TotalAmount = TotalAmount(input.Quantity, input.UnitPrice)
		stored.Production = nil

		if err := repos.SaveVente(ctx, stored); err != nil {
			return err
		}
		for _, lotID := range sortedIDs(lots) {
			if err := repos.SaveStock(ctx, lots[lotID]); err != nil {
				return err
			}
		}
		vente = stored
		return nil
	})
	s.recorder.ObserveLedger("update", err, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("update sale %d: %w", id, err)
	}

	s.logger.Info("sale updated",
		zap.Uint("vente_id", vente.ID),
		zap.Uint("production_id", vente.ProductionID),
		zap.String("quantity", vente.Quantity.String()),
	)
	return vente, nil
}

// DeleteSale removes a sale and gives its quantity back to the lot.
func (s *Service) DeleteSale(ctx context.Context, id uint) error {
	start := time.Now()
	err := s.scope.Execute(ctx, func(repos Repositories) error {
		vente, err := repos.LockVente(ctx, id)
		if err != nil {
			return err
		}
		production, err := repos.LockProduction(ctx, vente.ProductionID)
		if err != nil {
			return err
		}
		if err := restore(production, vente.Quantity); err != nil {
			return err
		}
		if err := repos.RemoveVente(ctx, id); err != nil {
			return err
		}
		return repos.SaveStock(ctx, production)
	})
	s.recorder.ObserveLedger("delete", err, time.Since(start))
	if err != nil {
		return fmt.Errorf("delete sale %d: %w", id, err)
	}

	s.logger.Info("sale deleted", zap.Uint("vente_id", id))
	return nil
}

// lockLots locks the given lots once each, lowest id first.
func lockLots(ctx context.Context, repos Repositories, ids ...uint) (map[uint]*models.Production, error) {
	lots := make(map[uint]*models.Production, len(ids))
	for _, id := range ids {
		lots[id] = nil
	}
	for _, id := range sortedIDs(lots) {
		production, err := repos.LockProduction(ctx, id)
		if err != nil {
			return nil, err
		}
		lots[id] = production
	}
	return lots, nil
}

func sortedIDs(lots map[uint]*models.Production) []uint {
	ids := make([]uint, 0, len(lots))
	for id := range lots {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func withdraw(production *models.Production, quantity decimal.Decimal) error {
	if quantity.GreaterThan(production.AvailableStock) {
		return &models.InsufficientStockError{
			ProductionID: production.ID,
			Requested:    quantity,
			Available:    production.AvailableStock,
		}
	}
	production.AvailableStock = production.AvailableStock.Sub(quantity)
	return production.CheckStock()
}

func restore(production *models.Production, quantity decimal.Decimal) error {
	production.AvailableStock = production.AvailableStock.Add(quantity)
	return production.CheckStock()
}

// IsClientError reports whether err was caused by the caller's input rather
// than by the store.
func IsClientError(err error) bool {
	var verr *models.ValidationError
	return errors.As(err, &verr) ||
		errors.Is(err, models.ErrNotFound) ||
		errors.Is(err, models.ErrInsufficientStock)
}
