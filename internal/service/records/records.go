package records

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/palmier/internal/domain/models"
)

// Store is the persistence the records service needs.
type Store interface {
	CreatePlantation(ctx context.Context, plantation *models.Plantation) error
	GetPlantation(ctx context.Context, id uint) (*models.Plantation, error)
	ListPlantations(ctx context.Context) ([]models.Plantation, error)
	UpdatePlantation(ctx context.Context, plantation *models.Plantation) error
	DeletePlantation(ctx context.Context, id uint) error

	CreateOperation(ctx context.Context, operation *models.Operation) error
	GetOperation(ctx context.Context, id uint) (*models.Operation, error)
	ListOperations(ctx context.Context, filter models.OperationFilter) ([]models.Operation, error)
	UpdateOperation(ctx context.Context, operation *models.Operation) error
	DeleteOperation(ctx context.Context, id uint) error

	CreateProduction(ctx context.Context, production *models.Production) error
	GetProduction(ctx context.Context, id uint) (*models.Production, error)
	ListProductions(ctx context.Context, filter models.ProductionFilter) ([]models.Production, error)
	UpdateProductionDetails(ctx context.Context, production *models.Production) error
	DeleteProduction(ctx context.Context, id uint) error

	GetVente(ctx context.Context, id uint) (*models.Vente, error)
	ListVentes(ctx context.Context, filter models.VenteFilter) ([]models.Vente, error)

	CreateCashMovement(ctx context.Context, movement *models.MouvementCaisse) error
	GetCashMovement(ctx context.Context, id uint) (*models.MouvementCaisse, error)
	ListCashMovements(ctx context.Context, filter models.CashFilter) ([]models.MouvementCaisse, error)
	UpdateCashMovement(ctx context.Context, movement *models.MouvementCaisse) error
	DeleteCashMovement(ctx context.Context, id uint) error
}

// Service validates and persists every record except sale writes, which
// belong to the stock ledger.
type Service struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// NewService constructs the records service.
func NewService(store Store, logger *zap.Logger, now func() time.Time) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, logger: logger, now: now}
}

func (s *Service) today() models.Date {
	return models.Today(s.now())
}

// CreatePlantation validates and inserts a plantation. Any client supplied ID
// is ignored.
func (s *Service) CreatePlantation(ctx context.Context, plantation *models.Plantation) error {
	if err := plantation.Validate(s.today()); err != nil {
		return err
	}
	plantation.ID = 0
	if err := s.store.CreatePlantation(ctx, plantation); err != nil {
		return fmt.Errorf("create plantation %q: %w", plantation.Name, err)
	}
	s.logger.Info("plantation created", zap.Uint("plantation_id", plantation.ID), zap.String("name", plantation.Name))
	return nil
}

func (s *Service) GetPlantation(ctx context.Context, id uint) (*models.Plantation, error) {
	return s.store.GetPlantation(ctx, id)
}

func (s *Service) ListPlantations(ctx context.Context) ([]models.Plantation, error) {
	return s.store.ListPlantations(ctx)
}

// UpdatePlantation validates and rewrites every column of the plantation, so
// callers send the full record.
func (s *Service) UpdatePlantation(ctx context.Context, plantation *models.Plantation) error {
	if err := plantation.Validate(s.today()); err != nil {
		return err
	}
	if err := s.store.UpdatePlantation(ctx, plantation); err != nil {
		return fmt.Errorf("update plantation: %w", err)
	}
	return nil
}

// DeletePlantation removes the plantation with its operations, lots and sales.
func (s *Service) DeletePlantation(ctx context.Context, id uint) error {
	if err := s.store.DeletePlantation(ctx, id); err != nil {
		return fmt.Errorf("delete plantation: %w", err)
	}
	s.logger.Info("plantation deleted", zap.Uint("plantation_id", id))
	return nil
}

// CreateOperation records a field operation after checking that its
// plantation exists.
func (s *Service) CreateOperation(ctx context.Context, operation *models.Operation) error {
	if err := s.checkOperation(ctx, operation); err != nil {
		return err
	}
	operation.ID = 0
	if err := s.store.CreateOperation(ctx, operation); err != nil {
		return fmt.Errorf("create operation: %w", err)
	}
	return nil
}

func (s *Service) GetOperation(ctx context.Context, id uint) (*models.Operation, error) {
	return s.store.GetOperation(ctx, id)
}

func (s *Service) ListOperations(ctx context.Context, filter models.OperationFilter) ([]models.Operation, error) {
	return s.store.ListOperations(ctx, filter)
}

// UpdateOperation rewrites every column and rechecks the plantation.
func (s *Service) UpdateOperation(ctx context.Context, operation *models.Operation) error {
	if err := s.checkOperation(ctx, operation); err != nil {
		return err
	}
	if err := s.store.UpdateOperation(ctx, operation); err != nil {
		return fmt.Errorf("update operation: %w", err)
	}
	return nil
}

func (s *Service) DeleteOperation(ctx context.Context, id uint) error {
	if err := s.store.DeleteOperation(ctx, id); err != nil {
		return fmt.Errorf("delete operation: %w", err)
	}
	return nil
}

func (s *Service) checkOperation(ctx context.Context, operation *models.Operation) error {
	if err := operation.Validate(s.today()); err != nil {
		return err
	}
	if _, err := s.store.GetPlantation(ctx, operation.PlantationID); err != nil {
		return err
	}
	return nil
}

// CreateProduction records a harvest lot with its full weight in stock.
func (s *Service) CreateProduction(ctx context.Context, production *models.Production) error {
	production.ID = 0
	production.AvailableStock = production.TotalWeight
	if err := production.Validate(s.today()); err != nil {
		return err
	}
	if _, err := s.store.GetPlantation(ctx, production.PlantationID); err != nil {
		return err
	}
	if err := s.store.CreateProduction(ctx, production); err != nil {
		return fmt.Errorf("create production: %w", err)
	}
	s.logger.Info("production recorded",
		zap.Uint("production_id", production.ID),
		zap.String("total_weight", production.TotalWeight.String()),
	)
	return nil
}

func (s *Service) GetProduction(ctx context.Context, id uint) (*models.Production, error) {
	return s.store.GetProduction(ctx, id)
}

func (s *Service) ListProductions(ctx context.Context, filter models.ProductionFilter) ([]models.Production, error) {
	return s.store.ListProductions(ctx, filter)
}

// UpdateProduction edits the descriptive fields of a lot. The harvested
// weight is fixed once recorded and the stock is owned by the ledger.
func (s *Service) UpdateProduction(ctx context.Context, production *models.Production) (*models.Production, error) {
	stored, err := s.store.GetProduction(ctx, production.ID)
	if err != nil {
		return nil, err
	}
	if !production.TotalWeight.IsZero() && !production.TotalWeight.Equal(stored.TotalWeight) {
		return nil, models.NewValidationError("total_weight", "cannot change after harvest is recorded")
	}

	production.TotalWeight = stored.TotalWeight
	production.AvailableStock = stored.AvailableStock
	if err := production.Validate(s.today()); err != nil {
		return nil, err
	}
	if production.PlantationID != stored.PlantationID {
		if _, err := s.store.GetPlantation(ctx, production.PlantationID); err != nil {
			return nil, err
		}
	}
	if err := s.store.UpdateProductionDetails(ctx, production); err != nil {
		return nil, fmt.Errorf("update production: %w", err)
	}
	return s.store.GetProduction(ctx, production.ID)
}

// DeleteProduction removes a lot together with the sales drawn on it.
func (s *Service) DeleteProduction(ctx context.Context, id uint) error {
	if err := s.store.DeleteProduction(ctx, id); err != nil {
		return fmt.Errorf("delete production: %w", err)
	}
	s.logger.Info("production deleted", zap.Uint("production_id", id))
	return nil
}

func (s *Service) GetVente(ctx context.Context, id uint) (*models.Vente, error) {
	return s.store.GetVente(ctx, id)
}

// ListVentes is read only; sales are written through the ledger.
func (s *Service) ListVentes(ctx context.Context, filter models.VenteFilter) ([]models.Vente, error) {
	return s.store.ListVentes(ctx, filter)
}

// CreateCashMovement appends a line to the cash book. Amounts are always
// positive; Kind carries the direction.
func (s *Service) CreateCashMovement(ctx context.Context, movement *models.MouvementCaisse) error {
	if err := movement.Validate(s.today()); err != nil {
		return err
	}
	movement.ID = 0
	if err := s.store.CreateCashMovement(ctx, movement); err != nil {
		return fmt.Errorf("create cash movement: %w", err)
	}
	return nil
}

func (s *Service) GetCashMovement(ctx context.Context, id uint) (*models.MouvementCaisse, error) {
	return s.store.GetCashMovement(ctx, id)
}

func (s *Service) ListCashMovements(ctx context.Context, filter models.CashFilter) ([]models.MouvementCaisse, error) {
	return s.store.ListCashMovements(ctx, filter)
}

// UpdateCashMovement validates and rewrites every column of the line.
func (s *Service) UpdateCashMovement(ctx context.Context, movement *models.MouvementCaisse) error {
	if err := movement.Validate(s.today()); err != nil {
		return err
	}
	if err := s.store.UpdateCashMovement(ctx, movement); err != nil {
		return fmt.Errorf("update cash movement: %w", err)
	}
	return nil
}

func (s *Service) DeleteCashMovement(ctx context.Context, id uint) error {
	if err := s.store.DeleteCashMovement(ctx, id); err != nil {
		return fmt.Errorf("delete cash movement: %w", err)
	}
	return nil
}
