package database

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mamadbah2/palmier/internal/domain/models"
)

var (
	plantationColumns = []string{"name", "area", "planting_date", "tree_count", "location", "description"}
	operationColumns  = []string{"plantation_id", "kind", "date", "cost", "description"}
	// total_weight and available_stock are deliberately absent.
	productionColumns = []string{"plantation_id", "harvest_date", "bunch_count", "quality"}
	cashColumns       = []string{"date", "kind", "amount", "description"}
)

// Store is the gorm-backed persistence for every record type.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewStore wraps an open connection.
func NewStore(db *gorm.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, logger: logger}
}

// DB exposes the underlying connection.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return Ping(ctx, s.db)
}

// CreatePlantation inserts a plantation and fills in its ID. A duplicate name
// maps to models.ErrDuplicate.
func (s *Store) CreatePlantation(ctx context.Context, plantation *models.Plantation) error {
	return translate(s.db.WithContext(ctx).Create(plantation).Error, "plantation", plantation.ID)
}

// GetPlantation loads one plantation or returns models.ErrNotFound.
func (s *Store) GetPlantation(ctx context.Context, id uint) (*models.Plantation, error) {
	var plantation models.Plantation
	if err := s.db.WithContext(ctx).First(&plantation, id).Error; err != nil {
		return nil, translate(err, "plantation", id)
	}
	return &plantation, nil
}

// ListPlantations returns every plantation ordered by name.
func (s *Store) ListPlantations(ctx context.Context) ([]models.Plantation, error) {
	var plantations []models.Plantation
	if err := s.db.WithContext(ctx).Order("name").Find(&plantations).Error; err != nil {
		return nil, fmt.Errorf("list plantations: %w", err)
	}
	return plantations, nil
}

// UpdatePlantation rewrites every editable column, zero values included.
func (s *Store) UpdatePlantation(ctx context.Context, plantation *models.Plantation) error {
	return s.update(ctx, plantation, plantation.ID, "plantation", plantationColumns)
}

// DeletePlantation removes a plantation with its operations, lots and the
// sales drawn on those lots.
func (s *Store) DeletePlantation(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lots := tx.Model(&models.Production{}).Select("id").Where("plantation_id = ?", id)
		if err := tx.Where("production_id IN (?)", lots).Delete(&models.Vente{}).Error; err != nil {
			return fmt.Errorf("delete plantation %d sales: %w", id, err)
		}
		if err := tx.Where("plantation_id = ?", id).Delete(&models.Production{}).Error; err != nil {
			return fmt.Errorf("delete plantation %d productions: %w", id, err)
		}
		if err := tx.Where("plantation_id = ?", id).Delete(&models.Operation{}).Error; err != nil {
			return fmt.Errorf("delete plantation %d operations: %w", id, err)
		}
		return deleteByID(tx, &models.Plantation{}, id, "plantation")
	})
}

// CreateOperation inserts an operation without touching the preloaded
// plantation. Callers check that the plantation exists.
func (s *Store) CreateOperation(ctx context.Context, operation *models.Operation) error {
	return translate(s.db.WithContext(ctx).Omit(clause.Associations).Create(operation).Error, "operation", operation.ID)
}

// GetOperation loads one operation with its plantation.
func (s *Store) GetOperation(ctx context.Context, id uint) (*models.Operation, error) {
	var operation models.Operation
	if err := s.db.WithContext(ctx).Preload("Plantation").First(&operation, id).Error; err != nil {
		return nil, translate(err, "operation", id)
	}
	return &operation, nil
}

// ListOperations returns operations newest first.
func (s *Store) ListOperations(ctx context.Context, filter models.OperationFilter) ([]models.Operation, error) {
	query := s.db.WithContext(ctx).Preload("Plantation").Order("date DESC, id DESC")
	if filter.PlantationID != 0 {
		query = query.Where("plantation_id = ?", filter.PlantationID)
	}
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	if filter.Year != 0 {
		query = query.Where("date >= ? AND date < ?",
			models.NewDate(filter.Year, 1, 1), models.NewDate(filter.Year+1, 1, 1))
	}

	var operations []models.Operation
	if err := query.Find(&operations).Error; err != nil {
		return nil, fmt.Errorf("list operations: %w", err)
	}
	return operations, nil
}

// UpdateOperation rewrites every editable column, zero values included.
func (s *Store) UpdateOperation(ctx context.Context, operation *models.Operation) error {
	return s.update(ctx, operation, operation.ID, "operation", operationColumns)
}

// DeleteOperation returns models.ErrNotFound when no row was removed.
func (s *Store) DeleteOperation(ctx context.Context, id uint) error {
	return deleteByID(s.db.WithContext(ctx), &models.Operation{}, id, "operation")
}

// CreateProduction inserts a new lot. The caller sets AvailableStock.
func (s *Store) CreateProduction(ctx context.Context, production *models.Production) error {
	return translate(s.db.WithContext(ctx).Omit(clause.Associations).Create(production).Error, "production", production.ID)
}

// GetProduction loads one lot with its plantation.
func (s *Store) GetProduction(ctx context.Context, id uint) (*models.Production, error) {
	var production models.Production
	if err := s.db.WithContext(ctx).Preload("Plantation").First(&production, id).Error; err != nil {
		return nil, translate(err, "production", id)
	}
	return &production, nil
}

// ListProductions returns lots newest harvest first.
func (s *Store) ListProductions(ctx context.Context, filter models.ProductionFilter) ([]models.Production, error) {
	query := s.db.WithContext(ctx).Preload("Plantation").Order("harvest_date DESC, id DESC")
	if filter.PlantationID != 0 {
		query = query.Where("plantation_id = ?", filter.PlantationID)
	}
	if filter.Quality != "" {
		query = query.Where("quality = ?", filter.Quality)
	}

	var productions []models.Production
	if err := query.Find(&productions).Error; err != nil {
		return nil, fmt.Errorf("list productions: %w", err)
	}
	return productions, nil
}

// UpdateProductionDetails rewrites the descriptive columns of a lot. Weight
// and stock columns are never touched here.
func (s *Store) UpdateProductionDetails(ctx context.Context, production *models.Production) error {
	return s.update(ctx, production, production.ID, "production", productionColumns)
}

// DeleteProduction removes a lot and the sales drawn on it.
func (s *Store) DeleteProduction(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("production_id = ?", id).Delete(&models.Vente{}).Error; err != nil {
			return fmt.Errorf("delete production %d sales: %w", id, err)
		}
		return deleteByID(tx, &models.Production{}, id, "production")
	})
}

// GetVente loads one sale with its lot and the lot's plantation.
func (s *Store) GetVente(ctx context.Context, id uint) (*models.Vente, error) {
	var vente models.Vente
	if err := s.db.WithContext(ctx).Preload("Production.Plantation").First(&vente, id).Error; err != nil {
		return nil, translate(err, "vente", id)
	}
	return &vente, nil
}

// ListVentes returns sales newest first.
func (s *Store) ListVentes(ctx context.Context, filter models.VenteFilter) ([]models.Vente, error) {
	query := s.db.WithContext(ctx).Preload("Production.Plantation").Order("ventes.sale_date DESC, ventes.id DESC")
	if filter.ProductionID != 0 {
		query = query.Where("ventes.production_id = ?", filter.ProductionID)
	}
	if filter.PlantationID != 0 {
		query = query.Where("ventes.production_id IN (?)",
			s.db.Model(&models.Production{}).Select("id").Where("plantation_id = ?", filter.PlantationID))
	}
	if filter.Client != "" {
		query = query.Where("ventes.client = ?", filter.Client)
	}
	if !filter.From.IsZero() {
		query = query.Where("ventes.sale_date >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		query = query.Where("ventes.sale_date <= ?", filter.To)
	}

	var ventes []models.Vente
	if err := query.Find(&ventes).Error; err != nil {
		return nil, fmt.Errorf("list ventes: %w", err)
	}
	return ventes, nil
}

func (s *Store) CreateCashMovement(ctx context.Context, movement *models.MouvementCaisse) error {
	return translate(s.db.WithContext(ctx).Create(movement).Error, "cash movement", movement.ID)
}

func (s *Store) GetCashMovement(ctx context.Context, id uint) (*models.MouvementCaisse, error) {
	var movement models.MouvementCaisse
	if err := s.db.WithContext(ctx).First(&movement, id).Error; err != nil {
		return nil, translate(err, "cash movement", id)
	}
	return &movement, nil
}

// ListCashMovements returns cash book lines newest first.
func (s *Store) ListCashMovements(ctx context.Context, filter models.CashFilter) ([]models.MouvementCaisse, error) {
	query := s.db.WithContext(ctx).Order("date DESC, id DESC")
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	if !filter.From.IsZero() {
		query = query.Where("date >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		query = query.Where("date <= ?", filter.To)
	}

	var movements []models.MouvementCaisse
	if err := query.Find(&movements).Error; err != nil {
		return nil, fmt.Errorf("list cash movements: %w", err)
	}
	return movements, nil
}

// UpdateCashMovement rewrites every editable column, zero values included.
func (s *Store) UpdateCashMovement(ctx context.Context, movement *models.MouvementCaisse) error {
	return s.update(ctx, movement, movement.ID, "cash movement", cashColumns)
}

func (s *Store) DeleteCashMovement(ctx context.Context, id uint) error {
	return deleteByID(s.db.WithContext(ctx), &models.MouvementCaisse{}, id, "cash movement")
}

// Reset empties every table, children first.
func (s *Store) Reset(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&models.Vente{}, &models.Production{}, &models.Operation{}, &models.Plantation{}, &models.MouvementCaisse{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return fmt.Errorf("reset %T: %w", model, err)
			}
		}
		return nil
	})
}

func (s *Store) update(ctx context.Context, model any, id uint, what string, columns []string) error {
	result := s.db.WithContext(ctx).Model(model).Select(columns).Omit(clause.Associations).Updates(model)
	if result.Error != nil {
		return translate(result.Error, what, id)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%s %d: %w", what, id, models.ErrNotFound)
	}
	return nil
}

func deleteByID(tx *gorm.DB, model any, id uint, what string) error {
	result := tx.Delete(model, id)
	if result.Error != nil {
		return translate(result.Error, what, id)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%s %d: %w", what, id, models.ErrNotFound)
	}
	return nil
}
