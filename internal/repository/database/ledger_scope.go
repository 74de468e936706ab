package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mamadbah2/palmier/internal/domain/models"
	"github.com/mamadbah2/palmier/internal/service/ledger"
)

// Execute runs fn inside one database transaction. It rolls back when fn
// returns an error.
func (s *Store) Execute(ctx context.Context, fn func(repos ledger.Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ledgerRepositories{tx: tx})
	})
}

// ledgerRepositories is bound to one transaction. Reads take row locks
// (SELECT ... FOR UPDATE) so concurrent sales on a lot serialize.
type ledgerRepositories struct {
	tx *gorm.DB
}

func (r *ledgerRepositories) locked(ctx context.Context) *gorm.DB {
	return r.tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"})
}

func (r *ledgerRepositories) LockVente(ctx context.Context, id uint) (*models.Vente, error) {
	var vente models.Vente
	if err := r.locked(ctx).First(&vente, id).Error; err != nil {
		return nil, translate(err, "vente", id)
	}
	return &vente, nil
}

func (r *ledgerRepositories) LockProduction(ctx context.Context, id uint) (*models.Production, error) {
	var production models.Production
	if err := r.locked(ctx).First(&production, id).Error; err != nil {
		return nil, translate(err, "production", id)
	}
	return &production, nil
}

func (r *ledgerRepositories) InsertVente(ctx context.Context, vente *models.Vente) error {
	if err := r.tx.WithContext(ctx).Omit(clause.Associations).Create(vente).Error; err != nil {
		return translate(err, "vente", vente.ID)
	}
	return nil
}

func (r *ledgerRepositories) SaveVente(ctx context.Context, vente *models.Vente) error {
	result := r.tx.WithContext(ctx).Model(vente).
		Select("production_id", "sale_date", "client", "quantity", "unit_price", "total_amount").
		Omit(clause.Associations).
		Updates(vente)
	if result.Error != nil {
		return translate(result.Error, "vente", vente.ID)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("vente %d: %w", vente.ID, models.ErrNotFound)
	}
	return nil
}

func (r *ledgerRepositories) RemoveVente(ctx context.Context, id uint) error {
	return deleteByID(r.tx.WithContext(ctx), &models.Vente{}, id, "vente")
}

// SaveStock persists the available stock of a lot after checking its bounds.
func (r *ledgerRepositories) SaveStock(ctx context.Context, production *models.Production) error {
	if err := production.CheckStock(); err != nil {
		return err
	}
	result := r.tx.WithContext(ctx).Model(&models.Production{}).
		Where("id = ?", production.ID).
		Update("available_stock", production.AvailableStock)
	if result.Error != nil {
		return translate(result.Error, "production", production.ID)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("production %d: %w", production.ID, models.ErrNotFound)
	}
	return nil
}

var _ ledger.TransactionScope = (*Store)(nil)
