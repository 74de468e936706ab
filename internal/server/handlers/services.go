package handlers

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/palmier/internal/domain/models"
)

// Records is the CRUD surface served by the API.
type Records interface {
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
	UpdateProduction(ctx context.Context, production *models.Production) (*models.Production, error)
	DeleteProduction(ctx context.Context, id uint) error

	GetVente(ctx context.Context, id uint) (*models.Vente, error)
	ListVentes(ctx context.Context, filter models.VenteFilter) ([]models.Vente, error)

	CreateCashMovement(ctx context.Context, movement *models.MouvementCaisse) error
	GetCashMovement(ctx context.Context, id uint) (*models.MouvementCaisse, error)
	ListCashMovements(ctx context.Context, filter models.CashFilter) ([]models.MouvementCaisse, error)
	UpdateCashMovement(ctx context.Context, movement *models.MouvementCaisse) error
	DeleteCashMovement(ctx context.Context, id uint) error
}

// Sales writes sales through the stock ledger.
type Sales interface {
	CreateSale(ctx context.Context, input models.SaleInput) (*models.Vente, error)
	UpdateSale(ctx context.Context, id uint, update models.SaleUpdate) (*models.Vente, error)
	DeleteSale(ctx context.Context, id uint) error
}

// Reports is the read-only aggregate surface.
type Reports interface {
	PlantationStats(ctx context.Context, id uint) (*models.PlantationStats, error)
	OperationMonthlyStats(ctx context.Context, year int) ([]models.MonthlyCost, error)
	ProductionStats(ctx context.Context) (*models.ProductionStats, error)
	StockAlerts(ctx context.Context, threshold decimal.Decimal) ([]models.StockAlert, error)
	SalesStats(ctx context.Context, top int) (*models.SalesStats, error)
	CashBalance(ctx context.Context, from, to models.Date) (*models.CashBalance, error)
	WeeklyReport(ctx context.Context) (*models.WeeklyReport, error)
}

// ReportArchive lists archived weekly reports.
type ReportArchive interface {
	LatestWeeklyReports(ctx context.Context, limit int64) ([]models.WeeklyReport, error)
}
