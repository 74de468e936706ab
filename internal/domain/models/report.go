package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WeeklyReport is the snapshot archived in MongoDB every week.
type WeeklyReport struct {
	PeriodStart     time.Time `bson:"period_start" json:"period_start"`
	PeriodEnd       time.Time `bson:"period_end" json:"period_end"`
	HarvestCount    int       `bson:"harvest_count" json:"harvest_count"`
	HarvestedWeight string    `bson:"harvested_weight" json:"harvested_weight"`
	SaleCount       int       `bson:"sale_count" json:"sale_count"`
	SoldQuantity    string    `bson:"sold_quantity" json:"sold_quantity"`
	Revenue         string    `bson:"revenue" json:"revenue"`
	OperationCost   string    `bson:"operation_cost" json:"operation_cost"`
	CashIn          string    `bson:"cash_in" json:"cash_in"`
	CashOut         string    `bson:"cash_out" json:"cash_out"`
	AvailableStock  string    `bson:"available_stock" json:"available_stock"`
	LowStockLots    int       `bson:"low_stock_lots" json:"low_stock_lots"`
	Summary         string    `bson:"summary" json:"summary"`
	CreatedAt       time.Time `bson:"created_at" json:"created_at"`
}

// PlantationStats aggregates everything recorded on one plantation.
type PlantationStats struct {
	PlantationID         uint            `json:"plantation_id"`
	Name                 string          `json:"name"`
	OperationCount       int             `json:"operation_count"`
	TotalOperationCost   decimal.Decimal `json:"total_operation_cost"`
	ProductionCount      int             `json:"production_count"`
	TotalHarvestedWeight decimal.Decimal `json:"total_harvested_weight"`
	AverageYieldPerTree  decimal.Decimal `json:"average_yield_per_tree"`
	Revenue              decimal.Decimal `json:"revenue"`
	ProductionsByQuality map[Quality]int `json:"productions_by_quality"`
}

// MonthlyCost is one (month, kind) bucket of operation costs.
type MonthlyCost struct {
	Year      int             `json:"year"`
	Month     time.Month      `json:"month"`
	Kind      OperationKind   `json:"kind"`
	TotalCost decimal.Decimal `json:"total_cost"`
	Count     int             `json:"count"`
}

// QualityBreakdown groups lots of one grade.
type QualityBreakdown struct {
	Quality        Quality         `json:"quality"`
	Label          string          `json:"label"`
	Count          int             `json:"count"`
	AvailableStock decimal.Decimal `json:"available_stock"`
}

// MonthlyHarvest is one month of harvest activity.
type MonthlyHarvest struct {
	Year           int             `json:"year"`
	Month          time.Month      `json:"month"`
	TotalWeight    decimal.Decimal `json:"total_weight"`
	AvailableStock decimal.Decimal `json:"available_stock"`
	HarvestCount   int             `json:"harvest_count"`
}

// ProductionStats aggregates all harvest lots.
type ProductionStats struct {
	ProductionCount     int                `json:"production_count"`
	TotalWeight         decimal.Decimal    `json:"total_weight"`
	TotalBunches        int                `json:"total_bunches"`
	TotalAvailableStock decimal.Decimal    `json:"total_available_stock"`
	AverageWeight       decimal.Decimal    `json:"average_weight"`
	ByQuality           []QualityBreakdown `json:"by_quality"`
	Monthly             []MonthlyHarvest   `json:"monthly"`
	LowStockProductions []ProductionView   `json:"low_stock_productions"`
}

// StockAlert flags a lot that is running low but not yet depleted.
type StockAlert struct {
	ProductionID    uint            `json:"production_id"`
	PlantationName  string          `json:"plantation_name"`
	HarvestDate     Date            `json:"harvest_date"`
	Quality         Quality         `json:"quality"`
	TotalWeight     decimal.Decimal `json:"total_weight"`
	AvailableStock  decimal.Decimal `json:"available_stock"`
	StockPercentage decimal.Decimal `json:"stock_percentage"`
}

// MonthlySales is one month of sales.
type MonthlySales struct {
	Year     int             `json:"year"`
	Month    time.Month      `json:"month"`
	Revenue  decimal.Decimal `json:"revenue"`
	Quantity decimal.Decimal `json:"quantity"`
	Count    int             `json:"count"`
}

// ClientTotal ranks a buyer by purchase amount.
type ClientTotal struct {
	Client        string          `json:"client"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	PurchaseCount int             `json:"purchase_count"`
}

// PlantationStock is the stock held by one plantation's lots.
type PlantationStock struct {
	PlantationID           uint            `json:"plantation_id"`
	PlantationName         string          `json:"plantation_name"`
	AvailableStock         decimal.Decimal `json:"available_stock"`
	TotalWeight            decimal.Decimal `json:"total_weight"`
	AverageStockPercentage decimal.Decimal `json:"average_stock_percentage"`
}

// SalesStats aggregates all sales.
type SalesStats struct {
	SaleCount         int               `json:"sale_count"`
	Revenue           decimal.Decimal   `json:"revenue"`
	TotalQuantity     decimal.Decimal   `json:"total_quantity"`
	AveragePricePerKg decimal.Decimal   `json:"average_price_per_kg"`
	Monthly           []MonthlySales    `json:"monthly"`
	TopClients        []ClientTotal     `json:"top_clients"`
	StockByPlantation []PlantationStock `json:"stock_by_plantation"`
}

// MonthlyCash is one (month, kind) bucket of the cash book.
type MonthlyCash struct {
	Year   int             `json:"year"`
	Month  time.Month      `json:"month"`
	Kind   CashKind        `json:"kind"`
	Amount decimal.Decimal `json:"amount"`
	Count  int             `json:"count"`
}

// CashBalance summarises the cash book over a period.
type CashBalance struct {
	From         Date            `json:"from"`
	To           Date            `json:"to"`
	TotalEntries decimal.Decimal `json:"total_entries"`
	TotalExits   decimal.Decimal `json:"total_exits"`
	Balance      decimal.Decimal `json:"balance"`
	Monthly      []MonthlyCash   `json:"monthly"`
}
