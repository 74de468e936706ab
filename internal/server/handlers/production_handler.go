package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/palmier/internal/domain/models"
)

// ProductionHandler serves /api/productions. Lots are returned with their
// derived stock percentage and yield.
type ProductionHandler struct {
	records Records
	reports Reports
	logger  *zap.Logger
}

func NewProductionHandler(records Records, reports Reports, logger *zap.Logger) *ProductionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductionHandler{records: records, reports: reports, logger: logger}
}

func (h *ProductionHandler) List(c *gin.Context) {
	plantationID, err := queryID(c, "plantation")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	quality := models.Quality(c.Query("quality"))
	if quality != "" && !quality.Valid() {
		respondError(c, h.logger, models.NewValidationError("quality", "must be one of A, B, C, D"))
		return
	}

	productions, err := h.records.ListProductions(c.Request.Context(), models.ProductionFilter{
		PlantationID: plantationID,
		Quality:      quality,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	views := make([]models.ProductionView, 0, len(productions))
	for _, p := range productions {
		views = append(views, models.NewProductionView(p))
	}
	c.JSON(http.StatusOK, views)
}

func (h *ProductionHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.respondView(c, id, http.StatusOK)
}

// Create records a harvested lot; its available stock starts at the full weight.
func (h *ProductionHandler) Create(c *gin.Context) {
	var production models.Production
	if err := bindJSON(c, &production); err != nil {
		respondError(c, h.logger, err)
		return
	}
	if err := h.records.CreateProduction(c.Request.Context(), &production); err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.respondView(c, production.ID, http.StatusCreated)
}

func (h *ProductionHandler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	var production models.Production
	if err := bindJSON(c, &production); err != nil {
		respondError(c, h.logger, err)
		return
	}
	production.ID = id
	updated, err := h.records.UpdateProduction(c.Request.Context(), &production)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.NewProductionView(*updated))
}

// Delete removes the lot and every sale drawn on it.
func (h *ProductionHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if err := h.records.DeleteProduction(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ProductionHandler) Stats(c *gin.Context) {
	stats, err := h.reports.ProductionStats(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// StockAlerts lists lots under ?threshold percent of their harvest. Without
// a threshold the configured one applies.
func (h *ProductionHandler) StockAlerts(c *gin.Context) {
	threshold := decimal.Zero
	if raw := c.Query("threshold"); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil || !parsed.IsPositive() || parsed.GreaterThan(decimal.NewFromInt(100)) {
			respondError(c, h.logger, models.NewValidationError("threshold", "must be a percentage in (0, 100]"))
			return
		}
		threshold = parsed
	}
	alerts, err := h.reports.StockAlerts(c.Request.Context(), threshold)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, alerts)
}

func (h *ProductionHandler) respondView(c *gin.Context, id uint, status int) {
	production, err := h.records.GetProduction(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(status, models.NewProductionView(*production))
}
