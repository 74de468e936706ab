package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/palmier/internal/domain/models"
)

// OperationHandler serves /api/operations.
type OperationHandler struct {
	records Records
	reports Reports
	logger  *zap.Logger
}

func NewOperationHandler(records Records, reports Reports, logger *zap.Logger) *OperationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OperationHandler{records: records, reports: reports, logger: logger}
}

// List accepts plantation, kind and year filters.
func (h *OperationHandler) List(c *gin.Context) {
	plantationID, err := queryID(c, "plantation")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	year, err := queryInt(c, "year", 0)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	kind := models.OperationKind(c.Query("kind"))
	if kind != "" && !kind.Valid() {
		respondError(c, h.logger, models.NewValidationError("kind", "unknown operation kind"))
		return
	}

	operations, err := h.records.ListOperations(c.Request.Context(), models.OperationFilter{
		PlantationID: plantationID,
		Kind:         kind,
		Year:         year,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, operations)
}

func (h *OperationHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	operation, err := h.records.GetOperation(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, operation)
}

func (h *OperationHandler) Create(c *gin.Context) {
	var operation models.Operation
	if err := bindJSON(c, &operation); err != nil {
		respondError(c, h.logger, err)
		return
	}
	if err := h.records.CreateOperation(c.Request.Context(), &operation); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, operation)
}

func (h *OperationHandler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	var operation models.Operation
	if err := bindJSON(c, &operation); err != nil {
		respondError(c, h.logger, err)
		return
	}
	operation.ID = id
	if err := h.records.UpdateOperation(c.Request.Context(), &operation); err != nil {
		respondError(c, h.logger, err)
		return
	}
	updated, err := h.records.GetOperation(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *OperationHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if err := h.records.DeleteOperation(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MonthlyStats sums costs per month and kind; year=0 covers every year.
func (h *OperationHandler) MonthlyStats(c *gin.Context) {
	year, err := queryInt(c, "year", 0)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	stats, err := h.reports.OperationMonthlyStats(c.Request.Context(), year)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
