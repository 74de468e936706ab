package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/palmier/internal/domain/models"
)

// PlantationHandler serves /api/plantations.
type PlantationHandler struct {
	records Records
	reports Reports
	logger  *zap.Logger
}

// NewPlantationHandler constructs the plantation endpoints.
func NewPlantationHandler(records Records, reports Reports, logger *zap.Logger) *PlantationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlantationHandler{records: records, reports: reports, logger: logger}
}

func (h *PlantationHandler) List(c *gin.Context) {
	plantations, err := h.records.ListPlantations(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, plantations)
}

func (h *PlantationHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	plantation, err := h.records.GetPlantation(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, plantation)
}

func (h *PlantationHandler) Create(c *gin.Context) {
	var plantation models.Plantation
	if err := bindJSON(c, &plantation); err != nil {
		respondError(c, h.logger, err)
		return
	}
	if err := h.records.CreatePlantation(c.Request.Context(), &plantation); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, plantation)
}

func (h *PlantationHandler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	var plantation models.Plantation
	if err := bindJSON(c, &plantation); err != nil {
		respondError(c, h.logger, err)
		return
	}
	plantation.ID = id
	if err := h.records.UpdatePlantation(c.Request.Context(), &plantation); err != nil {
		respondError(c, h.logger, err)
		return
	}
	updated, err := h.records.GetPlantation(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Delete removes the plantation with its operations, lots and sales.
func (h *PlantationHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if err := h.records.DeletePlantation(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PlantationHandler) Stats(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	stats, err := h.reports.PlantationStats(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
