package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/palmier/internal/domain/models"
)

// CashHandler serves /api/cash-movements.
type CashHandler struct {
	records Records
	reports Reports
	logger  *zap.Logger
}

func NewCashHandler(records Records, reports Reports, logger *zap.Logger) *CashHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CashHandler{records: records, reports: reports, logger: logger}
}

func (h *CashHandler) List(c *gin.Context) {
	kind := models.CashKind(c.Query("kind"))
	if kind != "" && !kind.Valid() {
		respondError(c, h.logger, models.NewValidationError("kind", "must be entry or exit"))
		return
	}
	from, err := queryDate(c, "from")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	to, err := queryDate(c, "to")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	movements, err := h.records.ListCashMovements(c.Request.Context(), models.CashFilter{Kind: kind, From: from, To: to})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, movements)
}

func (h *CashHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	movement, err := h.records.GetCashMovement(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, movement)
}

func (h *CashHandler) Create(c *gin.Context) {
	var movement models.MouvementCaisse
	if err := bindJSON(c, &movement); err != nil {
		respondError(c, h.logger, err)
		return
	}
	if err := h.records.CreateCashMovement(c.Request.Context(), &movement); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, movement)
}

func (h *CashHandler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	var movement models.MouvementCaisse
	if err := bindJSON(c, &movement); err != nil {
		respondError(c, h.logger, err)
		return
	}
	movement.ID = id
	if err := h.records.UpdateCashMovement(c.Request.Context(), &movement); err != nil {
		respondError(c, h.logger, err)
		return
	}
	updated, err := h.records.GetCashMovement(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *CashHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if err := h.records.DeleteCashMovement(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Balance sums entries and exits between ?from and ?to, both optional.
func (h *CashHandler) Balance(c *gin.Context) {
	from, err := queryDate(c, "from")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	to, err := queryDate(c, "to")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	balance, err := h.reports.CashBalance(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, balance)
}
