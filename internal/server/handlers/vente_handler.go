package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/palmier/internal/domain/models"
)

// VenteHandler serves /api/ventes. Writes go through the stock ledger so the
// lot balance moves with every sale.
type VenteHandler struct {
	records Records
	sales   Sales
	reports Reports
	logger  *zap.Logger
}

func NewVenteHandler(records Records, sales Sales, reports Reports, logger *zap.Logger) *VenteHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VenteHandler{records: records, sales: sales, reports: reports, logger: logger}
}

// List accepts production, plantation, client, from and to filters.
func (h *VenteHandler) List(c *gin.Context) {
	filter, err := venteFilter(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	ventes, err := h.records.ListVentes(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	views := make([]models.VenteView, 0, len(ventes))
	for _, v := range ventes {
		views = append(views, models.NewVenteView(v))
	}
	c.JSON(http.StatusOK, views)
}

func venteFilter(c *gin.Context) (models.VenteFilter, error) {
	var filter models.VenteFilter
	var err error
	if filter.ProductionID, err = queryID(c, "production"); err != nil {
		return filter, err
	}
	if filter.PlantationID, err = queryID(c, "plantation"); err != nil {
		return filter, err
	}
	if filter.From, err = queryDate(c, "from"); err != nil {
		return filter, err
	}
	if filter.To, err = queryDate(c, "to"); err != nil {
		return filter, err
	}
	filter.Client = c.Query("client")
	return filter, nil
}

func (h *VenteHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.respondView(c, id, http.StatusOK)
}

func (h *VenteHandler) Create(c *gin.Context) {
	var input models.SaleInput
	if err := bindJSON(c, &input); err != nil {
		respondError(c, h.logger, err)
		return
	}
	vente, err := h.sales.CreateSale(c.Request.Context(), input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.respondView(c, vente.ID, http.StatusCreated)
}

// Replace handles PUT: every field is required.
func (h *VenteHandler) Replace(c *gin.Context) {
	var input models.SaleInput
	if err := bindJSON(c, &input); err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.update(c, input.Full())
}

// Patch handles PATCH: absent fields keep their stored value.
func (h *VenteHandler) Patch(c *gin.Context) {
	var update models.SaleUpdate
	if err := bindJSON(c, &update); err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.update(c, update)
}

func (h *VenteHandler) update(c *gin.Context, update models.SaleUpdate) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if _, err := h.sales.UpdateSale(c.Request.Context(), id, update); err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.respondView(c, id, http.StatusOK)
}

// Delete removes the sale and returns its quantity to the lot.
func (h *VenteHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if err := h.sales.DeleteSale(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Stats returns revenue, monthly sales and the ?top best clients.
func (h *VenteHandler) Stats(c *gin.Context) {
	top, err := queryInt(c, "top", 5)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	stats, err := h.reports.SalesStats(c.Request.Context(), top)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *VenteHandler) respondView(c *gin.Context, id uint, status int) {
	vente, err := h.records.GetVente(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(status, models.NewVenteView(*vente))
}
