package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/palmier/internal/domain/models"
)

const maxHistory = 52

// ReportHandler serves /api/reports.
type ReportHandler struct {
	reports Reports
	archive ReportArchive
	logger  *zap.Logger
}

// NewReportHandler constructs the report endpoints. archive may be nil when
// no report store is configured.
func NewReportHandler(reports Reports, archive ReportArchive, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{reports: reports, archive: archive, logger: logger}
}

// Weekly builds the report of the seven days ending today.
func (h *ReportHandler) Weekly(c *gin.Context) {
	report, err := h.reports.WeeklyReport(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// History lists archived weekly reports, newest first.
func (h *ReportHandler) History(c *gin.Context) {
	if h.archive == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "report archive is not configured"})
		return
	}
	limit, err := queryInt(c, "limit", 10)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if limit <= 0 || limit > maxHistory {
		respondError(c, h.logger, models.NewValidationError("limit", "must be between 1 and 52"))
		return
	}

	reports, err := h.archive.LatestWeeklyReports(c.Request.Context(), int64(limit))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if reports == nil {
		reports = []models.WeeklyReport{}
	}
	c.JSON(http.StatusOK, reports)
}
