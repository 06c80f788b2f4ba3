package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/adamscao/certwatch/internal/tracker"
)

// RecordHandler accepts issuance reports from agents
type RecordHandler struct {
	tracker Tracker
	logger  *zap.Logger
}

// NewRecordHandler creates a new record handler
func NewRecordHandler(t Tracker, logger *zap.Logger) *RecordHandler {
	return &RecordHandler{
		tracker: t,
		logger:  logger,
	}
}

// IngestResponse represents a successful ingestion
type IngestResponse struct {
	Status   string `json:"status"`
	RecordID int64  `json:"record_id"`
}

// CreateRecord handles an issuance report
// POST /v1/records
func (h *RecordHandler) CreateRecord(c *gin.Context) {
	var req tracker.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, CodeValidation, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	result, err := h.tracker.Ingest(c.Request.Context(), req)
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, IngestResponse{
		Status:   "ok",
		RecordID: result.RecordID,
	})
}
