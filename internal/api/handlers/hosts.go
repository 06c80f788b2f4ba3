package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HostHandler serves host status and the pending report
type HostHandler struct {
	tracker Tracker
	logger  *zap.Logger
}

// NewHostHandler creates a new host handler
func NewHostHandler(t Tracker, logger *zap.Logger) *HostHandler {
	return &HostHandler{
		tracker: t,
		logger:  logger,
	}
}

// ListHosts returns the status of every host ordered by common name
// GET /v1/hosts
func (h *HostHandler) ListHosts(c *gin.Context) {
	statuses, err := h.tracker.Status(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to evaluate hosts", zap.Error(err))
		RespondServiceError(c, err)
		return
	}

	RespondSuccess(c, gin.H{"hosts": statuses})
}

// GetHost returns the status of one host
// GET /v1/hosts/:common_name
func (h *HostHandler) GetHost(c *gin.Context) {
	status, err := h.tracker.HostStatus(c.Request.Context(), c.Param("common_name"))
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	RespondSuccess(c, status)
}

// GetReport returns what the next notification would contain, without sending it
// GET /v1/report
func (h *HostHandler) GetReport(c *gin.Context) {
	report, err := h.tracker.Scan(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to build report", zap.Error(err))
		RespondServiceError(c, err)
		return
	}

	RespondSuccess(c, report)
}
