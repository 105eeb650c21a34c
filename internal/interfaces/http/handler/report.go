package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/chansync/backend/internal/domain/channel"
	"github.com/chansync/backend/internal/domain/report"
	"github.com/chansync/backend/internal/interfaces/http/dto"
)

// ErrorReportHandler exposes the error report inspection surface
type ErrorReportHandler struct {
	BaseHandler
	reports report.Repository
}

// NewErrorReportHandler creates a new ErrorReportHandler
func NewErrorReportHandler(reports report.Repository) *ErrorReportHandler {
	return &ErrorReportHandler{reports: reports}
}

// RegisterRoutes registers error report routes
func (h *ErrorReportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/error-reports", h.List)
}

// List returns error reports, newest first, filterable by channel, content
// type and resolution state
func (h *ErrorReportHandler) List(c *gin.Context) {
	var req dto.ListErrorReportsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.Normalize()

	filter := report.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		IsOK:     req.IsOK,
	}
	if req.ChannelID != "" {
		channelID, err := uuid.Parse(req.ChannelID)
		if err != nil {
			h.BadRequest(c, "Invalid channel ID")
			return
		}
		filter.ChannelID = &channelID
	}
	if req.ContentType != "" {
		contentType := channel.ContentType(req.ContentType)
		filter.ContentType = &contentType
	}

	items, total, err := h.reports.FindAll(c.Request.Context(), filter)
	if err != nil {
		h.Internal(c, "Failed to list error reports")
		return
	}

	responses := make([]dto.ErrorReportResponse, 0, len(items))
	for i := range items {
		responses = append(responses, dto.NewErrorReportResponse(&items[i]))
	}
	h.SuccessWithMeta(c, responses, total, req.Page, req.PageSize)
}
