package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"project-field-api/internal/dto"
	"project-field-api/internal/response"
	"project-field-api/internal/service"
)

type UsageHandler struct {
	usageService service.UsageService
}

func NewUsageHandler(usageService service.UsageService) *UsageHandler {
	return &UsageHandler{
		usageService: usageService,
	}
}

// RecordEvent godoc
// @Summary      Record a field usage event
// @Description  Records one reference of a field from a screen, report or automation. The summary job folds events into per-field aggregates.
// @Tags         usage
// @Accept       json
// @Produce      json
// @Param        request body dto.RecordUsageEventRequest true "Usage event"
// @Success      201 {object} response.SuccessResponse "Event recorded"
// @Failure      400 {object} response.ErrorResponse "Invalid request"
// @Failure      404 {object} response.ErrorResponse "Field not found"
// @Failure      500 {object} response.ErrorResponse "Server error"
// @Security     BearerAuth
// @Router       /usage/events [post]
func (h *UsageHandler) RecordEvent(c *gin.Context) {
	var req dto.RecordUsageEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
		return
	}

	if err := h.usageService.RecordEvent(c.Request.Context(), &req); err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusCreated, map[string]string{"message": "Usage event recorded"})
}

// GetUsageReport godoc
// @Summary      Get usage metrics for a project's fields
// @Description  Returns per-field usage metrics from the aggregated summary. Falls back to contexts-derived metrics, marked isFallback, when no summary is available.
// @Tags         usage
// @Produce      json
// @Param        projectId path string true "Project ID (UUID)"
// @Success      200 {object} response.SuccessResponse{data=dto.UsageReportResponse} "Usage report"
// @Failure      400 {object} response.ErrorResponse "Invalid project ID"
// @Failure      500 {object} response.ErrorResponse "Server error"
// @Security     BearerAuth
// @Router       /projects/{projectId}/usage [get]
func (h *UsageHandler) GetUsageReport(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("projectId"))
	if err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid project ID")
		return
	}

	report, err := h.usageService.GetUsageReport(c.Request.Context(), projectID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, report)
}

// ExportUsageCSV godoc
// @Summary      Export a project's usage report as CSV
// @Description  Renders the current usage report as CSV, uploads it to object storage and returns the download URL.
// @Tags         usage
// @Produce      json
// @Param        projectId path string true "Project ID (UUID)"
// @Success      200 {object} response.SuccessResponse "Download URL"
// @Failure      400 {object} response.ErrorResponse "Invalid project ID"
// @Failure      500 {object} response.ErrorResponse "Server error"
// @Security     BearerAuth
// @Router       /projects/{projectId}/usage/export [post]
func (h *UsageHandler) ExportUsageCSV(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("projectId"))
	if err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid project ID")
		return
	}

	url, err := h.usageService.ExportUsageCSV(c.Request.Context(), projectID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, map[string]string{"url": url})
}
