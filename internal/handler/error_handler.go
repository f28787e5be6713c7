package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"project-field-api/internal/engine"
	"project-field-api/internal/response"
)

// Error codes produced by the definition engine, surfaced alongside the
// shared response codes
const (
	ErrCodeInvalidDefinition = "INVALID_DEFINITION"
	ErrCodeDependencyCycle   = "DEPENDENCY_CYCLE"
)

// handleServiceError maps service layer errors to appropriate HTTP responses
func handleServiceError(c *gin.Context, err error) {
	var defErr *engine.DefinitionError
	if errors.As(err, &defErr) {
		status := http.StatusBadRequest
		if defErr.Reason == engine.ReasonDuplicateAPIName {
			status = http.StatusConflict
		}
		response.SendError(c, status, ErrCodeInvalidDefinition, defErr.Error())
		return
	}

	var cycleErr *engine.CycleError
	if errors.As(err, &cycleErr) {
		response.SendError(c, http.StatusUnprocessableEntity, ErrCodeDependencyCycle, cycleErr.Error())
		return
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		response.SendError(c, http.StatusNotFound, response.ErrCodeNotFound, "Resource not found")
		return
	}

	var appErr *response.AppError
	if errors.As(err, &appErr) {
		response.SendError(c, mapErrorCodeToHTTPStatus(appErr.Code), appErr.Code, appErr.Message)
		return
	}

	response.SendError(c, http.StatusInternalServerError, response.ErrCodeInternal, "Internal server error")
}

// mapErrorCodeToHTTPStatus maps error codes to HTTP status codes
func mapErrorCodeToHTTPStatus(code string) int {
	switch code {
	case response.ErrCodeNotFound:
		return http.StatusNotFound
	case response.ErrCodeAlreadyExists:
		return http.StatusConflict
	case response.ErrCodeValidation:
		return http.StatusBadRequest
	case response.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case response.ErrCodeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
