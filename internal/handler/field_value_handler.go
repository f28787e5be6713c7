package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"project-field-api/internal/dto"
	"project-field-api/internal/response"
	"project-field-api/internal/service"
)

type FieldValueHandler struct {
	valueService service.FieldValueService
}

func NewFieldValueHandler(valueService service.FieldValueService) *FieldValueHandler {
	return &FieldValueHandler{
		valueService: valueService,
	}
}

// CreateBoard godoc
// @Summary      Create a board
// @Description  Creates a board with default values resolved for every writable field the creator did not set explicitly.
// @Tags         boards
// @Accept       json
// @Produce      json
// @Param        projectId path string true "Project ID (UUID)"
// @Param        request body dto.CreateBoardRequest true "Board"
// @Success      201 {object} response.SuccessResponse{data=dto.BoardResponse} "Board created"
// @Failure      400 {object} response.ErrorResponse "Invalid request"
// @Failure      401 {object} response.ErrorResponse "Unauthorized"
// @Failure      500 {object} response.ErrorResponse "Server error"
// @Security     BearerAuth
// @Router       /projects/{projectId}/boards [post]
func (h *FieldValueHandler) CreateBoard(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("projectId"))
	if err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid project ID")
		return
	}

	auth, ok := ExtractAuthData(c)
	if !ok {
		return
	}

	var req dto.CreateBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
		return
	}

	board, err := h.valueService.CreateBoard(c.Request.Context(), projectID, auth.UserID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusCreated, board)
}

// GetBoardValues godoc
// @Summary      Get the evaluated field values of a board
// @Description  Returns stored values together with formula, rollup and mirror results, per-field visibility, stale derived fields and evaluation diagnostics.
// @Tags         boards
// @Produce      json
// @Param        boardId path string true "Board ID (UUID)"
// @Success      200 {object} response.SuccessResponse{data=dto.BoardFieldValuesResponse} "Field values"
// @Failure      400 {object} response.ErrorResponse "Invalid board ID"
// @Failure      404 {object} response.ErrorResponse "Board not found"
// @Failure      500 {object} response.ErrorResponse "Server error"
// @Security     BearerAuth
// @Router       /boards/{boardId}/values [get]
func (h *FieldValueHandler) GetBoardValues(c *gin.Context) {
	boardID, err := uuid.Parse(c.Param("boardId"))
	if err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid board ID")
		return
	}

	values, err := h.valueService.GetBoardValues(c.Request.Context(), boardID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, values)
}

// SetBoardValues godoc
// @Summary      Write field values on a board
// @Description  Writes custom field values. Derived fields are read-only, select values must name a configured option, and a null value clears the field.
// @Tags         boards
// @Accept       json
// @Produce      json
// @Param        boardId path string true "Board ID (UUID)"
// @Param        request body dto.SetFieldValuesRequest true "Values keyed by field ID"
// @Success      200 {object} response.SuccessResponse{data=dto.BoardFieldValuesResponse} "Updated field values"
// @Failure      400 {object} response.ErrorResponse "Invalid write"
// @Failure      404 {object} response.ErrorResponse "Board not found"
// @Failure      500 {object} response.ErrorResponse "Server error"
// @Security     BearerAuth
// @Router       /boards/{boardId}/values [put]
func (h *FieldValueHandler) SetBoardValues(c *gin.Context) {
	boardID, err := uuid.Parse(c.Param("boardId"))
	if err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid board ID")
		return
	}

	var req dto.SetFieldValuesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
		return
	}

	values, err := h.valueService.SetBoardValues(c.Request.Context(), boardID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, values)
}

// RefreshBoard godoc
// @Summary      Recompute and persist the derived values of a board
// @Tags         boards
// @Produce      json
// @Param        boardId path string true "Board ID (UUID)"
// @Success      200 {object} response.SuccessResponse{data=dto.BoardFieldValuesResponse} "Recomputed field values"
// @Failure      400 {object} response.ErrorResponse "Invalid board ID"
// @Failure      404 {object} response.ErrorResponse "Board not found"
// @Failure      500 {object} response.ErrorResponse "Server error"
// @Security     BearerAuth
// @Router       /boards/{boardId}/refresh [post]
func (h *FieldValueHandler) RefreshBoard(c *gin.Context) {
	boardID, err := uuid.Parse(c.Param("boardId"))
	if err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid board ID")
		return
	}

	values, err := h.valueService.RefreshBoard(c.Request.Context(), boardID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, values)
}
