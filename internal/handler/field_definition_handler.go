package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"project-field-api/internal/dto"
	"project-field-api/internal/response"
	"project-field-api/internal/service"
)

type FieldDefinitionHandler struct {
	definitionService service.FieldDefinitionService
}

func NewFieldDefinitionHandler(definitionService service.FieldDefinitionService) *FieldDefinitionHandler {
	return &FieldDefinitionHandler{
		definitionService: definitionService,
	}
}

// CreateDefinition godoc
// @Summary      Create a project field definition
// @Description  Creates a custom field definition scoped to a project. The definition is normalized and validated against every field the project can see.
// @Tags         field-definitions
// @Accept       json
// @Produce      json
// @Param        projectId path string true "Project ID (UUID)"
// @Param        request body dto.CreateFieldDefinitionRequest true "Field definition"
// @Success      201 {object} response.SuccessResponse{data=dto.FieldDefinitionResponse} "Definition created"
// @Failure      400 {object} response.ErrorResponse "Invalid definition"
// @Failure      409 {object} response.ErrorResponse "Duplicate api name"
// @Failure      422 {object} response.ErrorResponse "Dependency cycle"
// @Failure      500 {object} response.ErrorResponse "Server error"
// @Security     BearerAuth
// @Router       /projects/{projectId}/definitions [post]
func (h *FieldDefinitionHandler) CreateDefinition(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("projectId"))
	if err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid project ID")
		return
	}

	var req dto.CreateFieldDefinitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
		return
	}

	definition, err := h.definitionService.CreateDefinition(c.Request.Context(), &projectID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusCreated, definition)
}

// CreateGlobalDefinition godoc
// @Summary      Create a global field definition
// @Description  Creates a custom field definition visible to every project.
// @Tags         field-definitions
// @Accept       json
// @Produce      json
// @Param        request body dto.CreateFieldDefinitionRequest true "Field definition"
// @Success      201 {object} response.SuccessResponse{data=dto.FieldDefinitionResponse} "Definition created"
// @Failure      400 {object} response.ErrorResponse "Invalid definition"
// @Failure      409 {object} response.ErrorResponse "Duplicate api name"
// @Failure      500 {object} response.ErrorResponse "Server error"
// @Security     BearerAuth
// @Router       /definitions [post]
func (h *FieldDefinitionHandler) CreateGlobalDefinition(c *gin.Context) {
	var req dto.CreateFieldDefinitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
		return
	}

	definition, err := h.definitionService.CreateDefinition(c.Request.Context(), nil, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusCreated, definition)
}

// GetDefinitions godoc
// @Summary      List field definitions visible to a project
// @Description  Returns the project's own definitions plus every global definition, ordered by position.
// @Tags         field-definitions
// @Produce      json
// @Param        projectId path string true "Project ID (UUID)"
// @Success      200 {object} response.SuccessResponse{data=[]dto.FieldDefinitionResponse} "Definitions"
// @Failure      400 {object} response.ErrorResponse "Invalid project ID"
// @Failure      500 {object} response.ErrorResponse "Server error"
// @Security     BearerAuth
// @Router       /projects/{projectId}/definitions [get]
func (h *FieldDefinitionHandler) GetDefinitions(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("projectId"))
	if err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid project ID")
		return
	}

	definitions, err := h.definitionService.GetDefinitions(c.Request.Context(), projectID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, definitions)
}

// GetDefinition godoc
// @Summary      Get a field definition
// @Tags         field-definitions
// @Produce      json
// @Param        definitionId path string true "Definition ID (UUID)"
// @Success      200 {object} response.SuccessResponse{data=dto.FieldDefinitionResponse} "Definition"
// @Failure      400 {object} response.ErrorResponse "Invalid definition ID"
// @Failure      404 {object} response.ErrorResponse "Definition not found"
// @Failure      500 {object} response.ErrorResponse "Server error"
// @Security     BearerAuth
// @Router       /definitions/{definitionId} [get]
func (h *FieldDefinitionHandler) GetDefinition(c *gin.Context) {
	definitionID, err := uuid.Parse(c.Param("definitionId"))
	if err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid definition ID")
		return
	}

	definition, err := h.definitionService.GetDefinition(c.Request.Context(), definitionID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, definition)
}

// UpdateDefinition godoc
// @Summary      Update a field definition
// @Description  Applies a partial update and re-normalizes the definition against its visible set. A change to the field's value kind flags dependent derived fields for reconfirmation.
// @Tags         field-definitions
// @Accept       json
// @Produce      json
// @Param        definitionId path string true "Definition ID (UUID)"
// @Param        request body dto.UpdateFieldDefinitionRequest true "Fields to update"
// @Success      200 {object} response.SuccessResponse{data=dto.FieldDefinitionResponse} "Definition updated"
// @Failure      400 {object} response.ErrorResponse "Invalid definition"
// @Failure      404 {object} response.ErrorResponse "Definition not found"
// @Failure      422 {object} response.ErrorResponse "Dependency cycle"
// @Failure      500 {object} response.ErrorResponse "Server error"
// @Security     BearerAuth
// @Router       /definitions/{definitionId} [patch]
func (h *FieldDefinitionHandler) UpdateDefinition(c *gin.Context) {
	definitionID, err := uuid.Parse(c.Param("definitionId"))
	if err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid definition ID")
		return
	}

	var req dto.UpdateFieldDefinitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
		return
	}

	definition, err := h.definitionService.UpdateDefinition(c.Request.Context(), definitionID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, definition)
}

// DeleteDefinition godoc
// @Summary      Delete a field definition
// @Description  Deletes a definition. Rejected while derived fields still reference it as their source.
// @Tags         field-definitions
// @Produce      json
// @Param        definitionId path string true "Definition ID (UUID)"
// @Success      200 {object} response.SuccessResponse "Definition deleted"
// @Failure      400 {object} response.ErrorResponse "Definition still referenced"
// @Failure      404 {object} response.ErrorResponse "Definition not found"
// @Failure      500 {object} response.ErrorResponse "Server error"
// @Security     BearerAuth
// @Router       /definitions/{definitionId} [delete]
func (h *FieldDefinitionHandler) DeleteDefinition(c *gin.Context) {
	definitionID, err := uuid.Parse(c.Param("definitionId"))
	if err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid definition ID")
		return
	}

	if err := h.definitionService.DeleteDefinition(c.Request.Context(), definitionID); err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, map[string]string{"message": "Field definition deleted successfully"})
}
