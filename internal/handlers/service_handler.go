package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "quarterdeck/internal/errors"
	"quarterdeck/internal/pagination"
	"quarterdeck/internal/resources"
	"quarterdeck/internal/services"
)

// ServiceHandler handles dashboard service tile requests.
type ServiceHandler struct {
	serviceService services.ServiceServicer
	trail          *Trail
}

// NewServiceHandler creates a new ServiceHandler.
func NewServiceHandler(serviceService services.ServiceServicer, trail *Trail) *ServiceHandler {
	return &ServiceHandler{serviceService: serviceService, trail: trail}
}

// CreateServiceRequest represents the request payload for creating a service.
type CreateServiceRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	URL         string `json:"url" binding:"required,url,max=500"`
	Icon        string `json:"icon" binding:"max=100"`
	Description string `json:"description" binding:"max=500"`
	CategoryID  *uint  `json:"category_id"`
}

// UpdateServiceRequest represents the request payload for updating a service.
type UpdateServiceRequest struct {
	Name        string `json:"name" binding:"omitempty,min=1,max=100"`
	URL         string `json:"url" binding:"omitempty,url,max=500"`
	Icon        string `json:"icon" binding:"max=100"`
	Description string `json:"description" binding:"max=500"`
	CategoryID  *uint  `json:"category_id"`
}

// CreateService handles the creation of a new service
// @Summary     Create a service
// @Description Create a new dashboard service tile
// @Tags        services
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateServiceRequest true "Service details"
// @Success     201 {object} models.Service "Service created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Name conflict"
// @Router      /services [post]
func (h *ServiceHandler) CreateService(c *gin.Context) {
	var req CreateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	service, err := h.serviceService.CreateService(req.Name, req.URL, req.Icon, req.Description, req.CategoryID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	state, _ := h.serviceService.Get(service.ID)
	h.trail.Created(c, resources.TypeService, service.ID, state)

	c.JSON(http.StatusCreated, gin.H{"service": service})
}

// GetServices handles listing services
// @Summary     List services
// @Description Get a paginated list of services
// @Tags        services
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Service] "Paginated services"
// @Router      /services [get]
func (h *ServiceHandler) GetServices(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.serviceService.GetServices(page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetService handles fetching a single service
// @Summary     Get a service
// @Tags        services
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Service ID"
// @Success     200 {object} models.Service "Service"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /services/{id} [get]
func (h *ServiceHandler) GetService(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	service, err := h.serviceService.GetServiceByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"service": service})
}

// UpdateService handles updating a service
// @Summary     Update a service
// @Tags        services
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int                  true "Service ID"
// @Param       request body UpdateServiceRequest true "Fields to update"
// @Success     200 {object} models.Service "Updated service"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     409 {object} ErrorResponse "Name conflict"
// @Router      /services/{id} [put]
func (h *ServiceHandler) UpdateService(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	before, err := h.serviceService.Get(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	service, err := h.serviceService.UpdateService(id, req.Name, req.URL, req.Icon, req.Description, req.CategoryID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	after, _ := h.serviceService.Get(id)
	h.trail.Updated(c, resources.TypeService, id, before, after)

	c.JSON(http.StatusOK, gin.H{"service": service})
}

// DeleteService handles deleting a service
// @Summary     Delete a service
// @Description Delete a service. The full pre-delete state is kept on the
// @Description audit trail and the service can be restored from it.
// @Tags        services
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Service ID"
// @Success     200 {object} map[string]string "Deleted"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /services/{id} [delete]
func (h *ServiceHandler) DeleteService(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	before, err := h.serviceService.Get(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.serviceService.DeleteService(id); err != nil {
		respondWithError(c, err)
		return
	}

	h.trail.Deleted(c, resources.TypeService, id, before)

	c.JSON(http.StatusOK, gin.H{"message": "Service deleted"})
}
