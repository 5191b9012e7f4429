package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "quarterdeck/internal/errors"
	"quarterdeck/internal/pagination"
	"quarterdeck/internal/resources"
	"quarterdeck/internal/services"
)

// HostHandler handles wake-on-LAN host requests.
type HostHandler struct {
	hostService services.HostServicer
	trail       *Trail
}

// NewHostHandler creates a new HostHandler.
func NewHostHandler(hostService services.HostServicer, trail *Trail) *HostHandler {
	return &HostHandler{hostService: hostService, trail: trail}
}

// CreateHostRequest represents the request payload for creating a host.
type CreateHostRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	MACAddress  string `json:"mac_address" binding:"required,mac"`
	IPAddress   string `json:"ip_address" binding:"omitempty,ip"`
	Description string `json:"description" binding:"max=500"`
}

// UpdateHostRequest represents the request payload for updating a host.
type UpdateHostRequest struct {
	Name        string `json:"name" binding:"omitempty,min=1,max=100"`
	MACAddress  string `json:"mac_address" binding:"omitempty,mac"`
	IPAddress   string `json:"ip_address" binding:"omitempty,ip"`
	Description string `json:"description" binding:"max=500"`
}

// CreateHost handles the creation of a new host
// @Summary     Create a host
// @Tags        hosts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateHostRequest true "Host details"
// @Success     201 {object} models.Host "Host created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Name conflict"
// @Router      /hosts [post]
func (h *HostHandler) CreateHost(c *gin.Context) {
	var req CreateHostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	host, err := h.hostService.CreateHost(req.Name, req.MACAddress, req.IPAddress, req.Description)
	if err != nil {
		respondWithError(c, err)
		return
	}

	state, _ := h.hostService.Get(host.ID)
	h.trail.Created(c, resources.TypeHost, host.ID, state)

	c.JSON(http.StatusCreated, gin.H{"host": host})
}

// GetHosts handles listing hosts
// @Summary     List hosts
// @Tags        hosts
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Host] "Paginated hosts"
// @Router      /hosts [get]
func (h *HostHandler) GetHosts(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.hostService.GetHosts(page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetHost handles fetching a single host
// @Summary     Get a host
// @Tags        hosts
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Host ID"
// @Success     200 {object} models.Host "Host"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /hosts/{id} [get]
func (h *HostHandler) GetHost(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	host, err := h.hostService.GetHostByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"host": host})
}

// UpdateHost handles updating a host
// @Summary     Update a host
// @Tags        hosts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int               true "Host ID"
// @Param       request body UpdateHostRequest true "Fields to update"
// @Success     200 {object} models.Host "Updated host"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     409 {object} ErrorResponse "Name conflict"
// @Router      /hosts/{id} [put]
func (h *HostHandler) UpdateHost(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateHostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	before, err := h.hostService.Get(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	host, err := h.hostService.UpdateHost(id, req.Name, req.MACAddress, req.IPAddress, req.Description)
	if err != nil {
		respondWithError(c, err)
		return
	}

	after, _ := h.hostService.Get(id)
	h.trail.Updated(c, resources.TypeHost, id, before, after)

	c.JSON(http.StatusOK, gin.H{"host": host})
}

// DeleteHost handles deleting a host
// @Summary     Delete a host
// @Tags        hosts
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Host ID"
// @Success     200 {object} map[string]string "Deleted"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /hosts/{id} [delete]
func (h *HostHandler) DeleteHost(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	before, err := h.hostService.Get(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.hostService.DeleteHost(id); err != nil {
		respondWithError(c, err)
		return
	}

	h.trail.Deleted(c, resources.TypeHost, id, before)

	c.JSON(http.StatusOK, gin.H{"message": "Host deleted"})
}

// WakeHost handles sending a wake-on-LAN packet to a host
// @Summary     Wake a host
// @Description Send a wake-on-LAN magic packet to the host's MAC address.
// @Tags        hosts
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Host ID"
// @Success     200 {object} map[string]string "Packet sent"
// @Failure     400 {object} ErrorResponse "Host has no MAC address"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /hosts/{id}/wake [post]
func (h *HostHandler) WakeHost(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	host, err := h.hostService.Wake(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.trail.Executed(c, resources.TypeHost, id, map[string]any{
		"command":     "wake_on_lan",
		"mac_address": host.MACAddress,
	})

	c.JSON(http.StatusOK, gin.H{"message": "Wake packet sent", "host": host.Name})
}
