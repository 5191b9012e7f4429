package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "quarterdeck/internal/errors"
	"quarterdeck/internal/pagination"
	"quarterdeck/internal/resources"
	"quarterdeck/internal/services"
)

// SSHHostHandler handles SSH connection entry requests. Responses never
// include credentials; the models exclude them from JSON.
type SSHHostHandler struct {
	sshHostService services.SSHHostServicer
	trail          *Trail
}

// NewSSHHostHandler creates a new SSHHostHandler.
func NewSSHHostHandler(sshHostService services.SSHHostServicer, trail *Trail) *SSHHostHandler {
	return &SSHHostHandler{sshHostService: sshHostService, trail: trail}
}

// CreateSSHHostRequest represents the request payload for creating an SSH host.
type CreateSSHHostRequest struct {
	Name       string `json:"name" binding:"required,min=1,max=100"`
	Hostname   string `json:"hostname" binding:"required,max=255"`
	Port       int    `json:"port" binding:"omitempty,min=1,max=65535"`
	Username   string `json:"username" binding:"required,max=100"`
	Password   string `json:"password"`
	PrivateKey string `json:"private_key"`
}

// UpdateSSHHostRequest represents the request payload for updating an SSH host.
type UpdateSSHHostRequest struct {
	Name       string `json:"name" binding:"omitempty,min=1,max=100"`
	Hostname   string `json:"hostname" binding:"omitempty,max=255"`
	Port       int    `json:"port" binding:"omitempty,min=1,max=65535"`
	Username   string `json:"username" binding:"omitempty,max=100"`
	Password   string `json:"password"`
	PrivateKey string `json:"private_key"`
}

// CreateSSHHost handles the creation of a new SSH host
// @Summary     Create an SSH host
// @Tags        ssh-hosts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateSSHHostRequest true "SSH host details"
// @Success     201 {object} models.SSHHost "SSH host created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Name conflict"
// @Router      /ssh-hosts [post]
func (h *SSHHostHandler) CreateSSHHost(c *gin.Context) {
	var req CreateSSHHostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	sshHost, err := h.sshHostService.CreateSSHHost(req.Name, req.Hostname, req.Port, req.Username, req.Password, req.PrivateKey)
	if err != nil {
		respondWithError(c, err)
		return
	}

	state, _ := h.sshHostService.Get(sshHost.ID)
	h.trail.Created(c, resources.TypeSSHHost, sshHost.ID, state)

	c.JSON(http.StatusCreated, gin.H{"ssh_host": sshHost})
}

// GetSSHHosts handles listing SSH hosts
// @Summary     List SSH hosts
// @Tags        ssh-hosts
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.SSHHost] "Paginated SSH hosts"
// @Router      /ssh-hosts [get]
func (h *SSHHostHandler) GetSSHHosts(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.sshHostService.GetSSHHosts(page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetSSHHost handles fetching a single SSH host
// @Summary     Get an SSH host
// @Tags        ssh-hosts
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "SSH host ID"
// @Success     200 {object} models.SSHHost "SSH host"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /ssh-hosts/{id} [get]
func (h *SSHHostHandler) GetSSHHost(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	sshHost, err := h.sshHostService.GetSSHHostByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ssh_host": sshHost})
}

// UpdateSSHHost handles updating an SSH host
// @Summary     Update an SSH host
// @Tags        ssh-hosts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int                  true "SSH host ID"
// @Param       request body UpdateSSHHostRequest true "Fields to update"
// @Success     200 {object} models.SSHHost "Updated SSH host"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     409 {object} ErrorResponse "Name conflict"
// @Router      /ssh-hosts/{id} [put]
func (h *SSHHostHandler) UpdateSSHHost(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateSSHHostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	before, err := h.sshHostService.Get(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	sshHost, err := h.sshHostService.UpdateSSHHost(id, req.Name, req.Hostname, req.Port, req.Username, req.Password, req.PrivateKey)
	if err != nil {
		respondWithError(c, err)
		return
	}

	after, _ := h.sshHostService.Get(id)
	h.trail.Updated(c, resources.TypeSSHHost, id, before, after)

	c.JSON(http.StatusOK, gin.H{"ssh_host": sshHost})
}

// DeleteSSHHost handles deleting an SSH host
// @Summary     Delete an SSH host
// @Description Delete an SSH host. Credentials in the stored snapshot are
// @Description masked, so a later restore recreates the entry without them.
// @Tags        ssh-hosts
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "SSH host ID"
// @Success     200 {object} map[string]string "Deleted"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /ssh-hosts/{id} [delete]
func (h *SSHHostHandler) DeleteSSHHost(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	before, err := h.sshHostService.Get(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.sshHostService.DeleteSSHHost(id); err != nil {
		respondWithError(c, err)
		return
	}

	h.trail.Deleted(c, resources.TypeSSHHost, id, before)

	c.JSON(http.StatusOK, gin.H{"message": "SSH host deleted"})
}
