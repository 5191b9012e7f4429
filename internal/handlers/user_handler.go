package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "quarterdeck/internal/errors"
	"quarterdeck/internal/models"
	"quarterdeck/internal/pagination"
	"quarterdeck/internal/resources"
	"quarterdeck/internal/services"
)

// UserHandler handles operator account administration. All routes using it
// sit behind RequireAdmin; every mutation lands on the audit trail as a
// critical action.
type UserHandler struct {
	userService services.UserServicer
	trail       *Trail
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService services.UserServicer, trail *Trail) *UserHandler {
	return &UserHandler{userService: userService, trail: trail}
}

// CreateUserRequest represents the request payload for creating a user.
type CreateUserRequest struct {
	Username string `json:"username" binding:"required,min=3,max=100"`
	Password string `json:"password" binding:"required,min=8,max=128"`
	Role     string `json:"role" binding:"omitempty,user_role"`
}

// UpdateUserRequest represents the request payload for updating a user.
type UpdateUserRequest struct {
	Username string `json:"username" binding:"omitempty,min=3,max=100"`
	Role     string `json:"role" binding:"omitempty,user_role"`
}

// CreateUser handles the creation of a new operator account
// @Summary     Create a user
// @Tags        users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateUserRequest true "User details"
// @Success     201 {object} models.User "User created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Admin only"
// @Failure     409 {object} ErrorResponse "Name conflict"
// @Router      /users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	user, err := h.userService.CreateUser(req.Username, req.Password, models.UserRole(req.Role))
	if err != nil {
		respondWithError(c, err)
		return
	}

	state, _ := h.userService.Get(user.ID)
	h.trail.Created(c, resources.TypeUser, user.ID, state)

	c.JSON(http.StatusCreated, gin.H{"user": user})
}

// GetUsers handles listing operator accounts
// @Summary     List users
// @Tags        users
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.User] "Paginated users"
// @Router      /users [get]
func (h *UserHandler) GetUsers(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.userService.GetUsers(page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetUser handles fetching a single user
// @Summary     Get a user
// @Tags        users
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "User ID"
// @Success     200 {object} models.User "User"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.GetUserByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateUser handles updating a user's username or role
// @Summary     Update a user
// @Tags        users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int               true "User ID"
// @Param       request body UpdateUserRequest true "Fields to update"
// @Success     200 {object} models.User "Updated user"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     409 {object} ErrorResponse "Name conflict"
// @Router      /users/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	before, err := h.userService.Get(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.UpdateUser(id, req.Username, models.UserRole(req.Role))
	if err != nil {
		respondWithError(c, err)
		return
	}

	after, _ := h.userService.Get(id)
	h.trail.Updated(c, resources.TypeUser, id, before, after)

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// DeleteUser handles deleting an operator account
// @Summary     Delete a user
// @Description Delete a user. Restoring from the audit trail recreates the
// @Description account deactivated and without a password; an admin sets a
// @Description new one.
// @Tags        users
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "User ID"
// @Success     200 {object} map[string]string "Deleted"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if actor.ID != nil && *actor.ID == id {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Cannot delete your own account"))
		return
	}

	before, err := h.userService.Get(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.userService.DeleteUser(id); err != nil {
		respondWithError(c, err)
		return
	}

	h.trail.Deleted(c, resources.TypeUser, id, before)

	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}
