package handlers

import (
	"net/http"

	"creative-arena-backend/internal/models"
	"creative-arena-backend/internal/services"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService  *services.UserService
	statsService *services.StatsService
}

func NewUserHandler(userService *services.UserService, statsService *services.StatsService) *UserHandler {
	return &UserHandler{userService: userService, statsService: statsService}
}

type RegisterUserRequest struct {
	DisplayName string `json:"displayName" validate:"max=120" example:"Ada Artist"`
	PhotoURL    string `json:"photoURL" validate:"omitempty,url" example:"https://example.com/ada.png"`
	Bio         string `json:"bio" validate:"max=2000"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" example:"creator"`
}

type UpdateProfileRequest struct {
	DisplayName *string `json:"displayName" validate:"omitempty,max=120"`
	PhotoURL    *string `json:"photoURL" validate:"omitempty,url"`
	Bio         *string `json:"bio" validate:"omitempty,max=2000"`
}

// Register godoc
// @Summary      Register the caller
// @Description  Create the caller's user record from the verified token email. Returns "user exists" when already registered.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body RegisterUserRequest false "Profile fields"
// @Success      201 {object} User
// @Success      200 {object} MessageResponse
// @Failure      401 {object} ErrorResponse
// @Router       /users [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterUserRequest
	if !bindJSON(c, &req, true) {
		return
	}

	user, created, err := h.userService.Register(c.Request.Context(), principal(c).Email, services.RegisterInput{
		DisplayName: req.DisplayName,
		PhotoURL:    req.PhotoURL,
		Bio:         req.Bio,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	if !created {
		c.JSON(http.StatusOK, MessageResponse{Message: "user exists"})
		return
	}
	c.JSON(http.StatusCreated, user)
}

// ListUsers godoc
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} User
// @Failure      403 {object} ErrorResponse
// @Router       /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// UpdateRole godoc
// @Summary      Change a user's role
// @Description  Admins may change any role except their own
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "User ID"
// @Param        request body UpdateRoleRequest true "New role"
// @Success      200 {object} User
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /users/{id}/role [patch]
func (h *UserHandler) UpdateRole(c *gin.Context) {
	var req UpdateRoleRequest
	if !bindJSON(c, &req, false) {
		return
	}

	user, err := h.userService.UpdateRole(c.Request.Context(), principal(c).Email, c.Param("id"), req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Me godoc
// @Summary      Get the caller's profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} User
// @Failure      404 {object} ErrorResponse
// @Router       /users/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.userService.GetByEmail(c.Request.Context(), principal(c).Email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateProfile godoc
// @Summary      Update the caller's profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body UpdateProfileRequest true "Fields to change"
// @Success      200 {object} User
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /users/profile [patch]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if !bindJSON(c, &req, false) {
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), principal(c).Email, models.ProfileUpdate{
		DisplayName: req.DisplayName,
		PhotoURL:    req.PhotoURL,
		Bio:         req.Bio,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// WinStats godoc
// @Summary      Participation and win statistics for the caller
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} services.WinStats
// @Router       /users/win-stats [get]
func (h *UserHandler) WinStats(c *gin.Context) {
	stats, err := h.statsService.WinStats(c.Request.Context(), principal(c).Email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
