package handlers

import (
	"net/http"
	"time"

	"creative-arena-backend/internal/models"
	"creative-arena-backend/internal/services"

	"github.com/gin-gonic/gin"
)

type ContestHandler struct {
	contestService *services.ContestService
}

func NewContestHandler(contestService *services.ContestService) *ContestHandler {
	return &ContestHandler{contestService: contestService}
}

type CreateContestRequest struct {
	Name            string    `json:"name" validate:"required,max=200" example:"Poster Jam"`
	Image           string    `json:"image" validate:"omitempty,url"`
	Description     string    `json:"description"`
	Price           float64   `json:"price" validate:"gte=0" example:"10"`
	PrizeMoney      float64   `json:"prizeMoney" validate:"gte=0" example:"250"`
	TaskInstruction string    `json:"taskInstruction"`
	ContestType     string    `json:"contestType" example:"Image Design"`
	Deadline        time.Time `json:"deadline"`
	CreatorName     string    `json:"creatorName"`
}

// UpdateContestRequest lists the only fields a creator may change.
type UpdateContestRequest struct {
	Name            *string    `json:"name" validate:"omitempty,min=1,max=200"`
	Image           *string    `json:"image" validate:"omitempty,url"`
	Description     *string    `json:"description"`
	Price           *float64   `json:"price" validate:"omitempty,gte=0"`
	PrizeMoney      *float64   `json:"prizeMoney" validate:"omitempty,gte=0"`
	TaskInstruction *string    `json:"taskInstruction"`
	ContestType     *string    `json:"contestType"`
	Deadline        *time.Time `json:"deadline"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" example:"approved"`
}

// CreateContest godoc
// @Summary      Create a contest
// @Description  Creators submit a contest; it starts pending admin approval
// @Tags         contests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateContestRequest true "Contest data"
// @Success      201 {object} Contest
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Router       /contests [post]
func (h *ContestHandler) CreateContest(c *gin.Context) {
	var req CreateContestRequest
	if !bindJSON(c, &req, false) {
		return
	}

	contest, err := h.contestService.Create(c.Request.Context(), principal(c).Email, services.CreateContestInput{
		Name:            req.Name,
		Image:           req.Image,
		Description:     req.Description,
		Price:           req.Price,
		PrizeMoney:      req.PrizeMoney,
		TaskInstruction: req.TaskInstruction,
		ContestType:     req.ContestType,
		Deadline:        req.Deadline,
		CreatorName:     req.CreatorName,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, contest)
}

// ListContests godoc
// @Summary      List contests page by page
// @Tags         contests
// @Produce      json
// @Security     BearerAuth
// @Param        page  query int false "Page number" default(1)
// @Param        limit query int false "Page size" default(10)
// @Success      200 {object} services.ContestPage
// @Router       /contests [get]
func (h *ContestHandler) ListContests(c *gin.Context) {
	page, limit := services.ParsePage(c.Query("page"), c.Query("limit"))
	result, err := h.contestService.List(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// AllContests godoc
// @Summary      List approved contests
// @Tags         contests
// @Produce      json
// @Success      200 {array} Contest
// @Router       /all-contests [get]
func (h *ContestHandler) AllContests(c *gin.Context) {
	contests, err := h.contestService.Approved(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, contests)
}

func (h *ContestHandler) ContestsByCreator(c *gin.Context) {
	contests, err := h.contestService.ByCreator(c.Request.Context(), c.Query("email"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, contests)
}

// GetContest godoc
// @Summary      Get a contest
// @Tags         contests
// @Produce      json
// @Param        id path string true "Contest ID"
// @Success      200 {object} Contest
// @Failure      404 {object} ErrorResponse
// @Router       /contests/{id} [get]
func (h *ContestHandler) GetContest(c *gin.Context) {
	contest, err := h.contestService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, contest)
}

// UpdateContest godoc
// @Summary      Update a contest
// @Description  Only name, image, description, price, prizeMoney, taskInstruction, contestType and deadline can change
// @Tags         contests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Contest ID"
// @Param        request body UpdateContestRequest true "Fields to change"
// @Success      200 {object} Contest
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /contests/{id} [patch]
func (h *ContestHandler) UpdateContest(c *gin.Context) {
	var req UpdateContestRequest
	if !bindJSON(c, &req, false) {
		return
	}

	contest, err := h.contestService.Update(c.Request.Context(), principal(c).Email, c.Param("id"), models.ContestUpdate{
		Name:            req.Name,
		Image:           req.Image,
		Description:     req.Description,
		Price:           req.Price,
		PrizeMoney:      req.PrizeMoney,
		TaskInstruction: req.TaskInstruction,
		ContestType:     req.ContestType,
		Deadline:        req.Deadline,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, contest)
}

// UpdateContestStatus godoc
// @Summary      Approve or reject a contest
// @Tags         contests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Contest ID"
// @Param        request body UpdateStatusRequest true "approved or rejected"
// @Success      200 {object} Contest
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /contests/{id}/status [patch]
func (h *ContestHandler) UpdateContestStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if !bindJSON(c, &req, false) {
		return
	}

	contest, err := h.contestService.UpdateStatus(c.Request.Context(), principal(c).Email, c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, contest)
}

// DeleteContest godoc
// @Summary      Delete a contest
// @Tags         contests
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Contest ID"
// @Success      200 {object} MessageResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /contests/{id} [delete]
func (h *ContestHandler) DeleteContest(c *gin.Context) {
	p := principal(c)
	if err := h.contestService.Delete(c.Request.Context(), p.Email, p.Role, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "contest deleted"})
}

// PopularContests godoc
// @Summary      Most joined approved contests
// @Tags         contests
// @Produce      json
// @Success      200 {array} Contest
// @Router       /popular-contests [get]
func (h *ContestHandler) PopularContests(c *gin.Context) {
	contests, err := h.contestService.Popular(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, contests)
}
