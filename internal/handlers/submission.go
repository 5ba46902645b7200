package handlers

import (
	"net/http"

	"creative-arena-backend/internal/services"

	"github.com/gin-gonic/gin"
)

type SubmissionHandler struct {
	submissionService *services.SubmissionService
}

func NewSubmissionHandler(submissionService *services.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissionService: submissionService}
}

type CreateSubmissionRequest struct {
	ContestID      string `json:"contestId" validate:"required"`
	SubmissionText string `json:"submissionText" validate:"max=10000"`
	SubmissionLink string `json:"submissionLink" validate:"omitempty,url"`
}

type DeclareWinnerRequest struct {
	ContestID string `json:"contestId" validate:"required"`
}

// CreateSubmission godoc
// @Summary      Submit an entry
// @Description  Requires a paid entry for the contest; one submission per participant
// @Tags         submissions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateSubmissionRequest true "Submission"
// @Success      201 {object} Submission
// @Failure      402 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /submissions [post]
func (h *SubmissionHandler) CreateSubmission(c *gin.Context) {
	var req CreateSubmissionRequest
	if !bindJSON(c, &req, false) {
		return
	}

	submission, err := h.submissionService.Submit(c.Request.Context(), principal(c).Email, services.SubmitInput{
		ContestID:      req.ContestID,
		SubmissionText: req.SubmissionText,
		SubmissionLink: req.SubmissionLink,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, submission)
}

// ListSubmissions godoc
// @Summary      Submissions of one contest
// @Tags         submissions
// @Produce      json
// @Security     BearerAuth
// @Param        contestId query string true "Contest ID"
// @Success      200 {array} Submission
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /submissions [get]
func (h *SubmissionHandler) ListSubmissions(c *gin.Context) {
	p := principal(c)
	submissions, err := h.submissionService.ListByContest(c.Request.Context(), p.Email, p.Role, c.Query("contestId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, submissions)
}

func (h *SubmissionHandler) CreatorSubmissions(c *gin.Context) {
	submissions, err := h.submissionService.ListForCreator(c.Request.Context(), principal(c).Email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, submissions)
}

// DeclareWinner godoc
// @Summary      Declare the winning submission
// @Description  Marks the submission as the contest's only winner and rejects the rest
// @Tags         submissions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        submissionId path string true "Submission ID"
// @Param        request body DeclareWinnerRequest true "Contest of the submission"
// @Success      200 {object} Submission
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /creator/declare-winner/{submissionId} [patch]
func (h *SubmissionHandler) DeclareWinner(c *gin.Context) {
	var req DeclareWinnerRequest
	if !bindJSON(c, &req, false) {
		return
	}

	winner, err := h.submissionService.DeclareWinner(c.Request.Context(), principal(c).Email, req.ContestID, c.Param("submissionId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, winner)
}

func (h *SubmissionHandler) MyWinningContests(c *gin.Context) {
	contests, err := h.submissionService.WinningContests(c.Request.Context(), principal(c).Email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, contests)
}
