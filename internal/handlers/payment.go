package handlers

import (
	"net/http"

	"creative-arena-backend/internal/services"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
}

func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

type CheckoutRequest struct {
	ContestID   string  `json:"contestId" validate:"required"`
	ContestName string  `json:"contestName" example:"Poster Jam"`
	Price       float64 `json:"price" validate:"gt=0" example:"10"`
}

type CheckoutResponse struct {
	URL string `json:"url" example:"https://checkout.stripe.com/c/pay/cs_test_123"`
}

// CreateCheckoutSession godoc
// @Summary      Start a paid contest entry
// @Description  Opens a hosted checkout session and returns its redirect URL. Nothing is recorded until the payment is confirmed.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CheckoutRequest true "Contest to pay for"
// @Success      200 {object} CheckoutResponse
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /create-checkout-session [post]
func (h *PaymentHandler) CreateCheckoutSession(c *gin.Context) {
	var req CheckoutRequest
	if !bindJSON(c, &req, false) {
		return
	}

	session, err := h.paymentService.CreateCheckout(c.Request.Context(), principal(c).Email, services.CheckoutInput{
		ContestID:   req.ContestID,
		ContestName: req.ContestName,
		Price:       req.Price,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, CheckoutResponse{URL: session.URL})
}

// PaymentSuccess godoc
// @Summary      Confirm a completed checkout
// @Description  Records the payment and registers the payer as a participant. Safe to call more than once.
// @Tags         payments
// @Produce      json
// @Security     BearerAuth
// @Param        session_id query string true "Checkout session ID"
// @Success      200 {object} services.ConfirmResult
// @Failure      402 {object} ErrorResponse
// @Router       /payment-success [patch]
func (h *PaymentHandler) PaymentSuccess(c *gin.Context) {
	result, err := h.paymentService.ConfirmPayment(c.Request.Context(), c.Query("session_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// MyParticipated godoc
// @Summary      Contests the caller has paid for
// @Tags         payments
// @Produce      json
// @Security     BearerAuth
// @Param        email query string false "Caller email"
// @Success      200 {array} services.ParticipatedContest
// @Failure      403 {object} ErrorResponse
// @Router       /my-participated [get]
func (h *PaymentHandler) MyParticipated(c *gin.Context) {
	contests, err := h.paymentService.ListParticipated(c.Request.Context(), principal(c).Email, c.Query("email"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, contests)
}
