package handlers

import (
	"net/http"

	"creative-arena-backend/internal/middleware"
	"creative-arena-backend/internal/models"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Users       *UserHandler
	Contests    *ContestHandler
	Payments    *PaymentHandler
	Submissions *SubmissionHandler
	WS          *WSHandler
}

// RegisterRoutes mounts the API. auth must be the Authenticate middleware;
// role guards run after it.
func RegisterRoutes(r gin.IRouter, h Handlers, auth gin.HandlerFunc) {
	admin := middleware.RequireRole(models.RoleAdmin)
	creator := middleware.RequireRole(models.RoleCreator)
	creatorOrAdmin := middleware.RequireRole(models.RoleCreator, models.RoleAdmin)

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Creative Arena!")
	})

	users := r.Group("/users")
	{
		users.GET("", auth, admin, h.Users.ListUsers)
		users.POST("", auth, h.Users.Register)
		users.GET("/me", auth, h.Users.Me)
		users.PATCH("/profile", auth, h.Users.UpdateProfile)
		users.GET("/win-stats", auth, h.Users.WinStats)
		users.PATCH("/:id/role", auth, admin, h.Users.UpdateRole)
	}

	contests := r.Group("/contests")
	{
		contests.POST("", auth, creator, h.Contests.CreateContest)
		contests.GET("", auth, admin, h.Contests.ListContests)
		contests.GET("/:id", h.Contests.GetContest)
		contests.PATCH("/:id", auth, creator, h.Contests.UpdateContest)
		contests.PATCH("/:id/status", auth, admin, h.Contests.UpdateContestStatus)
		contests.DELETE("/:id", auth, h.Contests.DeleteContest)
	}
	r.GET("/all-contests", h.Contests.AllContests)
	r.GET("/popular-contests", h.Contests.PopularContests)
	r.GET("/contests-by-creator", auth, creator, h.Contests.ContestsByCreator)

	r.POST("/create-checkout-session", auth, h.Payments.CreateCheckoutSession)
	r.PATCH("/payment-success", auth, h.Payments.PaymentSuccess)
	r.GET("/my-participated", auth, h.Payments.MyParticipated)

	submissions := r.Group("/submissions")
	{
		submissions.GET("", auth, creatorOrAdmin, h.Submissions.ListSubmissions)
		submissions.POST("", auth, h.Submissions.CreateSubmission)
	}
	creatorRoutes := r.Group("/creator", auth, creator)
	{
		creatorRoutes.GET("/submissions", h.Submissions.CreatorSubmissions)
		creatorRoutes.PATCH("/declare-winner/:submissionId", h.Submissions.DeclareWinner)
	}
	r.GET("/my-winning-contests", auth, h.Submissions.MyWinningContests)

	r.GET("/ws/contests/:id", h.WS.HandleWebSocket)
}
