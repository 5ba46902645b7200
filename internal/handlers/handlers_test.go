package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"creative-arena-backend/internal/events"
	"creative-arena-backend/internal/identity"
	"creative-arena-backend/internal/middleware"
	"creative-arena-backend/internal/models"
	"creative-arena-backend/internal/payment"
	"creative-arena-backend/internal/services"
	"creative-arena-backend/internal/store"
	"creative-arena-backend/internal/ws"

	"github.com/gin-gonic/gin"
)

// tokenVerifier accepts "token-<email>" bearer tokens.
type tokenVerifier struct{}

func (tokenVerifier) Verify(_ context.Context, raw string) (*identity.Token, error) {
	email, ok := strings.CutPrefix(raw, "token-")
	if !ok || email == "" {
		return nil, identity.ErrInvalidToken
	}
	return &identity.Token{UID: "uid-" + email, Email: email, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

type stubProvider struct {
	sessions map[string]*payment.SessionResult
}

func (p *stubProvider) CreateCheckout(_ context.Context, req payment.CheckoutRequest) (*payment.CheckoutSession, error) {
	id := "cs_" + req.ContestID + "_" + req.Email
	p.sessions[id] = &payment.SessionResult{
		SessionID:     id,
		TransactionID: "pi_" + id,
		ContestID:     req.ContestID,
		Email:         req.Email,
		AmountMinor:   payment.MinorUnits(req.Price),
		Currency:      "usd",
		Paid:          true,
	}
	return &payment.CheckoutSession{ID: id, URL: "https://checkout.example.com/" + id}, nil
}

func (p *stubProvider) RetrieveSession(_ context.Context, id string) (*payment.SessionResult, error) {
	s, ok := p.sessions[id]
	if !ok {
		return nil, payment.ErrSessionNotFound
	}
	return s, nil
}

type testApp struct {
	router *gin.Engine
	store  *store.MemoryStore
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := store.NewMemoryStore()
	hub := ws.NewHub()
	publisher := events.Fanout{hub}
	provider := &stubProvider{sessions: map[string]*payment.SessionResult{}}

	contestService := services.NewContestService(s, publisher)
	h := Handlers{
		Users:       NewUserHandler(services.NewUserService(s), services.NewStatsService(s)),
		Contests:    NewContestHandler(contestService),
		Payments:    NewPaymentHandler(services.NewPaymentService(s, provider, publisher)),
		Submissions: NewSubmissionHandler(services.NewSubmissionService(s, publisher)),
		WS:          NewWSHandler(hub, contestService),
	}

	r := gin.New()
	RegisterRoutes(r, h, middleware.Authenticate(tokenVerifier{}, s))
	return &testApp{router: r, store: s}
}

func (a *testApp) do(t *testing.T, method, path, email string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if email != "" {
		req.Header.Set("Authorization", "Bearer token-"+email)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) seedUser(t *testing.T, email, role string) *models.User {
	t.Helper()
	u := &models.User{Email: email, Role: role, DisplayName: strings.Split(email, "@")[0], CreatedAt: time.Now()}
	if err := a.store.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)
	rec := app.do(t, http.MethodGet, "/", "", nil)
	expectStatus(t, rec, http.StatusOK)
	if rec.Body.String() != "Creative Arena!" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestRegisterUser(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/users", "", nil)
	expectStatus(t, rec, http.StatusUnauthorized)

	rec = app.do(t, http.MethodPost, "/users", "ada@example.com", map[string]string{"displayName": "Ada"})
	expectStatus(t, rec, http.StatusCreated)
	user := decode[models.User](t, rec)
	if user.Email != "ada@example.com" || user.Role != models.RoleUser {
		t.Fatalf("unexpected user: %+v", user)
	}

	rec = app.do(t, http.MethodPost, "/users", "ada@example.com", nil)
	expectStatus(t, rec, http.StatusOK)
	if msg := decode[MessageResponse](t, rec); msg.Message != "user exists" {
		t.Fatalf("unexpected message: %+v", msg)
	}

	users, _ := app.store.ListUsers(context.Background())
	if len(users) != 1 {
		t.Fatalf("expected one user, got %d", len(users))
	}
}

func TestRoleGuards(t *testing.T) {
	app := newTestApp(t)
	app.seedUser(t, "admin@example.com", models.RoleAdmin)
	app.seedUser(t, "creator@example.com", models.RoleCreator)
	app.seedUser(t, "user@example.com", models.RoleUser)

	tests := []struct {
		name   string
		method string
		path   string
		email  string
		want   int
	}{
		{"admin lists users", http.MethodGet, "/users", "admin@example.com", http.StatusOK},
		{"creator cannot list users", http.MethodGet, "/users", "creator@example.com", http.StatusForbidden},
		{"unregistered cannot list users", http.MethodGet, "/users", "stranger@example.com", http.StatusForbidden},
		{"anonymous cannot list users", http.MethodGet, "/users", "", http.StatusUnauthorized},
		{"admin lists contests", http.MethodGet, "/contests", "admin@example.com", http.StatusOK},
		{"user cannot list all contests", http.MethodGet, "/contests", "user@example.com", http.StatusForbidden},
		{"creator lists own submissions", http.MethodGet, "/creator/submissions", "creator@example.com", http.StatusOK},
		{"user cannot list creator submissions", http.MethodGet, "/creator/submissions", "user@example.com", http.StatusForbidden},
		{"public approved contests", http.MethodGet, "/all-contests", "", http.StatusOK},
		{"public popular contests", http.MethodGet, "/popular-contests", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectStatus(t, app.do(t, tt.method, tt.path, tt.email, nil), tt.want)
		})
	}
}

func TestUpdateRole(t *testing.T) {
	app := newTestApp(t)
	admin := app.seedUser(t, "admin@example.com", models.RoleAdmin)
	user := app.seedUser(t, "user@example.com", models.RoleUser)

	rec := app.do(t, http.MethodPatch, "/users/"+user.ID+"/role", "admin@example.com", map[string]string{"role": "wizard"})
	expectStatus(t, rec, http.StatusBadRequest)
	if body := decode[ErrorResponse](t, rec); body.Error != "invalid role" {
		t.Fatalf("unexpected error body: %+v", body)
	}

	rec = app.do(t, http.MethodPatch, "/users/"+admin.ID+"/role", "admin@example.com", map[string]string{"role": "user"})
	expectStatus(t, rec, http.StatusForbidden)

	rec = app.do(t, http.MethodPatch, "/users/missing/role", "admin@example.com", map[string]string{"role": "creator"})
	expectStatus(t, rec, http.StatusNotFound)

	rec = app.do(t, http.MethodPatch, "/users/"+user.ID+"/role", "admin@example.com", map[string]string{"role": "creator"})
	expectStatus(t, rec, http.StatusOK)
	if got := decode[models.User](t, rec); got.Role != models.RoleCreator {
		t.Fatalf("expected creator role, got %s", got.Role)
	}
}

func TestContestLifecycle(t *testing.T) {
	app := newTestApp(t)
	app.seedUser(t, "admin@example.com", models.RoleAdmin)
	app.seedUser(t, "creator@example.com", models.RoleCreator)
	app.seedUser(t, "rival@example.com", models.RoleCreator)

	rec := app.do(t, http.MethodPost, "/contests", "creator@example.com", map[string]interface{}{"price": 10})
	expectStatus(t, rec, http.StatusBadRequest)

	rec = app.do(t, http.MethodPost, "/contests", "creator@example.com", map[string]interface{}{
		"name":   "Poster Jam",
		"price":  10,
		"status": "approved",
	})
	expectStatus(t, rec, http.StatusCreated)
	contest := decode[models.Contest](t, rec)
	if contest.Status != models.ContestStatusPending || contest.CreatedBy != "creator@example.com" {
		t.Fatalf("unexpected contest: %+v", contest)
	}

	rec = app.do(t, http.MethodPatch, "/contests/"+contest.ID, "creator@example.com", map[string]interface{}{
		"name":         "Poster Jam II",
		"status":       "approved",
		"participants": []string{"sneaky@example.com"},
		"createdBy":    "rival@example.com",
	})
	expectStatus(t, rec, http.StatusOK)
	updated := decode[models.Contest](t, rec)
	if updated.Name != "Poster Jam II" || updated.Status != models.ContestStatusPending ||
		len(updated.Participants) != 0 || updated.CreatedBy != "creator@example.com" {
		t.Fatalf("update escaped the allow-list: %+v", updated)
	}

	rec = app.do(t, http.MethodPatch, "/contests/"+contest.ID, "rival@example.com", map[string]string{"name": "Mine now"})
	expectStatus(t, rec, http.StatusForbidden)

	rec = app.do(t, http.MethodPatch, "/contests/"+contest.ID+"/status", "admin@example.com", map[string]string{"status": "archived"})
	expectStatus(t, rec, http.StatusBadRequest)

	rec = app.do(t, http.MethodPatch, "/contests/"+contest.ID+"/status", "admin@example.com", map[string]string{"status": "approved"})
	expectStatus(t, rec, http.StatusOK)

	all := decode[[]models.Contest](t, app.do(t, http.MethodGet, "/all-contests", "", nil))
	if len(all) != 1 || all[0].ID != contest.ID {
		t.Fatalf("expected approved contest listed, got %+v", all)
	}

	rec = app.do(t, http.MethodGet, "/contests-by-creator", "creator@example.com", nil)
	expectStatus(t, rec, http.StatusBadRequest)
	mine := decode[[]models.Contest](t, app.do(t, http.MethodGet, "/contests-by-creator?email=creator@example.com", "creator@example.com", nil))
	if len(mine) != 1 {
		t.Fatalf("expected one contest by creator, got %d", len(mine))
	}

	rec = app.do(t, http.MethodDelete, "/contests/"+contest.ID, "rival@example.com", nil)
	expectStatus(t, rec, http.StatusForbidden)
	rec = app.do(t, http.MethodDelete, "/contests/"+contest.ID, "admin@example.com", nil)
	expectStatus(t, rec, http.StatusOK)
	rec = app.do(t, http.MethodGet, "/contests/"+contest.ID, "", nil)
	expectStatus(t, rec, http.StatusNotFound)
}

func TestContestPagination(t *testing.T) {
	app := newTestApp(t)
	app.seedUser(t, "admin@example.com", models.RoleAdmin)
	for i := 0; i < 12; i++ {
		c := &models.Contest{Name: "c", Status: models.ContestStatusPending, CreatedAt: time.Now()}
		if err := app.store.CreateContest(context.Background(), c); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	tests := []struct {
		query     string
		wantItems int
	}{
		{"?page=2&limit=5", 5},
		{"?page=3&limit=5", 2},
		{"", 10},
		{"?page=abc&limit=-1", 10},
	}
	for _, tt := range tests {
		rec := app.do(t, http.MethodGet, "/contests"+tt.query, "admin@example.com", nil)
		expectStatus(t, rec, http.StatusOK)
		page := decode[services.ContestPage](t, rec)
		if len(page.Contests) != tt.wantItems || page.Total != 12 {
			t.Fatalf("%q: got %d items of %d", tt.query, len(page.Contests), page.Total)
		}
	}
}

func TestPaymentToWinnerFlow(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	app.seedUser(t, "creator@example.com", models.RoleCreator)
	contest := &models.Contest{Name: "Logo Sprint", Price: 12.5, CreatedBy: "creator@example.com", Status: models.ContestStatusApproved, Participants: []string{}}
	if err := app.store.CreateContest(ctx, contest); err != nil {
		t.Fatalf("seed: %v", err)
	}

	entrants := []string{"one@example.com", "two@example.com", "three@example.com"}
	var submissionIDs []string
	for _, email := range entrants {
		app.seedUser(t, email, models.RoleUser)

		rec := app.do(t, http.MethodPost, "/submissions", email, map[string]string{"contestId": contest.ID, "submissionText": "early"})
		expectStatus(t, rec, http.StatusPaymentRequired)

		rec = app.do(t, http.MethodPost, "/create-checkout-session", email, map[string]interface{}{"contestId": contest.ID, "contestName": contest.Name, "price": 12.5})
		expectStatus(t, rec, http.StatusOK)
		checkout := decode[CheckoutResponse](t, rec)
		sessionID := checkout.URL[strings.LastIndex(checkout.URL, "/")+1:]

		for i := 0; i < 2; i++ {
			rec = app.do(t, http.MethodPatch, "/payment-success?session_id="+sessionID, email, nil)
			expectStatus(t, rec, http.StatusOK)
			if result := decode[services.ConfirmResult](t, rec); result.AlreadyRecorded != (i == 1) {
				t.Fatalf("confirmation %d: alreadyRecorded=%v", i, result.AlreadyRecorded)
			}
		}

		rec = app.do(t, http.MethodPost, "/submissions", email, map[string]string{"contestId": contest.ID, "submissionLink": "https://example.com/" + email})
		expectStatus(t, rec, http.StatusCreated)
		submissionIDs = append(submissionIDs, decode[models.Submission](t, rec).ID)

		rec = app.do(t, http.MethodPost, "/submissions", email, map[string]string{"contestId": contest.ID, "submissionText": "again"})
		expectStatus(t, rec, http.StatusConflict)
	}

	stored, _ := app.store.GetContest(ctx, contest.ID)
	if len(stored.Participants) != 3 {
		t.Fatalf("expected 3 participants, got %v", stored.Participants)
	}

	participated := decode[[]services.ParticipatedContest](t, app.do(t, http.MethodGet, "/my-participated?email=two@example.com", "two@example.com", nil))
	if len(participated) != 1 || participated[0].PaymentStatus != models.PaymentStatusPaid {
		t.Fatalf("unexpected participated list: %+v", participated)
	}
	expectStatus(t, app.do(t, http.MethodGet, "/my-participated?email=one@example.com", "two@example.com", nil), http.StatusForbidden)

	subs := decode[[]models.Submission](t, app.do(t, http.MethodGet, "/submissions?contestId="+contest.ID, "creator@example.com", nil))
	if len(subs) != 3 {
		t.Fatalf("expected 3 submissions, got %d", len(subs))
	}
	app.seedUser(t, "rival@example.com", models.RoleCreator)
	app.seedUser(t, "admin@example.com", models.RoleAdmin)
	expectStatus(t, app.do(t, http.MethodGet, "/submissions?contestId="+contest.ID, "rival@example.com", nil), http.StatusForbidden)
	expectStatus(t, app.do(t, http.MethodGet, "/submissions?contestId="+contest.ID, "admin@example.com", nil), http.StatusOK)
	expectStatus(t, app.do(t, http.MethodGet, "/submissions?contestId="+contest.ID, "one@example.com", nil), http.StatusForbidden)

	rec := app.do(t, http.MethodPatch, "/creator/declare-winner/"+submissionIDs[1], "creator@example.com", map[string]string{"contestId": contest.ID})
	expectStatus(t, rec, http.StatusOK)

	subs = decode[[]models.Submission](t, app.do(t, http.MethodGet, "/creator/submissions", "creator@example.com", nil))
	for _, s := range subs {
		if (s.ID == submissionIDs[1]) != s.IsWinner {
			t.Fatalf("submission %s isWinner=%v", s.ID, s.IsWinner)
		}
	}

	wins := decode[[]services.WinningContest](t, app.do(t, http.MethodGet, "/my-winning-contests", "two@example.com", nil))
	if len(wins) != 1 || wins[0].ID != contest.ID {
		t.Fatalf("unexpected winning contests: %+v", wins)
	}

	stats := decode[services.WinStats](t, app.do(t, http.MethodGet, "/users/win-stats", "two@example.com", nil))
	if stats != (services.WinStats{Participated: 1, Won: 1, WinPercentage: 100}) {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	popular := decode[[]models.Contest](t, app.do(t, http.MethodGet, "/popular-contests", "", nil))
	if len(popular) != 1 || len(popular[0].Participants) != 3 {
		t.Fatalf("unexpected popular contests: %+v", popular)
	}
}

func TestPaymentSuccessUnknownSession(t *testing.T) {
	app := newTestApp(t)
	rec := app.do(t, http.MethodPatch, "/payment-success?session_id=cs_missing", "ada@example.com", nil)
	expectStatus(t, rec, http.StatusPaymentRequired)

	rec = app.do(t, http.MethodPatch, "/payment-success", "ada@example.com", nil)
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestProfile(t *testing.T) {
	app := newTestApp(t)

	expectStatus(t, app.do(t, http.MethodGet, "/users/me", "ada@example.com", nil), http.StatusNotFound)

	app.seedUser(t, "ada@example.com", models.RoleUser)
	rec := app.do(t, http.MethodPatch, "/users/profile", "ada@example.com", map[string]string{"bio": "Illustrator"})
	expectStatus(t, rec, http.StatusOK)

	me := decode[models.User](t, app.do(t, http.MethodGet, "/users/me", "ada@example.com", nil))
	if me.Bio != "Illustrator" {
		t.Fatalf("unexpected profile: %+v", me)
	}

	rec = app.do(t, http.MethodPatch, "/users/profile", "ada@example.com", map[string]string{"photoURL": "not a url"})
	expectStatus(t, rec, http.StatusBadRequest)
}
