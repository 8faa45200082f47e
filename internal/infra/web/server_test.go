//go:build !integration

package web_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"premium-subscription-backend/internal/domain"
	"premium-subscription-backend/internal/domain/model"
	"premium-subscription-backend/internal/infra/web"
	"premium-subscription-backend/internal/usecase"
)

// ===== stub use cases =====

type stubPlanUC struct {
	plans map[string]*model.Plan
}

var _ usecase.PlanUseCase = (*stubPlanUC)(nil)

func (s *stubPlanUC) Create(ctx context.Context, name string, price int64, durationDays int) (*model.Plan, error) {
	p, err := model.NewPlan("", name, price, durationDays)
	if err != nil {
		return nil, err
	}
	s.plans[p.ID] = p
	return p, nil
}

func (s *stubPlanUC) Update(ctx context.Context, plan *model.Plan) error {
	s.plans[plan.ID] = plan
	return nil
}

func (s *stubPlanUC) Get(ctx context.Context, id string) (*model.Plan, error) {
	p, ok := s.plans[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (s *stubPlanUC) List(ctx context.Context) ([]*model.Plan, error) {
	out := make([]*model.Plan, 0, len(s.plans))
	for _, p := range s.plans {
		out = append(out, p)
	}
	return out, nil
}

type stubUserUC struct{ purchaseErr error }

var _ usecase.UserUseCase = (*stubUserUC)(nil)

func (s *stubUserUC) Register(ctx context.Context, username, email string) (*model.User, error) {
	return model.NewUser("", username, email)
}
func (s *stubUserUC) Get(ctx context.Context, id string) (*model.User, error) {
	return nil, domain.ErrNotFound
}
func (s *stubUserUC) List(ctx context.Context, offset, limit int) ([]*model.User, error) {
	return nil, nil
}
func (s *stubUserUC) PurchasePremiumAvatar(ctx context.Context, userID, avatarID string) (*model.User, error) {
	if s.purchaseErr != nil {
		return nil, s.purchaseErr
	}
	return model.NewUser(userID, "alice", "")
}
func (s *stubUserUC) ListAvatars(ctx context.Context) ([]*model.Avatar, error) { return nil, nil }

type stubUserPlanUC struct{}

var _ usecase.UserPlanUseCase = (*stubUserPlanUC)(nil)

func (s *stubUserPlanUC) HandleSuccessfulPayment(ctx context.Context, userID, planID string) (*model.UserPlan, error) {
	return nil, errors.New("not implemented")
}
func (s *stubUserPlanUC) FindActive(ctx context.Context, userID string) (*model.UserPlan, error) {
	return nil, domain.ErrNotFound
}
func (s *stubUserPlanUC) ListByUser(ctx context.Context, userID string) ([]*model.UserPlan, error) {
	return nil, nil
}
func (s *stubUserPlanUC) Cancel(ctx context.Context, userPlanID string) error { return nil }
func (s *stubUserPlanUC) FinishExpired(ctx context.Context, limit int) (int, error) {
	return 0, nil
}

type stubRatingUC struct{}

var _ usecase.RatingUseCase = (*stubRatingUC)(nil)

func (s *stubRatingUC) Award(ctx context.Context, userID string, score int64) (*model.Rating, error) {
	return model.NewRating(userID, score)
}
func (s *stubRatingUC) Leaderboard(ctx context.Context, period string, limit int) ([]*model.RatingEntry, error) {
	if period != "daily" && period != "weekly" && period != "monthly" {
		return nil, domain.ErrInvalidArgument
	}
	return []*model.RatingEntry{}, nil
}

func testSessionConfig() web.SessionConfig {
	return web.SessionConfig{
		Secret:     []byte("test-secret"),
		CookieName: "admin_session",
		TTL:        30 * time.Minute,
	}
}

func newAdminServer(t *testing.T, userUC usecase.UserUseCase) *httptest.Server {
	t.Helper()
	logger := zerolog.New(io.Discard)
	sessions := web.NewSessionManager(testSessionConfig())
	s := web.NewServer(sessions, "admin", "s3cret", &stubPlanUC{plans: map[string]*model.Plan{}}, userUC, &stubUserPlanUC{}, &stubRatingUC{}, &logger)
	r := chi.NewRouter()
	s.Register(r)
	return httptest.NewServer(r)
}

func login(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	res, err := http.Post(srv.URL+"/admin/login", "application/json",
		strings.NewReader(`{"login":"admin","password":"s3cret"}`))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, want 200", res.StatusCode)
	}
	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode login body: %v", err)
	}
	if body.Token == "" {
		t.Fatal("empty session token")
	}
	return body.Token
}

func TestAdminLogin(t *testing.T) {
	srv := newAdminServer(t, &stubUserUC{})
	defer srv.Close()

	t.Run("valid credentials mint a session", func(t *testing.T) {
		login(t, srv)
	})

	t.Run("the token names the admin it was issued to", func(t *testing.T) {
		token := login(t, srv)
		req, _ := http.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		claims, err := web.NewSessionManager(testSessionConfig()).FromRequest(req)
		if err != nil {
			t.Fatalf("verify token: %v", err)
		}
		if claims.Login != "admin" || claims.Subject != "admin" {
			t.Fatalf("claims = login %q subject %q, want the admin login", claims.Login, claims.Subject)
		}
	})

	t.Run("the session rides the configured cookie", func(t *testing.T) {
		res, err := http.Post(srv.URL+"/admin/login", "application/json",
			strings.NewReader(`{"login":"admin","password":"s3cret"}`))
		if err != nil {
			t.Fatalf("post: %v", err)
		}
		defer res.Body.Close()
		for _, c := range res.Cookies() {
			if c.Name == "admin_session" && c.Value != "" && c.HttpOnly {
				return
			}
		}
		t.Fatal("no admin_session cookie set on login")
	})

	t.Run("wrong password", func(t *testing.T) {
		res, err := http.Post(srv.URL+"/admin/login", "application/json",
			strings.NewReader(`{"login":"admin","password":"wrong"}`))
		if err != nil {
			t.Fatalf("post: %v", err)
		}
		defer res.Body.Close()
		if res.StatusCode != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", res.StatusCode)
		}
	})
}

func TestAdminSessionGuard(t *testing.T) {
	srv := newAdminServer(t, &stubUserUC{})
	defer srv.Close()

	t.Run("rejects without a session", func(t *testing.T) {
		res, err := http.Get(srv.URL + "/admin/plans")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		defer res.Body.Close()
		if res.StatusCode != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", res.StatusCode)
		}
	})

	t.Run("rejects a forged token", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, srv.URL+"/admin/plans", nil)
		req.Header.Set("Authorization", "Bearer not.a.jwt")
		res, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("do: %v", err)
		}
		defer res.Body.Close()
		if res.StatusCode != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", res.StatusCode)
		}
	})

	t.Run("accepts a bearer token", func(t *testing.T) {
		token := login(t, srv)
		req, _ := http.NewRequest(http.MethodGet, srv.URL+"/admin/plans", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		res, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("do: %v", err)
		}
		defer res.Body.Close()
		if res.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", res.StatusCode)
		}
	})
}

func TestAdminPlanCRUD(t *testing.T) {
	srv := newAdminServer(t, &stubUserUC{})
	defer srv.Close()
	token := login(t, srv)

	do := func(t *testing.T, method, path, body string) *http.Response {
		t.Helper()
		var rd io.Reader
		if body != "" {
			rd = strings.NewReader(body)
		}
		req, err := http.NewRequest(method, srv.URL+path, rd)
		if err != nil {
			t.Fatalf("new request: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		res, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("do: %v", err)
		}
		return res
	}

	res := do(t, http.MethodPost, "/admin/plans", `{"name":"Monthly","price":49000,"duration_days":30}`)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", res.StatusCode)
	}
	var created model.Plan
	if err := json.NewDecoder(res.Body).Decode(&created); err != nil {
		t.Fatalf("decode created plan: %v", err)
	}
	res.Body.Close()
	if created.ID == "" || created.Price != 49000 {
		t.Fatalf("created plan wrong: %+v", created)
	}

	res = do(t, http.MethodGet, "/admin/plans/"+created.ID, "")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d, want 200", res.StatusCode)
	}
	res.Body.Close()

	res = do(t, http.MethodPut, "/admin/plans/"+created.ID, `{"price":59000}`)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("update status = %d, want 200", res.StatusCode)
	}
	var updated model.Plan
	_ = json.NewDecoder(res.Body).Decode(&updated)
	res.Body.Close()
	if updated.Price != 59000 || updated.Name != "Monthly" {
		t.Fatalf("updated plan wrong: %+v", updated)
	}

	res = do(t, http.MethodGet, "/admin/plans/missing", "")
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("missing plan status = %d, want 404", res.StatusCode)
	}
	res.Body.Close()

	res = do(t, http.MethodPost, "/admin/plans", `{"name":"","price":0,"duration_days":0}`)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid plan status = %d, want 400", res.StatusCode)
	}
	res.Body.Close()
}

func TestAvatarPurchaseStatuses(t *testing.T) {
	for _, tc := range []struct {
		name string
		err  error
		want int
	}{
		{"insufficient coins", domain.ErrInsufficientCoins, http.StatusPaymentRequired},
		{"unknown user", domain.ErrNotFound, http.StatusNotFound},
		{"success", nil, http.StatusOK},
	} {
		t.Run(tc.name, func(t *testing.T) {
			srv := newAdminServer(t, &stubUserUC{purchaseErr: tc.err})
			defer srv.Close()
			token := login(t, srv)

			req, _ := http.NewRequest(http.MethodPost, srv.URL+"/admin/users/u1/avatar",
				strings.NewReader(`{"avatar_id":"a1"}`))
			req.Header.Set("Authorization", "Bearer "+token)
			res, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("do: %v", err)
			}
			defer res.Body.Close()
			if res.StatusCode != tc.want {
				t.Fatalf("status = %d, want %d", res.StatusCode, tc.want)
			}
		})
	}
}

func TestLeaderboardPeriods(t *testing.T) {
	srv := newAdminServer(t, &stubUserUC{})
	defer srv.Close()
	token := login(t, srv)

	get := func(t *testing.T, query string) int {
		t.Helper()
		req, _ := http.NewRequest(http.MethodGet, srv.URL+"/admin/ratings/leaderboard"+query, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		res, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("do: %v", err)
		}
		defer res.Body.Close()
		return res.StatusCode
	}

	// Default period is weekly.
	if got := get(t, ""); got != http.StatusOK {
		t.Fatalf("default period status = %d, want 200", got)
	}
	if got := get(t, "?period=monthly"); got != http.StatusOK {
		t.Fatalf("monthly status = %d, want 200", got)
	}
	if got := get(t, "?period=yearly"); got != http.StatusBadRequest {
		t.Fatalf("unknown period status = %d, want 400", got)
	}
}
