package web

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"premium-subscription-backend/internal/usecase"
)

// Server is the admin JSON API: session login plus CRUD over plans, users,
// user plans and ratings. All routes except login sit behind the JWT session.
type Server struct {
	sessions   *SessionManager
	login      string
	password   string
	planUC     usecase.PlanUseCase
	userUC     usecase.UserUseCase
	userPlanUC usecase.UserPlanUseCase
	ratingUC   usecase.RatingUseCase
	log        *zerolog.Logger
}

func NewServer(
	sessions *SessionManager,
	login, password string,
	planUC usecase.PlanUseCase,
	userUC usecase.UserUseCase,
	userPlanUC usecase.UserPlanUseCase,
	ratingUC usecase.RatingUseCase,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "web").Logger()
	return &Server{
		sessions:   sessions,
		login:      login,
		password:   password,
		planUC:     planUC,
		userUC:     userUC,
		userPlanUC: userPlanUC,
		ratingUC:   ratingUC,
		log:        &l,
	}
}

// Register attaches the admin routes to the router.
func (s *Server) Register(r chi.Router) {
	r.Post("/admin/login", s.handleLogin)
	r.Post("/admin/logout", s.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(s.requireSession)

		r.Get("/admin/plans", plansListHandler(s.planUC))
		r.Post("/admin/plans", plansCreateHandler(s.planUC))
		r.Get("/admin/plans/{id}", planGetHandler(s.planUC))
		r.Put("/admin/plans/{id}", planUpdateHandler(s.planUC))

		r.Get("/admin/users", usersListHandler(s.userUC))
		r.Post("/admin/users", userRegisterHandler(s.userUC))
		r.Get("/admin/users/{id}", userGetHandler(s.userUC))
		r.Get("/admin/users/{id}/plans", userPlansListHandler(s.userPlanUC))
		r.Get("/admin/users/{id}/plans/active", userPlanActiveHandler(s.userPlanUC))
		r.Post("/admin/users/{id}/avatar", avatarPurchaseHandler(s.userUC))

		r.Get("/admin/avatars", avatarsListHandler(s.userUC))
		r.Post("/admin/user-plans/{id}/cancel", userPlanCancelHandler(s.userPlanUC))

		r.Post("/admin/ratings", ratingAwardHandler(s.ratingUC))
		r.Get("/admin/ratings/leaderboard", leaderboardHandler(s.ratingUC))
	})
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if subtle.ConstantTimeCompare([]byte(req.Login), []byte(s.login)) != 1 ||
		subtle.ConstantTimeCompare([]byte(req.Password), []byte(s.password)) != 1 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	token, err := s.sessions.Issue(w, req.Login)
	if err != nil {
		s.log.Error().Err(err).Msg("mint admin session")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"token": token})
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	s.sessions.Revoke(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.sessions.FromRequest(r); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
