package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"premium-subscription-backend/internal/domain"
	"premium-subscription-backend/internal/domain/model"
	"premium-subscription-backend/internal/usecase"
)

// A struct to define the expected JSON request body for creating a plan.
type planCreateRequest struct {
	Name         string `json:"name"`
	Price        int64  `json:"price"`
	DurationDays int    `json:"duration_days"`
}

func plansCreateHandler(planUC usecase.PlanUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req planCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		plan, err := planUC.Create(r.Context(), req.Name, req.Price, req.DurationDays)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidArgument) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "Failed to create plan", http.StatusInternalServerError)
			return
		}
		respondJSON(w, http.StatusCreated, plan)
	}
}

func plansListHandler(planUC usecase.PlanUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plans, err := planUC.List(r.Context())
		if err != nil {
			http.Error(w, "Failed to list plans", http.StatusInternalServerError)
			return
		}
		respondJSON(w, http.StatusOK, plans)
	}
}

func planGetHandler(planUC usecase.PlanUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plan, err := planUC.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			notFoundOr500(w, err, "Failed to get plan")
			return
		}
		respondJSON(w, http.StatusOK, plan)
	}
}

func planUpdateHandler(planUC usecase.PlanUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req planCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		plan, err := planUC.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			notFoundOr500(w, err, "Failed to get plan")
			return
		}
		if req.Name != "" {
			plan.Name = req.Name
		}
		if req.Price > 0 {
			plan.Price = req.Price
		}
		if req.DurationDays > 0 {
			plan.DurationDays = req.DurationDays
		}
		if err := planUC.Update(r.Context(), plan); err != nil {
			http.Error(w, "Failed to update plan", http.StatusInternalServerError)
			return
		}
		respondJSON(w, http.StatusOK, plan)
	}
}

// usersListHandler returns a paginated list of users.
// It accepts 'offset' and 'limit' query parameters.
func usersListHandler(userUC usecase.UserUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit <= 0 {
			limit = 50 // Default page size
		}
		if offset < 0 {
			offset = 0
		}

		users, err := userUC.List(r.Context(), offset, limit)
		if err != nil {
			http.Error(w, "Failed to list users", http.StatusInternalServerError)
			return
		}

		response := struct {
			Data   []*model.User `json:"data"`
			Limit  int           `json:"limit"`
			Offset int           `json:"offset"`
		}{
			Data:   users,
			Limit:  limit,
			Offset: offset,
		}
		respondJSON(w, http.StatusOK, response)
	}
}

type userRegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

func userRegisterHandler(userUC usecase.UserUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req userRegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		user, err := userUC.Register(r.Context(), req.Username, req.Email)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrInvalidArgument):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, domain.ErrAlreadyExists):
				http.Error(w, "User already exists", http.StatusConflict)
			default:
				http.Error(w, "Failed to register user", http.StatusInternalServerError)
			}
			return
		}
		respondJSON(w, http.StatusCreated, user)
	}
}

func userGetHandler(userUC usecase.UserUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := userUC.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			notFoundOr500(w, err, "Failed to get user")
			return
		}
		respondJSON(w, http.StatusOK, user)
	}
}

func userPlansListHandler(userPlanUC usecase.UserPlanUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plans, err := userPlanUC.ListByUser(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, "Failed to list user plans", http.StatusInternalServerError)
			return
		}
		respondJSON(w, http.StatusOK, plans)
	}
}

func userPlanActiveHandler(userPlanUC usecase.UserPlanUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		up, err := userPlanUC.FindActive(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			notFoundOr500(w, err, "Failed to find active plan")
			return
		}
		respondJSON(w, http.StatusOK, up)
	}
}

func userPlanCancelHandler(userPlanUC usecase.UserPlanUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := userPlanUC.Cancel(r.Context(), chi.URLParam(r, "id")); err != nil {
			notFoundOr500(w, err, "Failed to cancel user plan")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type avatarPurchaseRequest struct {
	AvatarID string `json:"avatar_id"`
}

func avatarPurchaseHandler(userUC usecase.UserUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req avatarPurchaseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AvatarID == "" {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		user, err := userUC.PurchasePremiumAvatar(r.Context(), chi.URLParam(r, "id"), req.AvatarID)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrNotFound):
				http.Error(w, "Not found", http.StatusNotFound)
			case errors.Is(err, domain.ErrInsufficientCoins):
				http.Error(w, "Insufficient coins", http.StatusPaymentRequired)
			default:
				http.Error(w, "Failed to purchase avatar", http.StatusInternalServerError)
			}
			return
		}
		respondJSON(w, http.StatusOK, user)
	}
}

func avatarsListHandler(userUC usecase.UserUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		avatars, err := userUC.ListAvatars(r.Context())
		if err != nil {
			http.Error(w, "Failed to list avatars", http.StatusInternalServerError)
			return
		}
		respondJSON(w, http.StatusOK, avatars)
	}
}

type ratingAwardRequest struct {
	UserID string `json:"user_id"`
	Score  int64  `json:"score"`
}

func ratingAwardHandler(ratingUC usecase.RatingUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ratingAwardRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		rating, err := ratingUC.Award(r.Context(), req.UserID, req.Score)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrInvalidArgument):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, domain.ErrNotFound):
				http.Error(w, "User not found", http.StatusNotFound)
			default:
				http.Error(w, "Failed to award rating", http.StatusInternalServerError)
			}
			return
		}
		respondJSON(w, http.StatusCreated, rating)
	}
}

func leaderboardHandler(ratingUC usecase.RatingUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		period := r.URL.Query().Get("period")
		if period == "" {
			period = "weekly"
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		entries, err := ratingUC.Leaderboard(r.Context(), period, limit)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidArgument) {
				http.Error(w, "Unknown period", http.StatusBadRequest)
				return
			}
			http.Error(w, "Failed to build leaderboard", http.StatusInternalServerError)
			return
		}
		respondJSON(w, http.StatusOK, entries)
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func notFoundOr500(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, domain.ErrNotFound) {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	http.Error(w, msg, http.StatusInternalServerError)
}
