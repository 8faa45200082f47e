package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"premium-subscription-backend/internal/gateway/click"
	"premium-subscription-backend/internal/gateway/payme"
	"premium-subscription-backend/internal/infra/logging"
	"premium-subscription-backend/internal/infra/metrics"
	"premium-subscription-backend/internal/usecase"
)

// Server exposes the gateway webhook endpoints and the link builders. All
// protocol responses go out with HTTP 200; business failures live inside the
// body per the gateway contracts.
type Server struct {
	clickUC    usecase.ClickUseCase
	paymeUC    usecase.PaymeUseCase
	paymeLogin string
	paymePass  string
	log        *zerolog.Logger
}

func NewServer(clickUC usecase.ClickUseCase, paymeUC usecase.PaymeUseCase, paymeLogin, paymePass string, logger *zerolog.Logger) *Server {
	l := logger.With().Str("component", "api").Logger()
	return &Server{
		clickUC:    clickUC,
		paymeUC:    paymeUC,
		paymeLogin: paymeLogin,
		paymePass:  paymePass,
		log:        &l,
	}
}

// Register attaches all routes to the router.
func (s *Server) Register(r chi.Router) {
	r.Post("/payments/click", s.handleClick)
	r.Post("/payments/click/link", s.handleClickLink)

	r.With(PaymeBasicAuth(s.paymeLogin, s.paymePass)).
		Post("/payments/payme", s.handlePayme)
	r.Post("/payments/payme/link", s.handlePaymeLink)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req, ok := decodeClickRequest(r)
	if !ok {
		writeJSON(w, click.Fail(click.ErrBadRequest, "Error in request from click"))
		return
	}

	resp, err := s.clickUC.HandleMerchantTransaction(r.Context(), req)
	if err != nil {
		l := logging.With(r.Context(), s.log)
		l.Error().Err(err).Str("click_trans_id", req.ClickTransID).Msg("click webhook")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	metrics.IncWebhookRequest("click", req.Action, int(resp.Error))
	metrics.ObserveWebhookLatency("click", req.Action, time.Since(start).Milliseconds())
	writeJSON(w, resp)
}

func (s *Server) handlePayme(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req payme.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if !payme.KnownMethod(req.Method) {
		// Protocol quirk: unknown methods get a literal string body.
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("Invalid transaction method"))
		return
	}

	reply, err := s.paymeUC.HandleTransactionMethods(r.Context(), req)
	if err != nil {
		l := logging.With(r.Context(), s.log)
		l.Error().Err(err).Str("payme_method", req.Method).Msg("payme webhook")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	code := 0
	if reply.Error != nil {
		code = reply.Error.Code
	}
	metrics.IncWebhookRequest("payme", req.Method, code)
	metrics.ObserveWebhookLatency("payme", req.Method, time.Since(start).Milliseconds())
	writeJSON(w, reply)
}

type linkRequest struct {
	UserID string `json:"user_id"`
	PlanID string `json:"plan_id"`
}

type linkResponse struct {
	Link string `json:"link"`
}

func (s *Server) handleClickLink(w http.ResponseWriter, r *http.Request) {
	s.handleLink(w, r, s.clickUC.GenerateLink)
}

func (s *Server) handlePaymeLink(w http.ResponseWriter, r *http.Request) {
	s.handleLink(w, r, s.paymeUC.GenerateLink)
}

func (s *Server) handleLink(w http.ResponseWriter, r *http.Request, gen func(ctx context.Context, userID, planID string) (string, error)) {
	var req linkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" || req.PlanID == "" {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	link, err := gen(r.Context(), req.UserID, req.PlanID)
	if err != nil {
		http.Error(w, "link generation failed", http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, linkResponse{Link: link})
}

// decodeClickRequest reads the Click webhook body. The gateway posts
// form-encoded fields; JSON is accepted too for manual testing.
func decodeClickRequest(r *http.Request) (click.Request, bool) {
	var req click.Request

	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, false
		}
		return req, true
	}

	if err := r.ParseForm(); err != nil {
		return req, false
	}
	req = click.Request{
		Action:            r.PostFormValue("action"),
		ClickTransID:      r.PostFormValue("click_trans_id"),
		ServiceID:         r.PostFormValue("service_id"),
		MerchantTransID:   r.PostFormValue("merchant_trans_id"),
		MerchantPrepareID: r.PostFormValue("merchant_prepare_id"),
		Amount:            r.PostFormValue("amount"),
		SignTime:          r.PostFormValue("sign_time"),
		SignString:        r.PostFormValue("sign_string"),
		Param2:            r.PostFormValue("param2"),
		Error:             r.PostFormValue("error"),
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}
