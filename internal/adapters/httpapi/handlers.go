package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bnema/kol-credits/internal/application"
	"github.com/bnema/kol-credits/internal/domain"
	"github.com/gorilla/mux"
)

type consumeRequest struct {
	Text string `json:"text"`
}

// purchaseRequest is sent by the billing backend after a payment settles.
type purchaseRequest struct {
	AccountID string `json:"account_id"`
	Credits   int    `json:"credits"`
}

type packageResponse struct {
	ID               string    `json:"id"`
	PurchasedAt      time.Time `json:"purchased_at"`
	ExpiresAt        time.Time `json:"expires_at"`
	CreditsTotal     int       `json:"credits_total"`
	CreditsRemaining int       `json:"credits_remaining"`
}

type creditsResponse struct {
	AccountID        string            `json:"account_id"`
	FreeCredits      int               `json:"free_credits"`
	PremiumCredits   int               `json:"premium_credits"`
	PackageCredits   int               `json:"package_credits"`
	GeneralQuestions int               `json:"general_questions"`
	Spendable        int               `json:"spendable"`
	NextReset        time.Time         `json:"next_reset"`
	ResetsIn         string            `json:"resets_in"`
	LowBalance       bool              `json:"low_balance"`
	Packages         []packageResponse `json:"packages"`
}

type consumeResponse struct {
	Allowed       bool    `json:"allowed"`
	KOLSpecific   bool    `json:"kol_specific"`
	Unlimited     bool    `json:"unlimited"`
	Charged       int     `json:"charged"`
	EstimatedCost float64 `json:"estimated_cost"`
	FreeCredits   int     `json:"free_credits"`
	ResetsIn      string  `json:"resets_in,omitempty"`
	Message       string  `json:"message,omitempty"`
}

type decisionResponse struct {
	Outcome         string `json:"outcome"`
	Allowed         bool   `json:"allowed"`
	Reason          string `json:"reason,omitempty"`
	CreditsRequired int    `json:"credits_required,omitempty"`
	Limit           int    `json:"limit,omitempty"`
	Used            int    `json:"used,omitempty"`
	Intent          string `json:"intent,omitempty"`
}

type messageResponse struct {
	decisionResponse
	ConversationKey string `json:"conversation_key,omitempty"`
	Unlocked        bool   `json:"unlocked"`
	Charged         int    `json:"charged"`
}

func (s *Server) getCredits(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	actor := actorFrom(r)
	status, err := s.services.Ledger.Status(ctx, actor.AccountID)
	if err != nil {
		s.respondWithDomainError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, toCreditsResponse(status))
}

func (s *Server) consume(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req consumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.services.Meter.TryConsume(ctx, application.ConsumeCommand{Actor: actorFrom(r), Text: req.Text})
	if err != nil {
		s.respondWithDomainError(w, r, err)
		return
	}

	resp := consumeResponse{
		Allowed:       result.Allowed,
		KOLSpecific:   result.KOLSpecific,
		Unlimited:     result.Unlimited,
		Charged:       result.Charged,
		EstimatedCost: result.EstimatedCost,
		FreeCredits:   result.Account.FreeCredits,
	}
	if !result.Unlimited {
		resp.ResetsIn = domain.FormatWait(result.UntilReset)
	}

	s.services.Metrics.ObserveQuery(queryResult(result))
	if !result.Allowed {
		resp.Message = domain.ExhaustedNotification(result.Account.ID, result.UntilReset).Message
		respondWithJSON(w, http.StatusPaymentRequired, resp)
		return
	}

	respondWithJSON(w, http.StatusOK, resp)
}

func (s *Server) estimate(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("q")
	respondWithJSON(w, http.StatusOK, map[string]any{
		"estimated_cost": s.services.Meter.EstimateCost(text),
		"kol_specific":   domain.ClassifyQuery(text).KOLSpecific,
	})
}

func (s *Server) purchasePackage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	actor := actorFrom(r)
	if actor.Anonymous() {
		respondWithJSON(w, http.StatusUnauthorized, toDecisionResponse(domain.DenyNoAuth()))
		return
	}
	if actor.Role != domain.RoleAdmin {
		respondWithJSON(w, http.StatusForbidden, toDecisionResponse(domain.DenyRoleForbidden("Only admins can add credit packages")))
		return
	}
	target := domain.AccountID(strings.TrimSpace(req.AccountID))
	if target == "" {
		respondWithError(w, http.StatusBadRequest, "account_id is required")
		return
	}

	pkg, err := s.services.Ledger.PurchasePackage(ctx, target, req.Credits)
	if err != nil {
		s.respondWithDomainError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, toPackageResponse(pkg))
}

func (s *Server) canPerform(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	action := domain.Action(mux.Vars(r)["action"])
	decision, err := s.services.Permissions.CanPerform(ctx, actorFrom(r), action)
	if err != nil {
		s.respondWithDomainError(w, r, err)
		return
	}

	label := string(action)
	if !action.Valid() {
		label = "unknown"
	}
	s.services.Metrics.ObserveDecision(label, decision)
	respondWithJSON(w, http.StatusOK, toDecisionResponse(decision))
}

func (s *Server) searchLimit(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]int{"limit": s.services.Permissions.SearchResultLimit(actorFrom(r))})
}

func (s *Server) canMessage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	cmd, ok := messageCommand(w, r)
	if !ok {
		return
	}

	decision, err := s.services.Contacts.CanMessage(ctx, cmd)
	if err != nil {
		s.respondWithDomainError(w, r, err)
		return
	}

	s.services.Metrics.ObserveDecision("message_"+string(cmd.TargetType), decision)
	respondWithJSON(w, http.StatusOK, toDecisionResponse(decision))
}

func (s *Server) recordMessage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	cmd, ok := messageCommand(w, r)
	if !ok {
		return
	}

	result, err := s.services.Contacts.RecordMessage(ctx, cmd)
	if err != nil {
		s.respondWithDomainError(w, r, err)
		return
	}

	s.services.Metrics.ObserveDecision("message_"+string(cmd.TargetType), result.Decision)
	resp := messageResponse{
		decisionResponse: toDecisionResponse(result.Decision),
		ConversationKey:  result.ConversationKey,
		Unlocked:         result.Unlocked,
		Charged:          result.Charged,
	}
	respondWithJSON(w, statusForDecision(result.Decision), resp)
}

func (s *Server) invite(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	kolID := domain.AccountID(mux.Vars(r)["kolID"])
	decision, err := s.services.Contacts.RecordInvitation(ctx, application.InviteCommand{Brand: actorFrom(r), KOLID: kolID})
	if err != nil {
		s.respondWithDomainError(w, r, err)
		return
	}

	s.services.Metrics.ObserveDecision(string(domain.ActionInviteToCampaign), decision)
	respondWithJSON(w, statusForDecision(decision), toDecisionResponse(decision))
}

func messageCommand(w http.ResponseWriter, r *http.Request) (application.MessageCommand, bool) {
	vars := mux.Vars(r)
	profileType, err := domain.ParseProfileType(vars["type"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return application.MessageCommand{}, false
	}

	return application.MessageCommand{
		Actor:      actorFrom(r),
		TargetID:   domain.AccountID(vars["id"]),
		TargetType: profileType,
	}, true
}

func actorFrom(r *http.Request) domain.Actor {
	actor, _ := ActorFromContext(r.Context())
	return actor
}

func queryResult(result application.ConsumeResult) string {
	switch {
	case result.Unlimited:
		return "unlimited"
	case !result.Allowed:
		return "denied"
	case result.Charged > 0:
		return "charged"
	default:
		return "free"
	}
}

func statusForDecision(decision domain.Decision) int {
	switch decision.Outcome {
	case domain.OutcomeAllowed:
		return http.StatusOK
	case domain.OutcomeDeniedNoAuth:
		return http.StatusUnauthorized
	case domain.OutcomeDeniedNoCredits, domain.OutcomeDeniedUpgradeRequired, domain.OutcomeDeniedMonthlyLimit:
		return http.StatusPaymentRequired
	default:
		return http.StatusForbidden
	}
}

func (s *Server) respondWithDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrMissingAccountID):
		respondWithError(w, http.StatusUnauthorized, headerAccountID+" header required")
	case errors.Is(err, domain.ErrInvalidCreditAmount),
		errors.Is(err, domain.ErrUnknownProfileType),
		errors.Is(err, domain.ErrUnknownAction):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrVersionConflict):
		respondWithError(w, http.StatusConflict, "Account is busy, retry")
	case errors.Is(err, context.DeadlineExceeded):
		respondWithError(w, http.StatusServiceUnavailable, "Request timed out")
	default:
		s.logger.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func toCreditsResponse(status application.Status) creditsResponse {
	packages := make([]packageResponse, 0, len(status.Account.Packages))
	for _, pkg := range status.Account.Packages {
		packages = append(packages, toPackageResponse(pkg))
	}

	return creditsResponse{
		AccountID:        string(status.Account.ID),
		FreeCredits:      status.Account.FreeCredits,
		PremiumCredits:   status.Account.PremiumCredits,
		PackageCredits:   status.Account.PackageCredits(),
		GeneralQuestions: status.Account.GeneralQuestions,
		Spendable:        status.Spendable,
		NextReset:        status.NextReset,
		ResetsIn:         domain.FormatWait(status.UntilReset),
		LowBalance:       status.LowBalance,
		Packages:         packages,
	}
}

func toPackageResponse(pkg domain.CreditPackage) packageResponse {
	return packageResponse{
		ID:               pkg.ID,
		PurchasedAt:      pkg.PurchasedAt,
		ExpiresAt:        pkg.ExpiresAt,
		CreditsTotal:     pkg.CreditsTotal,
		CreditsRemaining: pkg.CreditsRemaining,
	}
}

func toDecisionResponse(decision domain.Decision) decisionResponse {
	return decisionResponse{
		Outcome:         string(decision.Outcome),
		Allowed:         decision.Allowed(),
		Reason:          decision.Reason,
		CreditsRequired: decision.CreditsRequired,
		Limit:           decision.Limit,
		Used:            decision.Used,
		Intent:          string(decision.Intent()),
	}
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
