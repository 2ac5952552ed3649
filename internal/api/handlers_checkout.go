/**
 * @description
 * This file contains the HTTP handlers for the checkout flow: opening a
 * session, editing the pledge (reward, amount, frequency), submitting,
 * cancelling, polling status, and the token-based completion route.
 *
 * The completion route is deliberately opaque: the browser only ever
 * carries the session's completion token, never any payment data.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/crowdfundn/pledge-gateway/internal/app"
	"github.com/crowdfundn/pledge-gateway/internal/domain"
	"github.com/crowdfundn/pledge-gateway/internal/store"
)

// checkoutSessionResponse is returned on session creation. It is the one
// place the completion token crosses the wire to the browser.
type checkoutSessionResponse struct {
	Session  *domain.CheckoutSession `json:"session"`
	Token    string                  `json:"completion_token"`
	Progress int                     `json:"progress"`
}

// CreateCheckoutHandler opens a checkout session for a campaign.
func (h *GatewayHandlers) CreateCheckoutHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ConsumeCheckoutRateLimit(r.Context(), clientIP(r)); err != nil {
		h.writeError(w, http.StatusTooManyRequests, "Too many checkout attempts. Please wait a moment.")
		return
	}

	campaignID := chi.URLParam(r, "campaignID")
	session, err := h.service.CreateCheckoutSession(r.Context(), campaignID)
	if err != nil {
		if errors.Is(err, app.ErrCampaignNotFound) {
			h.writeError(w, http.StatusNotFound, "Campaign not found")
			return
		}
		log.Printf("level=error component=api endpoint=create_checkout campaign_id=%s err=%v", campaignID, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to start checkout")
		return
	}

	h.writeJSON(w, http.StatusCreated, checkoutSessionResponse{
		Session:  session,
		Token:    session.Token,
		Progress: 0,
	})
}

// GetCheckoutHandler serves the session's current state and progress.
func (h *GatewayHandlers) GetCheckoutHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	view, err := h.service.GetCheckout(r.Context(), sessionID)
	if err != nil {
		h.writeCheckoutError(w, "get_checkout", sessionID.String(), err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

// CheckoutOptionsHandler serves the billing-frequency catalog and the
// accepted payment methods for rendering the checkout form.
func (h *GatewayHandlers) CheckoutOptionsHandler(w http.ResponseWriter, r *http.Request) {
	frequencies, methods := h.service.PaymentOptions()
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"billing_frequencies": frequencies,
		"payment_methods":     methods,
	})
}

// SelectRewardHandler picks (or clears) a reward tier for the session.
func (h *GatewayHandlers) SelectRewardHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	var req struct {
		RewardID string `json:"reward_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.SelectReward(r.Context(), sessionID, req.RewardID)
	if err != nil {
		if errors.Is(err, app.ErrRewardNotFound) {
			h.writeError(w, http.StatusNotFound, "Reward not found")
			return
		}
		h.writeCheckoutError(w, "select_reward", sessionID.String(), err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// SetAmountHandler replaces the pledge amount with free-form input.
func (h *GatewayHandlers) SetAmountHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	var req struct {
		Amount string `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.SetPledgeAmount(r.Context(), sessionID, req.Amount)
	if err != nil {
		h.writeCheckoutError(w, "set_amount", sessionID.String(), err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// SetFrequencyHandler picks a billing frequency for the pledge.
func (h *GatewayHandlers) SetFrequencyHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	var req struct {
		Frequency string `json:"frequency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.SetPledgeFrequency(r.Context(), sessionID, req.Frequency)
	if err != nil {
		h.writeCheckoutError(w, "set_frequency", sessionID.String(), err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// SubmitCheckoutHandler submits the session for payment. Card fields
// arrive in the body, go to the provider, and are never echoed back.
func (h *GatewayHandlers) SubmitCheckoutHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	var req struct {
		Method  string                `json:"method"`
		Details domain.PaymentDetails `json:"details"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := h.service.SubmitCheckout(r.Context(), sessionID, app.SubmitCheckoutRequest{
		Method:  req.Method,
		Details: req.Details,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrNoPaymentMethod):
			h.writeError(w, http.StatusUnprocessableEntity, "Please select a payment method")
		case errors.Is(err, app.ErrUnknownPaymentMethod):
			h.writeError(w, http.StatusUnprocessableEntity, "This payment method is not supported")
		default:
			h.writeCheckoutError(w, "submit_checkout", sessionID.String(), err)
		}
		return
	}

	h.writeJSON(w, http.StatusAccepted, app.CheckoutView{Session: session, Progress: 10})
}

// CancelCheckoutHandler abandons a session that was never submitted.
func (h *GatewayHandlers) CancelCheckoutHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	session, err := h.service.CancelCheckout(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotCancellable) {
			h.writeError(w, http.StatusConflict, "This checkout can no longer be cancelled")
			return
		}
		h.writeCheckoutError(w, "cancel_checkout", sessionID.String(), err)
		return
	}
	h.writeJSON(w, http.StatusOK, app.CheckoutView{Session: session, Progress: 0})
}

// CompleteCheckoutHandler resolves the post-payment landing state from
// the opaque completion token.
func (h *GatewayHandlers) CompleteCheckoutHandler(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		h.writeError(w, http.StatusBadRequest, "Completion token is required")
		return
	}

	view, err := h.service.CompleteCheckoutByToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, store.ErrCheckoutSessionNotFound) {
			h.writeError(w, http.StatusNotFound, "Checkout session not found")
			return
		}
		log.Printf("level=error component=api endpoint=complete_checkout err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Unable to load checkout")
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

func (h *GatewayHandlers) sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "sessionID")
	sessionID, err := uuid.Parse(raw)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid session id")
		return uuid.Nil, false
	}
	return sessionID, true
}

func (h *GatewayHandlers) writeCheckoutError(w http.ResponseWriter, endpoint, sessionID string, err error) {
	switch {
	case errors.Is(err, store.ErrCheckoutSessionNotFound):
		h.writeError(w, http.StatusNotFound, "Checkout session not found")
	case errors.Is(err, store.ErrCheckoutNotEditable):
		h.writeError(w, http.StatusConflict, "This checkout has already been submitted")
	default:
		log.Printf("level=error component=api endpoint=%s session_id=%s err=%v", endpoint, sessionID, err)
		h.writeError(w, http.StatusInternalServerError, "Something went wrong")
	}
}
