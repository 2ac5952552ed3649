/**
 * @description
 * This file contains the HTTP handlers for the pledge-gateway's public
 * read-side endpoints: campaign detail, the category-grouped discovery
 * listing, the paginated donations list, dashboard metrics, the
 * contact-owner form, and the thin auth proxy. Handlers parse requests,
 * call the application service, and write JSON responses; they are the
 * bridge between the web layer and the business logic layer.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - internal/app, internal/domain, internal/store: For service logic, models, and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/crowdfundn/pledge-gateway/internal/app"
	"github.com/crowdfundn/pledge-gateway/internal/domain"
	"github.com/crowdfundn/pledge-gateway/pkg/fundraiserclient"
)

// GatewayHandlers holds the application service that handlers will use.
type GatewayHandlers struct {
	service *app.Service
}

// NewGatewayHandlers creates a new instance of GatewayHandlers.
func NewGatewayHandlers(service *app.Service) *GatewayHandlers {
	return &GatewayHandlers{service: service}
}

// GetCampaignHandler serves one campaign with its rewards, updates,
// comments and fundraiser profile.
func (h *GatewayHandlers) GetCampaignHandler(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "campaignID")

	campaign, err := h.service.GetCampaign(r.Context(), campaignID)
	if err != nil {
		if errors.Is(err, app.ErrCampaignNotFound) {
			h.writeError(w, http.StatusNotFound, "Campaign not found")
			return
		}
		log.Printf("level=error component=api endpoint=get_campaign campaign_id=%s err=%v", campaignID, err)
		h.writeError(w, upstreamStatus(err), "Unable to load campaign")
		return
	}

	h.writeJSON(w, http.StatusOK, campaign)
}

// GroupedCampaignsHandler serves the discovery listing bucketed by
// category.
func (h *GatewayHandlers) GroupedCampaignsHandler(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.GroupCampaignsByCategory(r.Context())
	if err != nil {
		log.Printf("level=error component=api endpoint=grouped_campaigns err=%v", err)
		h.writeError(w, upstreamStatus(err), "Unable to load campaigns")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"categories": categories})
}

// ListDonationsHandler serves one page of a campaign's backer list.
func (h *GatewayHandlers) ListDonationsHandler(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "campaignID")
	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", 0)

	listing, err := h.service.ListDonations(r.Context(), campaignID, page, perPage)
	if err != nil {
		if errors.Is(err, app.ErrCampaignNotFound) {
			h.writeError(w, http.StatusNotFound, "Campaign not found")
			return
		}
		log.Printf("level=error component=api endpoint=list_donations campaign_id=%s err=%v", campaignID, err)
		h.writeError(w, upstreamStatus(err), "Unable to load donations")
		return
	}

	h.writeJSON(w, http.StatusOK, listing)
}

// DashboardMetricsHandler serves the platform-wide totals.
func (h *GatewayHandlers) DashboardMetricsHandler(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.service.GetDashboardMetrics(r.Context())
	if err != nil {
		log.Printf("level=error component=api endpoint=dashboard_metrics err=%v", err)
		h.writeError(w, upstreamStatus(err), "Unable to load metrics")
		return
	}
	h.writeJSON(w, http.StatusOK, metrics)
}

// ListArticlesHandler serves the published editorial articles.
func (h *GatewayHandlers) ListArticlesHandler(w http.ResponseWriter, r *http.Request) {
	articles, err := h.service.ListArticles(r.Context())
	if err != nil {
		log.Printf("level=error component=api endpoint=list_articles err=%v", err)
		h.writeError(w, upstreamStatus(err), "Unable to load articles")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"articles": articles})
}

// GetArticleHandler serves a single article by id or slug.
func (h *GatewayHandlers) GetArticleHandler(w http.ResponseWriter, r *http.Request) {
	articleID := chi.URLParam(r, "articleID")

	article, err := h.service.GetArticle(r.Context(), articleID)
	if err != nil {
		if errors.Is(err, app.ErrArticleNotFound) {
			h.writeError(w, http.StatusNotFound, "Article not found")
			return
		}
		log.Printf("level=error component=api endpoint=get_article article_id=%s err=%v", articleID, err)
		h.writeError(w, upstreamStatus(err), "Unable to load article")
		return
	}

	h.writeJSON(w, http.StatusOK, article)
}

// CacheStatsHandler exposes the donation cache hit/miss counters for
// ad-hoc inspection.
func (h *GatewayHandlers) CacheStatsHandler(w http.ResponseWriter, r *http.Request) {
	hits, misses := h.service.DonationCacheStats()
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"donation_cache": map[string]int64{"hits": hits, "misses": misses},
	})
}

// ContactOwnerHandler relays a visitor message to a campaign owner.
func (h *GatewayHandlers) ContactOwnerHandler(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "campaignID")

	var msg domain.ContactMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.service.ContactCampaignOwner(r.Context(), campaignID, msg)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrContactMessageInvalid):
			h.writeError(w, http.StatusBadRequest, "Name, email and message are all required")
		case errors.Is(err, app.ErrCampaignNotFound):
			h.writeError(w, http.StatusNotFound, "Campaign not found")
		default:
			log.Printf("level=error component=api endpoint=contact_owner campaign_id=%s err=%v", campaignID, err)
			h.writeError(w, upstreamStatus(err), "Unable to send message")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
}

// LoginHandler proxies a credential check to the core API.
func (h *GatewayHandlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		log.Printf("level=warn component=api endpoint=login outcome=reject err=%v", err)
		h.writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	h.writeJSON(w, http.StatusOK, session)
}

// SignupHandler proxies account creation to the core API.
func (h *GatewayHandlers) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := h.service.Signup(r.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		log.Printf("level=warn component=api endpoint=signup outcome=reject err=%v", err)
		h.writeError(w, http.StatusUnprocessableEntity, "Unable to create account")
		return
	}
	h.writeJSON(w, http.StatusCreated, session)
}

// ConfirmEmailHandler redeems an email confirmation token.
func (h *GatewayHandlers) ConfirmEmailHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		h.writeError(w, http.StatusBadRequest, "Confirmation token is required")
		return
	}

	if err := h.service.ConfirmEmail(r.Context(), req.Token); err != nil {
		log.Printf("level=warn component=api endpoint=confirm_email outcome=reject err=%v", err)
		h.writeError(w, http.StatusUnprocessableEntity, "Unable to confirm email")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "confirmed"})
}

// ResendConfirmationHandler triggers a fresh confirmation email.
func (h *GatewayHandlers) ResendConfirmationHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		h.writeError(w, http.StatusBadRequest, "Email is required")
		return
	}

	if err := h.service.ResendConfirmation(r.Context(), req.Email); err != nil {
		log.Printf("level=warn component=api endpoint=resend_confirmation outcome=reject err=%v", err)
		h.writeError(w, http.StatusUnprocessableEntity, "Unable to resend confirmation")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

// writeJSON is a helper for writing JSON responses.
func (h *GatewayHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("level=error component=api msg=\"failed to write json response\" err=%v", err)
	}
}

// writeError is a helper for writing JSON error responses.
func (h *GatewayHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

// upstreamStatus maps core-API failures to the status the browser sees:
// 504 for an upstream timeout, 502 for any other upstream failure.
func upstreamStatus(err error) int {
	switch {
	case errors.Is(err, fundraiserclient.ErrUpstreamTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, app.ErrUpstreamUnavailable):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

// clientIP resolves the caller address for rate limiting, preferring the
// first X-Forwarded-For hop when present.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
