/**
 * @description
 * This file sets up the HTTP router for the pledge-gateway. It defines
 * the API endpoints, associates them with their corresponding handlers,
 * and applies middleware for logging, panic recovery, timeouts, CORS,
 * and member authentication on the wizard routes.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 * - github.com/go-chi/cors: CORS middleware for the browser client.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// GatewayRoutes creates and returns the router for the pledge-gateway.
func GatewayRoutes(h *GatewayHandlers, webhook *WebhookHandler, jwksURL string) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any major browsers
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Payment provider webhook intake.
	r.Post("/webhooks/paygate", webhook.ServeHTTP)

	// Public read side.
	r.Get("/campaigns/grouped", h.GroupedCampaignsHandler)
	r.Get("/campaigns/{campaignID}", h.GetCampaignHandler)
	r.Get("/campaigns/{campaignID}/donations", h.ListDonationsHandler)
	r.Post("/campaigns/{campaignID}/contact", h.ContactOwnerHandler)
	r.Get("/metrics/dashboard", h.DashboardMetricsHandler)
	r.Get("/metrics/cache", h.CacheStatsHandler)
	r.Get("/articles", h.ListArticlesHandler)
	r.Get("/articles/{articleID}", h.GetArticleHandler)

	// Checkout flow. Sessions are capability-addressed; no login needed
	// to back a campaign.
	r.Get("/checkout/options", h.CheckoutOptionsHandler)
	r.Get("/checkout/complete", h.CompleteCheckoutHandler)
	r.Post("/campaigns/{campaignID}/checkout", h.CreateCheckoutHandler)
	r.Route("/checkout/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/", h.GetCheckoutHandler)
		r.Patch("/reward", h.SelectRewardHandler)
		r.Patch("/amount", h.SetAmountHandler)
		r.Patch("/frequency", h.SetFrequencyHandler)
		r.Post("/submit", h.SubmitCheckoutHandler)
		r.Post("/cancel", h.CancelCheckoutHandler)
	})

	// Auth proxy for the browser client.
	r.Post("/auth/login", h.LoginHandler)
	r.Post("/auth/signup", h.SignupHandler)
	r.Post("/auth/confirm", h.ConfirmEmailHandler)
	r.Post("/auth/resend-confirmation", h.ResendConfirmationHandler)

	// Wizard template catalog is public; drafts require authentication.
	r.Get("/wizard/templates", h.TemplatesHandler)

	r.Group(func(r chi.Router) {
		r.Use(MemberAuthMiddleware(jwksURL))

		r.Post("/wizard/drafts", h.CreateDraftHandler)
		r.Get("/wizard/drafts", h.ListDraftsHandler)
		r.Route("/wizard/drafts/{draftID}", func(r chi.Router) {
			r.Get("/", h.GetDraftHandler)
			r.Delete("/", h.DeleteDraftHandler)
			r.Put("/details", h.SaveDetailsHandler)
			r.Put("/content", h.SaveContentHandler)
			r.Put("/rewards", h.SaveRewardsHandler)
			r.Post("/template", h.ApplyTemplateHandler)
			r.Post("/media", h.AttachMediaHandler)
			r.Post("/advance", h.AdvanceStepHandler)
			r.Post("/step", h.SetStepHandler)
			r.Post("/submit", h.SubmitDraftHandler)
		})
	})

	return r
}
