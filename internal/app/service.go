/**
 * @description
 * This file contains the core application service for the pledge-gateway.
 * The `Service` struct orchestrates the checkout state machine, pledge
 * selection, the campaign creation wizard, and the read-side stores,
 * coordinating between the gateway's own repository, the core fundraiser
 * API, the payment provider, and the message broker.
 *
 * @dependencies
 * - internal/domain, internal/store: For domain models and data access.
 * - pkg/fundraiserclient, pkg/paygateclient: For external service
 *   communication.
 */

package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/crowdfundn/pledge-gateway/internal/store"
	"github.com/crowdfundn/pledge-gateway/pkg/fundraiserclient"
	"github.com/crowdfundn/pledge-gateway/pkg/paygateclient"
)

var (
	ErrNoPaymentMethod      = errors.New("no payment method selected")
	ErrUnknownPaymentMethod = errors.New("unknown payment method")
	ErrCampaignNotFound     = errors.New("campaign not found")
	ErrArticleNotFound      = errors.New("article not found")
	ErrRewardNotFound       = errors.New("reward not found for campaign")
	ErrRateLimited          = errors.New("rate limit exceeded")
)

// fundraiserAPI is the slice of the core API client the service depends
// on; tests substitute a stub.
type fundraiserAPI interface {
	GetCampaign(ctx context.Context, campaignID string) (*fundraiserclient.Campaign, error)
	ListDonations(ctx context.Context, campaignID string, page, perPage int) (*fundraiserclient.DonationsPage, error)
	ContactCampaignOwner(ctx context.Context, campaignID string, msg fundraiserclient.ContactRequest) error
	CreateCampaign(ctx context.Context, req fundraiserclient.CreateCampaignRequest) (*fundraiserclient.Campaign, error)
	GroupCampaignsByCategory(ctx context.Context) ([]fundraiserclient.CategoryGroup, error)
	ConfirmEmail(ctx context.Context, token string) error
	ResendConfirmation(ctx context.Context, email string) error
	Login(ctx context.Context, creds fundraiserclient.Credentials) (*fundraiserclient.AuthSession, error)
	Signup(ctx context.Context, creds fundraiserclient.Credentials) (*fundraiserclient.AuthSession, error)
	GetDashboardMetrics(ctx context.Context) (*fundraiserclient.DashboardMetrics, error)
	ListArticles(ctx context.Context) ([]fundraiserclient.Article, error)
	GetArticle(ctx context.Context, articleID string) (*fundraiserclient.Article, error)
}

// paymentGateway is the slice of the payment provider client the service
// depends on.
type paymentGateway interface {
	CreateIntent(ctx context.Context, req paygateclient.CreateIntentRequest) (*paygateclient.IntentResponse, error)
	GetIntentStatus(ctx context.Context, intentID string) (*paygateclient.IntentResponse, error)
}

// RateLimiter consumes one unit from a (scope, subject) window. A zero
// count means limiting is disabled for the call.
type RateLimiter interface {
	ConsumeRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (count int, retryAfterSeconds int, err error)
}

// Service provides the core business logic for the pledge-gateway.
type Service struct {
	repo       store.Repository
	fundraiser fundraiserAPI
	paygate    paymentGateway

	checkoutTimeout     time.Duration
	donationsPerPage    int
	donationsPerPageMax int

	cache   DonationCache
	limiter RateLimiter

	checkoutRatePerMinute int
	webhookRatePerMinute  int

	// Per-resource request sequence used to drop stale donation-page
	// responses before they overwrite newer cache entries.
	seqMu sync.Mutex
	seq   map[string]uint64
}

// NewService creates a new pledge-gateway service instance.
func NewService(
	repo store.Repository,
	fundraiser *fundraiserclient.Client,
	paygate *paygateclient.Client,
	checkoutTimeout time.Duration,
	donationsPerPage int,
	donationsPerPageMax int,
) *Service {
	return &Service{
		repo:                repo,
		fundraiser:          fundraiser,
		paygate:             paygate,
		checkoutTimeout:     checkoutTimeout,
		donationsPerPage:    donationsPerPage,
		donationsPerPageMax: donationsPerPageMax,
		cache:               noopDonationCache{},
		seq:                 make(map[string]uint64),
	}
}

// SetDonationCache installs the donation page cache (Redis in production).
func (s *Service) SetDonationCache(cache DonationCache) {
	if cache != nil {
		s.cache = cache
	}
}

// SetRateLimiter installs the distributed rate limiter and its budgets.
func (s *Service) SetRateLimiter(limiter RateLimiter, checkoutPerMinute, webhookPerMinute int) {
	s.limiter = limiter
	s.checkoutRatePerMinute = checkoutPerMinute
	s.webhookRatePerMinute = webhookPerMinute
}

// ConsumeCheckoutRateLimit charges one checkout-session creation against
// the subject's (typically client IP) per-minute budget.
func (s *Service) ConsumeCheckoutRateLimit(ctx context.Context, subject string) error {
	return s.consumeLimit(ctx, "checkout_create", subject, s.checkoutRatePerMinute)
}

// ConsumeWebhookRateLimit charges one webhook delivery against the
// per-minute intake budget.
func (s *Service) ConsumeWebhookRateLimit(ctx context.Context, subject string) error {
	return s.consumeLimit(ctx, "webhook_intake", subject, s.webhookRatePerMinute)
}

func (s *Service) consumeLimit(ctx context.Context, scope, subject string, limit int) error {
	if s.limiter == nil || limit <= 0 {
		return nil
	}
	count, retryAfter, err := s.limiter.ConsumeRateLimit(ctx, scope, subject, limit, time.Minute)
	if err != nil {
		// A broken limiter must not take the flow down with it.
		return nil
	}
	if count > limit {
		return fmt.Errorf("%w: retry after %ds", ErrRateLimited, retryAfter)
	}
	return nil
}

// newSessionToken mints the opaque completion-token capability. 128 bits
// of randomness, hex-encoded.
func newSessionToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
