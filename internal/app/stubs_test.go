package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/crowdfundn/pledge-gateway/internal/domain"
	"github.com/crowdfundn/pledge-gateway/internal/store"
	"github.com/crowdfundn/pledge-gateway/pkg/fundraiserclient"
	"github.com/crowdfundn/pledge-gateway/pkg/paygateclient"
)

// newTestService builds a Service wired to the given stubs with the
// defaults the constructor would apply.
func newTestService(repo store.Repository, fundraiser fundraiserAPI, paygate paymentGateway) *Service {
	return &Service{
		repo:                repo,
		fundraiser:          fundraiser,
		paygate:             paygate,
		checkoutTimeout:     30 * time.Minute,
		donationsPerPage:    10,
		donationsPerPageMax: 50,
		cache:               noopDonationCache{},
		seq:                 make(map[string]uint64),
	}
}

// stubRepo satisfies store.Repository via the embedded interface and lets
// each test override just the methods it exercises.
type stubRepo struct {
	store.Repository

	findByIDFn      func(ctx context.Context, sessionID uuid.UUID) (*domain.CheckoutSession, error)
	findByTokenFn   func(ctx context.Context, token string) (*domain.CheckoutSession, error)
	findByIntentFn  func(ctx context.Context, intentID string) (*domain.CheckoutSession, error)
	createSessionFn func(ctx context.Context, session *domain.CheckoutSession) error
	updatePledgeFn  func(ctx context.Context, sessionID uuid.UUID, pledge domain.PledgeSelection) error
	markSubmittedFn func(ctx context.Context, sessionID uuid.UUID, params store.SubmitCheckoutParams) error
	settleFn        func(ctx context.Context, sessionID uuid.UUID, status domain.CheckoutStatus, failureReason *string) error
	cancelFn        func(ctx context.Context, sessionID uuid.UUID) error

	createDraftFn func(ctx context.Context, draft *domain.CampaignDraft) error
	findDraftFn   func(ctx context.Context, draftID uuid.UUID, creatorID string) (*domain.CampaignDraft, error)
	updateDraftFn func(ctx context.Context, draft *domain.CampaignDraft) error
	deleteDraftFn func(ctx context.Context, draftID uuid.UUID, creatorID string) (bool, error)
}

func (r *stubRepo) FindCheckoutSessionByID(ctx context.Context, sessionID uuid.UUID) (*domain.CheckoutSession, error) {
	return r.findByIDFn(ctx, sessionID)
}

func (r *stubRepo) FindCheckoutSessionByToken(ctx context.Context, token string) (*domain.CheckoutSession, error) {
	return r.findByTokenFn(ctx, token)
}

func (r *stubRepo) FindCheckoutSessionByIntentID(ctx context.Context, intentID string) (*domain.CheckoutSession, error) {
	return r.findByIntentFn(ctx, intentID)
}

func (r *stubRepo) CreateCheckoutSession(ctx context.Context, session *domain.CheckoutSession) error {
	return r.createSessionFn(ctx, session)
}

func (r *stubRepo) UpdateCheckoutPledge(ctx context.Context, sessionID uuid.UUID, pledge domain.PledgeSelection) error {
	return r.updatePledgeFn(ctx, sessionID, pledge)
}

func (r *stubRepo) MarkCheckoutSubmitted(ctx context.Context, sessionID uuid.UUID, params store.SubmitCheckoutParams) error {
	return r.markSubmittedFn(ctx, sessionID, params)
}

func (r *stubRepo) SettleCheckoutSession(ctx context.Context, sessionID uuid.UUID, status domain.CheckoutStatus, failureReason *string) error {
	return r.settleFn(ctx, sessionID, status, failureReason)
}

func (r *stubRepo) CancelCheckoutSession(ctx context.Context, sessionID uuid.UUID) error {
	return r.cancelFn(ctx, sessionID)
}

func (r *stubRepo) CreateCampaignDraft(ctx context.Context, draft *domain.CampaignDraft) error {
	return r.createDraftFn(ctx, draft)
}

func (r *stubRepo) FindCampaignDraftByID(ctx context.Context, draftID uuid.UUID, creatorID string) (*domain.CampaignDraft, error) {
	return r.findDraftFn(ctx, draftID, creatorID)
}

func (r *stubRepo) UpdateCampaignDraft(ctx context.Context, draft *domain.CampaignDraft) error {
	return r.updateDraftFn(ctx, draft)
}

func (r *stubRepo) DeleteCampaignDraft(ctx context.Context, draftID uuid.UUID, creatorID string) (bool, error) {
	return r.deleteDraftFn(ctx, draftID, creatorID)
}

var errStubUnexpectedCall = errors.New("unexpected upstream call")

// stubFundraiser satisfies fundraiserAPI with per-method overrides.
// Methods without an override report an unexpected call.
type stubFundraiser struct {
	getCampaignFn    func(ctx context.Context, campaignID string) (*fundraiserclient.Campaign, error)
	listDonationsFn  func(ctx context.Context, campaignID string, page, perPage int) (*fundraiserclient.DonationsPage, error)
	createCampaignFn func(ctx context.Context, req fundraiserclient.CreateCampaignRequest) (*fundraiserclient.Campaign, error)
	contactOwnerFn   func(ctx context.Context, campaignID string, msg fundraiserclient.ContactRequest) error
	listArticlesFn   func(ctx context.Context) ([]fundraiserclient.Article, error)
	getArticleFn     func(ctx context.Context, articleID string) (*fundraiserclient.Article, error)
}

func (f *stubFundraiser) GetCampaign(ctx context.Context, campaignID string) (*fundraiserclient.Campaign, error) {
	if f.getCampaignFn == nil {
		return nil, errStubUnexpectedCall
	}
	return f.getCampaignFn(ctx, campaignID)
}

func (f *stubFundraiser) ListDonations(ctx context.Context, campaignID string, page, perPage int) (*fundraiserclient.DonationsPage, error) {
	if f.listDonationsFn == nil {
		return nil, errStubUnexpectedCall
	}
	return f.listDonationsFn(ctx, campaignID, page, perPage)
}

func (f *stubFundraiser) ContactCampaignOwner(ctx context.Context, campaignID string, msg fundraiserclient.ContactRequest) error {
	if f.contactOwnerFn == nil {
		return errStubUnexpectedCall
	}
	return f.contactOwnerFn(ctx, campaignID, msg)
}

func (f *stubFundraiser) CreateCampaign(ctx context.Context, req fundraiserclient.CreateCampaignRequest) (*fundraiserclient.Campaign, error) {
	if f.createCampaignFn == nil {
		return nil, errStubUnexpectedCall
	}
	return f.createCampaignFn(ctx, req)
}

func (f *stubFundraiser) GroupCampaignsByCategory(ctx context.Context) ([]fundraiserclient.CategoryGroup, error) {
	return nil, errStubUnexpectedCall
}

func (f *stubFundraiser) ConfirmEmail(ctx context.Context, token string) error {
	return errStubUnexpectedCall
}

func (f *stubFundraiser) ResendConfirmation(ctx context.Context, email string) error {
	return errStubUnexpectedCall
}

func (f *stubFundraiser) Login(ctx context.Context, creds fundraiserclient.Credentials) (*fundraiserclient.AuthSession, error) {
	return nil, errStubUnexpectedCall
}

func (f *stubFundraiser) Signup(ctx context.Context, creds fundraiserclient.Credentials) (*fundraiserclient.AuthSession, error) {
	return nil, errStubUnexpectedCall
}

func (f *stubFundraiser) GetDashboardMetrics(ctx context.Context) (*fundraiserclient.DashboardMetrics, error) {
	return nil, errStubUnexpectedCall
}

func (f *stubFundraiser) ListArticles(ctx context.Context) ([]fundraiserclient.Article, error) {
	if f.listArticlesFn == nil {
		return nil, errStubUnexpectedCall
	}
	return f.listArticlesFn(ctx)
}

func (f *stubFundraiser) GetArticle(ctx context.Context, articleID string) (*fundraiserclient.Article, error) {
	if f.getArticleFn == nil {
		return nil, errStubUnexpectedCall
	}
	return f.getArticleFn(ctx, articleID)
}

// stubPaygate satisfies paymentGateway with per-method overrides.
type stubPaygate struct {
	createIntentFn func(ctx context.Context, req paygateclient.CreateIntentRequest) (*paygateclient.IntentResponse, error)
	getStatusFn    func(ctx context.Context, intentID string) (*paygateclient.IntentResponse, error)
}

func (p *stubPaygate) CreateIntent(ctx context.Context, req paygateclient.CreateIntentRequest) (*paygateclient.IntentResponse, error) {
	if p.createIntentFn == nil {
		return nil, errStubUnexpectedCall
	}
	return p.createIntentFn(ctx, req)
}

func (p *stubPaygate) GetIntentStatus(ctx context.Context, intentID string) (*paygateclient.IntentResponse, error) {
	if p.getStatusFn == nil {
		return nil, errStubUnexpectedCall
	}
	return p.getStatusFn(ctx, intentID)
}

// testCampaign returns a minimal upstream campaign with one reward tier.
func testCampaign(id string) *fundraiserclient.Campaign {
	return &fundraiserclient.Campaign{
		ID:             id,
		Title:          "Clean Water For Umuahia",
		CurrencySymbol: "$",
		CurrencyCode:   "USD",
		Rewards: []fundraiserclient.Reward{
			{ID: "rw-1", Title: "Early Supporter", Amount: 2500},
			{ID: "rw-2", Title: "Founding Backer", Amount: 10000},
		},
	}
}

// methodSelectionSession returns an editable session for the campaign.
func methodSelectionSession(campaignID string) *domain.CheckoutSession {
	return &domain.CheckoutSession{
		ID:         uuid.New(),
		Token:      "tok-test",
		CampaignID: campaignID,
		Status:     domain.CheckoutMethodSelection,
		Pledge: domain.PledgeSelection{
			AmountRaw:   "25",
			AmountMinor: 2500,
			Frequency:   domain.FrequencyOnce,
		},
	}
}
