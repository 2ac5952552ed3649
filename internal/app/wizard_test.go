package app

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/crowdfundn/pledge-gateway/internal/domain"
	"github.com/crowdfundn/pledge-gateway/pkg/fundraiserclient"
)

func wizardTestService(draft *domain.CampaignDraft, fundraiser *stubFundraiser) *Service {
	repo := &stubRepo{
		findDraftFn: func(_ context.Context, draftID uuid.UUID, creatorID string) (*domain.CampaignDraft, error) {
			if draftID != draft.ID || creatorID != draft.CreatorID {
				return nil, errStubUnexpectedCall
			}
			return draft, nil
		},
		updateDraftFn: func(_ context.Context, _ *domain.CampaignDraft) error {
			return nil
		},
	}
	if fundraiser == nil {
		fundraiser = &stubFundraiser{}
	}
	return newTestService(repo, fundraiser, &stubPaygate{})
}

func detailsDraft(step domain.WizardStep) *domain.CampaignDraft {
	return &domain.CampaignDraft{
		ID:        uuid.New(),
		CreatorID: "member-1",
		Step:      step,
		Details: domain.DraftDetails{
			Title:        "Community Garden",
			Description:  "A garden for the neighbourhood",
			Category:     "community",
			CurrencyCode: "USD",
			GoalAmount:   500000,
		},
	}
}

func TestAdvanceDraftStep_BlockedByDetailsValidation(t *testing.T) {
	draft := detailsDraft(domain.StepDetails)
	draft.Details.Title = ""
	service := wizardTestService(draft, nil)

	result, err := service.AdvanceDraftStep(context.Background(), draft.ID, draft.CreatorID)
	if err != nil {
		t.Fatalf("AdvanceDraftStep returned error: %v", err)
	}
	if !result.Errors.Has() {
		t.Fatal("expected validation errors to block progression")
	}
	if result.Draft.Step != domain.StepDetails {
		t.Fatalf("the draft must stay on details, got %s", result.Draft.Step)
	}
}

func TestAdvanceDraftStep_WalksForwardWhenValid(t *testing.T) {
	draft := detailsDraft(domain.StepDetails)
	service := wizardTestService(draft, nil)

	result, err := service.AdvanceDraftStep(context.Background(), draft.ID, draft.CreatorID)
	if err != nil {
		t.Fatalf("AdvanceDraftStep returned error: %v", err)
	}
	if result.Draft.Step != domain.StepContent {
		t.Fatalf("expected the content step, got %s", result.Draft.Step)
	}
}

func TestAdvanceDraftStep_ReviewOnlyLeavesViaSubmit(t *testing.T) {
	draft := detailsDraft(domain.StepReview)
	service := wizardTestService(draft, nil)

	result, err := service.AdvanceDraftStep(context.Background(), draft.ID, draft.CreatorID)
	if err != nil {
		t.Fatalf("AdvanceDraftStep returned error: %v", err)
	}
	if result.Draft.Step != domain.StepReview {
		t.Fatalf("review must not advance without submission, got %s", result.Draft.Step)
	}
}

func TestSetDraftStep_RefusesForwardJumps(t *testing.T) {
	draft := detailsDraft(domain.StepContent)
	service := wizardTestService(draft, nil)

	result, err := service.SetDraftStep(context.Background(), draft.ID, draft.CreatorID, domain.StepReview)
	if err != nil {
		t.Fatalf("SetDraftStep returned error: %v", err)
	}
	if result.Draft.Step != domain.StepContent {
		t.Fatalf("a forward jump must be refused, got %s", result.Draft.Step)
	}

	result, err = service.SetDraftStep(context.Background(), draft.ID, draft.CreatorID, domain.StepDetails)
	if err != nil {
		t.Fatalf("SetDraftStep returned error: %v", err)
	}
	if result.Draft.Step != domain.StepDetails {
		t.Fatalf("a backward jump must be allowed, got %s", result.Draft.Step)
	}
}

func TestApplyTemplate_NeverOverwritesAnExplicitEdit(t *testing.T) {
	draft := detailsDraft(domain.StepContent)
	draft.Content.Body = "My own story"
	draft.Rewards = []domain.DraftReward{{Title: "Handwritten note", Amount: 1500}}
	service := wizardTestService(draft, nil)

	result, err := service.ApplyTemplate(context.Background(), draft.ID, draft.CreatorID, "medical")
	if err != nil {
		t.Fatalf("ApplyTemplate returned error: %v", err)
	}
	if result.Draft.Content.Body != "My own story" {
		t.Fatalf("the template must not overwrite an edited body, got %q", result.Draft.Content.Body)
	}
	if len(result.Draft.Rewards) != 1 || result.Draft.Rewards[0].Title != "Handwritten note" {
		t.Fatalf("the template must not replace existing rewards, got %+v", result.Draft.Rewards)
	}
}

func TestApplyTemplate_SeedsEmptyDraft(t *testing.T) {
	draft := detailsDraft(domain.StepContent)
	service := wizardTestService(draft, nil)

	result, err := service.ApplyTemplate(context.Background(), draft.ID, draft.CreatorID, "medical")
	if err != nil {
		t.Fatalf("ApplyTemplate returned error: %v", err)
	}
	if result.Draft.Content.Body == "" {
		t.Fatal("expected the template body to seed the empty draft")
	}
	if len(result.Draft.Rewards) == 0 {
		t.Fatal("expected the template rewards to seed the empty draft")
	}

	if _, err := service.ApplyTemplate(context.Background(), draft.ID, draft.CreatorID, "nope"); !errors.Is(err, ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
}

func TestAttachDraftMedia_RejectsBySniffedType(t *testing.T) {
	draft := detailsDraft(domain.StepContent)
	service := wizardTestService(draft, nil)

	// %PDF magic bytes sniff as application/pdf.
	_, err := service.AttachDraftMedia(context.Background(), draft.ID, draft.CreatorID, "https://cdn.example.com/file", []byte("%PDF-1.7 ..."))
	if !errors.Is(err, ErrMediaTypeRejected) {
		t.Fatalf("expected ErrMediaTypeRejected, got %v", err)
	}

	// PNG magic bytes.
	png := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
	result, err := service.AttachDraftMedia(context.Background(), draft.ID, draft.CreatorID, "https://cdn.example.com/cover.png", png)
	if err != nil {
		t.Fatalf("AttachDraftMedia returned error: %v", err)
	}
	if result.Draft.Content.Media == nil || result.Draft.Content.Media.Type != "image" {
		t.Fatalf("expected an image attachment, got %+v", result.Draft.Content.Media)
	}
}

func TestSubmitDraft_RequiresTheReviewStep(t *testing.T) {
	draft := detailsDraft(domain.StepRewards)
	service := wizardTestService(draft, nil)

	_, err := service.SubmitDraft(context.Background(), draft.ID, draft.CreatorID)
	if !errors.Is(err, ErrDraftNotSubmittable) {
		t.Fatalf("expected ErrDraftNotSubmittable, got %v", err)
	}
}

func TestSubmitDraft_CreatesTheCampaignAndClosesTheDraft(t *testing.T) {
	draft := detailsDraft(domain.StepReview)
	draft.Content.Body = "The full story"
	draft.Rewards = []domain.DraftReward{{Title: "Sticker pack", Amount: 1000}}

	var created *fundraiserclient.CreateCampaignRequest
	fundraiser := &stubFundraiser{
		createCampaignFn: func(_ context.Context, req fundraiserclient.CreateCampaignRequest) (*fundraiserclient.Campaign, error) {
			created = &req
			return testCampaign("camp-new"), nil
		},
	}
	service := wizardTestService(draft, fundraiser)

	campaign, err := service.SubmitDraft(context.Background(), draft.ID, draft.CreatorID)
	if err != nil {
		t.Fatalf("SubmitDraft returned error: %v", err)
	}
	if campaign.ID != "camp-new" {
		t.Fatalf("expected the created campaign back, got %q", campaign.ID)
	}
	if created == nil || created.Title != "Community Garden" || created.Content != "The full story" {
		t.Fatalf("unexpected create request: %+v", created)
	}
	if len(created.Rewards) != 1 || created.Rewards[0].Title != "Sticker pack" {
		t.Fatalf("expected the reward tiers to be carried over, got %+v", created.Rewards)
	}
	if draft.Step != domain.StepSubmitted {
		t.Fatalf("expected the draft to be marked submitted, got %s", draft.Step)
	}

	if _, err := service.SubmitDraft(context.Background(), draft.ID, draft.CreatorID); !errors.Is(err, ErrDraftAlreadyDone) {
		t.Fatalf("a second submission must fail, got %v", err)
	}
}
