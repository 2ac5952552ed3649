/**
 * @description
 * This file implements the campaign creation wizard: durable drafts a
 * creator advances through details -> content -> rewards -> review, then
 * submits to the core API as a real campaign.
 *
 * Key behaviors:
 * - Saving a step never validates; progression past the details step is
 *   gated on the required-field rules, returned as per-field errors.
 * - Templates seed the content step but never overwrite an explicit edit.
 * - Attached media is accepted by sniffed MIME type, not file extension;
 *   anything outside the image/video whitelist is rejected.
 * - Submission requires the review step and re-runs details validation
 *   before handing the draft to the core API.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/crowdfundn/pledge-gateway/internal/domain"
	"github.com/crowdfundn/pledge-gateway/pkg/fundraiserclient"
)

var (
	ErrDraftNotSubmittable = errors.New("draft is not ready for submission")
	ErrDraftAlreadyDone    = errors.New("draft has already been submitted")
	ErrTemplateNotFound    = errors.New("campaign template not found")
	ErrMediaTypeRejected   = errors.New("media type is not supported")
)

// WizardResult is the outcome of a wizard mutation: the draft after the
// change plus any per-field validation errors that blocked progression.
type WizardResult struct {
	Draft   *domain.CampaignDraft `json:"draft"`
	Summary domain.DraftSummary   `json:"summary"`
	Errors  domain.FieldErrors    `json:"errors,omitempty"`
}

// CreateDraft opens a fresh wizard draft for the creator.
func (s *Service) CreateDraft(ctx context.Context, creatorID string) (*domain.CampaignDraft, error) {
	now := time.Now().UTC()
	draft := &domain.CampaignDraft{
		ID:        uuid.New(),
		CreatorID: creatorID,
		Step:      domain.StepDetails,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateCampaignDraft(ctx, draft); err != nil {
		return nil, fmt.Errorf("failed to create campaign draft: %w", err)
	}
	log.Printf("level=info component=wizard msg=\"draft created\" draft_id=%s creator_id=%s", draft.ID, creatorID)
	return draft, nil
}

// GetDraft loads one of the creator's drafts.
func (s *Service) GetDraft(ctx context.Context, draftID uuid.UUID, creatorID string) (*domain.CampaignDraft, error) {
	return s.repo.FindCampaignDraftByID(ctx, draftID, creatorID)
}

// ListDrafts returns the creator's in-progress drafts.
func (s *Service) ListDrafts(ctx context.Context, creatorID string) ([]domain.CampaignDraft, error) {
	return s.repo.ListCampaignDraftsByCreator(ctx, creatorID)
}

// DeleteDraft discards a draft. Deleting a draft that is already gone is
// not an error.
func (s *Service) DeleteDraft(ctx context.Context, draftID uuid.UUID, creatorID string) error {
	_, err := s.repo.DeleteCampaignDraft(ctx, draftID, creatorID)
	return err
}

// SaveDraftDetails stores the details screen. Partial input is fine;
// validation only gates progression.
func (s *Service) SaveDraftDetails(ctx context.Context, draftID uuid.UUID, creatorID string, details domain.DraftDetails) (*WizardResult, error) {
	return s.mutateDraft(ctx, draftID, creatorID, func(draft *domain.CampaignDraft) error {
		draft.Details = details
		return nil
	})
}

// SaveDraftContent stores the content screen.
func (s *Service) SaveDraftContent(ctx context.Context, draftID uuid.UUID, creatorID string, content domain.DraftContent) (*WizardResult, error) {
	return s.mutateDraft(ctx, draftID, creatorID, func(draft *domain.CampaignDraft) error {
		draft.Content = content
		return nil
	})
}

// SaveDraftRewards replaces the draft's reward tiers.
func (s *Service) SaveDraftRewards(ctx context.Context, draftID uuid.UUID, creatorID string, rewards []domain.DraftReward) (*WizardResult, error) {
	return s.mutateDraft(ctx, draftID, creatorID, func(draft *domain.CampaignDraft) error {
		draft.Rewards = rewards
		return nil
	})
}

// ApplyTemplate seeds the content step from a predefined template. The
// seed fills only what the creator has not written yet: an edited body
// or existing reward tiers are left alone.
func (s *Service) ApplyTemplate(ctx context.Context, draftID uuid.UUID, creatorID, templateID string) (*WizardResult, error) {
	template, ok := domain.FindTemplate(templateID)
	if !ok {
		return nil, ErrTemplateNotFound
	}
	return s.mutateDraft(ctx, draftID, creatorID, func(draft *domain.CampaignDraft) error {
		if draft.Content.Body == "" {
			draft.Content.Body = template.Body
		}
		if len(draft.Rewards) == 0 && len(template.Rewards) > 0 {
			draft.Rewards = append([]domain.DraftReward(nil), template.Rewards...)
		}
		return nil
	})
}

// AttachDraftMedia attaches an uploaded file to the content step. The
// MIME type is sniffed from the payload itself.
func (s *Service) AttachDraftMedia(ctx context.Context, draftID uuid.UUID, creatorID, url string, head []byte) (*WizardResult, error) {
	mimeType := http.DetectContentType(head)
	return s.attachMedia(ctx, draftID, creatorID, url, mimeType)
}

// AttachDraftMediaURL attaches an externally hosted asset by URL with a
// caller-declared MIME type.
func (s *Service) AttachDraftMediaURL(ctx context.Context, draftID uuid.UUID, creatorID, url, mimeType string) (*WizardResult, error) {
	return s.attachMedia(ctx, draftID, creatorID, url, mimeType)
}

func (s *Service) attachMedia(ctx context.Context, draftID uuid.UUID, creatorID, url, mimeType string) (*WizardResult, error) {
	kind, ok := domain.AllowedMediaTypes[mimeType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMediaTypeRejected, mimeType)
	}
	return s.mutateDraft(ctx, draftID, creatorID, func(draft *domain.CampaignDraft) error {
		draft.Content.Media = &domain.MediaAttachment{URL: url, Type: kind}
		return nil
	})
}

// AdvanceDraftStep moves the draft forward one step. Leaving the details
// step requires the required-field rules to pass; the errors come back
// keyed by field and the draft stays put.
func (s *Service) AdvanceDraftStep(ctx context.Context, draftID uuid.UUID, creatorID string) (*WizardResult, error) {
	draft, err := s.editableDraft(ctx, draftID, creatorID)
	if err != nil {
		return nil, err
	}

	if draft.Step == domain.StepDetails {
		if errs := draft.Details.Validate(); len(errs) > 0 {
			return &WizardResult{Draft: draft, Summary: draft.Summary(), Errors: errs}, nil
		}
	}
	if draft.Step == domain.StepReview {
		// Review only leaves via SubmitDraft.
		return &WizardResult{Draft: draft, Summary: draft.Summary()}, nil
	}

	draft.Step = domain.NextStep(draft.Step)
	draft.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpdateCampaignDraft(ctx, draft); err != nil {
		return nil, err
	}
	return &WizardResult{Draft: draft, Summary: draft.Summary()}, nil
}

// SetDraftStep jumps back to an earlier step for editing. Forward jumps
// are refused; progression always runs through AdvanceDraftStep.
func (s *Service) SetDraftStep(ctx context.Context, draftID uuid.UUID, creatorID string, step domain.WizardStep) (*WizardResult, error) {
	draft, err := s.editableDraft(ctx, draftID, creatorID)
	if err != nil {
		return nil, err
	}
	if stepIndex(step) < 0 || stepIndex(step) > stepIndex(draft.Step) {
		return &WizardResult{Draft: draft, Summary: draft.Summary()}, nil
	}
	draft.Step = step
	draft.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpdateCampaignDraft(ctx, draft); err != nil {
		return nil, err
	}
	return &WizardResult{Draft: draft, Summary: draft.Summary()}, nil
}

// SubmitDraft turns a reviewed draft into a real campaign via the core
// API and marks the draft submitted.
func (s *Service) SubmitDraft(ctx context.Context, draftID uuid.UUID, creatorID string) (*domain.Campaign, error) {
	draft, err := s.editableDraft(ctx, draftID, creatorID)
	if err != nil {
		return nil, err
	}
	if draft.Step != domain.StepReview {
		return nil, ErrDraftNotSubmittable
	}
	if errs := draft.Details.Validate(); len(errs) > 0 {
		return nil, ErrDraftNotSubmittable
	}

	req := fundraiserclient.CreateCampaignRequest{
		Title:        draft.Details.Title,
		Description:  draft.Details.Description,
		Category:     draft.Details.Category,
		Location:     draft.Details.Location,
		CurrencyCode: draft.Details.CurrencyCode,
		GoalAmount:   draft.Details.GoalAmount,
		StartDate:    draft.Details.StartDate,
		EndDate:      draft.Details.EndDate,
		Content:      draft.Content.Body,
	}
	if draft.Content.Media != nil {
		req.MediaURL = draft.Content.Media.URL
		req.MediaType = draft.Content.Media.Type
	}
	for _, reward := range draft.Rewards {
		req.Rewards = append(req.Rewards, fundraiserclient.Reward{
			Title:       reward.Title,
			Description: reward.Description,
			Amount:      reward.Amount,
			ImageURL:    reward.ImageURL,
		})
	}

	wire, err := s.fundraiser.CreateCampaign(ctx, req)
	if err != nil {
		return nil, wrapUpstream("failed to submit campaign", err)
	}

	draft.Step = domain.StepSubmitted
	draft.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpdateCampaignDraft(ctx, draft); err != nil {
		log.Printf("level=warn component=wizard msg=\"failed to mark draft submitted\" draft_id=%s error=%q", draftID, err)
	}

	log.Printf("level=info component=wizard msg=\"draft submitted\" draft_id=%s campaign_id=%s", draftID, wire.ID)
	campaign := mapCampaign(wire)
	return &campaign, nil
}

// WizardTemplates lists the predefined campaign templates.
func (s *Service) WizardTemplates() []domain.CampaignTemplate {
	return domain.TemplateCatalog()
}

func (s *Service) mutateDraft(ctx context.Context, draftID uuid.UUID, creatorID string, mutate func(*domain.CampaignDraft) error) (*WizardResult, error) {
	draft, err := s.editableDraft(ctx, draftID, creatorID)
	if err != nil {
		return nil, err
	}
	if err := mutate(draft); err != nil {
		return nil, err
	}
	draft.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpdateCampaignDraft(ctx, draft); err != nil {
		return nil, err
	}
	return &WizardResult{Draft: draft, Summary: draft.Summary()}, nil
}

func (s *Service) editableDraft(ctx context.Context, draftID uuid.UUID, creatorID string) (*domain.CampaignDraft, error) {
	draft, err := s.repo.FindCampaignDraftByID(ctx, draftID, creatorID)
	if err != nil {
		return nil, err
	}
	if draft.Step == domain.StepSubmitted {
		return nil, ErrDraftAlreadyDone
	}
	return draft, nil
}

func stepIndex(step domain.WizardStep) int {
	switch step {
	case domain.StepDetails:
		return 0
	case domain.StepContent:
		return 1
	case domain.StepRewards:
		return 2
	case domain.StepReview:
		return 3
	case domain.StepSubmitted:
		return 4
	}
	return -1
}
