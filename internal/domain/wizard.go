/**
 * @description
 * This file models the campaign creation wizard: a linear draft that a
 * creator advances through details -> content -> rewards -> review before
 * submission to the core API. Drafts are durable gateway state so a
 * creator can resume across browser sessions; per-field validation errors
 * are computed at each progression attempt.
 */

package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// WizardStep is one screen of the campaign creation flow.
type WizardStep string

const (
	StepDetails   WizardStep = "details"
	StepContent   WizardStep = "content"
	StepRewards   WizardStep = "rewards"
	StepReview    WizardStep = "review"
	StepSubmitted WizardStep = "submitted"
)

// NextStep returns the step that follows s, or s itself when s is last.
func NextStep(s WizardStep) WizardStep {
	switch s {
	case StepDetails:
		return StepContent
	case StepContent:
		return StepRewards
	case StepRewards:
		return StepReview
	case StepReview:
		return StepSubmitted
	}
	return s
}

// DraftDetails holds the metadata collected on the wizard's first screen.
type DraftDetails struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Category     string     `json:"category"`
	Location     string     `json:"location"`
	CurrencyCode string     `json:"currency_code"`
	GoalAmount   int64      `json:"goal_amount"`
	StartDate    *time.Time `json:"start_date,omitempty"`
	EndDate      *time.Time `json:"end_date,omitempty"`
}

// Validate checks the required-field and shape rules that gate progression
// past the details step. Messages are keyed by field name for inline
// rendering.
func (d DraftDetails) Validate() FieldErrors {
	errs := FieldErrors{}
	if strings.TrimSpace(d.Title) == "" {
		errs["title"] = "Title is required"
	}
	if strings.TrimSpace(d.Category) == "" {
		errs["category"] = "Category is required"
	}
	if strings.TrimSpace(d.CurrencyCode) == "" {
		errs["currency_code"] = "Currency is required"
	}
	if d.GoalAmount <= 0 {
		errs["goal_amount"] = "Goal amount must be greater than zero"
	}
	if d.StartDate != nil && d.EndDate != nil && d.EndDate.Before(*d.StartDate) {
		errs["end_date"] = "End date must be on or after the start date"
	}
	return errs
}

// MediaAttachment is the single image or video attached on the content
// step. Type is "image" or "video"; URL may be an upload location or a
// pasted external link. No client-side transformation is performed.
type MediaAttachment struct {
	URL  string `json:"url"`
	Type string `json:"type"`
}

// DraftContent holds the content/media screen's state.
type DraftContent struct {
	Body  string           `json:"body"`
	Media *MediaAttachment `json:"media,omitempty"`
}

// DraftReward is a reward tier defined during campaign creation.
type DraftReward struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
	ImageURL    string `json:"image_url,omitempty"`
}

// CampaignDraft is the wizard's durable state for one in-progress campaign.
type CampaignDraft struct {
	ID        uuid.UUID     `json:"id"`
	CreatorID string        `json:"creator_id"`
	Step      WizardStep    `json:"step"`
	Details   DraftDetails  `json:"details"`
	Content   DraftContent  `json:"content"`
	Rewards   []DraftReward `json:"rewards"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Summary is the sidebar read-model: a pure projection of the draft with a
// truncated content preview. It holds no independent state.
type DraftSummary struct {
	Title          string `json:"title"`
	Category       string `json:"category"`
	GoalAmount     int64  `json:"goal_amount"`
	DurationDays   int    `json:"duration_days"`
	ContentPreview string `json:"content_preview"`
}

// summaryPreviewLen caps the sidebar's content preview length.
const summaryPreviewLen = 160

// Summary projects the draft into its sidebar representation.
func (d *CampaignDraft) Summary() DraftSummary {
	duration := 0
	if d.Details.StartDate != nil && d.Details.EndDate != nil {
		duration = int(d.Details.EndDate.Sub(*d.Details.StartDate).Hours() / 24)
	}
	preview := d.Content.Body
	if len(preview) > summaryPreviewLen {
		preview = preview[:summaryPreviewLen] + "..."
	}
	return DraftSummary{
		Title:          d.Details.Title,
		Category:       d.Details.Category,
		GoalAmount:     d.Details.GoalAmount,
		DurationDays:   duration,
		ContentPreview: preview,
	}
}

// CampaignTemplate seeds the content step when selected. Selection is
// single-choice; a later explicit content edit always wins over the seed.
type CampaignTemplate struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	Body    string        `json:"body"`
	Rewards []DraftReward `json:"rewards,omitempty"`
}

// TemplateCatalog returns the predefined campaign templates.
func TemplateCatalog() []CampaignTemplate {
	return []CampaignTemplate{
		{
			ID:   "medical",
			Name: "Medical",
			Body: "Tell your supporters who needs help, what the funds will cover, and how treatment is progressing.",
			Rewards: []DraftReward{
				{Title: "Supporter shout-out", Description: "A personal thank-you update", Amount: 2500},
			},
		},
		{
			ID:   "education",
			Name: "Education",
			Body: "Describe the program or tuition being funded and what completing it would change.",
		},
		{
			ID:   "community",
			Name: "Community Project",
			Body: "Explain the project, the neighbourhood it serves, and the milestones donations unlock.",
			Rewards: []DraftReward{
				{Title: "Founding backer", Description: "Name listed on the project page", Amount: 5000},
			},
		},
		{
			ID:   "creative",
			Name: "Creative Work",
			Body: "Introduce the work, share your timeline, and say what backers receive when it ships.",
		},
	}
}

// FindTemplate looks up a template by id.
func FindTemplate(id string) (CampaignTemplate, bool) {
	for _, t := range TemplateCatalog() {
		if t.ID == id {
			return t, true
		}
	}
	return CampaignTemplate{}, false
}

// AllowedMediaTypes maps accepted MIME types to the media kind recorded on
// the attachment. Anything else is rejected with a user-visible notice.
var AllowedMediaTypes = map[string]string{
	"image/jpeg": "image",
	"image/png":  "image",
	"image/gif":  "image",
	"image/webp": "image",
	"video/mp4":  "video",
	"video/webm": "video",
}
