package domain

import (
	"strings"
	"testing"
	"time"
)

func validDetails() DraftDetails {
	return DraftDetails{
		Title:        "Community Garden",
		Description:  "A garden for the neighbourhood",
		Category:     "community",
		CurrencyCode: "USD",
		GoalAmount:   500000,
	}
}

func TestDraftDetailsValidate_RequiredFields(t *testing.T) {
	errs := DraftDetails{}.Validate()
	for _, field := range []string{"title", "category", "currency_code", "goal_amount"} {
		if _, ok := errs[field]; !ok {
			t.Fatalf("expected a validation error for %s, got %v", field, errs)
		}
	}

	if errs := validDetails().Validate(); errs.Has() {
		t.Fatalf("expected valid details to pass, got %v", errs)
	}
}

func TestDraftDetailsValidate_RejectsEndBeforeStart(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, -1)

	details := validDetails()
	details.StartDate = &start
	details.EndDate = &end
	if _, ok := details.Validate()["end_date"]; !ok {
		t.Fatal("expected an end_date error when the end precedes the start")
	}

	details.EndDate = &start
	if errs := details.Validate(); errs.Has() {
		t.Fatalf("a same-day range should validate, got %v", errs)
	}
}

func TestNextStep_WalksTheWizardForward(t *testing.T) {
	order := []WizardStep{StepDetails, StepContent, StepRewards, StepReview, StepSubmitted}
	for i := 0; i < len(order)-1; i++ {
		if got := NextStep(order[i]); got != order[i+1] {
			t.Fatalf("NextStep(%s) = %s, want %s", order[i], got, order[i+1])
		}
	}
	if got := NextStep(StepSubmitted); got != StepSubmitted {
		t.Fatalf("the final step must not advance, got %s", got)
	}
}

func TestDraftSummary_TruncatesPreviewAndComputesDuration(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 30)

	draft := &CampaignDraft{
		Details: validDetails(),
		Content: DraftContent{Body: strings.Repeat("a", 200)},
	}
	draft.Details.StartDate = &start
	draft.Details.EndDate = &end

	summary := draft.Summary()
	if summary.Title != "Community Garden" || summary.GoalAmount != 500000 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.DurationDays != 30 {
		t.Fatalf("expected 30 day duration, got %d", summary.DurationDays)
	}
	if len(summary.ContentPreview) != 163 || !strings.HasSuffix(summary.ContentPreview, "...") {
		t.Fatalf("expected a 160-char preview with ellipsis, got %d chars", len(summary.ContentPreview))
	}

	draft.Content.Body = "short"
	if got := draft.Summary().ContentPreview; got != "short" {
		t.Fatalf("short bodies must pass through untouched, got %q", got)
	}
}

func TestFindTemplate(t *testing.T) {
	tpl, ok := FindTemplate("medical")
	if !ok || tpl.Name != "Medical" {
		t.Fatalf("expected the medical template, got %+v ok=%v", tpl, ok)
	}
	if _, ok := FindTemplate("nope"); ok {
		t.Fatal("expected lookup of an unknown template to fail")
	}
}

func TestAllowedMediaTypes(t *testing.T) {
	if AllowedMediaTypes["image/png"] != "image" {
		t.Fatal("expected PNG to be an allowed image type")
	}
	if AllowedMediaTypes["video/mp4"] != "video" {
		t.Fatal("expected MP4 to be an allowed video type")
	}
	if _, ok := AllowedMediaTypes["application/pdf"]; ok {
		t.Fatal("did not expect PDF to be accepted")
	}
}
