/**
 * @description
 * This file contains the HTTP handlers for the campaign creation wizard.
 * All draft routes require an authenticated creator; the creator id comes
 * from the verified JWT, never from the request body.
 */

package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/crowdfundn/pledge-gateway/internal/app"
	"github.com/crowdfundn/pledge-gateway/internal/domain"
	"github.com/crowdfundn/pledge-gateway/internal/store"
)

// maxMediaSniffBytes bounds how much of an upload is read for MIME
// detection.
const maxMediaSniffBytes = 512

// CreateDraftHandler opens a fresh wizard draft.
func (h *GatewayHandlers) CreateDraftHandler(w http.ResponseWriter, r *http.Request) {
	creatorID, ok := h.creatorID(w, r)
	if !ok {
		return
	}

	draft, err := h.service.CreateDraft(r.Context(), creatorID)
	if err != nil {
		log.Printf("level=error component=api endpoint=create_draft creator_id=%s err=%v", creatorID, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to create draft")
		return
	}
	h.writeJSON(w, http.StatusCreated, draft)
}

// ListDraftsHandler lists the creator's in-progress drafts.
func (h *GatewayHandlers) ListDraftsHandler(w http.ResponseWriter, r *http.Request) {
	creatorID, ok := h.creatorID(w, r)
	if !ok {
		return
	}

	drafts, err := h.service.ListDrafts(r.Context(), creatorID)
	if err != nil {
		log.Printf("level=error component=api endpoint=list_drafts creator_id=%s err=%v", creatorID, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to list drafts")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"drafts": drafts})
}

// GetDraftHandler serves one draft with its sidebar summary.
func (h *GatewayHandlers) GetDraftHandler(w http.ResponseWriter, r *http.Request) {
	creatorID, draftID, ok := h.draftScope(w, r)
	if !ok {
		return
	}

	draft, err := h.service.GetDraft(r.Context(), draftID, creatorID)
	if err != nil {
		h.writeWizardError(w, "get_draft", draftID.String(), err)
		return
	}
	h.writeJSON(w, http.StatusOK, app.WizardResult{Draft: draft, Summary: draft.Summary()})
}

// DeleteDraftHandler discards a draft.
func (h *GatewayHandlers) DeleteDraftHandler(w http.ResponseWriter, r *http.Request) {
	creatorID, draftID, ok := h.draftScope(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteDraft(r.Context(), draftID, creatorID); err != nil {
		h.writeWizardError(w, "delete_draft", draftID.String(), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SaveDetailsHandler stores the details screen.
func (h *GatewayHandlers) SaveDetailsHandler(w http.ResponseWriter, r *http.Request) {
	creatorID, draftID, ok := h.draftScope(w, r)
	if !ok {
		return
	}

	var details domain.DraftDetails
	if err := json.NewDecoder(r.Body).Decode(&details); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.SaveDraftDetails(r.Context(), draftID, creatorID, details)
	if err != nil {
		h.writeWizardError(w, "save_details", draftID.String(), err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// SaveContentHandler stores the content screen.
func (h *GatewayHandlers) SaveContentHandler(w http.ResponseWriter, r *http.Request) {
	creatorID, draftID, ok := h.draftScope(w, r)
	if !ok {
		return
	}

	var content domain.DraftContent
	if err := json.NewDecoder(r.Body).Decode(&content); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.SaveDraftContent(r.Context(), draftID, creatorID, content)
	if err != nil {
		h.writeWizardError(w, "save_content", draftID.String(), err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// SaveRewardsHandler replaces the draft's reward tiers.
func (h *GatewayHandlers) SaveRewardsHandler(w http.ResponseWriter, r *http.Request) {
	creatorID, draftID, ok := h.draftScope(w, r)
	if !ok {
		return
	}

	var req struct {
		Rewards []domain.DraftReward `json:"rewards"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.SaveDraftRewards(r.Context(), draftID, creatorID, req.Rewards)
	if err != nil {
		h.writeWizardError(w, "save_rewards", draftID.String(), err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// ApplyTemplateHandler seeds the content step from a template.
func (h *GatewayHandlers) ApplyTemplateHandler(w http.ResponseWriter, r *http.Request) {
	creatorID, draftID, ok := h.draftScope(w, r)
	if !ok {
		return
	}

	var req struct {
		TemplateID string `json:"template_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.ApplyTemplate(r.Context(), draftID, creatorID, req.TemplateID)
	if err != nil {
		if errors.Is(err, app.ErrTemplateNotFound) {
			h.writeError(w, http.StatusNotFound, "Template not found")
			return
		}
		h.writeWizardError(w, "apply_template", draftID.String(), err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// TemplatesHandler lists the predefined campaign templates.
func (h *GatewayHandlers) TemplatesHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"templates": h.service.WizardTemplates()})
}

// AttachMediaHandler attaches media to the content step. A JSON body
// attaches an external URL with a declared MIME type; a raw upload is
// sniffed from its leading bytes.
func (h *GatewayHandlers) AttachMediaHandler(w http.ResponseWriter, r *http.Request) {
	creatorID, draftID, ok := h.draftScope(w, r)
	if !ok {
		return
	}

	var result *app.WizardResult
	var err error

	if r.Header.Get("Content-Type") == "application/json" {
		var req struct {
			URL      string `json:"url"`
			MimeType string `json:"mime_type"`
		}
		if decodeErr := json.NewDecoder(r.Body).Decode(&req); decodeErr != nil || req.URL == "" {
			h.writeError(w, http.StatusBadRequest, "A media URL is required")
			return
		}
		result, err = h.service.AttachDraftMediaURL(r.Context(), draftID, creatorID, req.URL, req.MimeType)
	} else {
		head := make([]byte, maxMediaSniffBytes)
		n, readErr := io.ReadFull(r.Body, head)
		if readErr != nil && readErr != io.ErrUnexpectedEOF && readErr != io.EOF {
			h.writeError(w, http.StatusBadRequest, "Cannot read upload")
			return
		}
		uploadURL := r.URL.Query().Get("url")
		result, err = h.service.AttachDraftMedia(r.Context(), draftID, creatorID, uploadURL, head[:n])
	}

	if err != nil {
		if errors.Is(err, app.ErrMediaTypeRejected) {
			h.writeError(w, http.StatusUnsupportedMediaType, "Only JPEG, PNG, GIF, WebP images and MP4, WebM videos are supported")
			return
		}
		h.writeWizardError(w, "attach_media", draftID.String(), err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// AdvanceStepHandler moves the draft forward one step, returning field
// errors when validation blocks the move.
func (h *GatewayHandlers) AdvanceStepHandler(w http.ResponseWriter, r *http.Request) {
	creatorID, draftID, ok := h.draftScope(w, r)
	if !ok {
		return
	}

	result, err := h.service.AdvanceDraftStep(r.Context(), draftID, creatorID)
	if err != nil {
		h.writeWizardError(w, "advance_step", draftID.String(), err)
		return
	}
	if result.Errors.Has() {
		h.writeJSON(w, http.StatusUnprocessableEntity, result)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// SetStepHandler jumps back to an earlier step for editing.
func (h *GatewayHandlers) SetStepHandler(w http.ResponseWriter, r *http.Request) {
	creatorID, draftID, ok := h.draftScope(w, r)
	if !ok {
		return
	}

	var req struct {
		Step string `json:"step"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.SetDraftStep(r.Context(), draftID, creatorID, domain.WizardStep(req.Step))
	if err != nil {
		h.writeWizardError(w, "set_step", draftID.String(), err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// SubmitDraftHandler turns a reviewed draft into a real campaign.
func (h *GatewayHandlers) SubmitDraftHandler(w http.ResponseWriter, r *http.Request) {
	creatorID, draftID, ok := h.draftScope(w, r)
	if !ok {
		return
	}

	campaign, err := h.service.SubmitDraft(r.Context(), draftID, creatorID)
	if err != nil {
		if errors.Is(err, app.ErrDraftNotSubmittable) {
			h.writeError(w, http.StatusUnprocessableEntity, "Please complete the wizard before submitting")
			return
		}
		h.writeWizardError(w, "submit_draft", draftID.String(), err)
		return
	}
	h.writeJSON(w, http.StatusCreated, campaign)
}

func (h *GatewayHandlers) creatorID(w http.ResponseWriter, r *http.Request) (string, bool) {
	creatorID, ok := GetMemberID(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get member ID from context")
		return "", false
	}
	return creatorID, true
}

func (h *GatewayHandlers) draftScope(w http.ResponseWriter, r *http.Request) (string, uuid.UUID, bool) {
	creatorID, ok := h.creatorID(w, r)
	if !ok {
		return "", uuid.Nil, false
	}
	draftID, err := uuid.Parse(chi.URLParam(r, "draftID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid draft id")
		return "", uuid.Nil, false
	}
	return creatorID, draftID, true
}

func (h *GatewayHandlers) writeWizardError(w http.ResponseWriter, endpoint, draftID string, err error) {
	switch {
	case errors.Is(err, store.ErrDraftNotFound):
		h.writeError(w, http.StatusNotFound, "Draft not found")
	case errors.Is(err, app.ErrDraftAlreadyDone):
		h.writeError(w, http.StatusConflict, "This draft has already been submitted")
	default:
		log.Printf("level=error component=api endpoint=%s draft_id=%s err=%v", endpoint, draftID, err)
		h.writeError(w, http.StatusInternalServerError, "Something went wrong")
	}
}
