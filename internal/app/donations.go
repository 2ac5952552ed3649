/**
 * @description
 * This file implements the paginated donations listing. Pages are fetched
 * from the core API, memoized in the donation cache, and projected into
 * display rows with the campaign's currency symbol.
 *
 * Key behaviors:
 * - Page and per-page inputs are clamped to sane bounds before anything
 *   hits the upstream.
 * - A per-campaign fetch sequence drops stale responses: when a newer
 *   fetch for the same campaign has started, the older response is
 *   flagged stale and never written to the cache, so rapid page flips
 *   cannot leave an out-of-date page as the freshest state.
 * - An empty listing carries the canonical empty-state message.
 */

package app

import (
	"context"

	"github.com/crowdfundn/pledge-gateway/internal/domain"
)

// DonationListing is one rendered page of the backer list.
type DonationListing struct {
	CampaignID string               `json:"campaign_id"`
	Rows       []domain.DonationRow `json:"rows"`
	Message    string               `json:"message,omitempty"`
	Meta       domain.PageMeta      `json:"meta"`
	CacheHit   bool                 `json:"-"`
	Stale      bool                 `json:"-"`
}

// ListDonations returns one page of a campaign's public backer list.
func (s *Service) ListDonations(ctx context.Context, campaignID string, page, perPage int) (*DonationListing, error) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = s.donationsPerPage
	}
	if perPage > s.donationsPerPageMax {
		perPage = s.donationsPerPageMax
	}

	campaign, err := s.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	if cached, ok := s.cache.Get(ctx, campaignID, page, perPage); ok {
		return s.buildListing(campaignID, campaign.CurrencySymbol, cached, true, false), nil
	}

	seq := s.beginDonationFetch(campaignID)
	wire, err := s.fundraiser.ListDonations(ctx, campaignID, page, perPage)
	if err != nil {
		return nil, wrapUpstream("failed to list donations", err)
	}

	fetched := &domain.DonationPage{
		Donations: make([]domain.Donation, 0, len(wire.Donations)),
		Meta: domain.PageMeta{
			CurrentPage: wire.Pagination.CurrentPage,
			TotalPages:  wire.Pagination.TotalPages,
			PerPage:     wire.Pagination.PerPage,
		},
	}
	for _, d := range wire.Donations {
		fetched.Donations = append(fetched.Donations, domain.Donation{
			ID:            d.ID,
			CampaignID:    campaignID,
			DonorFullName: d.DonorFullName,
			Amount:        d.Amount,
			Date:          d.Date,
		})
	}

	stale := !s.isCurrentDonationFetch(campaignID, seq)
	if !stale {
		s.cache.Set(ctx, campaignID, page, perPage, fetched)
	}
	return s.buildListing(campaignID, campaign.CurrencySymbol, fetched, false, stale), nil
}

func (s *Service) buildListing(campaignID, currencySymbol string, page *domain.DonationPage, cacheHit, stale bool) *DonationListing {
	listing := &DonationListing{
		CampaignID: campaignID,
		Rows:       domain.BuildDonationRows(page.Donations, currencySymbol),
		Meta:       page.Meta,
		CacheHit:   cacheHit,
		Stale:      stale,
	}
	if len(page.Donations) == 0 {
		listing.Message = domain.EmptyDonationsMessage
	}
	return listing
}

// DonationCacheStats returns the cumulative hit and miss counts of the
// donation page cache.
func (s *Service) DonationCacheStats() (hits, misses int64) {
	return s.cache.Stats()
}

// beginDonationFetch registers the start of a fetch for a campaign and
// returns its sequence number.
func (s *Service) beginDonationFetch(campaignID string) uint64 {
	s.seqMu.Lock()
	defer s.seqMu.Unlock()
	s.seq[campaignID]++
	return s.seq[campaignID]
}

// isCurrentDonationFetch reports whether no newer fetch for the campaign
// has started since seq was issued.
func (s *Service) isCurrentDonationFetch(campaignID string, seq uint64) bool {
	s.seqMu.Lock()
	defer s.seqMu.Unlock()
	return s.seq[campaignID] == seq
}
