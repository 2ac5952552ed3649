/**
 * @description
 * This file defines the donation read-model: paginated projections of the
 * public backer list served by the core API, plus the presentation rows
 * the web client renders directly.
 */

package domain

import "time"

// Donation is one public backer record for a campaign.
type Donation struct {
	ID            string    `json:"id"`
	CampaignID    string    `json:"campaign_id"`
	DonorFullName *string   `json:"donor_full_name,omitempty"`
	Amount        int64     `json:"amount"`
	Date          time.Time `json:"date"`
}

// PageMeta is the pagination metadata returned alongside every page.
type PageMeta struct {
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
	PerPage     int `json:"per_page"`
}

// HasNext reports whether a later page exists.
func (m PageMeta) HasNext() bool { return m.CurrentPage < m.TotalPages }

// HasPrevious reports whether an earlier page exists. Previous on page 1
// is a no-op by contract.
func (m PageMeta) HasPrevious() bool { return m.CurrentPage > 1 }

// DonationPage is one fetched page of donations plus its metadata.
type DonationPage struct {
	Donations []Donation `json:"donations"`
	Meta      PageMeta   `json:"meta"`
}

// EmptyDonationsMessage is shown when a campaign has no backers yet.
const EmptyDonationsMessage = "No backers yet. Be the first to support!"

// DonationRow is the display-ready projection of one donation.
type DonationRow struct {
	DonorName       string    `json:"donor_name"`
	AmountFormatted string    `json:"amount_formatted"`
	Date            time.Time `json:"date"`
}

// BuildDonationRows converts donations into display rows, prefixing the
// campaign's currency symbol and falling back to "Anonymous" for unnamed
// donors.
func BuildDonationRows(donations []Donation, currencySymbol string) []DonationRow {
	rows := make([]DonationRow, 0, len(donations))
	for _, d := range donations {
		name := "Anonymous"
		if d.DonorFullName != nil && *d.DonorFullName != "" {
			name = *d.DonorFullName
		}
		rows = append(rows, DonationRow{
			DonorName:       name,
			AmountFormatted: FormatMinor(currencySymbol, d.Amount),
			Date:            d.Date,
		})
	}
	return rows
}
