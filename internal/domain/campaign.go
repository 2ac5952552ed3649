/**
 * @description
 * This file defines the campaign-side domain models for the pledge-gateway.
 * Campaigns, rewards, and their satellite records are owned by the core
 * fundraiser API; the gateway holds read-only projections of them for the
 * browsing, pledge, and checkout flows.
 *
 * @notes
 * - Amounts are carried as `int64` in the smallest currency unit (cents,
 *   kobo, ...) to avoid floating-point inaccuracies with money.
 * - The campaign's `CurrencySymbol` is the display prefix used by the
 *   donation list presentation ("$", "GHS ", ...).
 */

package domain

import (
	"fmt"
	"strings"
	"time"
)

// Campaign is the gateway's projection of a fundraising campaign.
type Campaign struct {
	ID                string            `json:"id"`
	Title             string            `json:"title"`
	Description       string            `json:"description"`
	GoalAmount        int64             `json:"goal_amount"`
	TransferredAmount int64             `json:"transferred_amount"`
	CurrencySymbol    string            `json:"currency_symbol"`
	CurrencyCode      string            `json:"currency_code"`
	Category          string            `json:"category"`
	Location          string            `json:"location"`
	StartDate         *time.Time        `json:"start_date,omitempty"`
	EndDate           *time.Time        `json:"end_date,omitempty"`
	Rewards           []Reward          `json:"rewards"`
	Updates           []CampaignUpdate  `json:"updates,omitempty"`
	Comments          []CampaignComment `json:"comments,omitempty"`
	Fundraiser        Fundraiser        `json:"fundraiser"`
}

// Reward is a pledge tier offered to backers. Amount is the minimum pledge
// (in minor units) that unlocks the tier.
type Reward struct {
	ID          string `json:"id"`
	CampaignID  string `json:"campaign_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
	ImageURL    string `json:"image_url,omitempty"`
}

// CampaignUpdate is a creator-authored progress post.
type CampaignUpdate struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// CampaignComment is a public comment left on a campaign page.
type CampaignComment struct {
	ID         string    `json:"id"`
	AuthorName string    `json:"author_name"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

// Fundraiser is the account running a campaign.
type Fundraiser struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Verified bool   `json:"verified"`
}

// Category groups campaigns for discovery listings.
type Category struct {
	Name          string     `json:"name"`
	CampaignCount int        `json:"campaign_count"`
	Campaigns     []Campaign `json:"campaigns,omitempty"`
}

// ContactMessage is a visitor message relayed to a campaign's owner.
type ContactMessage struct {
	SenderName  string `json:"sender_name"`
	SenderEmail string `json:"sender_email"`
	Body        string `json:"body"`
}

// Article is an editorial article served alongside campaigns. The body
// stays raw markdown; rendering happens on the client.
type Article struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// DashboardMetrics is the admin metrics snapshot served by the core API.
type DashboardMetrics struct {
	TotalCampaigns    int64 `json:"total_campaigns"`
	TotalDonations    int64 `json:"total_donations"`
	TotalRaisedMinor  int64 `json:"total_raised_minor"`
	ActiveFundraisers int64 `json:"active_fundraisers"`
}

// FormatMinor renders a minor-unit amount as a display string with the
// currency symbol prefixed, e.g. FormatMinor("$", 1234550) == "$12,345.50".
func FormatMinor(symbol string, amount int64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}
	units := amount / 100
	cents := amount % 100

	digits := fmt.Sprintf("%d", units)
	var grouped strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(d)
	}

	sign := ""
	if negative {
		sign = "-"
	}
	return fmt.Sprintf("%s%s%s.%02d", sign, symbol, grouped.String(), cents)
}
