/**
 * @description
 * This package provides a client for the core fundraiser API: the remote
 * backend that owns all campaign, member, and donation business data. It
 * encapsulates authenticated HTTP/JSON calls, response parsing, and the
 * error taxonomy the gateway depends on — in particular the distinct
 * timeout error kind, so callers can tell a slow upstream from a broken
 * one.
 *
 * @dependencies
 * - bytes, context, encoding/json, fmt, net/http, time: Standard Go libraries.
 */
package fundraiserclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"time"
)

// ErrUpstreamTimeout marks a request that exceeded the client timeout.
// Handlers map it to 504 rather than the generic upstream failure.
var ErrUpstreamTimeout = errors.New("fundraiser api request timed out")

// Client is a client for the core fundraiser API.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient creates a new fundraiser API client.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// Campaign is the wire representation of a campaign.
type Campaign struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	GoalAmount        int64      `json:"goal_amount"`
	TransferredAmount int64      `json:"transferred_amount"`
	CurrencySymbol    string     `json:"currency_symbol"`
	CurrencyCode      string     `json:"currency_code"`
	Category          string     `json:"category"`
	Location          string     `json:"location"`
	StartDate         *time.Time `json:"start_date,omitempty"`
	EndDate           *time.Time `json:"end_date,omitempty"`
	Rewards           []Reward   `json:"rewards"`
	Updates           []Update   `json:"updates,omitempty"`
	Comments          []Comment  `json:"comments,omitempty"`
	Fundraiser        Fundraiser `json:"fundraiser"`
}

// Reward is a campaign reward tier on the wire.
type Reward struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
	ImageURL    string `json:"image_url,omitempty"`
}

// Update is a creator progress post on the wire.
type Update struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Comment is a public campaign comment on the wire.
type Comment struct {
	ID         string    `json:"id"`
	AuthorName string    `json:"author_name"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

// Fundraiser is the campaign owner on the wire.
type Fundraiser struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Verified bool   `json:"verified"`
}

// Donation is one public backer record on the wire.
type Donation struct {
	ID            string    `json:"id"`
	DonorFullName *string   `json:"full_name,omitempty"`
	Amount        int64     `json:"amount"`
	Date          time.Time `json:"date"`
}

// DonationsPage is a page of donations plus pagination metadata.
type DonationsPage struct {
	Donations  []Donation `json:"donations"`
	Pagination struct {
		CurrentPage int `json:"current_page"`
		TotalPages  int `json:"total_pages"`
		PerPage     int `json:"per_page"`
	} `json:"pagination"`
}

// CategoryGroup is one category bucket of the discovery listing.
type CategoryGroup struct {
	Category  string     `json:"category"`
	Count     int        `json:"count"`
	Campaigns []Campaign `json:"campaigns"`
}

// ContactRequest is a visitor message relayed to a campaign owner.
type ContactRequest struct {
	SenderName  string `json:"sender_name"`
	SenderEmail string `json:"sender_email"`
	Body        string `json:"body"`
}

// CreateCampaignRequest is the wizard's submit payload.
type CreateCampaignRequest struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Category     string     `json:"category"`
	Location     string     `json:"location"`
	CurrencyCode string     `json:"currency_code"`
	GoalAmount   int64      `json:"goal_amount"`
	StartDate    *time.Time `json:"start_date,omitempty"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	Content      string     `json:"content"`
	MediaURL     string     `json:"media_url,omitempty"`
	MediaType    string     `json:"media_type,omitempty"`
	Rewards      []Reward   `json:"rewards,omitempty"`
}

// Credentials is the login/signup payload proxied to the members API.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
}

// AuthSession is the members API's session response, passed through as-is.
type AuthSession struct {
	Token     string `json:"token"`
	MemberID  string `json:"member_id"`
	FullName  string `json:"full_name"`
	Confirmed bool   `json:"confirmed"`
}

// Article is one editorial article on the wire. The body is raw
// markdown; the gateway passes it through untouched.
type Article struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// DashboardMetrics is the admin metrics snapshot.
type DashboardMetrics struct {
	TotalCampaigns    int64 `json:"total_campaigns"`
	TotalDonations    int64 `json:"total_donations"`
	TotalRaisedMinor  int64 `json:"total_raised_minor"`
	ActiveFundraisers int64 `json:"active_fundraisers"`
}

// ErrorResponse represents an error body from the fundraiser API.
type ErrorResponse struct {
	StatusCode int    `json:"-"`
	Message    string `json:"error"`
}

func (e *ErrorResponse) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("fundraiser api error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("fundraiser api error (status %d)", e.StatusCode)
}

// GetCampaign fetches a campaign for the detail page.
func (c *Client) GetCampaign(ctx context.Context, campaignID string) (*Campaign, error) {
	var campaign Campaign
	path := "/fundraisers/campaigns/" + url.PathEscape(campaignID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &campaign); err != nil {
		return nil, err
	}
	return &campaign, nil
}

// ListDonations fetches one page of a campaign's public donation list.
func (c *Client) ListDonations(ctx context.Context, campaignID string, page, perPage int) (*DonationsPage, error) {
	var result DonationsPage
	path := fmt.Sprintf("/fundraisers/campaigns/%s/donations?page=%d&per_page=%d",
		url.PathEscape(campaignID), page, perPage)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ContactCampaignOwner relays a visitor message to the campaign owner.
func (c *Client) ContactCampaignOwner(ctx context.Context, campaignID string, msg ContactRequest) error {
	path := "/fundraisers/campaigns/" + url.PathEscape(campaignID) + "/contact"
	return c.doJSON(ctx, http.MethodPost, path, msg, nil)
}

// CreateCampaign submits an assembled campaign from the creation wizard.
func (c *Client) CreateCampaign(ctx context.Context, req CreateCampaignRequest) (*Campaign, error) {
	var campaign Campaign
	if err := c.doJSON(ctx, http.MethodPost, "/fundraisers/campaigns", req, &campaign); err != nil {
		return nil, err
	}
	return &campaign, nil
}

// GroupCampaignsByCategory fetches the grouped discovery listing.
func (c *Client) GroupCampaignsByCategory(ctx context.Context) ([]CategoryGroup, error) {
	var groups []CategoryGroup
	if err := c.doJSON(ctx, http.MethodGet, "/fundraisers/campaigns/group_by_category", nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// ConfirmEmail confirms an email-verification token.
func (c *Client) ConfirmEmail(ctx context.Context, token string) error {
	path := "/members/auth/confirm_email/" + url.PathEscape(token)
	return c.doJSON(ctx, http.MethodGet, path, nil, nil)
}

// ResendConfirmation asks the members API to resend a confirmation email.
func (c *Client) ResendConfirmation(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return c.doJSON(ctx, http.MethodPost, "/members/auth/resend_confirmation", body, nil)
}

// Login establishes a member session.
func (c *Client) Login(ctx context.Context, creds Credentials) (*AuthSession, error) {
	var session AuthSession
	if err := c.doJSON(ctx, http.MethodPost, "/members/auth/login", creds, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Signup registers a new member.
func (c *Client) Signup(ctx context.Context, creds Credentials) (*AuthSession, error) {
	var session AuthSession
	if err := c.doJSON(ctx, http.MethodPost, "/members/auth/signup", creds, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// ListArticles fetches the published editorial articles.
func (c *Client) ListArticles(ctx context.Context) ([]Article, error) {
	var articles []Article
	if err := c.doJSON(ctx, http.MethodGet, "/articles", nil, &articles); err != nil {
		return nil, err
	}
	return articles, nil
}

// GetArticle fetches a single article by id or slug.
func (c *Client) GetArticle(ctx context.Context, articleID string) (*Article, error) {
	var article Article
	path := "/articles/" + url.PathEscape(articleID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &article); err != nil {
		return nil, err
	}
	return &article, nil
}

// GetDashboardMetrics fetches the admin metrics snapshot.
func (c *Client) GetDashboardMetrics(ctx context.Context) (*DashboardMetrics, error) {
	var metrics DashboardMetrics
	if err := c.doJSON(ctx, http.MethodGet, "/metrics/dashboard", nil, &metrics); err != nil {
		return nil, err
	}
	return &metrics, nil
}

// doJSON executes one JSON round-trip against the fundraiser API. A nil
// `out` discards the response body; timeouts surface as ErrUpstreamTimeout.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	var bodyReader io.Reader
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewBuffer(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.APIKey != "" {
		req.Header.Set("x-api-key", c.APIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return fmt.Errorf("%w: %s %s", ErrUpstreamTimeout, method, path)
		}
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errResp := &ErrorResponse{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(bodyBytes, errResp); err != nil {
			log.Printf("level=warn component=fundraiser_client op=\"%s %s\" status=%d msg=\"non-2xx response (unparsable error body)\"", method, path, resp.StatusCode)
		}
		return errResp
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
