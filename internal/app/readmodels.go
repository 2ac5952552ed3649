/**
 * @description
 * This file implements the read-side operations of the gateway: campaign
 * detail, category-grouped discovery, dashboard metrics, the contact-owner
 * form, and the thin auth proxy endpoints. Each operation delegates to the
 * core fundraiser API and maps its wire types into the gateway's domain
 * models.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/crowdfundn/pledge-gateway/internal/domain"
	"github.com/crowdfundn/pledge-gateway/pkg/fundraiserclient"
)

var (
	ErrContactMessageInvalid = errors.New("contact message is incomplete")
	ErrUpstreamUnavailable   = errors.New("core fundraiser API unavailable")
)

// GetCampaign loads a single campaign with its rewards, updates, comments
// and fundraiser profile.
func (s *Service) GetCampaign(ctx context.Context, campaignID string) (*domain.Campaign, error) {
	wire, err := s.fundraiser.GetCampaign(ctx, campaignID)
	if err != nil {
		if isUpstreamNotFound(err) {
			return nil, ErrCampaignNotFound
		}
		return nil, wrapUpstream("failed to load campaign", err)
	}
	campaign := mapCampaign(wire)
	return &campaign, nil
}

// GroupCampaignsByCategory returns the discovery listing: campaigns
// bucketed by category with per-category counts.
func (s *Service) GroupCampaignsByCategory(ctx context.Context) ([]domain.Category, error) {
	groups, err := s.fundraiser.GroupCampaignsByCategory(ctx)
	if err != nil {
		return nil, wrapUpstream("failed to group campaigns", err)
	}
	categories := make([]domain.Category, 0, len(groups))
	for _, group := range groups {
		category := domain.Category{
			Name:          group.Category,
			CampaignCount: group.Count,
			Campaigns:     make([]domain.Campaign, 0, len(group.Campaigns)),
		}
		for i := range group.Campaigns {
			category.Campaigns = append(category.Campaigns, mapCampaign(&group.Campaigns[i]))
		}
		categories = append(categories, category)
	}
	return categories, nil
}

// GetDashboardMetrics returns the platform-wide totals shown on the
// landing page.
func (s *Service) GetDashboardMetrics(ctx context.Context) (*domain.DashboardMetrics, error) {
	wire, err := s.fundraiser.GetDashboardMetrics(ctx)
	if err != nil {
		return nil, wrapUpstream("failed to load dashboard metrics", err)
	}
	return &domain.DashboardMetrics{
		TotalCampaigns:    wire.TotalCampaigns,
		TotalDonations:    wire.TotalDonations,
		TotalRaisedMinor:  wire.TotalRaisedMinor,
		ActiveFundraisers: wire.ActiveFundraisers,
	}, nil
}

// ListArticles returns the published editorial articles.
func (s *Service) ListArticles(ctx context.Context) ([]domain.Article, error) {
	wire, err := s.fundraiser.ListArticles(ctx)
	if err != nil {
		return nil, wrapUpstream("failed to list articles", err)
	}
	articles := make([]domain.Article, 0, len(wire))
	for _, a := range wire {
		articles = append(articles, mapArticle(a))
	}
	return articles, nil
}

// GetArticle loads a single article by id or slug.
func (s *Service) GetArticle(ctx context.Context, articleID string) (*domain.Article, error) {
	wire, err := s.fundraiser.GetArticle(ctx, articleID)
	if err != nil {
		if isUpstreamNotFound(err) {
			return nil, ErrArticleNotFound
		}
		return nil, wrapUpstream("failed to load article", err)
	}
	article := mapArticle(*wire)
	return &article, nil
}

// ContactCampaignOwner relays a visitor message to the campaign owner.
// All three fields are required.
func (s *Service) ContactCampaignOwner(ctx context.Context, campaignID string, msg domain.ContactMessage) error {
	if strings.TrimSpace(msg.SenderName) == "" ||
		strings.TrimSpace(msg.SenderEmail) == "" ||
		strings.TrimSpace(msg.Body) == "" {
		return ErrContactMessageInvalid
	}
	err := s.fundraiser.ContactCampaignOwner(ctx, campaignID, fundraiserclient.ContactRequest{
		SenderName:  msg.SenderName,
		SenderEmail: msg.SenderEmail,
		Body:        msg.Body,
	})
	if err != nil {
		if isUpstreamNotFound(err) {
			return ErrCampaignNotFound
		}
		return wrapUpstream("failed to contact campaign owner", err)
	}
	return nil
}

// Login proxies a credential check to the core API.
func (s *Service) Login(ctx context.Context, email, password string) (*fundraiserclient.AuthSession, error) {
	session, err := s.fundraiser.Login(ctx, fundraiserclient.Credentials{Email: email, Password: password})
	if err != nil {
		return nil, wrapUpstream("login failed", err)
	}
	return session, nil
}

// Signup proxies account creation to the core API.
func (s *Service) Signup(ctx context.Context, email, password, fullName string) (*fundraiserclient.AuthSession, error) {
	session, err := s.fundraiser.Signup(ctx, fundraiserclient.Credentials{Email: email, Password: password, FullName: fullName})
	if err != nil {
		return nil, wrapUpstream("signup failed", err)
	}
	return session, nil
}

// ConfirmEmail redeems an email confirmation token.
func (s *Service) ConfirmEmail(ctx context.Context, token string) error {
	if err := s.fundraiser.ConfirmEmail(ctx, token); err != nil {
		return wrapUpstream("email confirmation failed", err)
	}
	return nil
}

// ResendConfirmation triggers a fresh confirmation email.
func (s *Service) ResendConfirmation(ctx context.Context, email string) error {
	if err := s.fundraiser.ResendConfirmation(ctx, email); err != nil {
		return wrapUpstream("failed to resend confirmation", err)
	}
	return nil
}

func mapCampaign(wire *fundraiserclient.Campaign) domain.Campaign {
	campaign := domain.Campaign{
		ID:                wire.ID,
		Title:             wire.Title,
		Description:       wire.Description,
		GoalAmount:        wire.GoalAmount,
		TransferredAmount: wire.TransferredAmount,
		CurrencySymbol:    wire.CurrencySymbol,
		CurrencyCode:      wire.CurrencyCode,
		Category:          wire.Category,
		Location:          wire.Location,
		StartDate:         wire.StartDate,
		EndDate:           wire.EndDate,
		Fundraiser: domain.Fundraiser{
			ID:       wire.Fundraiser.ID,
			Name:     wire.Fundraiser.Name,
			Verified: wire.Fundraiser.Verified,
		},
	}
	campaign.Rewards = make([]domain.Reward, 0, len(wire.Rewards))
	for _, reward := range wire.Rewards {
		campaign.Rewards = append(campaign.Rewards, domain.Reward{
			ID:          reward.ID,
			CampaignID:  wire.ID,
			Title:       reward.Title,
			Description: reward.Description,
			Amount:      reward.Amount,
			ImageURL:    reward.ImageURL,
		})
	}
	for _, update := range wire.Updates {
		campaign.Updates = append(campaign.Updates, domain.CampaignUpdate{
			ID:        update.ID,
			Title:     update.Title,
			Body:      update.Body,
			CreatedAt: update.CreatedAt,
		})
	}
	for _, comment := range wire.Comments {
		campaign.Comments = append(campaign.Comments, domain.CampaignComment{
			ID:         comment.ID,
			AuthorName: comment.AuthorName,
			Body:       comment.Body,
			CreatedAt:  comment.CreatedAt,
		})
	}
	return campaign
}

func mapArticle(wire fundraiserclient.Article) domain.Article {
	return domain.Article{
		ID:        wire.ID,
		Slug:      wire.Slug,
		Title:     wire.Title,
		Body:      wire.Body,
		CreatedAt: wire.CreatedAt,
	}
}

func isUpstreamNotFound(err error) bool {
	var apiErr *fundraiserclient.ErrorResponse
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// wrapUpstream tags a core-API failure with ErrUpstreamUnavailable while
// keeping the original chain intact, so handlers can still tell a
// timeout (504) from any other upstream failure (502).
func wrapUpstream(msg string, err error) error {
	return fmt.Errorf("%s: %w: %w", msg, ErrUpstreamUnavailable, err)
}
