package app

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/crowdfundn/pledge-gateway/pkg/fundraiserclient"
)

func TestListArticlesMapsWireFields(t *testing.T) {
	published := time.Date(2026, time.March, 4, 9, 0, 0, 0, time.UTC)
	fundraiser := &stubFundraiser{
		listArticlesFn: func(ctx context.Context) ([]fundraiserclient.Article, error) {
			return []fundraiserclient.Article{
				{ID: "art-1", Slug: "how-pledges-work", Title: "How pledges work", Body: "# Pledges\n...", CreatedAt: published},
			}, nil
		},
	}
	service := newTestService(&stubRepo{}, fundraiser, &stubPaygate{})

	articles, err := service.ListArticles(context.Background())
	if err != nil {
		t.Fatalf("ListArticles: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}
	got := articles[0]
	if got.ID != "art-1" || got.Slug != "how-pledges-work" || got.Title != "How pledges work" {
		t.Errorf("unexpected article mapping: %+v", got)
	}
	if !got.CreatedAt.Equal(published) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, published)
	}
}

func TestGetArticleNotFound(t *testing.T) {
	fundraiser := &stubFundraiser{
		getArticleFn: func(ctx context.Context, articleID string) (*fundraiserclient.Article, error) {
			return nil, &fundraiserclient.ErrorResponse{StatusCode: http.StatusNotFound, Message: "Article not found"}
		},
	}
	service := newTestService(&stubRepo{}, fundraiser, &stubPaygate{})

	if _, err := service.GetArticle(context.Background(), "missing"); !errors.Is(err, ErrArticleNotFound) {
		t.Fatalf("expected ErrArticleNotFound, got %v", err)
	}
}

func TestGetArticleTimeoutMapsToUpstreamUnavailable(t *testing.T) {
	fundraiser := &stubFundraiser{
		getArticleFn: func(ctx context.Context, articleID string) (*fundraiserclient.Article, error) {
			return nil, fundraiserclient.ErrUpstreamTimeout
		},
	}
	service := newTestService(&stubRepo{}, fundraiser, &stubPaygate{})

	_, err := service.GetArticle(context.Background(), "art-1")
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
	if !errors.Is(err, fundraiserclient.ErrUpstreamTimeout) {
		t.Fatal("expected the timeout kind to survive wrapping")
	}
}
