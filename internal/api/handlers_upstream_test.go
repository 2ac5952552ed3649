package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/crowdfundn/pledge-gateway/internal/app"
	"github.com/crowdfundn/pledge-gateway/pkg/fundraiserclient"
)

// upstreamTestRouter mounts the campaign detail handler against a real
// core-API client pointed at the given test server.
func upstreamTestRouter(upstream *httptest.Server, timeout time.Duration) chi.Router {
	client := fundraiserclient.NewClient(upstream.URL, "test-key", timeout)
	handlers := NewGatewayHandlers(app.NewService(nil, client, nil, 0, 10, 50))
	r := chi.NewRouter()
	r.Get("/campaigns/{campaignID}", handlers.GetCampaignHandler)
	return r
}

func TestGetCampaignHandler_UpstreamTimeoutMapsTo504(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer upstream.Close()

	router := upstreamTestRouter(upstream, 20*time.Millisecond)
	req := httptest.NewRequest("GET", "/campaigns/cmp-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504 for an upstream timeout, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestGetCampaignHandler_UpstreamFailureMapsTo502(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"database down"}`))
	}))
	defer upstream.Close()

	router := upstreamTestRouter(upstream, time.Second)
	req := httptest.NewRequest("GET", "/campaigns/cmp-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 for an upstream failure, got %d: %s", rec.Code, rec.Body.String())
	}
}
