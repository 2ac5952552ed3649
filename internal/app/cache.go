/**
 * @description
 * This file defines the donation page cache abstraction and its Redis
 * implementation. Fetched donation pages are memoized per
 * (campaign, page, per_page) so revisiting a page renders instantly
 * without another upstream round trip.
 */

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/crowdfundn/pledge-gateway/internal/domain"
)

// DonationCache memoizes donation pages. Implementations must be safe
// for concurrent use.
type DonationCache interface {
	Get(ctx context.Context, campaignID string, page, perPage int) (*domain.DonationPage, bool)
	Set(ctx context.Context, campaignID string, page, perPage int, value *domain.DonationPage)
	Stats() (hits, misses int64)
}

// noopDonationCache is the default when Redis is not configured; every
// lookup misses.
type noopDonationCache struct{}

func (noopDonationCache) Get(context.Context, string, int, int) (*domain.DonationPage, bool) {
	return nil, false
}
func (noopDonationCache) Set(context.Context, string, int, int, *domain.DonationPage) {}
func (noopDonationCache) Stats() (int64, int64)                                       { return 0, 0 }

// RedisDonationCache stores donation pages as JSON values with a TTL.
type RedisDonationCache struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

// NewRedisDonationCache creates a Redis-backed donation page cache.
func NewRedisDonationCache(client redis.UniversalClient, keyPrefix string, ttl time.Duration) *RedisDonationCache {
	return &RedisDonationCache{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

func (c *RedisDonationCache) key(campaignID string, page, perPage int) string {
	return fmt.Sprintf("%s:donations:%s:%d:%d", c.keyPrefix, campaignID, page, perPage)
}

// Get returns the cached page, if present. Redis errors degrade to a
// miss so a cache outage never blocks the listing.
func (c *RedisDonationCache) Get(ctx context.Context, campaignID string, page, perPage int) (*domain.DonationPage, bool) {
	payload, err := c.client.Get(ctx, c.key(campaignID, page, perPage)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("level=warn component=donation_cache msg=\"cache read failed\" error=%q", err)
		}
		c.misses.Add(1)
		return nil, false
	}
	var value domain.DonationPage
	if err := json.Unmarshal(payload, &value); err != nil {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return &value, true
}

// Set stores the page. Failures are logged and ignored.
func (c *RedisDonationCache) Set(ctx context.Context, campaignID string, page, perPage int, value *domain.DonationPage) {
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.key(campaignID, page, perPage), payload, c.ttl).Err(); err != nil {
		log.Printf("level=warn component=donation_cache msg=\"cache write failed\" error=%q", err)
	}
}

// Stats returns the cumulative hit and miss counts.
func (c *RedisDonationCache) Stats() (int64, int64) {
	return c.hits.Load(), c.misses.Load()
}
