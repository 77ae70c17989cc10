package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/javajoker/digital-storefront/internal/cache"
	"github.com/javajoker/digital-storefront/internal/config"
)

const testWebhookSecret = "whsec_test_secret"

func newTestConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		JWT: config.JWTConfig{
			SecretKey:       "test-secret",
			AccessTokenTTL:  1,
			RefreshTokenTTL: 2,
		},
		Payment: config.PaymentConfig{
			StripeWebhookSecret: testWebhookSecret,
			Currency:            "GBP",
		},
		Frontend: config.FrontendConfig{
			SiteBaseURL: "http://shop.test",
			LoginURL:    "/v1/auth/login",
			CartURL:     "/v1/cart",
		},
	}
}

func newTestCartStore(t *testing.T) *cache.RedisCartStore {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return cache.NewRedisCartStore(client, time.Hour)
}

type fakeGateway struct {
	mu       sync.Mutex
	requests []*CheckoutSessionRequest
	fail     bool
}

func (g *fakeGateway) CreateSession(ctx context.Context, req *CheckoutSessionRequest) (*HostedCheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.fail {
		return nil, errors.New("provider unavailable")
	}
	g.requests = append(g.requests, req)
	id := fmt.Sprintf("cs_test_%d", len(g.requests))
	return &HostedCheckoutSession{
		ID:  id,
		URL: "https://checkout.stripe.test/pay/" + id,
	}, nil
}

func (g *fakeGateway) last() *CheckoutSessionRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.requests) == 0 {
		return nil
	}
	return g.requests[len(g.requests)-1]
}
