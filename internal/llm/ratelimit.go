package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimitedClient waits on a token bucket before every request so a run
// stays inside the provider's requests-per-second quota.
type RateLimitedClient struct {
	next    Client
	limiter *rate.Limiter
}

// NewRateLimited wraps next with a limiter of rps requests per second.
// rps <= 0 returns next unchanged.
func NewRateLimited(next Client, rps float64, burst int) Client {
	if rps <= 0 {
		return next
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedClient{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (c *RateLimitedClient) Invoke(
	ctx context.Context,
	prompt Prompt,
	schema Schema,
) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	return c.next.Invoke(ctx, prompt, schema)
}
