package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

type rateLimited struct {
	next    Client
	limiter *rate.Limiter
}

// WithRateLimit wraps c so at most rps requests per second (with the given
// burst) reach the provider. A non-positive rps returns c unchanged.
func WithRateLimit(c Client, rps float64, burst int) Client {
	if rps <= 0 {
		return c
	}
	if burst <= 0 {
		burst = 1
	}
	return &rateLimited{next: c, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (r *rateLimited) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	return r.next.Complete(ctx, req)
}
