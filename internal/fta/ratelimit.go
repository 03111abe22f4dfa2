package fta

import (
	"context"
	"sync"
	"time"
)

const rateWindowLength = time.Minute

// rateWindow enforces the authority's requests-per-minute cap with a fixed
// 60-second window anchored at the first request. When the cap is reached the
// caller blocks until the window elapses, then the counter resets and the
// call proceeds; calls are never rejected.
type rateWindow struct {
	mu    sync.Mutex
	limit int
	count int
	start time.Time
}

// wait blocks until the current call fits inside the rate window. It returns
// early with the context's error if the context is cancelled while waiting.
func (c *Client) wait(ctx context.Context) error {
	if c.limiter.limit <= 0 {
		return nil
	}

	c.limiter.mu.Lock()
	defer c.limiter.mu.Unlock()

	now := c.now()
	if c.limiter.start.IsZero() || now.Sub(c.limiter.start) >= rateWindowLength {
		c.limiter.start = now
		c.limiter.count = 0
	}

	if c.limiter.count >= c.limiter.limit {
		remaining := rateWindowLength - now.Sub(c.limiter.start)
		c.log.Debug("rate limit reached, waiting for window reset", "wait", remaining)
		if err := c.sleep(ctx, remaining); err != nil {
			return err
		}
		c.limiter.start = c.now()
		c.limiter.count = 0
	}

	c.limiter.count++
	return nil
}
