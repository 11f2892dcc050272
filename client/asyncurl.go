package client

import (
	"context"
	"time"
)

// Poller is the bounded fixed-delay retry used when a publish endpoint
// returns before the platform has finished processing the content.
// Exhausting the budget is not a failure: the caller reports a degraded
// result and retries later through AsyncURL.
type Poller struct {
	Attempts int
	Interval time.Duration
	Sleep    func(time.Duration) // defaults to time.Sleep
}

// Resolve calls probe up to Attempts times, sleeping Interval before
// each try. The first non-empty URL wins. Probe errors are treated as
// "not yet": resolution is best-effort. An exhausted budget returns
// ("", nil); only context cancellation is an error.
func (p Poller) Resolve(ctx context.Context, probe func(ctx context.Context) (string, error)) (string, error) {
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	for attempt := 0; attempt < p.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		sleep(p.Interval)
		url, err := probe(ctx)
		if err != nil {
			continue
		}
		if url != "" {
			return url, nil
		}
	}
	return "", nil
}
