package client

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPollerResolvesOnMatch(t *testing.T) {
	var slept []time.Duration
	poller := Poller{
		Attempts: 10,
		Interval: 5 * time.Second,
		Sleep:    func(d time.Duration) { slept = append(slept, d) },
	}

	calls := 0
	url, err := poller.Resolve(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		if calls == 3 {
			return "https://blog.example/post/42", nil
		}
		return "", nil
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if url != "https://blog.example/post/42" {
		t.Errorf("unexpected url %q", url)
	}
	if calls != 3 {
		t.Errorf("expected 3 probes, got %d", calls)
	}
	if len(slept) != 3 || slept[0] != 5*time.Second {
		t.Errorf("expected a 5s sleep before each probe, got %v", slept)
	}
}

func TestPollerExhaustionIsNotAnError(t *testing.T) {
	poller := Poller{Attempts: 10, Interval: time.Second, Sleep: func(time.Duration) {}}

	calls := 0
	url, err := poller.Resolve(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		return "", nil
	})
	if err != nil {
		t.Fatalf("exhaustion must not be an error, got %v", err)
	}
	if url != "" {
		t.Errorf("expected empty url, got %q", url)
	}
	if calls != 10 {
		t.Errorf("expected the full attempt budget, got %d", calls)
	}
}

func TestPollerIgnoresProbeErrors(t *testing.T) {
	poller := Poller{Attempts: 3, Interval: time.Second, Sleep: func(time.Duration) {}}

	calls := 0
	url, err := poller.Resolve(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("list endpoint hiccup")
		}
		return "https://blog.example/post/7", nil
	})
	if err != nil || url != "https://blog.example/post/7" {
		t.Fatalf("expected recovery after probe errors, got url=%q err=%v", url, err)
	}
}

func TestPollerHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	poller := Poller{Attempts: 5, Interval: time.Second, Sleep: func(time.Duration) {}}
	_, err := poller.Resolve(ctx, func(ctx context.Context) (string, error) {
		t.Fatal("probe must not run after cancellation")
		return "", nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
