package geocache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type soilPayload struct {
	Clay     float64 `json:"clay"`
	Drainage string  `json:"drainage"`
}

// TestFetch_IdempotentProducer verifies that two consecutive fetches for the
// same coordinate issue exactly one underlying producer call.
func TestFetch_IdempotentProducer(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestCache()

	calls := 0
	produce := func(ctx context.Context) (soilPayload, error) {
		calls++
		return soilPayload{Clay: 28, Drainage: "medium"}, nil
	}

	first, err := Fetch(ctx, c, KindSoil, 47.6189, 1.8572, TTLSoil, produce)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	second, err := Fetch(ctx, c, KindSoil, 47.61891, 1.85724, TTLSoil, produce)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if calls != 1 {
		t.Errorf("producer called %d times, want 1", calls)
	}
	if first != second {
		t.Errorf("Fetch() = %+v then %+v, want identical", first, second)
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("Stats() = %+v, want 1 hit, 1 miss", stats)
	}
}

// TestFetch_ProducerError verifies that a failing producer propagates its
// error and caches nothing.
func TestFetch_ProducerError(t *testing.T) {
	ctx := context.Background()
	c, store, _ := newTestCache()

	wantErr := errors.New("upstream down")
	_, err := Fetch(ctx, c, KindWeather, 1, 2, TTLWeather, func(ctx context.Context) (soilPayload, error) {
		return soilPayload{}, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Fetch() error = %v, want %v", err, wantErr)
	}
	if store.Len() != 0 {
		t.Errorf("store.Len() = %d, failed fetch must not populate cache", store.Len())
	}
}

// TestFetch_RefetchAfterExpiry verifies that an expired entry triggers a new
// producer call.
func TestFetch_RefetchAfterExpiry(t *testing.T) {
	ctx := context.Background()
	c, _, clock := newTestCache()

	calls := 0
	produce := func(ctx context.Context) (soilPayload, error) {
		calls++
		return soilPayload{Clay: float64(calls)}, nil
	}

	_, _ = Fetch(ctx, c, KindWeather, 1, 2, TTLWeather, produce)
	clock.Advance(TTLWeather + time.Minute)
	got, err := Fetch(ctx, c, KindWeather, 1, 2, TTLWeather, produce)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if calls != 2 {
		t.Errorf("producer called %d times, want 2 after expiry", calls)
	}
	if got.Clay != 2 {
		t.Errorf("Fetch() returned stale value %+v after expiry", got)
	}
}

// TestFetch_UndecodableEntryEvicted verifies that a cached entry that no
// longer decodes is discarded and refetched instead of failing.
func TestFetch_UndecodableEntryEvicted(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestCache()

	if err := c.Set(ctx, KindSoil, 1, 2, []byte("{not json"), TTLSoil); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := Fetch(ctx, c, KindSoil, 1, 2, TTLSoil, func(ctx context.Context) (soilPayload, error) {
		return soilPayload{Clay: 31}, nil
	})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got.Clay != 31 {
		t.Errorf("Fetch() = %+v, want fresh producer value", got)
	}
}
