package ratelimit

import (
	"sync"
	"testing"
)

func TestKeyedRateLimiter_Allow(t *testing.T) {
	tests := []struct {
		name     string
		rps      float64
		burst    int
		calls    int
		wantPass int
	}{
		{
			name:     "burst allows initial requests",
			rps:      1,
			burst:    3,
			calls:    3,
			wantPass: 3,
		},
		{
			name:     "exceeding burst blocks",
			rps:      1,
			burst:    2,
			calls:    5,
			wantPass: 2,
		},
		{
			name:     "single slot",
			rps:      1,
			burst:    1,
			calls:    1,
			wantPass: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := New(tt.rps, tt.burst)

			passed := 0
			for i := 0; i < tt.calls; i++ {
				if rl.Allow("user-1") {
					passed++
				}
			}

			if passed != tt.wantPass {
				t.Errorf("Allow() passed %d, want %d", passed, tt.wantPass)
			}
		})
	}
}

func TestKeyedRateLimiter_IndependentKeys(t *testing.T) {
	rl := New(1, 1)

	// Exhaust one user's budget.
	rl.Allow("user-1")
	if rl.Allow("user-1") {
		t.Error("user-1 should be exhausted")
	}

	// Another user is unaffected.
	if !rl.Allow("user-2") {
		t.Error("user-2 should be allowed")
	}
}

func TestKeyedRateLimiter_ConcurrentAccess(t *testing.T) {
	rl := New(1000, 1000)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				rl.Allow("shared")
				rl.Allow("other")
			}
		}(i)
	}
	wg.Wait()
}
