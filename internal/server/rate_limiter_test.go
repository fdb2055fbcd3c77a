package server

import (
	"testing"
	"time"
)

func TestRateLimiterBlocksOverLimit(t *testing.T) {
	limiter := newRateLimiter(2, time.Minute)

	if !limiter.Allow("ip-1") || !limiter.Allow("ip-1") {
		t.Fatalf("requests within the limit must pass")
	}
	if limiter.Allow("ip-1") {
		t.Fatalf("third request in window must be blocked")
	}
	if !limiter.Allow("ip-2") {
		t.Fatalf("limits are per key")
	}
}

func TestRateLimiterRejectsEmptyKey(t *testing.T) {
	limiter := newRateLimiter(2, time.Minute)
	if limiter.Allow("") {
		t.Fatalf("empty key must be rejected")
	}
}

func TestRateLimiterUnlimitedWhenDisabled(t *testing.T) {
	limiter := newRateLimiter(0, time.Minute)
	for i := 0; i < 10; i++ {
		if !limiter.Allow("ip-1") {
			t.Fatalf("zero limit disables limiting")
		}
	}
}
