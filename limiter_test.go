package pubgallery

import (
	"testing"
	"time"
)

func TestKeyLimiterBlocksAfterMax(t *testing.T) {
	limiter := NewKeyLimiter(2, 200*time.Millisecond)
	defer limiter.Stop()
	ip := "203.0.113.10"

	if !limiter.Allow(ip) {
		t.Fatalf("expected first attempt to be allowed")
	}
	if !limiter.Allow(ip) {
		t.Fatalf("expected second attempt to be allowed")
	}
	if limiter.Allow(ip) {
		t.Fatalf("expected third attempt to be blocked")
	}
}

func TestKeyLimiterResetsAfterWindow(t *testing.T) {
	limiter := NewKeyLimiter(1, 150*time.Millisecond)
	defer limiter.Stop()
	ip := "203.0.113.20"

	if !limiter.Allow(ip) {
		t.Fatalf("expected first attempt to be allowed")
	}
	if limiter.Allow(ip) {
		t.Fatalf("expected second attempt to be blocked")
	}

	time.Sleep(200 * time.Millisecond)
	if !limiter.Allow(ip) {
		t.Fatalf("expected attempt after window to be allowed")
	}
}

func TestKeyLimiterIsPerKey(t *testing.T) {
	limiter := NewKeyLimiter(1, 200*time.Millisecond)
	defer limiter.Stop()

	if !limiter.Allow("203.0.113.30") {
		t.Fatalf("expected first ip to be allowed")
	}
	if !limiter.Allow("203.0.113.31") {
		t.Fatalf("expected second ip to be allowed independently")
	}
	if limiter.Allow("203.0.113.30") {
		t.Fatalf("expected first ip to be blocked after max")
	}
}

func TestKeyLimiterCheckDoesNotRecord(t *testing.T) {
	limiter := NewKeyLimiter(1, time.Second)
	defer limiter.Stop()

	for i := 0; i < 3; i++ {
		if !limiter.Check("k") {
			t.Fatalf("Check %d: expected allowed", i)
		}
	}
	limiter.Record("k")
	if limiter.Check("k") {
		t.Fatalf("expected blocked after Record")
	}
}
