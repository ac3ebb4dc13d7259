package utils

import (
	"testing"
	"time"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)

	// Первые три запроса проходят
	for i := 0; i < 3; i++ {
		if !rl.Allow("client") {
			t.Fatalf("request %d was rejected, want allowed", i+1)
		}
	}

	// Четвертый запрос в том же окне отклоняется
	if rl.Allow("client") {
		t.Error("request over the limit was allowed")
	}

	// Лимит считается отдельно по каждому ключу
	if !rl.Allow("other-client") {
		t.Error("request of another client was rejected")
	}
}

func TestRateLimiterWindowExpiry(t *testing.T) {
	rl := NewRateLimiter(1, 10*time.Millisecond)

	if !rl.Allow("client") {
		t.Fatal("first request was rejected")
	}
	if rl.Allow("client") {
		t.Fatal("second request within the window was allowed")
	}

	time.Sleep(20 * time.Millisecond)

	// После истечения окна лимит снова доступен
	if !rl.Allow("client") {
		t.Error("request after the window expiry was rejected")
	}
}

func TestRateLimiterGetRemaining(t *testing.T) {
	rl := NewRateLimiter(5, time.Minute)

	if got := rl.GetRemaining("client"); got != 5 {
		t.Errorf("GetRemaining returned %d, want 5", got)
	}

	rl.Allow("client")
	rl.Allow("client")

	if got := rl.GetRemaining("client"); got != 3 {
		t.Errorf("GetRemaining returned %d, want 3", got)
	}
}
