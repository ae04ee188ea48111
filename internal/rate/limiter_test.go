package rate

import (
	"testing"
	"time"
)

func TestWindowLimiter(t *testing.T) {
	t.Parallel()

	l := NewWindowLimiter(3, time.Minute)
	for i := 0; i < 3; i++ {
		if !l.Allow("a") {
			t.Fatalf("call %d denied inside window", i+1)
		}
	}
	if l.Allow("a") {
		t.Fatal("call over limit was allowed")
	}
	if !l.Allow("b") {
		t.Fatal("separate key was denied")
	}
}

func TestWindowLimiterResetsAfterWindow(t *testing.T) {
	t.Parallel()

	l := NewWindowLimiter(1, 10*time.Millisecond)
	if !l.Allow("a") {
		t.Fatal("first call denied")
	}
	if l.Allow("a") {
		t.Fatal("second call allowed inside window")
	}
	time.Sleep(20 * time.Millisecond)
	if !l.Allow("a") {
		t.Fatal("call denied after window elapsed")
	}
}
