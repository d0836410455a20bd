package otp_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/news-aggregator-api/internal/clock"
	"github.com/news-aggregator-api/internal/otp"
	"github.com/rs/zerolog"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newStore() (*otp.Store, *clock.FakeClock) {
	clk := clock.Fake(epoch)
	return otp.NewStore(5*time.Minute, clk, zerolog.Nop()), clk
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func TestIssue_CodeShape(t *testing.T) {
	store, _ := newStore()

	for i := 0; i < 200; i++ {
		code, expiresAt, err := store.Issue("a@b.com")
		if err != nil {
			t.Fatalf("Issue failed: %v", err)
		}
		if len(code) != otp.CodeLength || !isNumeric(code) {
			t.Fatalf("Expected 6-digit numeric code, got %q", code)
		}
		if !expiresAt.Equal(epoch.Add(5 * time.Minute)) {
			t.Fatalf("Expected expiry at now+5m, got %v", expiresAt)
		}
	}
	if store.Len() != 1 {
		t.Errorf("Expected a single entry per email, got %d", store.Len())
	}
}

func TestVerify_OKExactlyOnce(t *testing.T) {
	store, _ := newStore()

	code, _, _ := store.Issue("a@b.com")

	if got := store.Verify("a@b.com", code); got != otp.ResultOK {
		t.Fatalf("Expected ok, got %s", got)
	}
	if got := store.Verify("a@b.com", code); got != otp.ResultAbsent {
		t.Errorf("Expected absent on second verify, got %s", got)
	}
}

func TestVerify_ReissueInvalidatesFirstCode(t *testing.T) {
	store, _ := newStore()

	first, _, _ := store.Issue("a@b.com")
	second, _, _ := store.Issue("a@b.com")
	for first == second {
		second, _, _ = store.Issue("a@b.com")
	}

	if got := store.Verify("a@b.com", first); got != otp.ResultMismatch {
		t.Errorf("Expected mismatch for superseded code, got %s", got)
	}
	if got := store.Verify("a@b.com", second); got != otp.ResultOK {
		t.Errorf("Expected ok for latest code, got %s", got)
	}
}

func TestVerify_MismatchKeepsEntry(t *testing.T) {
	store, _ := newStore()

	code, _, _ := store.Issue("a@b.com")
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	for i := 0; i < 3; i++ {
		if got := store.Verify("a@b.com", wrong); got != otp.ResultMismatch {
			t.Fatalf("Expected mismatch, got %s", got)
		}
	}
	if got := store.Verify("a@b.com", code); got != otp.ResultOK {
		t.Errorf("Expected ok after retries, got %s", got)
	}
}

func TestVerify_Expired(t *testing.T) {
	store, clk := newStore()

	code, _, _ := store.Issue("a@b.com")
	clk.Advance(5 * time.Minute)

	if got := store.Verify("a@b.com", code); got != otp.ResultExpired {
		t.Fatalf("Expected expired at expiry instant, got %s", got)
	}
	if got := store.Verify("a@b.com", code); got != otp.ResultAbsent {
		t.Errorf("Expected absent after expiry removal, got %s", got)
	}
}

func TestVerify_NormalizesEmail(t *testing.T) {
	store, _ := newStore()

	code, _, _ := store.Issue("  Alice@Example.COM ")
	if got := store.Verify("alice@example.com", code); got != otp.ResultOK {
		t.Errorf("Expected ok for normalized email, got %s", got)
	}
}

func TestVerify_Absent(t *testing.T) {
	store, _ := newStore()

	if got := store.Verify("nobody@b.com", "123456"); got != otp.ResultAbsent {
		t.Errorf("Expected absent, got %s", got)
	}
}

func TestSweep_RemovesOnlyExpired(t *testing.T) {
	store, clk := newStore()

	store.Issue("old@b.com")
	clk.Advance(3 * time.Minute)
	fresh, _, _ := store.Issue("fresh@b.com")
	clk.Advance(2 * time.Minute)

	if removed := store.Sweep(); removed != 1 {
		t.Errorf("Expected 1 removed, got %d", removed)
	}
	if store.Len() != 1 {
		t.Errorf("Expected 1 remaining entry, got %d", store.Len())
	}
	if got := store.Verify("fresh@b.com", fresh); got != otp.ResultOK {
		t.Errorf("Expected fresh code to survive sweep, got %s", got)
	}
	if removed := store.Sweep(); removed != 0 {
		t.Errorf("Expected idempotent sweep, got %d", removed)
	}
}

func TestConcurrentAccess(t *testing.T) {
	store, clk := newStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			code, _, _ := store.Issue("race@b.com")
			store.Verify("race@b.com", code)
		}()
		go func() {
			defer wg.Done()
			store.Sweep()
		}()
		go func() {
			defer wg.Done()
			clk.Advance(time.Second)
		}()
	}
	wg.Wait()
}

func TestRun_StopsOnCancel(t *testing.T) {
	store, clk := newStore()
	store.Issue("a@b.com")
	clk.Advance(10 * time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		store.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for store.Len() != 0 {
		select {
		case <-deadline:
			t.Fatal("Sweeper did not remove expired entry")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestResultString(t *testing.T) {
	tests := map[otp.Result]string{
		otp.ResultOK:       "ok",
		otp.ResultExpired:  "expired",
		otp.ResultMismatch: "mismatch",
		otp.ResultAbsent:   "absent",
	}
	for r, want := range tests {
		if r.String() != want {
			t.Errorf("Expected %s, got %s", want, r.String())
		}
	}
}

func BenchmarkIssueVerify(b *testing.B) {
	store := otp.NewStore(5*time.Minute, clock.Real(), zerolog.Nop())
	for i := 0; i < b.N; i++ {
		code, _, _ := store.Issue("bench@b.com")
		store.Verify("bench@b.com", code)
	}
}
