package circuitbreaker

import (
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(t *testing.T, threshold int, recovery time.Duration) (*Breaker, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	b := New(WithNow(clock.now))
	if err := b.Configure(Config{Path: "/api/pay", FailureThreshold: threshold, RecoveryTime: recovery}); err != nil {
		t.Fatalf("configure: %v", err)
	}
	return b, clock
}

func TestBreaker_UnknownPathAlwaysAvailable(t *testing.T) {
	b := New()
	if !b.IsAvailable("/sem-config") {
		t.Fatalf("expected unknown path to be available")
	}
	// reportar outcome de path sem config é no-op
	b.RecordFailure("/sem-config")
	b.RecordSuccess("/sem-config")
	if _, ok := b.StateOf("/sem-config"); ok {
		t.Fatalf("expected no state for unknown path")
	}
}

func TestBreaker_ConfigureRejectsInvalidValues(t *testing.T) {
	b := New()
	if err := b.Configure(Config{Path: "/x", FailureThreshold: 0, RecoveryTime: time.Second}); err != ErrInvalidThreshold {
		t.Fatalf("expected ErrInvalidThreshold, got %v", err)
	}
	if err := b.Configure(Config{Path: "/x", FailureThreshold: 1, RecoveryTime: 0}); err != ErrInvalidRecovery {
		t.Fatalf("expected ErrInvalidRecovery, got %v", err)
	}
}

func TestBreaker_OpensAtThreshold(t *testing.T) {
	b, _ := newTestBreaker(t, 5, 30*time.Second)

	for i := 0; i < 4; i++ {
		b.RecordFailure("/api/pay")
		if !b.IsAvailable("/api/pay") {
			t.Fatalf("expected available before threshold (failure %d)", i+1)
		}
	}

	b.RecordFailure("/api/pay")
	if b.IsAvailable("/api/pay") {
		t.Fatalf("expected unavailable after 5th failure")
	}
	if st, _ := b.StateOf("/api/pay"); st != StateOpen {
		t.Fatalf("expected OPEN, got %s", st)
	}
}

func TestBreaker_RecoveryTransitionsToHalfOpenOnCheck(t *testing.T) {
	b, clock := newTestBreaker(t, 5, 30*time.Second)

	for i := 0; i < 5; i++ {
		b.RecordFailure("/api/pay")
	}
	if b.IsAvailable("/api/pay") {
		t.Fatalf("expected OPEN circuit to reject")
	}

	// antes da janela vencer continua rejeitando
	clock.advance(29 * time.Second)
	if b.IsAvailable("/api/pay") {
		t.Fatalf("expected still unavailable before recovery window")
	}

	clock.advance(1 * time.Second)
	if !b.IsAvailable("/api/pay") {
		t.Fatalf("expected probe to be admitted after recovery window")
	}
	if st, _ := b.StateOf("/api/pay"); st != StateHalfOpen {
		t.Fatalf("expected HALF_OPEN after availability check, got %s", st)
	}
}

func TestBreaker_HalfOpenSuccessCloses(t *testing.T) {
	b, clock := newTestBreaker(t, 5, 30*time.Second)

	for i := 0; i < 5; i++ {
		b.RecordFailure("/api/pay")
	}
	clock.advance(30 * time.Second)
	if !b.IsAvailable("/api/pay") {
		t.Fatalf("expected probe admitted")
	}

	b.RecordSuccess("/api/pay")
	if st, _ := b.StateOf("/api/pay"); st != StateClosed {
		t.Fatalf("expected CLOSED after probe success, got %s", st)
	}

	ms := b.Metrics()
	if len(ms) != 1 {
		t.Fatalf("expected 1 metric entry, got %d", len(ms))
	}
	if ms[0].FailureCount != 0 {
		t.Fatalf("expected failureCount reset to 0, got %d", ms[0].FailureCount)
	}
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	b, clock := newTestBreaker(t, 5, 30*time.Second)

	for i := 0; i < 5; i++ {
		b.RecordFailure("/api/pay")
	}
	clock.advance(30 * time.Second)
	if !b.IsAvailable("/api/pay") {
		t.Fatalf("expected probe admitted")
	}

	b.RecordFailure("/api/pay")
	if st, _ := b.StateOf("/api/pay"); st != StateOpen {
		t.Fatalf("expected OPEN after probe failure, got %s", st)
	}
	if b.IsAvailable("/api/pay") {
		t.Fatalf("expected unavailable right after reopening")
	}

	// a recuperação conta a partir da falha do probe
	clock.advance(30 * time.Second)
	if !b.IsAvailable("/api/pay") {
		t.Fatalf("expected new probe after another recovery window")
	}
}

func TestBreaker_PathsAreIndependent(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	b := New(WithNow(clock.now))
	for _, p := range []string{"/a", "/b"} {
		if err := b.Configure(Config{Path: p, FailureThreshold: 2, RecoveryTime: time.Minute}); err != nil {
			t.Fatalf("configure %s: %v", p, err)
		}
	}

	b.RecordFailure("/a")
	b.RecordFailure("/a")

	if b.IsAvailable("/a") {
		t.Fatalf("expected /a open")
	}
	if !b.IsAvailable("/b") {
		t.Fatalf("expected /b unaffected")
	}
}
