package market

import (
	"context"
	"testing"
	"time"
)

func TestPacerFirstAcquireImmediate(t *testing.T) {
	p := NewPacer(1 * time.Second)

	start := time.Now()
	if err := p.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("first Acquire should be immediate, took %v", elapsed)
	}
}

func TestPacerEnforcesInterval(t *testing.T) {
	interval := 150 * time.Millisecond
	p := NewPacer(interval)
	ctx := context.Background()

	if err := p.Acquire(ctx); err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}
	start := time.Now()
	if err := p.Acquire(ctx); err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < interval-20*time.Millisecond {
		t.Errorf("second Acquire returned after %v, want >= %v", elapsed, interval)
	}
}

func TestPacerCancelledAcquireStillCounts(t *testing.T) {
	interval := 150 * time.Millisecond
	p := NewPacer(interval)

	if err := p.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}

	// An aborted wait reserves its slot, so the next caller still pays
	// the full spacing from that slot.
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Acquire(cancelled); err != context.Canceled {
		t.Fatalf("Acquire() with cancelled context: got %v, want context.Canceled", err)
	}

	start := time.Now()
	if err := p.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}
	// Two intervals have been reserved; the third acquire waits for both.
	if elapsed := time.Since(start); elapsed < 2*interval-30*time.Millisecond {
		t.Errorf("Acquire after aborted wait returned after %v, want >= %v", elapsed, 2*interval)
	}
}

func TestPacerSpacingUnderConcurrency(t *testing.T) {
	interval := 100 * time.Millisecond
	p := NewPacer(interval)
	ctx := context.Background()

	const callers = 4
	errs := make(chan error, callers)

	start := time.Now()
	for i := 0; i < callers; i++ {
		go func() {
			errs <- p.Acquire(ctx)
		}()
	}
	for i := 0; i < callers; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("Acquire() error: %v", err)
		}
	}

	// One caller passes immediately; each of the rest waits a full interval
	// behind the previous one.
	want := time.Duration(callers-1) * interval
	if elapsed := time.Since(start); elapsed < want-30*time.Millisecond {
		t.Errorf("%d concurrent Acquires finished in %v, want >= %v", callers, elapsed, want)
	}
}

func TestPacerZeroIntervalNeverBlocks(t *testing.T) {
	p := NewPacer(0)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 10; i++ {
		if err := p.Acquire(ctx); err != nil {
			t.Fatalf("Acquire() error: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("unpaced Acquire loop took %v", elapsed)
	}
}
