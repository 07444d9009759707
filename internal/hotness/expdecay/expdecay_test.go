package expdecay

import (
	"math"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Add(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTrackerForTest(hl time.Duration) (*Tracker, *fakeClock) {
	fc := &fakeClock{now: time.Unix(0, 0).UTC()}
	tr := New(hl)
	tr.now = fc.Now
	return tr, fc
}

func almostEq(t *testing.T, got, want, eps float64) {
	t.Helper()
	if math.Abs(got-want) > eps {
		t.Fatalf("got=%g want=%g (eps=%g)", got, want, eps)
	}
}

func TestInc_ReturnsAccumulatedScore(t *testing.T) {
	tr, _ := newTrackerForTest(time.Minute)

	almostEq(t, tr.Inc("39J438"), 1, 1e-9)
	almostEq(t, tr.Inc("39J438"), 2, 1e-9)
	almostEq(t, tr.Score("39J438"), 2, 1e-9)
	if tr.Inc("") != 0 || tr.Score("") != 0 {
		t.Fatalf("empty area must be ignored")
	}
}

func TestHalfLife_DecaysByHalf(t *testing.T) {
	hl := 2 * time.Second
	tr, fc := newTrackerForTest(hl)

	tr.Inc("4P3JK8")
	fc.Add(hl)
	almostEq(t, tr.Score("4P3JK8"), 0.5, 1e-6)

	// next hit lands on the decayed score
	almostEq(t, tr.Inc("4P3JK8"), 1.5, 1e-6)
}

func TestConcurrency_ManyIncSameArea(t *testing.T) {
	tr, _ := newTrackerForTest(time.Minute)

	const N = 256
	var wg sync.WaitGroup
	wg.Add(N)
	for range N {
		go func() {
			tr.Inc("3LCL67")
			wg.Done()
		}()
	}
	wg.Wait()

	almostEq(t, tr.Score("3LCL67"), N, 1e-9)
}

func TestReset_OnlySelectedAreas(t *testing.T) {
	tr, _ := newTrackerForTest(30 * time.Second)

	tr.Inc("AREA-A")
	tr.Inc("AREA-B")
	tr.Reset("AREA-A", "")

	if got := tr.Score("AREA-A"); got != 0 {
		t.Fatalf("reset failed: got %g want 0", got)
	}
	if got := tr.Score("AREA-B"); got <= 0 {
		t.Fatalf("unexpected reset of AREA-B: got %g", got)
	}
}

func TestTop_OrdersByScoreThenName(t *testing.T) {
	tr, _ := newTrackerForTest(time.Minute)
	for i := 0; i < 3; i++ {
		tr.Inc("b")
	}
	tr.Inc("a")
	tr.Inc("c")

	top := tr.Top(2)
	if len(top) != 2 || top[0].Area != "b" || top[1].Area != "a" {
		t.Fatalf("unexpected top: %+v", top)
	}
	almostEq(t, top[0].Score, 3, 1e-9)
	if tr.Top(0) != nil {
		t.Fatalf("Top(0) should be nil")
	}
}

func TestPrune_RemovesColdAreas(t *testing.T) {
	tr, fc := newTrackerForTest(time.Second)
	tr.Inc("cold")
	fc.Add(10 * time.Second)
	tr.Inc("warm")

	if n := tr.Prune(0.5); n != 1 {
		t.Fatalf("pruned=%d want 1", n)
	}
	if tr.Size() != 1 || tr.Score("warm") == 0 {
		t.Fatalf("warm area should remain, size=%d", tr.Size())
	}
}

func TestDecayHelper_Edges(t *testing.T) {
	if got := decay(0, 10, 60); got != 0 {
		t.Fatalf("expected 0, got %g", got)
	}
	if got := decay(5, 0, 60); got != 5 {
		t.Fatalf("expected 5, got %g", got)
	}
	if got := decay(5, 10, 0); got != 5 {
		t.Fatalf("expected 5, got %g", got)
	}
}
