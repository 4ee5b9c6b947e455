package transport

import (
	"testing"
	"time"
)

type manualNow struct{ t time.Time }

func (m *manualNow) now() time.Time { return m.t }

func newManual(bpm float64) (*Transport, *manualNow) {
	clock := &manualNow{t: time.Unix(1000, 0)}
	tr := New(bpm)
	tr.now = clock.now
	return tr, clock
}

func TestBPMClamped(t *testing.T) {
	tr := New(500)
	if tr.BPM() != MaxBPM {
		t.Fatalf("bpm = %v, want %v", tr.BPM(), MaxBPM)
	}
	if got := tr.SetBPM(1); got != MinBPM {
		t.Fatalf("SetBPM(1) = %v, want %v", got, MinBPM)
	}
}

func TestCollectRepeatingAndOnce(t *testing.T) {
	tr, _ := newManual(120)
	var fired []string
	tr.ScheduleRepeating(func() { fired = append(fired, "rep") }, 100*time.Millisecond, 50*time.Millisecond)
	tr.ScheduleOnce(func() { fired = append(fired, "once") }, 120*time.Millisecond)
	tr.Start()

	cbs, next := tr.collect(40 * time.Millisecond)
	if len(cbs) != 0 || next != 50*time.Millisecond {
		t.Fatalf("at 40ms: %d due, next %v", len(cbs), next)
	}

	cbs, next = tr.collect(160 * time.Millisecond)
	for _, cb := range cbs {
		cb()
	}
	want := []string{"rep", "once", "rep"}
	if len(fired) != len(want) {
		t.Fatalf("fired %v, want %v", fired, want)
	}
	for i := range want {
		if fired[i] != want[i] {
			t.Fatalf("fired %v, want %v", fired, want)
		}
	}
	if next != 250*time.Millisecond {
		t.Fatalf("next = %v, want 250ms", next)
	}
	if tr.Scheduled() != 1 {
		t.Fatalf("one-shot should be dropped, %d live", tr.Scheduled())
	}
}

func TestCancel(t *testing.T) {
	tr, _ := newManual(120)
	id := tr.ScheduleRepeating(func() { t.Fatal("cancelled callback ran") }, time.Second, 0)
	if !tr.Cancel(id) {
		t.Fatal("cancel of live id failed")
	}
	if tr.Cancel(id) {
		t.Fatal("second cancel should report false")
	}
	tr.Start()
	cbs, _ := tr.collect(5 * time.Second)
	if len(cbs) != 0 {
		t.Fatalf("%d callbacks after cancel", len(cbs))
	}
}

func TestScheduleWhilePlayingSkipsPast(t *testing.T) {
	tr, clock := newManual(120)
	tr.Start()
	clock.t = clock.t.Add(450 * time.Millisecond)
	tr.ScheduleRepeating(func() {}, 200*time.Millisecond, 100*time.Millisecond)
	_, next := tr.collect(450 * time.Millisecond)
	if next != 500*time.Millisecond {
		t.Fatalf("next = %v, want 500ms", next)
	}
}

func TestStopStartRebases(t *testing.T) {
	tr, clock := newManual(120)
	var fired []string
	tr.ScheduleRepeating(func() { fired = append(fired, "rep") }, 100*time.Millisecond, 50*time.Millisecond)
	tr.ScheduleOnce(func() { fired = append(fired, "once") }, 30*time.Millisecond)
	tr.ScheduleOnce(func() { fired = append(fired, "late") }, 500*time.Millisecond)
	gone := tr.ScheduleRepeating(func() { fired = append(fired, "cancelled") }, 100*time.Millisecond, 10*time.Millisecond)
	tr.Cancel(gone)

	tr.Start()
	cbs, _ := tr.collect(120 * time.Millisecond)
	for _, cb := range cbs {
		cb()
	}
	clock.t = clock.t.Add(120 * time.Millisecond)
	tr.Stop()
	if tr.Scheduled() != 1 {
		t.Fatalf("after stop %d live, want only the repeating entry", tr.Scheduled())
	}
	if tr.Position() != 0 {
		t.Fatalf("position while stopped = %v", tr.Position())
	}

	fired = nil
	tr.Start()
	cbs, next := tr.collect(60 * time.Millisecond)
	for _, cb := range cbs {
		cb()
	}
	if len(fired) != 1 || fired[0] != "rep" {
		t.Fatalf("fired %v after restart, want [rep]", fired)
	}
	if next != 150*time.Millisecond {
		t.Fatalf("next = %v, want 150ms", next)
	}
	cbs, _ = tr.collect(time.Second)
	for _, cb := range cbs {
		cb()
	}
	for _, f := range fired {
		if f != "rep" {
			t.Fatalf("%s fired after restart", f)
		}
	}
}
