package process

import "testing"

func TestAdmitRejectsAtCapacity(t *testing.T) {
	p := New(Backends{}, 1)

	release1, ok := p.Admit()
	if !ok {
		t.Fatal("expected first admit to succeed")
	}
	if _, ok := p.Admit(); ok {
		t.Fatal("expected second admit to fail at capacity")
	}

	release1()
	if _, ok := p.Admit(); !ok {
		t.Fatal("expected admit to succeed after release")
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	p := New(Backends{}, 2)
	release, ok := p.Admit()
	if !ok {
		t.Fatal("expected admit to succeed")
	}
	release()
	release()
	if got := p.ActiveCalls(); got != 0 {
		t.Fatalf("expected 0 active calls, got %d", got)
	}
}

func TestDrainRejectsNewAdmits(t *testing.T) {
	p := New(Backends{}, 5)
	p.Drain()
	if _, ok := p.Admit(); ok {
		t.Fatal("expected admit to fail while draining")
	}
}

func TestWaitDrainedClosesAfterAllReleased(t *testing.T) {
	p := New(Backends{}, 2)
	release, _ := p.Admit()

	done := make(chan struct{})
	p.WaitDrained(done)

	select {
	case <-done:
		t.Fatal("should not be drained while a call is active")
	default:
	}

	release()
	<-done
}
