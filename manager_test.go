package regionvm

import (
	"errors"
	"testing"
)

func TestNewRejectsEmptyRegion(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("New(nil): got %v, want ErrInvalidParameter", err)
	}
}

func TestNewRejectsMisalignedBase(t *testing.T) {
	region := newAlignedRegion(t, 64*4096, DefaultPageSize)
	if _, err := New(region[1:]); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("New(misaligned): got %v, want ErrInvalidParameter", err)
	}
}

func TestNewRejectsNonPageMultipleSize(t *testing.T) {
	region := newAlignedRegion(t, 64*4096, DefaultPageSize)
	if _, err := New(region[:len(region)-1]); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("New(bad size): got %v, want ErrInvalidParameter", err)
	}
}

func TestNewRejectsRegionTooSmallForDescriptorTable(t *testing.T) {
	region := newAlignedRegion(t, 4096, DefaultPageSize)
	if _, err := New(region); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("New(tiny): got %v, want ErrInvalidParameter", err)
	}
}

func TestNewLaysOutInvariants(t *testing.T) {
	m := newTestManager(t, WithSanity(true))
	if m.base == 0 || m.start <= m.base {
		t.Fatalf("bad base/start: base=%#x start=%#x", m.base, m.start)
	}
	if m.brk != m.start {
		t.Fatalf("brk should start equal to start: brk=%#x start=%#x", m.brk, m.start)
	}
	if m.mapTop != m.end {
		t.Fatalf("map should start equal to end: map=%#x end=%#x", m.mapTop, m.end)
	}
	if !m.IsSane() {
		t.Fatal("fresh manager should be sane")
	}
}

func TestSbrkZeroReturnsCurrentBrk(t *testing.T) {
	m := newTestManager(t)
	before := m.Brk()
	got, err := m.Sbrk(0)
	if err != nil {
		t.Fatalf("Sbrk(0): %v", err)
	}
	if got != before {
		t.Fatalf("Sbrk(0) = %#x, want %#x", got, before)
	}
}

func TestSbrkAdvances(t *testing.T) {
	m := newTestManager(t)
	before := m.Brk()
	old, err := m.Sbrk(4096)
	if err != nil {
		t.Fatalf("Sbrk: %v", err)
	}
	if old != before {
		t.Fatalf("Sbrk returned %#x, want old brk %#x", old, before)
	}
	if m.Brk() != before+4096 {
		t.Fatalf("Brk after Sbrk = %#x, want %#x", m.Brk(), before+4096)
	}
}

func TestSbrkRejectsNegativeDelta(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.Sbrk(-1); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("Sbrk(-1): got %v, want ErrInvalidParameter", err)
	}
}

func TestSbrkFailsWhenExhausted(t *testing.T) {
	m := newTestManager(t)
	room := int(m.MapTop() - m.Brk())
	if _, err := m.Sbrk(room + 4096); !errors.Is(err, ErrOutOfMemory) {
		t.Fatalf("Sbrk(overrun): got %v, want ErrOutOfMemory", err)
	}
	if m.LastError() == "" {
		t.Fatal("LastError should be populated after a failed Sbrk")
	}
}

func TestSetBrkRejectsOutOfRange(t *testing.T) {
	m := newTestManager(t)
	if err := m.SetBrk(m.start - 4096); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("SetBrk(below start): got %v, want ErrInvalidParameter", err)
	}
	if err := m.SetBrk(m.mapTop); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("SetBrk(at map): got %v, want ErrInvalidParameter", err)
	}
}

func TestSetBrkMovesBrk(t *testing.T) {
	m := newTestManager(t)
	target := m.start + 3*4096
	if err := m.SetBrk(target); err != nil {
		t.Fatalf("SetBrk: %v", err)
	}
	if m.Brk() != target {
		t.Fatalf("Brk = %#x, want %#x", m.Brk(), target)
	}
}
