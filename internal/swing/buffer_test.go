// internal/swing/buffer_test.go
package swing

import (
	"testing"

	"github.com/racketlab/swingsense/internal/imu"
)

func TestSampleBuffer_PushWithinCapacity(t *testing.T) {
	b := newSampleBuffer(4)

	for i := 0; i < 3; i++ {
		id, evicted := b.push(imu.Sample{T: float64(i)})
		if evicted {
			t.Errorf("push %d evicted below capacity", i)
		}
		if id != uint64(i+1) {
			t.Errorf("push %d assigned ID %d, want %d", i, id, i+1)
		}
	}

	if b.len() != 3 {
		t.Errorf("len() = %d, want 3", b.len())
	}
	if b.firstID() != 1 || b.lastID() != 3 {
		t.Errorf("ID span = [%d, %d], want [1, 3]", b.firstID(), b.lastID())
	}
}

func TestSampleBuffer_EvictsExactlyOldest(t *testing.T) {
	b := newSampleBuffer(3)

	for i := 0; i < 3; i++ {
		b.push(imu.Sample{T: float64(i)})
	}

	// The capacity+1-th push must evict exactly the oldest sample.
	_, evicted := b.push(imu.Sample{T: 3})
	if !evicted {
		t.Fatal("push at capacity did not evict")
	}
	if b.len() != 3 {
		t.Errorf("len() = %d, want 3 after eviction", b.len())
	}
	if b.firstID() != 2 {
		t.Errorf("firstID() = %d, want 2", b.firstID())
	}
	if got := b.at(0).T; got != 1 {
		t.Errorf("oldest sample T = %v, want 1", got)
	}
	if got := b.at(2).T; got != 3 {
		t.Errorf("newest sample T = %v, want 3", got)
	}
}

func TestSampleBuffer_IDsNeverReused(t *testing.T) {
	b := newSampleBuffer(2)

	var lastID uint64
	for i := 0; i < 10; i++ {
		id, _ := b.push(imu.Sample{T: float64(i)})
		if id <= lastID {
			t.Fatalf("push %d assigned non-increasing ID %d after %d", i, id, lastID)
		}
		lastID = id
	}

	if b.firstID() != 9 || b.lastID() != 10 {
		t.Errorf("ID span = [%d, %d], want [9, 10]", b.firstID(), b.lastID())
	}
}

func TestSampleBuffer_OrderAcrossWrap(t *testing.T) {
	b := newSampleBuffer(4)

	for i := 0; i < 7; i++ {
		b.push(imu.Sample{T: float64(i)})
	}

	// Live window is samples 3..6 in arrival order.
	for i := 0; i < b.len(); i++ {
		want := float64(3 + i)
		if got := b.at(i).T; got != want {
			t.Errorf("at(%d).T = %v, want %v", i, got, want)
		}
	}
}

func TestSampleBuffer_EmptyIDs(t *testing.T) {
	b := newSampleBuffer(4)

	if b.firstID() != 0 || b.lastID() != 0 {
		t.Errorf("empty buffer ID span = [%d, %d], want [0, 0]", b.firstID(), b.lastID())
	}
}

func TestSampleBuffer_ResetKeepsCounting(t *testing.T) {
	b := newSampleBuffer(4)
	for i := 0; i < 3; i++ {
		b.push(imu.Sample{T: float64(i)})
	}

	b.reset()
	if b.len() != 0 {
		t.Fatalf("len() = %d after reset, want 0", b.len())
	}

	id, _ := b.push(imu.Sample{T: 99})
	if id != 4 {
		t.Errorf("first post-reset ID = %d, want 4", id)
	}
}
