// internal/swing/buffer.go
package swing

import "github.com/racketlab/swingsense/internal/imu"

// sampleBuffer is a bounded FIFO of sensor samples with monotonically
// increasing logical IDs. IDs start at 1 and are never reused, so a
// cursor held as an ID stays meaningful across evictions without any
// re-indexing. Position i addresses the i-th oldest live sample.
type sampleBuffer struct {
	data     []imu.Sample
	head     int // position of the oldest live sample
	size     int
	capacity int
	nextID   uint64 // ID the next pushed sample will receive
}

func newSampleBuffer(capacity int) *sampleBuffer {
	return &sampleBuffer{
		data:     make([]imu.Sample, capacity),
		capacity: capacity,
		nextID:   1,
	}
}

// push appends a sample, evicting the oldest when full. Returns the
// logical ID assigned to the sample and whether an eviction happened.
func (b *sampleBuffer) push(s imu.Sample) (id uint64, evicted bool) {
	id = b.nextID
	b.nextID++

	if b.size == b.capacity {
		b.data[b.head] = s
		b.head = (b.head + 1) % b.capacity
		return id, true
	}

	b.data[(b.head+b.size)%b.capacity] = s
	b.size++
	return id, false
}

// at returns the i-th oldest live sample. Caller keeps 0 <= i < len.
func (b *sampleBuffer) at(i int) imu.Sample {
	return b.data[(b.head+i)%b.capacity]
}

func (b *sampleBuffer) len() int {
	return b.size
}

// firstID returns the logical ID of the oldest live sample, or 0 when
// the buffer is empty.
func (b *sampleBuffer) firstID() uint64 {
	if b.size == 0 {
		return 0
	}
	return b.nextID - uint64(b.size)
}

// lastID returns the logical ID of the newest live sample, or 0 when
// the buffer is empty.
func (b *sampleBuffer) lastID() uint64 {
	if b.size == 0 {
		return 0
	}
	return b.nextID - 1
}

// reset empties the buffer. IDs keep counting upward so stale cursors
// can never alias a fresh sample.
func (b *sampleBuffer) reset() {
	b.head = 0
	b.size = 0
}
