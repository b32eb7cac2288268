package audio

import "fmt"

// SegmentBuffer accumulates raw PCM bytes for a single connection and yields
// fixed-size windows that overlap by a configured amount, so that speech
// straddling a window boundary is transcribed twice rather than lost.
//
// The buffer is bounded: once maxCapacity is reached the oldest bytes are
// silently dropped. Recent audio is always kept, which is the right trade-off
// when the consumer (the transcription pipeline) falls behind a live stream.
//
// SegmentBuffer is not safe for concurrent use; each connection owns exactly
// one and drives it from a single goroutine.
type SegmentBuffer struct {
	segmentSize int
	overlapSize int
	maxCapacity int
	data        []byte
}

// NewSegmentBuffer creates a buffer that yields segmentSize-byte windows
// overlapping by overlapSize bytes, holding at most maxCapacity bytes.
func NewSegmentBuffer(segmentSize, overlapSize, maxCapacity int) (*SegmentBuffer, error) {
	if segmentSize <= 0 {
		return nil, fmt.Errorf("segment size must be positive, got %d", segmentSize)
	}
	if overlapSize < 0 || overlapSize >= segmentSize {
		return nil, fmt.Errorf("overlap size must be in [0, segment size), got %d", overlapSize)
	}
	if maxCapacity < segmentSize {
		return nil, fmt.Errorf("max capacity %d is smaller than segment size %d", maxCapacity, segmentSize)
	}
	return &SegmentBuffer{
		segmentSize: segmentSize,
		overlapSize: overlapSize,
		maxCapacity: maxCapacity,
		data:        make([]byte, 0, segmentSize*2),
	}, nil
}

// Push appends a chunk to the buffer tail. If the buffer would exceed its
// capacity, bytes are discarded from the head until it fits. A chunk larger
// than the capacity keeps only its most recent maxCapacity bytes.
func (b *SegmentBuffer) Push(chunk []byte) {
	b.data = append(b.data, chunk...)
	if over := len(b.data) - b.maxCapacity; over > 0 {
		b.data = append(b.data[:0], b.data[over:]...)
	}
}

// TryExtractWindow returns the first segmentSize bytes if enough data is
// buffered. After extraction the buffer retains the trailing overlapSize bytes
// of the returned window plus anything pushed after it, so the next window
// starts overlapSize bytes before the previous one ended.
func (b *SegmentBuffer) TryExtractWindow() ([]byte, bool) {
	if len(b.data) < b.segmentSize {
		return nil, false
	}
	window := make([]byte, b.segmentSize)
	copy(window, b.data[:b.segmentSize])

	advance := b.segmentSize - b.overlapSize
	b.data = append(b.data[:0], b.data[advance:]...)
	return window, true
}

// Len returns the number of currently buffered bytes.
func (b *SegmentBuffer) Len() int {
	return len(b.data)
}
