package recorder

import "helmetwatch/internal/model"

// PreEventBuffer keeps the most recent frames up to a fixed count.
// When full, pushing evicts the oldest frame.
type PreEventBuffer struct {
	frames []model.Frame
	start  int
	size   int
}

// NewPreEventBuffer creates a buffer holding at most capacity frames.
func NewPreEventBuffer(capacity int) *PreEventBuffer {
	if capacity < 0 {
		capacity = 0
	}
	return &PreEventBuffer{frames: make([]model.Frame, capacity)}
}

// Push appends a frame, evicting the oldest one at capacity.
func (b *PreEventBuffer) Push(frame model.Frame) {
	capacity := len(b.frames)
	if capacity == 0 {
		return
	}
	if b.size < capacity {
		b.frames[(b.start+b.size)%capacity] = frame
		b.size++
		return
	}
	b.frames[b.start] = frame
	b.start = (b.start + 1) % capacity
}

// Len is the number of buffered frames.
func (b *PreEventBuffer) Len() int {
	return b.size
}

// Cap is the maximum number of buffered frames.
func (b *PreEventBuffer) Cap() int {
	return len(b.frames)
}

// Oldest returns the frame that will be evicted next.
func (b *PreEventBuffer) Oldest() (model.Frame, bool) {
	if b.size == 0 {
		return model.Frame{}, false
	}
	return b.frames[b.start], true
}

// Newest returns the most recently pushed frame.
func (b *PreEventBuffer) Newest() (model.Frame, bool) {
	if b.size == 0 {
		return model.Frame{}, false
	}
	return b.frames[(b.start+b.size-1)%len(b.frames)], true
}

// Frames returns the buffered frames oldest first.
func (b *PreEventBuffer) Frames() []model.Frame {
	out := make([]model.Frame, 0, b.size)
	for i := 0; i < b.size; i++ {
		out = append(out, b.frames[(b.start+i)%len(b.frames)])
	}
	return out
}

// Drain returns the buffered frames oldest first and empties the buffer.
func (b *PreEventBuffer) Drain() []model.Frame {
	out := b.Frames()
	b.Clear()
	return out
}

// Clear drops every buffered frame.
func (b *PreEventBuffer) Clear() {
	for i := range b.frames {
		b.frames[i] = model.Frame{}
	}
	b.start = 0
	b.size = 0
}
