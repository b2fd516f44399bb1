// Package framing reassembles JPEG images split across datagrams.
package framing

import "bytes"

var (
	jpegHeader = []byte{0xFF, 0xD8}
	jpegFooter = []byte{0xFF, 0xD9}
)

// DefaultMaxFrameSize caps a reassembled image so a lost footer cannot grow the buffer forever.
const DefaultMaxFrameSize = 4 << 20

// Assembler rebuilds JPEG images from packets of one sender. A packet starting
// with SOI begins a new image; a packet ending with EOI completes it.
type Assembler struct {
	buf     bytes.Buffer
	started bool
	maxSize int
}

// NewAssembler creates an Assembler. maxSize <= 0 uses DefaultMaxFrameSize.
func NewAssembler(maxSize int) *Assembler {
	if maxSize <= 0 {
		maxSize = DefaultMaxFrameSize
	}
	return &Assembler{maxSize: maxSize}
}

// Feed adds a packet and returns a complete image when one finishes.
// Packets arriving before the first SOI are dropped.
func (a *Assembler) Feed(packet []byte) ([]byte, bool) {
	if bytes.HasPrefix(packet, jpegHeader) {
		a.buf.Reset()
		a.started = true
	}
	if !a.started {
		return nil, false
	}

	a.buf.Write(packet)
	if a.buf.Len() > a.maxSize {
		a.Reset()
		return nil, false
	}

	if bytes.HasSuffix(packet, jpegFooter) {
		frame := make([]byte, a.buf.Len())
		copy(frame, a.buf.Bytes())
		a.Reset()
		return frame, true
	}
	return nil, false
}

// Pending is the number of bytes waiting for a footer.
func (a *Assembler) Pending() int {
	return a.buf.Len()
}

// Reset drops any partial image.
func (a *Assembler) Reset() {
	a.buf.Reset()
	a.started = false
}
