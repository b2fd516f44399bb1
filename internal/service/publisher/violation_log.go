package publisher

import "sync"

// ViolationLog keeps the most recent violation labels, oldest evicted first.
// It is safe for concurrent use: the pipeline appends while handlers read.
type ViolationLog struct {
	mu     sync.RWMutex
	labels []string
	start  int
	size   int
	total  uint64
}

// NewViolationLog creates a log holding up to capacity labels.
func NewViolationLog(capacity int) *ViolationLog {
	if capacity < 1 {
		capacity = 1
	}
	return &ViolationLog{labels: make([]string, capacity)}
}

// Append records a violation label.
func (l *ViolationLog) Append(label string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	capacity := len(l.labels)
	l.total++
	if l.size < capacity {
		l.labels[(l.start+l.size)%capacity] = label
		l.size++
		return
	}
	l.labels[l.start] = label
	l.start = (l.start + 1) % capacity
}

// Tail returns up to k most recent labels, oldest first. It never returns nil.
func (l *ViolationLog) Tail(k int) []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if k > l.size {
		k = l.size
	}
	if k < 0 {
		k = 0
	}

	out := make([]string, 0, k)
	for i := l.size - k; i < l.size; i++ {
		out = append(out, l.labels[(l.start+i)%len(l.labels)])
	}
	return out
}

// Len is the number of labels currently kept.
func (l *ViolationLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.size
}

// Total counts every label ever appended, evicted ones included.
func (l *ViolationLog) Total() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.total
}
