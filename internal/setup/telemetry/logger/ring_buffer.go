package logger

// RingBuffer keeps the most recent lines written to a log file.
type RingBuffer struct {
	lines    []string
	head     int // next write position
	size     int
	appended int // lines added since the last reset
}

// NewRingBuffer creates a ring buffer holding at most capacity lines.
func NewRingBuffer(capacity int) *RingBuffer {
	return &RingBuffer{lines: make([]string, max(capacity, 1))}
}

// Cap returns the capacity.
func (rb *RingBuffer) Cap() int {
	return len(rb.lines)
}

// Len returns the number of lines held.
func (rb *RingBuffer) Len() int {
	return rb.size
}

// Add appends a line, overwriting the oldest when full.
func (rb *RingBuffer) Add(line string) {
	rb.lines[rb.head] = line
	rb.head = (rb.head + 1) % len(rb.lines)
	rb.size = min(rb.size+1, len(rb.lines))
	rb.appended++
}

// Lines returns the held lines oldest first.
func (rb *RingBuffer) Lines() []string {
	if rb.size == 0 {
		return nil
	}

	result := make([]string, rb.size)
	start := (rb.head - rb.size + len(rb.lines)) % len(rb.lines)

	for i := range rb.size {
		result[i] = rb.lines[(start+i)%len(rb.lines)]
	}

	return result
}
