package protocol

// InputBuffer is the received byte stream a transport parses frames from.
type InputBuffer interface {
	// Data returns the unread bytes without consuming them
	Data() []byte

	// Available returns how many bytes are unread
	Available() int

	// Pop consumes n bytes from the front
	Pop(n int)
}

// OutputBuffer is where a transport encodes frames. Update patches a byte
// already written, which is how the frame length is filled in.
type OutputBuffer interface {
	// Output appends data
	Output(data []byte)

	// CurPosition returns the offset the next byte goes to
	CurPosition() int

	// Update overwrites the byte at pos
	Update(pos int, val byte)

	// DataSince returns what was written from pos on
	DataSince(pos int) []byte
}

// SliceInputBuffer is an InputBuffer over a fixed slice.
type SliceInputBuffer struct {
	data []byte
}

// NewSliceInputBuffer reads from data, which it does not copy.
func NewSliceInputBuffer(data []byte) *SliceInputBuffer {
	return &SliceInputBuffer{data: data}
}

func (s *SliceInputBuffer) Data() []byte   { return s.data }
func (s *SliceInputBuffer) Available() int { return len(s.data) }

func (s *SliceInputBuffer) Pop(n int) {
	if n > len(s.data) {
		n = len(s.data)
	}
	s.data = s.data[n:]
}

// ScratchOutput is a fixed OutputBuffer. Bytes past MessageMax are dropped.
type ScratchOutput struct {
	buf [MessageMax]byte
	pos int
}

// NewScratchOutput returns an empty ScratchOutput.
func NewScratchOutput() *ScratchOutput {
	return &ScratchOutput{}
}

func (s *ScratchOutput) Output(data []byte) {
	s.pos += copy(s.buf[s.pos:], data)
}

func (s *ScratchOutput) CurPosition() int { return s.pos }

func (s *ScratchOutput) Update(pos int, val byte) {
	if pos < s.pos {
		s.buf[pos] = val
	}
}

func (s *ScratchOutput) DataSince(pos int) []byte {
	if pos > s.pos {
		return nil
	}
	return s.buf[pos:s.pos]
}

// Result returns everything written since the last Reset.
func (s *ScratchOutput) Result() []byte { return s.buf[:s.pos] }

// Reset empties the buffer.
func (s *ScratchOutput) Reset() { s.pos = 0 }

// FifoBuffer is a byte ring. One slot always stays empty to tell full from
// empty.
type FifoBuffer struct {
	buf   []byte
	read  int
	write int
}

// NewFifoBuffer allocates a ring holding up to capacity-1 bytes.
func NewFifoBuffer(capacity int) *FifoBuffer {
	return &FifoBuffer{buf: make([]byte, capacity)}
}

// Write stores as much of data as fits and returns how much that was.
func (f *FifoBuffer) Write(data []byte) int {
	n := f.Free()
	if n > len(data) {
		n = len(data)
	}
	for i := 0; i < n; i++ {
		f.buf[f.write] = data[i]
		f.write = (f.write + 1) % len(f.buf)
	}
	return n
}

// Read moves up to len(data) bytes out of the ring.
func (f *FifoBuffer) Read(data []byte) int {
	n := f.Available()
	if n > len(data) {
		n = len(data)
	}
	for i := 0; i < n; i++ {
		data[i] = f.buf[f.read]
		f.read = (f.read + 1) % len(f.buf)
	}
	return n
}

// Available returns how many bytes are buffered.
func (f *FifoBuffer) Available() int {
	return (f.write - f.read + len(f.buf)) % len(f.buf)
}

// Free returns how many more bytes Write accepts.
func (f *FifoBuffer) Free() int {
	return len(f.buf) - f.Available() - 1
}

// Data returns the buffered bytes. A wrapped ring is copied into a new
// contiguous slice.
func (f *FifoBuffer) Data() []byte {
	if f.read <= f.write {
		return f.buf[f.read:f.write]
	}
	out := make([]byte, 0, f.Available())
	out = append(out, f.buf[f.read:]...)
	return append(out, f.buf[:f.write]...)
}

// Pop drops n bytes from the front, or everything when n is larger.
func (f *FifoBuffer) Pop(n int) {
	if a := f.Available(); n > a {
		n = a
	}
	f.read = (f.read + n) % len(f.buf)
}

func (f *FifoBuffer) IsEmpty() bool { return f.read == f.write }

// Reset empties the ring.
func (f *FifoBuffer) Reset() {
	f.read = 0
	f.write = 0
}
