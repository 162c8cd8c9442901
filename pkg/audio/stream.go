package audio

import (
	"errors"
	"io"
	"sync"
)

// ErrStreamCompleted is returned by [ByteStream.Write] after Complete has
// been called.
var ErrStreamCompleted = errors.New("audio: write to completed byte stream")

// StreamOption configures a [ByteStream].
type StreamOption func(*ByteStream)

// WithCapacity bounds the stream's internal buffer to n bytes. Writes that
// would exceed the bound block until the consumer drains enough data
// (block-on-write backpressure). Zero (the default) means unbounded, which
// can grow without limit under a slow consumer.
func WithCapacity(n int) StreamOption {
	return func(s *ByteStream) {
		s.capacity = n
	}
}

// ByteStream is a blocking single-producer/single-consumer byte buffer. It
// decouples chunked writes from arbitrary-sized reads: bytes come out in the
// exact order they went in, but chunk boundaries are not preserved.
//
// The producer calls Write and finally Complete; the consumer calls Read,
// which blocks until data is available or completion is signaled. After
// Complete, Read drains the remaining bytes and then returns [io.EOF]
// permanently.
//
// A ByteStream is safe for one concurrent producer and one concurrent
// consumer without external synchronisation.
type ByteStream struct {
	mu       sync.Mutex
	cond     *sync.Cond
	buf      []byte
	capacity int // 0 = unbounded
	done     bool
}

// NewByteStream creates an empty ByteStream with the given options applied.
func NewByteStream(opts ...StreamOption) *ByteStream {
	s := &ByteStream{}
	s.cond = sync.NewCond(&s.mu)
	for _, o := range opts {
		o(s)
	}
	return s
}

// Write copies p into the stream. With the default unbounded capacity it
// never blocks; with [WithCapacity] it blocks until the buffered byte count
// drops below the bound. Writing after Complete returns
// [ErrStreamCompleted].
func (s *ByteStream) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for s.capacity > 0 && len(s.buf) >= s.capacity && !s.done {
		s.cond.Wait()
	}
	if s.done {
		return 0, ErrStreamCompleted
	}

	s.buf = append(s.buf, p...)
	s.cond.Broadcast()
	return len(p), nil
}

// Read copies up to len(p) buffered bytes into p, blocking while the stream
// is empty and not yet completed. It returns [io.EOF] — repeatably — once
// Complete has been called and all buffered bytes are exhausted.
func (s *ByteStream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.buf) == 0 && !s.done {
		s.cond.Wait()
	}
	if len(s.buf) == 0 {
		return 0, io.EOF
	}

	n := copy(p, s.buf)
	s.buf = s.buf[n:]
	s.cond.Broadcast()
	return n, nil
}

// Complete signals end of stream. It is idempotent: further calls are
// no-ops. Any consumer blocked in Read is released, and subsequent writes
// fail with [ErrStreamCompleted].
func (s *ByteStream) Complete() {
	s.mu.Lock()
	s.done = true
	s.cond.Broadcast()
	s.mu.Unlock()
}

// Len returns the number of buffered, unread bytes.
func (s *ByteStream) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buf)
}
