package vt

import "io"

// scannerCap is the fixed ring size: 4 KiB, large enough to hold any
// in-progress escape sequence the parser will ever accumulate.
const scannerCap = 4 << 10

// ByteScanner is a restartable byte source over a blocking io.Reader. It
// buffers a fixed 4 KiB window, supports one-byte pushback, and exposes
// mark/rewind handles so the parser can abort a partially-read token and
// retry once more bytes arrive, without losing or re-ordering anything.
type ByteScanner struct {
	buf [scannerCap]byte
	ofs int
	len int
}

// NewByteScanner returns an empty ByteScanner ready for Refill.
func NewByteScanner() *ByteScanner {
	return &ByteScanner{}
}

// Refill compacts any unread bytes to the head of the buffer, then
// performs one Read into the tail. It reports true when at least one new
// byte became available, false with a nil error on clean EOF, and a
// non-nil error for any other read failure. Callers that read from a PTY
// master are expected to translate EIO-on-close into io.EOF before
// calling Refill, so this type stays free of platform-specific error
// codes.
func (s *ByteScanner) Refill(r io.Reader) (bool, error) {
	if s.ofs < s.len {
		n := copy(s.buf[0:], s.buf[s.ofs:s.len])
		s.len = n
	} else {
		s.len = 0
	}
	s.ofs = 0

	n, err := r.Read(s.buf[s.len:])
	s.len += n
	if n > 0 {
		return true, nil
	}
	if err == io.EOF {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

// Next returns the next byte, or false if the buffer is exhausted.
func (s *ByteScanner) Next() (byte, bool) {
	if s.ofs == s.len {
		return 0, false
	}
	c := s.buf[s.ofs]
	s.ofs++
	return c, true
}

// Back un-reads the last byte returned by Next. Calling it with nothing
// consumed is a programming error in the parser, not a runtime
// condition, so it panics.
func (s *ByteScanner) Back() {
	if s.ofs == 0 {
		panic("vt: ByteScanner.Back called at offset 0")
	}
	s.ofs--
}

// Mark returns a handle to the current read position.
func (s *ByteScanner) Mark() int { return s.ofs }

// RewindTo restores the read position to a handle returned by Mark.
func (s *ByteScanner) RewindTo(h int) { s.ofs = h }
