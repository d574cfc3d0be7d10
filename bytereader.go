package respline

import "io"

// maxEmptyReads is how many 0, nil reads extend tolerates before giving up
const maxEmptyReads = 100

// byteReader keeps a window of unconsumed bytes read from r. The window is data[start:].
// base is the stream offset of the first byte in the window.
type byteReader struct {
	r     io.Reader
	data  []byte
	start int
	base  int64
	err   error
}

func (b *byteReader) window() []byte {
	return b.data[b.start:]
}

// release drops the first n bytes of the window
func (b *byteReader) release(n int) {
	if n <= 0 {
		return
	}
	if n > len(b.data)-b.start {
		n = len(b.data) - b.start
	}
	b.start += n
	b.base += int64(n)
	if b.start == len(b.data) {
		b.data = b.data[:0]
		b.start = 0
	}
}

// extend reads more data into the window and returns the number of bytes added.
// It returns 0 once r has returned an error.
func (b *byteReader) extend() int {
	if b.err != nil {
		return 0
	}
	if len(b.data) == cap(b.data) && b.start > 0 {
		remaining := copy(b.data, b.data[b.start:])
		b.data = b.data[:remaining]
		b.start = 0
	}
	if len(b.data) == cap(b.data) {
		size := 2 * cap(b.data)
		if size == 0 {
			size = defaultBufferSize
		}
		grown := make([]byte, len(b.data), size)
		copy(grown, b.data)
		b.data = grown
	}
	for i := 0; i < maxEmptyReads; i++ {
		n, err := b.r.Read(b.data[len(b.data):cap(b.data)])
		b.data = b.data[:len(b.data)+n]
		if err != nil {
			b.err = err
		}
		if n > 0 || err != nil {
			return n
		}
	}
	b.err = io.ErrNoProgress
	return 0
}
