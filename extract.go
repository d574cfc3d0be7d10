// Package respline extracts CRLF terminated lines from RESP (REdis
// Serialization Protocol) byte streams.
package respline

import (
	"bytes"
	"fmt"

	"github.com/pkg/errors"
)

var crlf = []byte("\r\n")

// ErrOutOfBounds is matched by every *OutOfBoundsError
var ErrOutOfBounds = errors.New("out of bounds")

// OutOfBoundsError means no complete line is available from the cursor with the bytes currently in the buffer.
// Offset is how far the scan got.
type OutOfBoundsError struct {
	Offset int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("out of bounds at offset %d", e.Offset)
}

// Is reports whether target is ErrOutOfBounds
func (e *OutOfBoundsError) Is(target error) bool {
	return target == ErrOutOfBounds
}

// ExtractLine returns a copy of the bytes from *cursor up to the first CRLF and moves *cursor past the LF.
//
// When no CRLF is found it sets *cursor to len(buf) and returns an *OutOfBoundsError with that offset.
// When *cursor is already at or past the end of buf it returns an *OutOfBoundsError for *cursor and leaves
// it alone. The offset after a failure is only a hint: callers that want the line once more data arrives
// should keep their own copy of the start offset and retry from there.
func ExtractLine(buf []byte, cursor *int) ([]byte, error) {
	start := *cursor
	if start < 0 || start >= len(buf) {
		return nil, &OutOfBoundsError{Offset: start}
	}
	idx := bytes.Index(buf[start:], crlf)
	if idx < 0 {
		*cursor = len(buf)
		return nil, &OutOfBoundsError{Offset: *cursor}
	}
	line := make([]byte, idx)
	copy(line, buf[start:start+idx])
	*cursor = start + idx + len(crlf)
	return line, nil
}
