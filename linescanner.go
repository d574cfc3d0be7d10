package respline

import (
	"io"

	"github.com/pkg/errors"
)

var (
	// ErrLineTooLong is returned when a line is longer than Options.MaxLineLength
	ErrLineTooLong = errors.New("line too long")

	// ErrTruncatedLine is returned when a stream ends in the middle of a line
	ErrTruncatedLine = errors.New("stream ended without a line terminator")
)

type lineScanner struct {
	br            byteReader
	pos           int
	line          []byte
	lineOffset    int64
	maxLineLength int
	metrics       *metrics
	err           error
}

func (s *lineScanner) scan() bool {
	if s.err != nil {
		return false
	}
	s.br.release(s.pos)
	// the line always starts at window offset 0, resume only skips bytes already searched
	resume := 0
	for {
		window := s.br.window()
		s.pos = resume
		segment, err := ExtractLine(window, &s.pos)
		if err == nil {
			line := segment
			if resume > 0 {
				line = make([]byte, s.pos-len(crlf))
				copy(line, window)
			}
			if s.tooLong(len(line)) {
				s.fail(errors.Wrapf(ErrLineTooLong, "line at offset %d is %d bytes", s.br.base, len(line)))
				return false
			}
			s.line = line
			s.lineOffset = s.br.base
			s.metrics.lineScanned()
			return true
		}

		// a trailing CR may still pair with the next LF
		var oob *OutOfBoundsError
		if errors.As(err, &oob) && oob.Offset > 0 {
			resume = oob.Offset - 1
		}
		if s.tooLong(len(window) - 1) {
			s.fail(errors.Wrapf(ErrLineTooLong, "no terminator within %d bytes at offset %d", s.maxLineLength, s.br.base))
			return false
		}
		n := s.br.extend()
		s.metrics.bytesRead(n)
		if n > 0 {
			s.metrics.refill()
			continue
		}
		pending := len(s.br.window())
		switch {
		case s.br.err != io.EOF:
			s.fail(s.br.err)
		case pending > 0:
			s.fail(errors.Wrapf(ErrTruncatedLine, "%d bytes at offset %d", pending, s.br.base))
		default:
			s.fail(io.EOF)
		}
		return false
	}
}

func (s *lineScanner) tooLong(n int) bool {
	return s.maxLineLength > 0 && n > s.maxLineLength
}

func (s *lineScanner) fail(err error) {
	s.err = err
	s.line = nil
}

func (s *lineScanner) bytes() []byte {
	return s.line
}

func (s *lineScanner) offset() int64 {
	return s.lineOffset
}

func (s *lineScanner) error() error {
	return s.err
}
