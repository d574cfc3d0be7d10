package respline

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// singleScanner scans sources one after another
type singleScanner struct {
	opts        *Options
	metrics     *metrics
	sources     []string
	nextSource  int
	curSource   string
	lineScanner *lineScanner
	srcReader   *objReader
	brBuffer    []byte
	err         error
}

func newSingleScanner(sources []string, opts *Options, m *metrics) *singleScanner {
	return &singleScanner{
		opts:    opts,
		metrics: m,
		sources: sources,
	}
}

// Close closes the scanner
func (s *singleScanner) Close() error {
	if s.srcReader == nil {
		return nil
	}
	return s.srcReader.Close()
}

func (s *singleScanner) prepLineScanner(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if s.brBuffer == nil {
		s.brBuffer = make([]byte, 0, s.opts.BufferSize)
	}
	if s.lineScanner != nil {
		err := s.lineScanner.error()
		if err == nil {
			return nil
		}
		if err != io.EOF {
			return errors.Wrapf(err, "scanning %s", s.curSource)
		}
		s.opts.Logger.Debug("finished source",
			zap.String("source", s.curSource),
			zap.Int64("bytes", s.lineScanner.br.base),
		)
		s.brBuffer = s.lineScanner.br.data[:0]
	}

	// starting here we know either s.lineScanner == nil or s.lineScanner.error() == io.EOF
	// either way we need to do the same thing.

	if s.nextSource >= len(s.sources) {
		return io.EOF
	}
	if s.srcReader == nil {
		s.srcReader = new(objReader)
	}
	s.curSource = s.sources[s.nextSource]
	s.nextSource++
	err := s.srcReader.open(ctx, s.curSource, s.opts)
	if err != nil {
		return err
	}
	s.metrics.sourceOpened()
	s.opts.Logger.Debug("opened source", zap.String("source", s.curSource))
	s.lineScanner = &lineScanner{
		br: byteReader{
			data: s.brBuffer,
			r:    s.srcReader,
		},
		maxLineLength: s.opts.MaxLineLength,
		metrics:       s.metrics,
	}
	return nil
}

// Line returns the current line
func (s *singleScanner) Line() Line {
	return Line{
		Source: s.curSource,
		Offset: s.lineScanner.offset(),
		Bytes:  s.lineScanner.bytes(),
	}
}

// Err returns the scanner's error
func (s *singleScanner) Err() error {
	err := s.err
	if err == io.EOF {
		err = nil
	}
	return err
}

// Scan advances to the next line
func (s *singleScanner) Scan(ctx context.Context) bool {
	if s.err != nil {
		return false
	}
	for {
		err := s.prepLineScanner(ctx)
		if err != nil {
			s.err = err
			return false
		}
		if s.lineScanner.scan() {
			return true
		}
	}
}
