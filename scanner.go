package respline

import (
	"context"
	"io"

	"cloud.google.com/go/storage"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const defaultBufferSize = 8192

// Validator is a function that returns true when a line passes validation
type Validator func(line []byte) bool

// Options are options for a Scanner
type Options struct {
	// StorageClient is used to read objects when Bucket is set. An unauthenticated client is created if it is nil.
	StorageClient *storage.Client
	// Bucket is the Google Cloud Storage bucket sources are read from. Sources are local files when it is empty.
	Bucket     string
	Validators []Validator
	// MaxLineLength limits the size of a line. Zero means no limit.
	MaxLineLength int
	// Concurrency is how many sources are scanned at once. Line order across sources is not preserved when it is
	// greater than 1.
	Concurrency int
	BufferSize  int
	Logger      *zap.Logger
	Registerer  prometheus.Registerer

	open func(ctx context.Context, name string) (io.ReadCloser, error)
	// closeClient closes StorageClient when withDefaults created it
	closeClient func() error
}

func (o *Options) withDefaults(ctx context.Context) (*Options, error) {
	if o == nil {
		o = new(Options)
	}
	out := *o
	if out.BufferSize <= 0 {
		out.BufferSize = defaultBufferSize
	}
	if out.Concurrency <= 0 {
		out.Concurrency = 1
	}
	if out.Logger == nil {
		out.Logger = zap.NewNop()
	}
	if out.open != nil {
		return &out, nil
	}
	if out.Bucket == "" {
		out.open = openFile
		return &out, nil
	}
	if out.StorageClient == nil {
		var err error
		out.StorageClient, err = storage.NewClient(ctx, option.WithoutAuthentication())
		if err != nil {
			return nil, errors.Wrap(err, "creating storage client")
		}
		out.closeClient = out.StorageClient.Close
	}
	client, bucket := out.StorageClient, out.Bucket
	out.open = func(ctx context.Context, name string) (io.ReadCloser, error) {
		return client.Bucket(bucket).Object(name).NewReader(ctx)
	}
	return &out, nil
}

// Line is a line read by a Scanner
type Line struct {
	// Source is the name of the source the line came from
	Source string
	// Offset is the position of the line's first byte in the (decompressed) source
	Offset int64
	// Bytes is the line without its CRLF terminator
	Bytes []byte
}

type lineSource interface {
	Scan(ctx context.Context) bool
	Line() Line
	Err() error
	Close() error
}

// Scanner scans lines from RESP sources
type Scanner struct {
	opts    *Options
	src     lineSource
	metrics *metrics
}

// New returns a Scanner that reads the named sources in order
func New(ctx context.Context, sources []string, opts *Options) (*Scanner, error) {
	var err error
	opts, err = opts.withDefaults(ctx)
	if err != nil {
		return nil, err
	}
	return newScanner(ctx, sources, opts)
}

// NewFromReader returns a Scanner that reads r. name is used as the Line.Source and r is gunzipped when name ends
// in ".gz". The Scanner does not close r.
func NewFromReader(ctx context.Context, r io.Reader, name string, opts *Options) (*Scanner, error) {
	if opts == nil {
		opts = new(Options)
	}
	withReader := *opts
	withReader.open = func(context.Context, string) (io.ReadCloser, error) {
		return io.NopCloser(r), nil
	}
	o, err := withReader.withDefaults(ctx)
	if err != nil {
		return nil, err
	}
	return newScanner(ctx, []string{name}, o)
}

func newScanner(ctx context.Context, sources []string, opts *Options) (*Scanner, error) {
	m, err := newMetrics(opts.Registerer)
	if err != nil {
		if opts.closeClient != nil {
			_ = opts.closeClient() //nolint:errcheck // the registration error is more useful
		}
		return nil, err
	}
	s := &Scanner{
		opts:    opts,
		metrics: m,
	}
	if opts.Concurrency > 1 && len(sources) > 1 {
		s.src = newConcurrentScanner(ctx, sources, opts, m)
		return s, nil
	}
	s.src = newSingleScanner(sources, opts, m)
	return s, nil
}

// Close closes the scanner
func (s *Scanner) Close() error {
	err := s.src.Close()
	if s.opts.closeClient != nil {
		clientErr := s.opts.closeClient()
		if err == nil {
			err = clientErr
		}
	}
	return err
}

func (s *Scanner) validateLine(line []byte) bool {
	for _, validator := range s.opts.Validators {
		ok := validator(line)
		if !ok {
			return false
		}
	}
	return true
}

// Next returns the next line that passes all validators. error is io.EOF at the end.
func (s *Scanner) Next(ctx context.Context) (Line, error) {
	for {
		if ctx.Err() != nil {
			return Line{}, ctx.Err()
		}
		if !s.src.Scan(ctx) {
			err := s.src.Err()
			if err == nil {
				err = io.EOF
			}
			return Line{}, err
		}
		line := s.src.Line()
		if s.validateLine(line.Bytes) {
			return line, nil
		}
		s.metrics.lineRejected()
	}
}
