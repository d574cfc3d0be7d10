package respline

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// stdinSource is the source name for standard input
const stdinSource = "-"

func openFile(_ context.Context, name string) (io.ReadCloser, error) {
	if name == stdinSource {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(name)
}

func isGzipped(name string) bool {
	return strings.HasSuffix(name, ".gz")
}

// objReader reads a source, gunzipping it when needed
type objReader struct {
	rdr   io.Reader
	gzRdr *gzip.Reader
	gz    bool
}

func (z *objReader) Read(p []byte) (n int, err error) {
	if z.gz {
		return z.gzRdr.Read(p)
	}
	return z.rdr.Read(p)
}

func (z *objReader) Close() error {
	var err error
	if z.gz && z.gzRdr != nil {
		err = z.gzRdr.Close()
	}
	if z.rdr == nil {
		return err
	}
	rdr := z.rdr
	z.rdr = nil
	if closer, ok := rdr.(io.Closer); ok {
		rdrErr := closer.Close()
		if rdrErr != nil {
			return rdrErr
		}
	}
	return err
}

func (z *objReader) Reset(r io.Reader, gz bool) error {
	err := z.Close()
	if err != nil {
		return err
	}
	z.rdr = r
	z.gz = gz
	if !gz {
		return nil
	}
	if z.gzRdr == nil {
		z.gzRdr, err = gzip.NewReader(r)
		return err
	}
	return z.gzRdr.Reset(r)
}

func (z *objReader) open(ctx context.Context, name string, opts *Options) error {
	rdr, err := opts.open(ctx, name)
	if err != nil {
		return errors.Wrapf(err, "opening %s", name)
	}
	err = z.Reset(rdr, isGzipped(name))
	if err != nil {
		_ = z.Close() //nolint:errcheck // the gzip error is more useful
		return errors.Wrapf(err, "reading gzip header of %s", name)
	}
	return nil
}
