package respline

import (
	"context"
	"sync"

	"github.com/killa-beez/gopkgs/pool"
)

// concurrentScanner scans each source in its own singleScanner. Lines from one source stay in order.
type concurrentScanner struct {
	scanners    []*singleScanner
	scannerErrs []error
	closeErrs   []error
	lines       chan Line
	cancel      func()
	line        Line

	errLock sync.RWMutex
	err     error

	doneLock sync.Mutex
	doneChan chan struct{}
	done     bool
}

func newConcurrentScanner(ctx context.Context, sources []string, opts *Options, m *metrics) *concurrentScanner {
	scanners := make([]*singleScanner, len(sources))
	for i, source := range sources {
		scanners[i] = newSingleScanner([]string{source}, opts, m)
	}
	c := &concurrentScanner{
		scanners:    scanners,
		scannerErrs: make([]error, len(scanners)),
		closeErrs:   make([]error, len(scanners)),
		lines:       make(chan Line, opts.Concurrency*1024),
		doneChan:    make(chan struct{}),
	}
	ctx, c.cancel = context.WithCancel(ctx)

	p := pool.New(len(scanners), opts.Concurrency)
	for i := range scanners {
		i := i
		scanner := scanners[i]
		p.Add(pool.NewWorkUnit(func(ctx2 context.Context) {
			c.scannerErrs[i] = runScanner(ctx2, scanner, c.lines)
			c.closeErrs[i] = scanner.Close()
		}))
	}
	p.Start(ctx)
	go func() {
		p.Wait()
		c.beDone()
	}()
	return c
}

func (c *concurrentScanner) beDone() {
	c.doneLock.Lock()
	defer c.doneLock.Unlock()
	if c.done {
		return
	}
	close(c.doneChan)
	c.done = true
}

func runScanner(ctx context.Context, scanner *singleScanner, lines chan<- Line) error {
	for scanner.Scan(ctx) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case lines <- scanner.Line():
		}
	}
	return scanner.Err()
}

// Close stops all workers and waits for them to close their sources
func (c *concurrentScanner) Close() error {
	c.cancel()
	<-c.doneChan
	for _, err := range c.closeErrs {
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *concurrentScanner) Err() error {
	c.errLock.RLock()
	err := c.err
	c.errLock.RUnlock()
	return err
}

func (c *concurrentScanner) Scan(ctx context.Context) bool {
	select {
	case c.line = <-c.lines:
		return true
	default:
	}

	select {
	case c.line = <-c.lines:
		return true
	case <-ctx.Done():
		c.setErr(ctx.Err())
		return false
	case <-c.doneChan:
	}

	// workers are done but may have sent lines after the first select
	select {
	case c.line = <-c.lines:
		return true
	default:
	}
	for _, err := range c.scannerErrs {
		if err != nil {
			c.setErr(err)
			break
		}
	}
	return false
}

func (c *concurrentScanner) setErr(err error) {
	c.errLock.Lock()
	if c.err == nil {
		c.err = err
	}
	c.errLock.Unlock()
}

func (c *concurrentScanner) Line() Line {
	return c.line
}
