package respline

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	lines    prometheus.Counter
	rejected prometheus.Counter
	refills  prometheus.Counter
	bytes    prometheus.Counter
	sources  prometheus.Counter
}

// newMetrics registers counters with reg. It returns nil when reg is nil and all metrics methods are no-ops on nil.
func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	if reg == nil {
		return nil, nil
	}
	m := &metrics{
		lines: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "respline_lines_total",
			Help: "Lines extracted from all sources.",
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "respline_rejected_lines_total",
			Help: "Lines dropped by a validator.",
		}),
		refills: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "respline_refills_total",
			Help: "Times the scanner ran out of buffered bytes before finding a line terminator.",
		}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "respline_bytes_read_total",
			Help: "Bytes read from all sources after decompression.",
		}),
		sources: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "respline_sources_total",
			Help: "Sources opened.",
		}),
	}
	for _, c := range []prometheus.Collector{m.lines, m.rejected, m.refills, m.bytes, m.sources} {
		err := reg.Register(c)
		if err != nil {
			return nil, errors.Wrap(err, "registering metrics")
		}
	}
	return m, nil
}

func (m *metrics) lineScanned() {
	if m != nil {
		m.lines.Inc()
	}
}

func (m *metrics) lineRejected() {
	if m != nil {
		m.rejected.Inc()
	}
}

func (m *metrics) refill() {
	if m != nil {
		m.refills.Inc()
	}
}

func (m *metrics) bytesRead(n int) {
	if m != nil && n > 0 {
		m.bytes.Add(float64(n))
	}
}

func (m *metrics) sourceOpened() {
	if m != nil {
		m.sources.Inc()
	}
}
