package server

import "sync/atomic"

// Metrics are the plain counters a tunnel keeps so an operator (or a
// future exporter) can see the backpressure- and auth-relevant events
// spec §5 and §8 call out: oversize drops, queue-full drops (if a bounded
// queue substitute is ever used), auth rejections, and restarts. No
// export server is wired here — that's outside this core's boundary —
// but the counters are the hook one would attach to.
type Metrics struct {
	DatagramsIn      uint64
	DatagramsOut     uint64
	DroppedOversize  uint64
	DroppedQueueFull uint64
	AuthRejections   uint64
	TunnelRestarts   uint64
}

func (m *Metrics) incDatagramsIn()      { atomic.AddUint64(&m.DatagramsIn, 1) }
func (m *Metrics) incDatagramsOut()     { atomic.AddUint64(&m.DatagramsOut, 1) }
func (m *Metrics) incDroppedOversize()  { atomic.AddUint64(&m.DroppedOversize, 1) }
func (m *Metrics) incDroppedQueueFull() { atomic.AddUint64(&m.DroppedQueueFull, 1) }
func (m *Metrics) incAuthRejections()   { atomic.AddUint64(&m.AuthRejections, 1) }
func (m *Metrics) incTunnelRestarts()   { atomic.AddUint64(&m.TunnelRestarts, 1) }

// Snapshot returns a copy of the current counter values.
func (m *Metrics) Snapshot() Metrics {
	return Metrics{
		DatagramsIn:      atomic.LoadUint64(&m.DatagramsIn),
		DatagramsOut:     atomic.LoadUint64(&m.DatagramsOut),
		DroppedOversize:  atomic.LoadUint64(&m.DroppedOversize),
		DroppedQueueFull: atomic.LoadUint64(&m.DroppedQueueFull),
		AuthRejections:   atomic.LoadUint64(&m.AuthRejections),
		TunnelRestarts:   atomic.LoadUint64(&m.TunnelRestarts),
	}
}
