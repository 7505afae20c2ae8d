package client

import "sync/atomic"

// Metrics are the client-side counters mirroring server.Metrics' datagram
// and drop accounting.
type Metrics struct {
	DatagramsIn     uint64
	DatagramsOut    uint64
	DroppedOversize uint64
}

func (m *Metrics) incDatagramsIn()     { atomic.AddUint64(&m.DatagramsIn, 1) }
func (m *Metrics) incDatagramsOut()    { atomic.AddUint64(&m.DatagramsOut, 1) }
func (m *Metrics) incDroppedOversize() { atomic.AddUint64(&m.DroppedOversize, 1) }

// Snapshot returns a copy of the current counter values.
func (m *Metrics) Snapshot() Metrics {
	return Metrics{
		DatagramsIn:     atomic.LoadUint64(&m.DatagramsIn),
		DatagramsOut:    atomic.LoadUint64(&m.DatagramsOut),
		DroppedOversize: atomic.LoadUint64(&m.DroppedOversize),
	}
}
