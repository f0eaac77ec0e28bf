// Package metrics tracks atomic session counters for a single transfer run,
// adapted from the teacher's TransferMetrics. The GUI-oriented speed/
// connection history ring buffers are dropped (nothing renders them
// without the GUI; see DESIGN.md) but the atomic-counter core survives,
// fed by internal/client and internal/server during a run.
package metrics

import (
	"fmt"
	"sync/atomic"
	"time"
)

// SessionMetrics accumulates counters for one client or server run. All
// fields are accessed through atomic operations so the struct is safe to
// share between the event loop and, were one ever added, a concurrent
// status reporter.
type SessionMetrics struct {
	BytesSent       uint64
	BytesReceived   uint64
	PacketsSent     uint64
	PacketsReceived uint64
	Retransmissions uint64
	Timeouts        uint64
	CheckRetries    uint64

	startTime time.Time
}

// New creates a SessionMetrics with its start time set to now.
func New() *SessionMetrics {
	return &SessionMetrics{startTime: time.Now()}
}

// AddBytesSent records bytes written to the socket.
func (m *SessionMetrics) AddBytesSent(n uint64) { atomic.AddUint64(&m.BytesSent, n) }

// AddBytesReceived records bytes read from the socket.
func (m *SessionMetrics) AddBytesReceived(n uint64) { atomic.AddUint64(&m.BytesReceived, n) }

// IncPacketsSent counts one outgoing datagram, including retransmissions.
func (m *SessionMetrics) IncPacketsSent() { atomic.AddUint64(&m.PacketsSent, 1) }

// IncPacketsReceived counts one incoming datagram.
func (m *SessionMetrics) IncPacketsReceived() { atomic.AddUint64(&m.PacketsReceived, 1) }

// IncRetransmissions counts one stop-and-wait retransmission (timeout or
// mismatched ACK).
func (m *SessionMetrics) IncRetransmissions() { atomic.AddUint64(&m.Retransmissions, 1) }

// IncTimeouts counts one bounded socket read timeout.
func (m *SessionMetrics) IncTimeouts() { atomic.AddUint64(&m.Timeouts, 1) }

// IncCheckRetries counts one end-to-end check retry (a failed check after
// which the whole file is transmitted again).
func (m *SessionMetrics) IncCheckRetries() { atomic.AddUint64(&m.CheckRetries, 1) }

// Summary renders a single-line human-readable snapshot for the diagnostic
// log at session end.
func (m *SessionMetrics) Summary() string {
	elapsed := time.Since(m.startTime)
	return fmt.Sprintf(
		"bytes sent=%d received=%d packets sent=%d received=%d retransmissions=%d timeouts=%d check_retries=%d elapsed=%s",
		atomic.LoadUint64(&m.BytesSent),
		atomic.LoadUint64(&m.BytesReceived),
		atomic.LoadUint64(&m.PacketsSent),
		atomic.LoadUint64(&m.PacketsReceived),
		atomic.LoadUint64(&m.Retransmissions),
		atomic.LoadUint64(&m.Timeouts),
		atomic.LoadUint64(&m.CheckRetries),
		elapsed,
	)
}
