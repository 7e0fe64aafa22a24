package common

import (
	"fmt"
	"github.com/VictoriaMetrics/metrics"
	"io"
)

// Frame kinds used as metric labels
const (
	KindLine  = "line"
	KindWords = "words"
	KindDone  = "done"
)

// ChannelMetrics bundles the counters of one logical channel
type ChannelMetrics struct {
	FramesSent     map[string]*metrics.Counter
	FramesReceived map[string]*metrics.Counter
	BytesSent      *metrics.Counter
	BytesReceived  *metrics.Counter
	Yields         *metrics.Counter
}

// NewChannelMetrics returns the (process wide, shared) counters of a channel
func NewChannelMetrics(channel string) *ChannelMetrics {
	m := &ChannelMetrics{
		FramesSent:     make(map[string]*metrics.Counter),
		FramesReceived: make(map[string]*metrics.Counter),
		BytesSent:      metrics.GetOrCreateCounter(fmt.Sprintf(`svsock_bytes_sent_total{channel=%q}`, channel)),
		BytesReceived:  metrics.GetOrCreateCounter(fmt.Sprintf(`svsock_bytes_received_total{channel=%q}`, channel)),
		Yields:         metrics.GetOrCreateCounter(fmt.Sprintf(`svsock_yields_total{channel=%q}`, channel)),
	}
	for _, kind := range []string{KindLine, KindWords, KindDone} {
		m.FramesSent[kind] = metrics.GetOrCreateCounter(fmt.Sprintf(`svsock_frames_sent_total{channel=%q,kind=%q}`, channel, kind))
		m.FramesReceived[kind] = metrics.GetOrCreateCounter(fmt.Sprintf(`svsock_frames_received_total{channel=%q,kind=%q}`, channel, kind))
	}
	return m
}

// Sent records one outgoing frame of n bytes
func (m *ChannelMetrics) Sent(kind string, n int) {
	m.FramesSent[kind].Inc()
	m.BytesSent.Add(n)
}

// Received records one incoming frame of n bytes
func (m *ChannelMetrics) Received(kind string, n int) {
	m.FramesReceived[kind].Inc()
	m.BytesReceived.Add(n)
}

// ConnectAttempt records a connection attempt for the given scheme
func ConnectAttempt(scheme string) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`svsock_connect_attempts_total{scheme=%q}`, scheme)).Inc()
}

// PeerConnection records an accepted and routed peer connection
func PeerConnection(channel string) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`svsock_peer_connections_total{channel=%q}`, channel)).Inc()
}

// WriteMetrics writes all counters in Prometheus text format
func WriteMetrics(w io.Writer) {
	metrics.WritePrometheus(w, false)
}
