// File: control/metrics.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Runtime counters for the socket runtime, kept on a dedicated metrics set
// so embedding applications can expose or ignore them wholesale.

package control

import (
	"io"

	"github.com/VictoriaMetrics/metrics"
)

// Set holds every hioload-net metric. Callers exporting Prometheus text can
// write it out via WritePrometheus.
var Set = metrics.NewSet()

// Hot-path counters. Counter increments are atomic; updating them from the
// receive loop does not allocate.
var (
	// DatagramsReceived counts datagrams delivered by recv batches.
	DatagramsReceived = Set.NewCounter("hioload_net_udp_datagrams_received_total")
	// DatagramsSent counts datagrams accepted by send operations.
	DatagramsSent = Set.NewCounter("hioload_net_udp_datagrams_sent_total")
	// RecvBatches counts recv batch calls that delivered at least one datagram.
	RecvBatches = Set.NewCounter("hioload_net_udp_recv_batches_total")
	// AcceptedConns counts streams produced by nonblocking accept.
	AcceptedConns = Set.NewCounter("hioload_net_tcp_accepted_total")
	// PollWakeups counts bridge polls that dispatched at least one event.
	PollWakeups = Set.NewCounter("hioload_net_poller_wakeups_total")
	// PoolAcquired and PoolReleased track buffer ownership transfers.
	PoolAcquired = Set.NewCounter("hioload_net_pool_acquired_total")
	PoolReleased = Set.NewCounter("hioload_net_pool_released_total")
)

// WritePrometheus renders all runtime metrics in Prometheus text format.
func WritePrometheus(w io.Writer) {
	Set.WritePrometheus(w)
}
