// Package transport is the narrow external-collaborator boundary between a
// replica and the network: a best-effort, message-oriented datagram
// channel. The core replica never touches a socket directly, it only ever
// sees the Transport interface, so the broker/network itself can be
// swapped for a fake in tests.
package transport

import (
	"github.com/riverkv/raftkv/internal/raft"
)

// Transport is the interface the replica core depends on. Send is
// best-effort and never blocks; TryRecv drains one already-arrived message
// without blocking, reporting ok=false once nothing more is ready. This
// lets the driver loop poll readiness on every pass without ever stalling
// on the network.
type Transport interface {
	Send(msg raft.Message)
	TryRecv() (msg raft.Message, ok bool)
	Close() error
}
