package transport

import (
	"encoding/json"
	"fmt"
	"net"

	"github.com/rs/zerolog/log"

	"github.com/riverkv/raftkv/internal/raft"
)

// inboxSize bounds how many not-yet-drained datagrams the reader goroutine
// may buffer; once the buffer is full, further arrivals are dropped until
// the driver loop drains it. Chosen generously relative to the 50-entry
// AppendEntries batch cap so a leader fielding heartbeats/responses from
// several peers rarely hits that limit.
const inboxSize = 1024

// UDPTransport sends to, and receives from, a single well-known broker port
// that forwards by the message's dst field. The socket is read by a
// dedicated goroutine that does nothing but decode JSON and push onto a
// channel; it never touches replica state, so the driver loop remains the
// only thing that ever acts on a decoded Message.
type UDPTransport struct {
	conn   *net.UDPConn
	broker *net.UDPAddr
	inbox  chan raft.Message
	done   chan struct{}
}

// NewUDPTransport opens an ephemeral local UDP endpoint and starts the
// background reader. brokerPort is the well-known port supplied at startup.
func NewUDPTransport(brokerPort int) (*UDPTransport, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: 0})
	if err != nil {
		return nil, fmt.Errorf("open local endpoint: %w", err)
	}
	broker := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: brokerPort}

	t := &UDPTransport{
		conn:   conn,
		broker: broker,
		inbox:  make(chan raft.Message, inboxSize),
		done:   make(chan struct{}),
	}
	go t.readLoop()
	return t, nil
}

func (t *UDPTransport) readLoop() {
	buf := make([]byte, 65535)
	for {
		n, _, err := t.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-t.done:
				return
			default:
				log.Warn().Err(err).Msg("transport: read error")
				continue
			}
		}
		var msg raft.Message
		if err := json.Unmarshal(buf[:n], &msg); err != nil {
			// Malformed datagram on a best-effort channel: silently dropped.
			log.Debug().Err(err).Msg("transport: dropping undecodable datagram")
			continue
		}
		select {
		case t.inbox <- msg:
		default:
			log.Warn().Msg("transport: inbox full, dropping datagram")
		}
	}
}

// Send best-effort sends msg to the broker port, which forwards it by dst. Errors are logged,
// never returned: the datagram channel is unreliable by contract, so a
// failed send is indistinguishable from one the broker later drops.
func (t *UDPTransport) Send(msg raft.Message) {
	out, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Msg("transport: failed to marshal outbound message")
		return
	}
	if _, err := t.conn.WriteToUDP(out, t.broker); err != nil {
		log.Warn().Err(err).Str("type", msg.Type).Msg("transport: send failed")
	}
}

// TryRecv drains one already-buffered message without blocking.
func (t *UDPTransport) TryRecv() (raft.Message, bool) {
	select {
	case msg := <-t.inbox:
		return msg, true
	default:
		return raft.Message{}, false
	}
}

// Close shuts down the local endpoint and stops the reader goroutine.
func (t *UDPTransport) Close() error {
	close(t.done)
	return t.conn.Close()
}
