package transport

import "github.com/riverkv/raftkv/internal/raft"

// Fake is an in-memory Transport for tests: Sent records every outbound
// message, and the test harness pushes inbound ones via Deliver.
type Fake struct {
	Sent  []raft.Message
	inbox []raft.Message
}

func NewFake() *Fake {
	return &Fake{}
}

func (f *Fake) Send(msg raft.Message) {
	f.Sent = append(f.Sent, msg)
}

func (f *Fake) TryRecv() (raft.Message, bool) {
	if len(f.inbox) == 0 {
		return raft.Message{}, false
	}
	msg := f.inbox[0]
	f.inbox = f.inbox[1:]
	return msg, true
}

func (f *Fake) Close() error { return nil }

// Deliver queues msg to be returned by a future TryRecv, in FIFO order.
func (f *Fake) Deliver(msg raft.Message) {
	f.inbox = append(f.inbox, msg)
}

// LastSent returns the most recently sent message and whether any exists.
func (f *Fake) LastSent() (raft.Message, bool) {
	if len(f.Sent) == 0 {
		return raft.Message{}, false
	}
	return f.Sent[len(f.Sent)-1], true
}
