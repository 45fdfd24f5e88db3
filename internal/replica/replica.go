// Package replica implements the Raft core: role state, timers, log
// replication, commit advancement, and the key/value state machine, driven
// by a single cooperative event loop.
package replica

import (
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/riverkv/raftkv/internal/raft"
	"github.com/riverkv/raftkv/internal/store"
	"github.com/riverkv/raftkv/internal/transport"
)

const (
	electionTimeoutMin = 450 * time.Millisecond
	electionTimeoutMax = 600 * time.Millisecond
	heartbeatPeriod    = 400 * time.Millisecond
	appendBatchCap     = 50
)

// Replica is one member of a Raft cluster. Every field below is owned
// exclusively by the single goroutine that calls Run; there is no lock,
// because nothing outside that goroutine ever touches this state.
type Replica struct {
	id    string
	peers []string
	tr    transport.Transport

	currentTerm   int64
	votedFor      string // "" means none
	role          raft.Role
	currentLeader string // "" means none

	candidate *raft.CandidateState // non-nil only while role == Candidate
	leaderSt  *raft.LeaderState    // non-nil only while role == Leader

	log *raft.Log
	kv  *store.Store

	commitIndex int
	lastApplied int

	electionDeadline  time.Time
	heartbeatDeadline time.Time

	// FIFO intake: deliver holds messages awaiting dispatch this round,
	// deferred accumulates ones a role couldn't handle and is reattached to
	// deliver's tail at the top of the next round, preserving relative
	// order across the role switch.
	deliver  []raft.Message
	deferred []raft.Message

	now func() time.Time
	rng *rand.Rand
}

// New constructs a Replica in the Follower role with a freshly-seeded
// election deadline, as though it had just started up.
func New(id string, peers []string, tr transport.Transport) *Replica {
	r := &Replica{
		id:    id,
		peers: peers,
		tr:    tr,
		log:   raft.NewLog(id),
		kv:    store.New(),
		role:  raft.Follower,
		now:   time.Now,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano() ^ int64(hashID(id)))),
	}
	r.resetElectionDeadline()
	return r
}

func hashID(id string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(id); i++ {
		h ^= uint32(id[i])
		h *= 16777619
	}
	return h
}

// ID returns the replica's own identifier.
func (r *Replica) ID() string { return r.id }

// Role reports the current role, for introspection (e.g. internal/adminserver).
func (r *Replica) Role() raft.Role { return r.role }

// CurrentTerm reports the current term.
func (r *Replica) CurrentTerm() int64 { return r.currentTerm }

// CurrentLeader reports the believed leader id, or "" if none.
func (r *Replica) CurrentLeader() string { return r.currentLeader }

// CommitIndex reports the commit index.
func (r *Replica) CommitIndex() int { return r.commitIndex }

// LastApplied reports the last applied index.
func (r *Replica) LastApplied() int { return r.lastApplied }

// LogLen reports len(log), including the sentinel.
func (r *Replica) LogLen() int { return len(r.log.Entries) }

// Started broadcasts the startup hello message announcing this replica to
// the cluster.
func (r *Replica) Started() {
	r.tr.Send(raft.Message{
		Src:    r.id,
		Dst:    raft.Broadcast,
		Leader: r.leaderField(),
		Type:   raft.TypeHello,
	})
}

func (r *Replica) leaderField() string {
	if r.currentLeader == "" {
		return raft.Broadcast
	}
	return r.currentLeader
}

func (r *Replica) majority() int {
	n := len(r.peers) + 1
	return (n + 1 + 1) / 2 // ceil((N+1)/2)
}

// idlePause bounds how long Run sleeps when a round drained nothing new from
// the transport (messages still deferred from earlier rounds do not count),
// so the cooperative loop yields the CPU instead of spinning on an empty
// socket between timer deadlines.
const idlePause = 2 * time.Millisecond

// Run is the replica's driver loop. It never returns under normal
// operation; callers typically run it in the main goroutine.
func (r *Replica) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}
		before := len(r.deliver)
		r.drainTransport()
		r.tick()
		work := len(r.deliver) > before
		r.dispatch()
		if !work {
			time.Sleep(idlePause)
		}
	}
}

// drainTransport pulls every currently-ready datagram without blocking and
// appends it to the intake FIFO in arrival order.
func (r *Replica) drainTransport() {
	for {
		msg, ok := r.tr.TryRecv()
		if !ok {
			return
		}
		r.deliver = append(r.deliver, msg)
	}
}

// tick fires the heartbeat or election timer if its deadline has passed.
func (r *Replica) tick() {
	now := r.now()
	if r.role == raft.Leader {
		if !now.Before(r.heartbeatDeadline) {
			r.broadcastHeartbeat()
			r.resetHeartbeatDeadline()
		}
		return
	}
	if !now.Before(r.electionDeadline) {
		r.startElection()
	}
}

func (r *Replica) resetElectionDeadline() {
	jitter := electionTimeoutMin + time.Duration(r.rng.Int63n(int64(electionTimeoutMax-electionTimeoutMin)))
	r.electionDeadline = r.now().Add(jitter)
}

func (r *Replica) resetHeartbeatDeadline() {
	r.heartbeatDeadline = r.now().Add(heartbeatPeriod)
}

// stepDown applies the higher-term rule common to all three dispatchers: a
// protocol message with a strictly higher term forces a term bump, vote
// reset, and conversion to Follower.
func (r *Replica) stepDown(term int64, src string) {
	r.currentTerm = term
	r.votedFor = ""
	r.role = raft.Follower
	r.currentLeader = src
	r.candidate = nil
	r.leaderSt = nil
	r.resetElectionDeadline()
	log.Info().Str("id", r.id).Int64("term", term).Str("leader", src).
		Msg("stepping down to follower on higher-term RPC")
}

func isProtocolMessage(t string) bool {
	switch t {
	case raft.TypeRequestVote, raft.TypeRequestVoteResponse,
		raft.TypeAppendEntries, raft.TypeAppendEntriesResponse:
		return true
	}
	return false
}
