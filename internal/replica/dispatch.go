package replica

import "github.com/riverkv/raftkv/internal/raft"

// dispatch drains the intake FIFO against the current role, then
// reattaches anything left unhandled to the tail for the next round.
func (r *Replica) dispatch() {
	queue := r.deliver
	r.deliver = nil
	for _, msg := range queue {
		r.handle(msg)
	}
	if len(r.deferred) > 0 {
		r.deliver = append(r.deliver, r.deferred...)
		r.deferred = nil
	}
}

// requeue defers msg to the next dispatch round, preserving its place in
// FIFO order relative to other deferred messages.
func (r *Replica) requeue(msg raft.Message) {
	r.deferred = append(r.deferred, msg)
}

// handle applies the common higher-term rule and then the role-specific
// dispatch rules. Because stepDown mutates r.role before the switch below
// runs, a message that triggers a step-down is immediately re-processed
// against the new Follower role within the same call, with no explicit
// requeue needed to get that effect.
func (r *Replica) handle(msg raft.Message) {
	if isProtocolMessage(msg.Type) && msg.Term > r.currentTerm {
		r.stepDown(msg.Term, msg.Src)
	}

	switch r.role {
	case raft.Follower:
		r.dispatchFollower(msg)
	case raft.Candidate:
		r.dispatchCandidate(msg)
	case raft.Leader:
		r.dispatchLeader(msg)
	}
}

func (r *Replica) dispatchFollower(msg raft.Message) {
	switch msg.Type {
	case raft.TypeRequestVote:
		r.handleRequestVote(msg)
	case raft.TypeAppendEntries:
		r.handleAppendEntries(msg)
	case raft.TypeRequestVoteResponse, raft.TypeAppendEntriesResponse:
		// stale for this role; drop rather than requeue indefinitely.
	case raft.TypePut, raft.TypeGet:
		r.handleClientRequest(msg)
	default:
		r.requeue(msg)
	}
}

func (r *Replica) dispatchCandidate(msg raft.Message) {
	switch msg.Type {
	case raft.TypeRequestVote:
		r.handleRequestVote(msg)
	case raft.TypeRequestVoteResponse:
		r.handleRequestVoteResponse(msg)
	case raft.TypeAppendEntries:
		if msg.Term >= r.currentTerm {
			// A same-or-higher-term leader exists; a strictly higher term
			// was already handled by the common pre-rule above, so this
			// covers the msg.Term == currentTerm case.
			r.stepDownToFollowerSameTerm(msg.Src)
			r.handleAppendEntries(msg)
		} else {
			r.handleAppendEntries(msg)
		}
	default:
		r.requeue(msg)
	}
}

func (r *Replica) dispatchLeader(msg raft.Message) {
	switch msg.Type {
	case raft.TypeRequestVote:
		r.handleRequestVote(msg)
	case raft.TypeAppendEntriesResponse:
		r.handleAppendEntriesResponse(msg)
	case raft.TypeRequestVoteResponse:
		// stale for this role; drop.
	case raft.TypePut, raft.TypeGet:
		r.handleClientRequest(msg)
	default:
		r.requeue(msg)
	}
}

// stepDownToFollowerSameTerm converts a Candidate to Follower without a
// term bump, for an AppendEntries whose term exactly matches current_term
// (a strictly higher term is already handled by stepDown).
func (r *Replica) stepDownToFollowerSameTerm(leader string) {
	r.role = raft.Follower
	r.currentLeader = leader
	r.candidate = nil
	r.resetElectionDeadline()
}
