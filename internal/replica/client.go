package replica

import "github.com/riverkv/raftkv/internal/raft"

// handleClientRequest handles put/get admission for the Follower and Leader
// dispatchers; a Candidate requeues client requests instead of calling it.
// get is answered identically on both roles: a local hit is served
// immediately, which intentionally allows a stale read off a follower or a
// partitioned ex-leader rather than forcing every read through the current
// leader. For a put on a Follower, and for a get miss, the rule is
// "redirect if a leader is known, else fail", applied the same way
// regardless of message type.
func (r *Replica) handleClientRequest(msg raft.Message) {
	switch msg.Type {
	case raft.TypeGet:
		r.handleGet(msg)
	case raft.TypePut:
		r.handlePut(msg)
	}
}

func (r *Replica) handleGet(msg raft.Message) {
	if v, ok := r.kv.Get(msg.Key); ok {
		r.replyOkValue(msg, v)
		return
	}
	r.redirectOrFail(msg)
}

func (r *Replica) handlePut(msg raft.Message) {
	if r.role != raft.Leader {
		r.redirectOrFail(msg)
		return
	}
	entry := raft.LogEntry{
		Term:  r.currentTerm,
		Key:   msg.Key,
		Value: msg.Value,
		MID:   msg.MID,
		Src:   msg.Src,
	}
	r.log.Append(entry)
	r.replicateToLaggingPeers()
	// No reply here: the client is replied to only once this entry
	// commits and applies, from handleAppendEntriesResponse.
}

func (r *Replica) redirectOrFail(msg raft.Message) {
	if r.currentLeader != "" {
		r.tr.Send(raft.Message{
			Src:    r.id,
			Dst:    msg.Src,
			Leader: r.leaderField(),
			Type:   raft.TypeRedirect,
			MID:    msg.MID,
		})
		return
	}
	r.tr.Send(raft.Message{
		Src:    r.id,
		Dst:    msg.Src,
		Leader: r.leaderField(),
		Type:   raft.TypeFail,
		MID:    msg.MID,
	})
}

func (r *Replica) replyOkValue(msg raft.Message, value string) {
	r.tr.Send(raft.Message{
		Src:    r.id,
		Dst:    msg.Src,
		Leader: r.leaderField(),
		Type:   raft.TypeOk,
		MID:    msg.MID,
		Value:  value,
	})
}
