package replica

import (
	"github.com/rs/zerolog/log"

	"github.com/riverkv/raftkv/internal/raft"
)

// sendAppendEntries builds and sends the AppendEntries for a single peer.
// A heartbeat is just the case where the batch happens to be empty; the
// prev_log_index/term framing is identical either way.
func (r *Replica) sendAppendEntries(peer string) {
	next := r.leaderSt.NextIndex[peer]
	prevLogIndex := next - 1
	prevLogTerm := r.log.At(prevLogIndex).Term
	entries := r.log.Slice(next, appendBatchCap)

	r.tr.Send(raft.Message{
		Src:          r.id,
		Dst:          peer,
		Leader:       r.leaderField(),
		Type:         raft.TypeAppendEntries,
		Term:         r.currentTerm,
		PrevLogIndex: prevLogIndex,
		PrevLogTerm:  prevLogTerm,
		Entries:      entries,
		LeaderCommit: r.commitIndex,
	})
}

// replicateToLaggingPeers sends AppendEntries to every peer that doesn't
// yet have the newest entry.
func (r *Replica) replicateToLaggingPeers() {
	last := r.log.LastIndex()
	for _, p := range r.peers {
		if last >= r.leaderSt.NextIndex[p] {
			r.sendAppendEntries(p)
		}
	}
}

// handleAppendEntries is the follower side of log replication: it checks
// the previous-entry consistency, reconciles any divergent tail, and
// advances its own commit index from the leader's.
func (r *Replica) handleAppendEntries(msg raft.Message) {
	r.resetElectionDeadline()

	if msg.Term < r.currentTerm {
		r.replyAppendEntries(msg.Src, false, 0)
		return
	}

	// A same-or-higher term AppendEntries is a valid leader contact.
	r.currentLeader = msg.Src

	if !r.log.InRange(msg.PrevLogIndex) || r.log.At(msg.PrevLogIndex).Term != msg.PrevLogTerm {
		r.replyAppendEntries(msg.Src, false, 0)
		return
	}

	r.log.Reconcile(msg.PrevLogIndex, msg.Entries)

	newCommit := msg.LeaderCommit
	if last := r.log.LastIndex(); newCommit > last {
		newCommit = last
	}
	if newCommit > r.commitIndex {
		r.commitIndex = newCommit
	}
	r.applyUpTo(r.commitIndex, false)

	if len(msg.Entries) == 0 {
		// Heartbeats carry no new information for the leader's commit
		// math; suppressing the reply avoids multiplying background
		// traffic N-fold.
		return
	}
	r.replyAppendEntries(msg.Src, true, r.log.LastIndex())
}

func (r *Replica) replyAppendEntries(dst string, success bool, matchIndex int) {
	r.tr.Send(raft.Message{
		Src:        r.id,
		Dst:        dst,
		Leader:     r.leaderField(),
		Type:       raft.TypeAppendEntriesResponse,
		Term:       r.currentTerm,
		Success:    success,
		MatchIndex: matchIndex,
	})
}

// handleAppendEntriesResponse is the leader side of log replication:
// match/next index update, decrement-and-retry probing, and commit
// advancement.
func (r *Replica) handleAppendEntriesResponse(msg raft.Message) {
	if msg.Term < r.currentTerm {
		return // stale response, ignore
	}

	if msg.Success {
		r.leaderSt.MatchIndex[msg.Src] = msg.MatchIndex
		r.leaderSt.NextIndex[msg.Src] = msg.MatchIndex + 1
	} else {
		if r.leaderSt.NextIndex[msg.Src] > 1 {
			r.leaderSt.NextIndex[msg.Src]--
		}
		r.sendAppendEntries(msg.Src)
	}

	r.advanceCommit()
}

// advanceCommit scans backward from the log tail for the highest index
// with a quorum of match_index >= i.
//
// This deliberately omits the usual "only commit entries from the current
// term by count" guard from the original Raft paper: an index only needs
// a bare quorum of match_index to commit here, regardless of which term
// that entry was written in. See DESIGN.md for why this core intentionally
// carries that behavior rather than silently hardening it.
func (r *Replica) advanceCommit() {
	majority := r.majority()
	for i := r.log.LastIndex(); i > r.commitIndex; i-- {
		count := 1
		for _, p := range r.peers {
			if r.leaderSt.MatchIndex[p] >= i {
				count++
			}
		}
		if count >= majority {
			r.commitIndex = i
			break
		}
	}
	r.applyUpTo(r.commitIndex, true)
}

// applyUpTo applies log[lastApplied+1 .. commitIndex] to the key/value
// store in order. When notifyClients is true (the leader's own
// commit-advance path), each applied entry's original client is sent an
// "ok" reply acknowledging that its request is now durable in the
// replicated log.
func (r *Replica) applyUpTo(commitIndex int, notifyClients bool) {
	if last := r.log.LastIndex(); commitIndex > last {
		commitIndex = last
	}
	for r.lastApplied < commitIndex {
		r.lastApplied++
		entry := r.log.At(r.lastApplied)
		r.kv = r.kv.Set(entry.Key, entry.Value)
		log.Debug().Str("id", r.id).Int("index", r.lastApplied).
			Str("key", entry.Key).Msg("applied entry")
		if notifyClients {
			r.tr.Send(raft.Message{
				Src:    r.id,
				Dst:    entry.Src,
				Leader: r.leaderField(),
				Type:   raft.TypeOk,
				MID:    entry.MID,
			})
		}
	}
}
