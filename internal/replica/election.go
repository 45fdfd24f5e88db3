package replica

import (
	"github.com/rs/zerolog/log"

	"github.com/riverkv/raftkv/internal/raft"
)

// startElection begins a new term and canvasses the cluster for votes.
func (r *Replica) startElection() {
	r.currentTerm++
	r.role = raft.Candidate
	r.votedFor = r.id
	r.candidate = raft.NewCandidateState(r.id)
	r.leaderSt = nil

	log.Info().Str("id", r.id).Int64("term", r.currentTerm).Msg("starting election")

	for _, p := range r.peers {
		r.tr.Send(raft.Message{
			Src:          r.id,
			Dst:          p,
			Leader:       r.leaderField(),
			Type:         raft.TypeRequestVote,
			Term:         r.currentTerm,
			LastLogIndex: r.log.LastIndex(),
			LastLogTerm:  r.log.LastTerm(),
		})
	}
	r.resetElectionDeadline()
}

// handleRequestVote decides whether to grant a vote and always replies:
// at most one grant per term, but every candidate gets an answer.
func (r *Replica) handleRequestVote(msg raft.Message) {
	grant := msg.Term == r.currentTerm &&
		(r.votedFor == "" || r.votedFor == msg.Src) &&
		r.candidateLogUpToDate(msg.LastLogIndex, msg.LastLogTerm)

	if grant {
		r.votedFor = msg.Src
		r.resetElectionDeadline()
	}

	r.tr.Send(raft.Message{
		Src:    r.id,
		Dst:    msg.Src,
		Leader: r.leaderField(),
		Type:   raft.TypeRequestVoteResponse,
		Term:   r.currentTerm,
		Vote:   grant,
	})
}

// candidateLogUpToDate reports whether a candidate's log is at least as
// current as ours: a strictly higher last-log term wins outright; on a
// tied term, the longer log wins.
func (r *Replica) candidateLogUpToDate(lastLogIndex int, lastLogTerm int64) bool {
	myLastTerm := r.log.LastTerm()
	if lastLogTerm != myLastTerm {
		return lastLogTerm > myLastTerm
	}
	return lastLogIndex >= r.log.LastIndex()
}

// handleRequestVoteResponse tallies a vote; it is only meaningful while
// this replica is still a Candidate at the term the vote was cast for.
func (r *Replica) handleRequestVoteResponse(msg raft.Message) {
	if r.role != raft.Candidate || msg.Term != r.currentTerm {
		return
	}
	if msg.Vote {
		r.candidate.VotesReceived[msg.Src] = true
	}
	if len(r.candidate.VotesReceived) >= r.majority() {
		r.becomeLeader()
	}
}

// becomeLeader transitions Candidate -> Leader once a quorum of votes is in.
func (r *Replica) becomeLeader() {
	r.role = raft.Leader
	r.currentLeader = r.id
	r.candidate = nil
	r.leaderSt = raft.NewLeaderState(r.peers, len(r.log.Entries))
	r.resetHeartbeatDeadline()
	r.resetElectionDeadline()

	log.Info().Str("id", r.id).Int64("term", r.currentTerm).Msg("elected leader")

	r.broadcastHeartbeat()
}

// broadcastHeartbeat sends an empty AppendEntries to every peer. Used both
// by the heartbeat timer and immediately on election win.
func (r *Replica) broadcastHeartbeat() {
	for _, p := range r.peers {
		r.sendAppendEntries(p)
	}
}
