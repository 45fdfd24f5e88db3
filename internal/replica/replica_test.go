package replica

import (
	"testing"

	"github.com/riverkv/raftkv/internal/raft"
	"github.com/riverkv/raftkv/internal/transport"
)

func newTestReplica(id string, peers ...string) (*Replica, *transport.Fake) {
	ft := transport.NewFake()
	r := New(id, peers, ft)
	return r, ft
}

// TestSingleRoundElection covers a clean election: a candidate with no
// competitors wins on the first round and immediately heartbeats.
func TestSingleRoundElection(t *testing.T) {
	r, ft := newTestReplica("A", "B", "C", "D", "E")

	r.startElection()

	if r.currentTerm != 1 {
		t.Fatalf("expected term 1, got %d", r.currentTerm)
	}
	if r.role != raft.Candidate {
		t.Fatalf("expected Candidate, got %v", r.role)
	}
	if len(ft.Sent) != 4 {
		t.Fatalf("expected 4 RequestVote sends, got %d", len(ft.Sent))
	}
	for _, m := range ft.Sent {
		if m.Type != raft.TypeRequestVote || m.Term != 1 || m.LastLogIndex != 0 || m.LastLogTerm != 0 {
			t.Fatalf("unexpected RequestVote: %+v", m)
		}
	}

	ft.Sent = nil
	for _, peer := range []string{"B", "C"} {
		r.handle(raft.Message{Src: peer, Dst: "A", Type: raft.TypeRequestVoteResponse, Term: 1, Vote: true})
	}

	if r.role != raft.Leader {
		t.Fatalf("expected Leader after quorum, got %v", r.role)
	}
	if r.currentLeader != "A" {
		t.Fatalf("expected self as leader, got %q", r.currentLeader)
	}
	for _, p := range r.peers {
		if r.leaderSt.NextIndex[p] != 1 {
			t.Fatalf("expected next_index[%s]=1, got %d", p, r.leaderSt.NextIndex[p])
		}
		if r.leaderSt.MatchIndex[p] != 0 {
			t.Fatalf("expected match_index[%s]=0, got %d", p, r.leaderSt.MatchIndex[p])
		}
	}
	for _, m := range ft.Sent {
		if m.Type != raft.TypeAppendEntries || len(m.Entries) != 0 {
			t.Fatalf("expected empty heartbeat on election win, got %+v", m)
		}
	}
}

// TestPutCommitsAndReplies covers a leader that appends a client's write,
// gets acknowledged by a quorum, commits and applies it, and replies ok.
func TestPutCommitsAndReplies(t *testing.T) {
	r, ft := newTestReplica("A", "B", "C", "D", "E")
	r.startElection()
	for _, peer := range []string{"B", "C"} {
		r.handle(raft.Message{Src: peer, Dst: "A", Type: raft.TypeRequestVoteResponse, Term: 1, Vote: true})
	}
	if r.role != raft.Leader {
		t.Fatalf("setup: expected leader")
	}

	r.handleClientRequest(raft.Message{Src: "X", Type: raft.TypePut, Key: "k1", Value: "v1", MID: "m1"})

	if got := r.log.At(1); got.Key != "k1" || got.Value != "v1" || got.MID != "m1" || got.Src != "X" || got.Term != 1 {
		t.Fatalf("unexpected log entry: %+v", got)
	}

	// simulate successful AppendEntries replies from two peers (a majority with self)
	for _, peer := range []string{"B", "C"} {
		r.handleAppendEntriesResponse(raft.Message{Src: peer, Term: 1, Type: raft.TypeAppendEntriesResponse, Success: true, MatchIndex: 1})
	}

	if r.commitIndex != 1 {
		t.Fatalf("expected commit_index 1, got %d", r.commitIndex)
	}
	if v, ok := r.kv.Get("k1"); !ok || v != "v1" {
		t.Fatalf("expected kv[k1]=v1, got %q %v", v, ok)
	}

	var oks int
	for _, m := range ft.Sent {
		if m.Type == raft.TypeOk && m.Dst == "X" && m.MID == "m1" {
			oks++
		}
	}
	if oks != 1 {
		t.Fatalf("expected exactly one ok reply to client X, got %d", oks)
	}
}

// TestRedirectOnFollowerPut covers a follower that knows the leader
// redirecting a client's put rather than serving or dropping it.
func TestRedirectOnFollowerPut(t *testing.T) {
	r, ft := newTestReplica("B", "A", "C", "D", "E")
	r.currentLeader = "A"

	r.handleClientRequest(raft.Message{Src: "client", Type: raft.TypePut, Key: "k2", Value: "v2", MID: "m2"})

	msg, ok := ft.LastSent()
	if !ok || msg.Type != raft.TypeRedirect || msg.Leader != "A" || msg.MID != "m2" {
		t.Fatalf("unexpected reply: %+v (ok=%v)", msg, ok)
	}
}

// TestStaleTermAppendEntriesStepsDown covers a leader receiving an
// AppendEntries at a higher term and stepping down to Follower.
func TestStaleTermAppendEntriesStepsDown(t *testing.T) {
	r, _ := newTestReplica("A", "B", "C", "D", "E")
	r.startElection() // term 1
	for _, peer := range []string{"B", "C"} {
		r.handle(raft.Message{Src: peer, Dst: "A", Type: raft.TypeRequestVoteResponse, Term: 1, Vote: true})
	}
	if r.role != raft.Leader {
		t.Fatalf("setup: expected leader")
	}

	r.handle(raft.Message{Src: "B", Type: raft.TypeAppendEntries, Term: 3, PrevLogIndex: 0, PrevLogTerm: 0})

	if r.role != raft.Follower {
		t.Fatalf("expected Follower after higher-term contact, got %v", r.role)
	}
	if r.currentTerm != 3 {
		t.Fatalf("expected term 3, got %d", r.currentTerm)
	}
	if r.votedFor != "" {
		t.Fatalf("expected votedFor cleared, got %q", r.votedFor)
	}
}

// TestSplitVoteRecoveryReachesLeaderEventually is a liveness smoke test:
// two simultaneous candidates, neither reaching quorum, eventually
// converge on a single leader once elections re-fire.
func TestSplitVoteRecoveryReachesLeaderEventually(t *testing.T) {
	a, _ := newTestReplica("A", "B")
	b, _ := newTestReplica("B", "A")

	a.startElection() // term 1
	b.startElection() // term 1

	// Neither reaches quorum with only itself voting out of 2 nodes
	// (majority of 2 is 2).
	if a.role != raft.Candidate || b.role != raft.Candidate {
		t.Fatalf("expected both candidates, got a=%v b=%v", a.role, b.role)
	}

	// A's election deadline re-fires first, starting term 2.
	a.startElection()
	if a.currentTerm != 2 {
		t.Fatalf("expected A to reach term 2, got %d", a.currentTerm)
	}

	// B receives A's RequestVote at the higher term, steps down (the
	// common higher-term pre-rule), and grants the vote.
	b.handle(raft.Message{Src: "A", Dst: "B", Type: raft.TypeRequestVote, Term: 2, LastLogIndex: 0, LastLogTerm: 0})
	if b.currentTerm != 2 || b.role != raft.Follower {
		t.Fatalf("expected B to step down to Follower at term 2, got term=%d role=%v", b.currentTerm, b.role)
	}

	// A receives B's grant and reaches quorum (2 of 2).
	a.handle(raft.Message{Src: "B", Dst: "A", Type: raft.TypeRequestVoteResponse, Term: 2, Vote: true})
	if a.role != raft.Leader {
		t.Fatalf("expected A to become Leader at term 2, got %v", a.role)
	}
}

func TestConflictResolutionTruncates(t *testing.T) {
	r, _ := newTestReplica("C", "A", "B", "D", "E")
	r.log.Entries = append(r.log.Entries,
		raft.LogEntry{Term: 1, Key: "a"},
		raft.LogEntry{Term: 1, Key: "b"},
		raft.LogEntry{Term: 2, Key: "c"},
	)
	r.currentTerm = 3
	r.currentLeader = "A"

	r.handleAppendEntries(raft.Message{
		Src: "A", Type: raft.TypeAppendEntries, Term: 3,
		PrevLogIndex: 1, PrevLogTerm: 1,
		Entries: []raft.LogEntry{
			{Term: 3, Key: "b'"},
			{Term: 3, Key: "c'"},
		},
	})

	want := []string{"0", "a", "b'", "c'"}
	if len(r.log.Entries) != len(want) {
		t.Fatalf("expected %d entries, got %+v", len(want), r.log.Entries)
	}
	for i, k := range want {
		if r.log.Entries[i].Key != k {
			t.Fatalf("entry %d: expected %q got %q", i, k, r.log.Entries[i].Key)
		}
	}
}

func TestGetServesLocalHitWithoutRedirect(t *testing.T) {
	r, ft := newTestReplica("B", "A")
	r.kv = r.kv.Set("k", "v")
	r.currentLeader = "A"

	r.handleClientRequest(raft.Message{Src: "client", Type: raft.TypeGet, Key: "k", MID: "g1"})

	msg, ok := ft.LastSent()
	if !ok || msg.Type != raft.TypeOk || msg.Value != "v" {
		t.Fatalf("expected local ok reply, got %+v (ok=%v)", msg, ok)
	}
}

func TestGetFailsWithNoLeaderKnown(t *testing.T) {
	r, ft := newTestReplica("B", "A")

	r.handleClientRequest(raft.Message{Src: "client", Type: raft.TypeGet, Key: "missing", MID: "g2"})

	msg, ok := ft.LastSent()
	if !ok || msg.Type != raft.TypeFail || msg.MID != "g2" {
		t.Fatalf("expected fail reply, got %+v (ok=%v)", msg, ok)
	}
}

func TestElectionTimeoutWithinBounds(t *testing.T) {
	r, _ := newTestReplica("A", "B")
	base := r.now()
	r.resetElectionDeadline()
	delta := r.electionDeadline.Sub(base)
	if delta < electionTimeoutMin || delta > electionTimeoutMax {
		t.Fatalf("election deadline %v outside [%v, %v]", delta, electionTimeoutMin, electionTimeoutMax)
	}
}

func TestHeartbeatSuppressesReply(t *testing.T) {
	r, ft := newTestReplica("B", "A")
	r.currentTerm = 1

	r.handleAppendEntries(raft.Message{Src: "A", Type: raft.TypeAppendEntries, Term: 1, PrevLogIndex: 0, PrevLogTerm: 0})

	if len(ft.Sent) != 0 {
		t.Fatalf("expected heartbeat to suppress reply, got %d sends", len(ft.Sent))
	}
}
