package raft

// Role identifies which of the three Raft roles a replica currently holds.
type Role int

const (
	Follower Role = iota
	Candidate
	Leader
)

func (r Role) String() string {
	switch r {
	case Follower:
		return "Follower"
	case Candidate:
		return "Candidate"
	case Leader:
		return "Leader"
	default:
		return "unknown"
	}
}

// CandidateState holds the state meaningful only while a replica is a
// Candidate. Keeping votes_received off the struct entirely in the other
// two roles prevents accidental reads of a stale vote set after stepping
// down.
type CandidateState struct {
	VotesReceived map[string]bool
}

func NewCandidateState(self string) *CandidateState {
	return &CandidateState{VotesReceived: map[string]bool{self: true}}
}

// LeaderState holds the per-peer replication progress, meaningful only
// while a replica is Leader.
type LeaderState struct {
	NextIndex  map[string]int
	MatchIndex map[string]int
}

func NewLeaderState(peers []string, logLen int) *LeaderState {
	ls := &LeaderState{
		NextIndex:  make(map[string]int, len(peers)),
		MatchIndex: make(map[string]int, len(peers)),
	}
	for _, p := range peers {
		ls.NextIndex[p] = logLen
		ls.MatchIndex[p] = 0
	}
	return ls
}
