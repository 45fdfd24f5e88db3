// Package raft holds the wire-level data model shared by every replica:
// the message envelope, log entries, and the log itself. It carries no
// network or timer logic; see internal/transport and internal/replica.
package raft

// Broadcast is the "all replicas" / "no known leader" sentinel used in the
// dst and leader envelope fields.
const Broadcast = "FFFF"

// Message types exchanged between replicas and clients over the datagram
// transport.
const (
	TypeHello                 = "hello"
	TypeRequestVote           = "request_vote"
	TypeRequestVoteResponse   = "request_vote_response"
	TypeAppendEntries         = "append_entries"
	TypeAppendEntriesResponse = "append_entries_response"
	TypePut                   = "put"
	TypeGet                   = "get"
	TypeOk                    = "ok"
	TypeRedirect              = "redirect"
	TypeFail                  = "fail"
)

// LogEntry is an immutable record appended to a replica's log. Term is
// non-negative and non-decreasing along the log; Key/Value/MID/Src are
// fixed once the entry has been assigned a term by a leader.
type LogEntry struct {
	Term  int64  `json:"term"`
	Key   string `json:"key"`
	Value string `json:"value"`
	MID   string `json:"MID"`
	Src   string `json:"src"`
}

// Message is the JSON envelope carried over the datagram transport. Not
// every field is populated for every type; the zero value of an unused
// field (empty string, zero int, nil slice) is never inspected by a
// handler that doesn't expect it.
type Message struct {
	Src    string `json:"src"`
	Dst    string `json:"dst"`
	Leader string `json:"leader"`
	Type   string `json:"type"`

	// request_vote / request_vote_response
	Term         int64 `json:"term,omitempty"`
	LastLogIndex int   `json:"last_log_index,omitempty"`
	LastLogTerm  int64 `json:"last_log_term,omitempty"`
	Vote         bool  `json:"vote,omitempty"`

	// append_entries / append_entries_response
	PrevLogIndex int        `json:"prev_log_index,omitempty"`
	PrevLogTerm  int64      `json:"prev_log_term,omitempty"`
	Entries      []LogEntry `json:"entries,omitempty"`
	LeaderCommit int        `json:"leader_commit,omitempty"`
	Success      bool       `json:"success,omitempty"`
	MatchIndex   int        `json:"match_index,omitempty"`

	// put / get / ok / redirect / fail
	Key   string `json:"key,omitempty"`
	Value string `json:"value,omitempty"`
	MID   string `json:"MID,omitempty"`
}
