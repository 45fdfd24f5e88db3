package raft

// Log is a 1-indexed (conceptually) ordered sequence of LogEntry, always
// carrying a sentinel at index 0. Entries is the concrete, 0-indexed
// backing slice; Entries[0] is the sentinel.
type Log struct {
	Entries []LogEntry
}

// NewLog constructs a Log containing only the sentinel entry: index 0 is a
// placeholder with term 0 and key/value "0", never itself a real write.
func NewLog(selfID string) *Log {
	return &Log{
		Entries: []LogEntry{
			{Term: 0, Key: "0", Value: "0", MID: "", Src: selfID},
		},
	}
}

// LastIndex returns len(log)-1, the index of the final entry (at minimum,
// the sentinel at 0).
func (l *Log) LastIndex() int {
	return len(l.Entries) - 1
}

// LastTerm returns the term of the final entry.
func (l *Log) LastTerm() int64 {
	return l.Entries[l.LastIndex()].Term
}

// At returns the entry at i. Callers are responsible for bounds-checking
// via InRange; this mirrors the source's direct indexing and keeps call
// sites obviously correct rather than threading an (entry, ok) pair
// through every read.
func (l *Log) At(i int) LogEntry {
	return l.Entries[i]
}

// InRange reports whether i names an existing entry.
func (l *Log) InRange(i int) bool {
	return i >= 0 && i < len(l.Entries)
}

// Append adds entry at the tail. Only ever called on the Leader; followers
// go through Reconcile.
func (l *Log) Append(entry LogEntry) int {
	l.Entries = append(l.Entries, entry)
	return l.LastIndex()
}

// Slice returns entries in [from, from+n), clamped to the log's length.
// Used by the leader to build a bounded AppendEntries batch so one slow
// follower can't force an unbounded send.
func (l *Log) Slice(from, n int) []LogEntry {
	if from >= len(l.Entries) {
		return nil
	}
	to := from + n
	if to > len(l.Entries) {
		to = len(l.Entries)
	}
	out := make([]LogEntry, to-from)
	copy(out, l.Entries[from:to])
	return out
}

// Reconcile applies an AppendEntries batch once prev_log_index/prev_log_term
// have already been confirmed to match. It walks forward from
// prevLogIndex+1, truncating at the first index where the local log runs
// past the end of entries or the terms diverge, then appends whatever of
// entries lies beyond the (possibly truncated) tail.
//
// Net effect: log[0 .. prevLogIndex+len(entries)] equals the leader's log
// over that range, and anything before the truncation point, in particular
// every committed entry, is left untouched.
func (l *Log) Reconcile(prevLogIndex int, entries []LogEntry) {
	i := prevLogIndex + 1
	j := 0
	for i < len(l.Entries) {
		if j >= len(entries) || l.Entries[i].Term != entries[j].Term {
			l.Entries = l.Entries[:i]
			break
		}
		i++
		j++
	}
	if j < len(entries) {
		l.Entries = append(l.Entries, entries[j:]...)
	}
}
