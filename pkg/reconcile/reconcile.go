// Package reconcile merges inbound node messages into a conversation log.
//
// The service may resend a message it already delivered, for example to update
// its progress. Messages are keyed by InstanceID: a known id replaces the entry
// in place, an unknown id is appended. Merge never mutates its input.
package reconcile

import (
	"github.com/aretw0/smoc/pkg/domain"
)

// Log is an ordered conversation log. InstanceIDs are unique within a Log
// built exclusively through Merge.
type Log []domain.NodeMessage

// Kind tells how a merge changed the log.
type Kind int

const (
	Appended Kind = iota + 1
	Updated
)

func (k Kind) String() string {
	switch k {
	case Appended:
		return "appended"
	case Updated:
		return "updated"
	default:
		return "unknown"
	}
}

// Outcome reports the effect of a Merge. Index is the position of the merged message.
type Outcome struct {
	Kind  Kind
	Index int
}

// IsUpdate reports whether the merge replaced an existing entry.
func (o Outcome) IsUpdate() bool {
	return o.Kind == Updated
}

// Merge returns a new log with m merged in.
func Merge(log Log, m domain.NodeMessage) (Log, Outcome) {
	if i := log.Index(m.InstanceID); i >= 0 {
		next := log.Clone()
		next[i] = m
		return next, Outcome{Kind: Updated, Index: i}
	}

	next := make(Log, len(log), len(log)+1)
	copy(next, log)
	next = append(next, m)
	return next, Outcome{Kind: Appended, Index: len(log)}
}

// MergeAll merges every message in order and returns the resulting log.
func MergeAll(log Log, msgs ...domain.NodeMessage) Log {
	for _, m := range msgs {
		log, _ = Merge(log, m)
	}
	return log
}

// Index returns the position of the entry with the given InstanceID, or -1.
func (l Log) Index(instanceID string) int {
	for i, m := range l {
		if m.InstanceID == instanceID {
			return i
		}
	}
	return -1
}

// Clone returns a shallow copy of the log.
func (l Log) Clone() Log {
	if l == nil {
		return nil
	}
	out := make(Log, len(l))
	copy(out, l)
	return out
}
