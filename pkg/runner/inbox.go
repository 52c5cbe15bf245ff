package runner

import (
	"sync"

	"github.com/aretw0/smoc/pkg/client"
	"github.com/aretw0/smoc/pkg/domain"
	"github.com/aretw0/smoc/pkg/reconcile"
	"github.com/aretw0/smoc/pkg/transport"
)

// DefaultInboxSize is the number of events an Inbox buffers before the session waits.
const DefaultInboxSize = 64

// EventKind tells which session callback produced an Event.
type EventKind int

const (
	EventStatus EventKind = iota + 1
	EventMessage
	EventError
)

// Event is one queued session callback.
type Event struct {
	Kind    EventKind
	Status  transport.Status
	Message domain.NodeMessage
	Outcome reconcile.Outcome
	Err     error
}

// Inbox queues session callbacks so they can be consumed off the session goroutine.
// A full inbox holds the session back; a closed one drops everything.
type Inbox struct {
	events chan Event
	closed chan struct{}
	once   sync.Once
}

// NewInbox returns an Inbox buffering size events.
func NewInbox(size int) *Inbox {
	if size < 0 {
		size = 0
	}
	return &Inbox{
		events: make(chan Event, size),
		closed: make(chan struct{}),
	}
}

// Handlers returns client handlers that feed the inbox.
func (in *Inbox) Handlers() client.Handlers {
	return client.Handlers{
		StatusChanged: func(st client.Status) {
			in.push(Event{Kind: EventStatus, Status: st})
		},
		HandleMessage: func(m domain.NodeMessage, o reconcile.Outcome) {
			in.push(Event{Kind: EventMessage, Message: m, Outcome: o})
		},
		HandleError: func(err error) {
			in.push(Event{Kind: EventError, Err: err})
		},
	}
}

// Events returns the queue. It is never closed; select on Closed as well.
func (in *Inbox) Events() <-chan Event {
	return in.events
}

// Closed is closed once Close has been called.
func (in *Inbox) Closed() <-chan struct{} {
	return in.closed
}

// Close releases any session callback waiting on the inbox. It is safe to call more than once.
func (in *Inbox) Close() {
	in.once.Do(func() { close(in.closed) })
}

func (in *Inbox) push(ev Event) {
	select {
	case <-in.closed:
		return
	default:
	}
	select {
	case in.events <- ev:
	case <-in.closed:
	}
}
