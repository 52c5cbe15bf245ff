package client

import (
	"github.com/aretw0/smoc/pkg/domain"
	"github.com/aretw0/smoc/pkg/reconcile"
	"github.com/aretw0/smoc/pkg/transport"
)

// Event names.
const (
	EventStatus  = "status"
	EventMessage = "message"
	EventCommand = "command"
	EventError   = "error"
	EventSystem  = "system"
)

// Event is the JSON shape in which conversation activity is published to
// streams, pipes and brokers.
type Event struct {
	Event   string              `json:"event"`
	Status  transport.Status    `json:"status,omitempty"`
	Outcome string              `json:"outcome,omitempty"`
	Index   *int                `json:"index,omitempty"`
	Message *domain.NodeMessage `json:"message,omitempty"`
	Command domain.Command      `json:"command,omitempty"`
	Error   string              `json:"error,omitempty"`
	Text    string              `json:"text,omitempty"`
}

func StatusEvent(st transport.Status) Event {
	return Event{Event: EventStatus, Status: st}
}

func MessageEvent(m domain.NodeMessage, o reconcile.Outcome) Event {
	idx := o.Index
	return Event{Event: EventMessage, Outcome: o.Kind.String(), Index: &idx, Message: &m}
}

func CommandEvent(cmd domain.Command) Event {
	return Event{Event: EventCommand, Command: cmd}
}

func ErrorEvent(err error) Event {
	return Event{Event: EventError, Error: err.Error()}
}

func SystemEvent(text string) Event {
	return Event{Event: EventSystem, Text: text}
}
