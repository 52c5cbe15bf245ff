package domain

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// NodeMessage is one entry of the conversation log.
// InstanceID identifies the logical message; a later NodeMessage with the same
// InstanceID supersedes the earlier one.
type NodeMessage struct {
	Path        []string
	InstanceID  string
	ChatMessage ChatMessage
	Progress    *float64
}

// NewVisitorNodeMessage wraps text into a visitor message with a fresh instance id.
func NewVisitorNodeMessage(text string) NodeMessage {
	return NodeMessage{
		Path:       []string{},
		InstanceID: uuid.NewString(),
		ChatMessage: VisitorMessage{
			Elements: []Prose{{Options: ProseOptions{Text: NewLangString(text)}}},
		},
	}
}

// Validate checks the fields every NodeMessage must carry.
func (m NodeMessage) Validate() error {
	if m.InstanceID == "" {
		return fmt.Errorf("%w: missing instanceId", ErrInvalidMessage)
	}
	if m.ChatMessage == nil {
		return fmt.Errorf("%w: missing chatMessage", ErrInvalidMessage)
	}
	return nil
}

// Bot returns the bot message when the message was authored by the service.
func (m NodeMessage) Bot() (BotMessage, bool) {
	b, ok := m.ChatMessage.(BotMessage)
	return b, ok
}

type nodeMessageWire struct {
	Path        *[]string       `json:"path"`
	InstanceID  string          `json:"instanceId"`
	ChatMessage json.RawMessage `json:"chatMessage"`
	Progress    *float64        `json:"progress,omitempty"`
}

func (m NodeMessage) MarshalJSON() ([]byte, error) {
	path := m.Path
	if path == nil {
		path = []string{}
	}
	return json.Marshal(struct {
		Path        []string    `json:"path"`
		InstanceID  string      `json:"instanceId"`
		ChatMessage ChatMessage `json:"chatMessage"`
		Progress    *float64    `json:"progress,omitempty"`
	}{path, m.InstanceID, m.ChatMessage, m.Progress})
}

func (m *NodeMessage) UnmarshalJSON(data []byte) error {
	var w nodeMessageWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	if w.Path == nil {
		return fmt.Errorf("%w: missing path", ErrInvalidMessage)
	}
	if w.InstanceID == "" {
		return fmt.Errorf("%w: missing instanceId", ErrInvalidMessage)
	}
	if len(w.ChatMessage) == 0 || bytes.Equal(w.ChatMessage, []byte("null")) {
		return fmt.Errorf("%w: missing chatMessage", ErrInvalidMessage)
	}

	chat, err := DecodeChatMessage(w.ChatMessage)
	if err != nil {
		return fmt.Errorf("instance %s: %w", w.InstanceID, err)
	}

	*m = NodeMessage{
		Path:        *w.Path,
		InstanceID:  w.InstanceID,
		ChatMessage: chat,
		Progress:    w.Progress,
	}
	return nil
}
