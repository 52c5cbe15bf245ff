package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/smoc/pkg/domain"
	"github.com/aretw0/smoc/pkg/reconcile"
	"github.com/aretw0/smoc/pkg/transport"
)

func TestJSONHandler_Output(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := NewJSONHandler(strings.NewReader(""), buf)
	ctx := context.Background()

	if err := handler.Status(ctx, transport.StatusConnected); err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	cmd, err := handler.Output(ctx, botMessage(nil, prose("Hi")), reconcile.Outcome{Kind: reconcile.Updated, Index: 3})
	if err != nil {
		t.Fatalf("Output failed: %v", err)
	}
	if cmd != nil {
		t.Errorf("JSON output never answers, got %#v", cmd)
	}
	if err := handler.SystemOutput(ctx, "hello"); err != nil {
		t.Fatalf("SystemOutput failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines of output, got %d: %q", len(lines), buf.String())
	}

	var ev struct {
		Event   string          `json:"event"`
		Status  string          `json:"status"`
		Outcome string          `json:"outcome"`
		Index   int             `json:"index"`
		Message json.RawMessage `json:"message"`
		Text    string          `json:"text"`
	}
	if err := json.Unmarshal([]byte(lines[0]), &ev); err != nil {
		t.Fatalf("Failed to decode JSON: %v", err)
	}
	if ev.Event != "status" || ev.Status != "connected" {
		t.Errorf("Unexpected status event %s", lines[0])
	}

	if err := json.Unmarshal([]byte(lines[1]), &ev); err != nil {
		t.Fatalf("Failed to decode JSON: %v", err)
	}
	if ev.Event != "message" || ev.Outcome != "updated" || ev.Index != 3 {
		t.Errorf("Unexpected message event %s", lines[1])
	}
	var msg domain.NodeMessage
	if err := json.Unmarshal(ev.Message, &msg); err != nil {
		t.Fatalf("Message does not round trip: %v", err)
	}
	if msg.InstanceID != "A" {
		t.Errorf("Expected instance A, got %q", msg.InstanceID)
	}

	if err := json.Unmarshal([]byte(lines[2]), &ev); err != nil {
		t.Fatalf("Failed to decode JSON: %v", err)
	}
	if ev.Event != "system" || ev.Text != "hello" {
		t.Errorf("Unexpected system event %s", lines[2])
	}
}

func TestJSONHandler_Commands(t *testing.T) {
	input := strings.Join([]string{
		`{"type":"action","nodePath":["root","cta"]}`,
		``,
		`not json`,
		`{"type":"dance"}`,
		`{"type":"submit-lead-form","form":{"email":"a@b.c"}}`,
	}, "\n")
	handler := NewJSONHandler(strings.NewReader(input), &bytes.Buffer{})

	var got []CommandInput
	for in := range handler.Commands() {
		got = append(got, in)
	}

	if len(got) != 4 {
		t.Fatalf("Expected 4 inputs, got %d", len(got))
	}
	if action, ok := got[0].Command.(domain.PerformAction); !ok || strings.Join(action.NodePath, "/") != "root/cta" {
		t.Errorf("Unexpected first command %#v", got[0])
	}
	if got[1].Err == nil {
		t.Error("Expected an error for a non-JSON line")
	}
	if !errors.Is(got[2].Err, domain.ErrUnknownCommand) {
		t.Errorf("Expected ErrUnknownCommand, got %v", got[2].Err)
	}
	if _, ok := got[3].Command.(domain.SubmitLeadForm); !ok {
		t.Errorf("Unexpected last command %#v", got[3])
	}

	if handler.Commands() == nil {
		t.Error("Commands must keep returning the same channel")
	}
}
