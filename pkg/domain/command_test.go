package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCommand_WireShape(t *testing.T) {
	reply := NodeMessage{
		Path:        []string{},
		InstanceID:  "V",
		ChatMessage: VisitorMessage{Elements: []Prose{{Options: ProseOptions{Text: LangString{LangEnglish: "ok"}}}}},
	}

	tests := []struct {
		name string
		cmd  Command
		want string
	}{
		{
			name: "perform action",
			cmd:  PerformAction{NodePath: []string{"root", "cta"}},
			want: `{"type":"action","nodePath":["root","cta"]}`,
		},
		{
			name: "perform action with nil path",
			cmd:  PerformAction{},
			want: `{"type":"action","nodePath":[]}`,
		},
		{
			name: "submit lead form",
			cmd:  SubmitLeadForm{Form: LeadForm{FieldEmail: "ada@example.com"}},
			want: `{"type":"submit-lead-form","form":{"email":"ada@example.com"}}`,
		},
		{
			name: "answer approval question",
			cmd:  AnswerApprovalQuestion{ApprovalAnswerID: "ap-1", NodeMessage: reply},
			want: `{"type":"answer-approval-question","approvalAnswerId":"ap-1","nodeMessage":{"path":[],"instanceId":"V","chatMessage":{"interlocutor":"visitor","elements":[{"type":"prose","options":{"text":{"en-GB":"ok"}}}]}}}`,
		},
		{
			name: "answer survey question",
			cmd:  AnswerSurveyQuestion{SurveyAnswerID: "a-1", SurveyQuestionID: "q-1", NodeMessage: reply},
			want: `{"type":"answer-survey-question","surveyAnswerId":"a-1","surveyQuestionId":"q-1","nodeMessage":{"path":[],"instanceId":"V","chatMessage":{"interlocutor":"visitor","elements":[{"type":"prose","options":{"text":{"en-GB":"ok"}}}]}}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCommand(tt.cmd)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))

			decoded, err := DecodeCommand(got)
			require.NoError(t, err)
			assert.Equal(t, tt.cmd.CommandType(), decoded.CommandType())
		})
	}
}

func TestMarshalCommand_Validation(t *testing.T) {
	reply := NewVisitorNodeMessage("ok")

	tests := []struct {
		name string
		cmd  Command
	}{
		{name: "nil command", cmd: nil},
		{name: "empty lead form", cmd: SubmitLeadForm{}},
		{name: "unknown lead form field", cmd: SubmitLeadForm{Form: LeadForm{"shoe_size": "42"}}},
		{name: "survey answer without question", cmd: AnswerSurveyQuestion{SurveyAnswerID: "a", NodeMessage: reply}},
		{name: "survey answer without answer", cmd: AnswerSurveyQuestion{SurveyQuestionID: "q", NodeMessage: reply}},
		{name: "approval without id", cmd: AnswerApprovalQuestion{NodeMessage: reply}},
		{name: "approval without reply", cmd: AnswerApprovalQuestion{ApprovalAnswerID: "ap"}},
		{name: "action with empty segment", cmd: PerformAction{NodePath: []string{"root", ""}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MarshalCommand(tt.cmd)
			assert.ErrorIs(t, err, ErrProtocolViolation)
		})
	}
}

func TestDecodeCommand_Errors(t *testing.T) {
	_, err := DecodeCommand([]byte(`{"type":"dance"}`))
	assert.ErrorIs(t, err, ErrUnknownCommand)

	_, err = DecodeCommand([]byte(`not json`))
	assert.ErrorIs(t, err, ErrProtocolViolation)

	_, err = DecodeCommand([]byte(`{"type":"answer-survey-question","surveyAnswerId":"a"}`))
	assert.ErrorIs(t, err, ErrProtocolViolation)
}

func TestDecodeCommand_PerformAction(t *testing.T) {
	cmd, err := DecodeCommand([]byte(`{"type":"action","nodePath":["a","b"]}`))
	require.NoError(t, err)
	assert.Equal(t, PerformAction{NodePath: []string{"a", "b"}}, cmd)

	raw, err := json.Marshal(cmd)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"action","nodePath":["a","b"]}`, string(raw))
}
