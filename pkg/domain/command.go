package domain

import (
	"encoding/json"
	"fmt"
)

// CommandType discriminates the Command variants on the wire.
type CommandType string

const (
	CommandPerformAction          CommandType = "action"
	CommandSubmitLeadForm         CommandType = "submit-lead-form"
	CommandAnswerSurveyQuestion   CommandType = "answer-survey-question"
	CommandAnswerApprovalQuestion CommandType = "answer-approval-question"
)

// Command is a visitor-originated instruction sent to the service.
// The set of implementations is closed.
type Command interface {
	CommandType() CommandType
	// Validate reports whether the command satisfies the wire contract.
	Validate() error
	isCommand()
}

// PerformAction triggers the action bound to a node.
type PerformAction struct {
	NodePath []string `json:"nodePath"`
}

// SubmitLeadForm submits contact details collected from the visitor.
type SubmitLeadForm struct {
	Form LeadForm `json:"form"`
}

// AnswerSurveyQuestion answers a survey question with one of its answers.
type AnswerSurveyQuestion struct {
	SurveyAnswerID   string      `json:"surveyAnswerId"`
	SurveyQuestionID string      `json:"surveyQuestionId"`
	NodeMessage      NodeMessage `json:"nodeMessage"`
}

// AnswerApprovalQuestion answers an approval question.
type AnswerApprovalQuestion struct {
	ApprovalAnswerID string      `json:"approvalAnswerId"`
	NodeMessage      NodeMessage `json:"nodeMessage"`
}

func (PerformAction) CommandType() CommandType          { return CommandPerformAction }
func (SubmitLeadForm) CommandType() CommandType         { return CommandSubmitLeadForm }
func (AnswerSurveyQuestion) CommandType() CommandType   { return CommandAnswerSurveyQuestion }
func (AnswerApprovalQuestion) CommandType() CommandType { return CommandAnswerApprovalQuestion }

func (PerformAction) isCommand()          {}
func (SubmitLeadForm) isCommand()         {}
func (AnswerSurveyQuestion) isCommand()   {}
func (AnswerApprovalQuestion) isCommand() {}

func (c PerformAction) Validate() error {
	for i, p := range c.NodePath {
		if p == "" {
			return fmt.Errorf("%w: empty node path segment %d", ErrProtocolViolation, i)
		}
	}
	return nil
}

func (c SubmitLeadForm) Validate() error {
	if err := c.Form.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrProtocolViolation, err)
	}
	return nil
}

func (c AnswerSurveyQuestion) Validate() error {
	if c.SurveyQuestionID == "" {
		return fmt.Errorf("%w: missing surveyQuestionId", ErrProtocolViolation)
	}
	if c.SurveyAnswerID == "" {
		return fmt.Errorf("%w: missing surveyAnswerId", ErrProtocolViolation)
	}
	if err := c.NodeMessage.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrProtocolViolation, err)
	}
	return nil
}

func (c AnswerApprovalQuestion) Validate() error {
	if c.ApprovalAnswerID == "" {
		return fmt.Errorf("%w: missing approvalAnswerId", ErrProtocolViolation)
	}
	if err := c.NodeMessage.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrProtocolViolation, err)
	}
	return nil
}

func (c PerformAction) MarshalJSON() ([]byte, error) {
	type wire PerformAction
	w := wire(c)
	if w.NodePath == nil {
		w.NodePath = []string{}
	}
	return json.Marshal(struct {
		Type CommandType `json:"type"`
		wire
	}{c.CommandType(), w})
}

func (c SubmitLeadForm) MarshalJSON() ([]byte, error) {
	type wire SubmitLeadForm
	return json.Marshal(struct {
		Type CommandType `json:"type"`
		wire
	}{c.CommandType(), wire(c)})
}

func (c AnswerSurveyQuestion) MarshalJSON() ([]byte, error) {
	type wire AnswerSurveyQuestion
	return json.Marshal(struct {
		Type CommandType `json:"type"`
		wire
	}{c.CommandType(), wire(c)})
}

func (c AnswerApprovalQuestion) MarshalJSON() ([]byte, error) {
	type wire AnswerApprovalQuestion
	return json.Marshal(struct {
		Type CommandType `json:"type"`
		wire
	}{c.CommandType(), wire(c)})
}

// MarshalCommand validates c and encodes it as a wire frame.
func MarshalCommand(c Command) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: nil command", ErrProtocolViolation)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(c)
}

// DecodeCommand decodes and validates a wire command.
func DecodeCommand(data []byte) (Command, error) {
	var env struct {
		Type CommandType `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProtocolViolation, err)
	}

	var (
		cmd Command
		err error
	)
	switch env.Type {
	case CommandPerformAction:
		var c PerformAction
		err = json.Unmarshal(data, &c)
		cmd = c
	case CommandSubmitLeadForm:
		var c SubmitLeadForm
		err = json.Unmarshal(data, &c)
		cmd = c
	case CommandAnswerSurveyQuestion:
		var c AnswerSurveyQuestion
		err = json.Unmarshal(data, &c)
		cmd = c
	case CommandAnswerApprovalQuestion:
		var c AnswerApprovalQuestion
		err = json.Unmarshal(data, &c)
		cmd = c
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, env.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrProtocolViolation, env.Type, err)
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	return cmd, nil
}
