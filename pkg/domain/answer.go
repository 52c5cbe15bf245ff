package domain

import "fmt"

// AnswerControl builds the command that answers the bot message answered
// with the chosen control. text is echoed back as the visitor's message.
// Approval answers take precedence over survey answers.
func AnswerControl(answered NodeMessage, control ControlOptions, text string) (Command, error) {
	reply := NewVisitorNodeMessage(text)

	if control.ApprovalAnswerID != "" {
		return AnswerApprovalQuestion{
			ApprovalAnswerID: control.ApprovalAnswerID,
			NodeMessage:      reply,
		}, nil
	}

	if control.SurveyAnswerID != "" {
		var questionID string
		if answered.ChatMessage != nil {
			if meta := answered.ChatMessage.Meta(); meta != nil {
				questionID = meta.SurveyQuestionID
			}
		}
		if questionID == "" {
			return nil, fmt.Errorf("%w: survey answer %s without surveyQuestionId on %s",
				ErrProtocolViolation, control.SurveyAnswerID, answered.InstanceID)
		}
		return AnswerSurveyQuestion{
			SurveyAnswerID:   control.SurveyAnswerID,
			SurveyQuestionID: questionID,
			NodeMessage:      reply,
		}, nil
	}

	return nil, ErrUnsupportedAnswer
}

// ControlText returns the localized label of a control.
func ControlText(control ControlOptions, lang Lang) string {
	if v, err := control.Text.Value(lang); err == nil {
		return v
	}
	return control.Text.String()
}
