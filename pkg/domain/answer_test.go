package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func surveyMessage(questionID string) NodeMessage {
	var meta *MessageMetadata
	if questionID != "" {
		meta = &MessageMetadata{SurveyQuestionID: questionID}
	}
	return NodeMessage{
		Path:       []string{"survey"},
		InstanceID: "B",
		ChatMessage: BotMessage{
			MessageID: "m",
			Metadata:  meta,
			Elements: []Element{
				Radio{Options: ControlOptions{Text: NewLangString("Red"), SurveyAnswerID: "red"}},
			},
		},
	}
}

func TestAnswerControl(t *testing.T) {
	t.Run("approval answer", func(t *testing.T) {
		cmd, err := AnswerControl(surveyMessage(""), ControlOptions{ApprovalAnswerID: "ap-1", SurveyAnswerID: "red"}, "I agree")
		require.NoError(t, err)

		approval, ok := cmd.(AnswerApprovalQuestion)
		require.True(t, ok)
		assert.Equal(t, "ap-1", approval.ApprovalAnswerID)
		assert.NoError(t, approval.Validate())
	})

	t.Run("survey answer uses the answered message metadata", func(t *testing.T) {
		cmd, err := AnswerControl(surveyMessage("q-9"), ControlOptions{SurveyAnswerID: "red"}, "Red")
		require.NoError(t, err)

		survey, ok := cmd.(AnswerSurveyQuestion)
		require.True(t, ok)
		assert.Equal(t, "q-9", survey.SurveyQuestionID)
		assert.Equal(t, "red", survey.SurveyAnswerID)

		visitor, ok := survey.NodeMessage.ChatMessage.(VisitorMessage)
		require.True(t, ok)
		assert.Equal(t, "Red", visitor.Elements[0].Options.Text[LangEnglish])
	})

	t.Run("survey answer without question id", func(t *testing.T) {
		_, err := AnswerControl(surveyMessage(""), ControlOptions{SurveyAnswerID: "red"}, "Red")
		assert.ErrorIs(t, err, ErrProtocolViolation)
	})

	t.Run("plain control", func(t *testing.T) {
		_, err := AnswerControl(surveyMessage("q"), ControlOptions{Text: NewLangString("Next")}, "Next")
		assert.ErrorIs(t, err, ErrUnsupportedAnswer)
	})
}

func TestControlText(t *testing.T) {
	c := ControlOptions{Text: LangString{LangEnglish: "Yes", LangFinnish: "Kyllä"}}
	assert.Equal(t, "Kyllä", ControlText(c, LangFinnish))
	assert.Equal(t, "Yes", ControlText(c, LangSpanish))
}
