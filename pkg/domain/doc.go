/*
Package domain contains the message model of the conversation protocol.

It defines the values exchanged with the conversation service and nothing else:
no I/O, no goroutines. Wire encoding lives next to each type so that a value
produced here can be written to a socket as-is.

# Key Entities

  - NodeMessage: An entry of the conversation log, identified by InstanceID.
  - ChatMessage: A BotMessage or a VisitorMessage (closed union).
  - Element: A renderable part of a bot message (prose, button, image, ...).
  - Command: A visitor instruction (PerformAction, SubmitLeadForm,
    AnswerSurveyQuestion, AnswerApprovalQuestion).
  - LangString: Localized text with a default-language fallback.
*/
package domain
