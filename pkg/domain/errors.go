package domain

import "errors"

// ErrInvalidMessage is returned when an inbound payload does not decode into a NodeMessage.
var ErrInvalidMessage = errors.New("invalid node message")

// ErrProtocolViolation is returned when a command or payload breaks the wire contract.
var ErrProtocolViolation = errors.New("protocol violation")

// ErrUnknownElement is returned when an element carries a type this client does not know.
var ErrUnknownElement = errors.New("unknown element type")

// ErrUnknownCommand is returned when a command carries a type this client does not know.
var ErrUnknownCommand = errors.New("unknown command type")

// ErrNoLangValue is returned when a localized value has no text for the requested language.
var ErrNoLangValue = errors.New("no localized value")

// ErrUnsupportedAnswer is returned when a control carries neither a survey nor an approval answer.
var ErrUnsupportedAnswer = errors.New("unsupported answer")
