package transport

import "errors"

// ErrInvalidScheme is returned when the session URL is not ws or wss.
var ErrInvalidScheme = errors.New("invalid websocket scheme")

// ErrNotConnected is returned by Send when no connection is open. Frames are never queued.
var ErrNotConnected = errors.New("websocket not connected")

// ErrMalformedFrame is reported through OnError when an inbound frame is not JSON.
var ErrMalformedFrame = errors.New("malformed frame")
