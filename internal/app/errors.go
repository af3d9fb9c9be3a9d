package app

import "errors"

// Caller-facing error taxonomy. Every one of these surfaces as a rejected
// response on the signaling channel, never as a dropped message.
var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrNotApproved       = errors.New("not approved")
	ErrNotInRoom         = errors.New("not in a room")
	ErrRequestNotFound   = errors.New("request not found")
	ErrRequesterGone     = errors.New("user disconnected")
	ErrPeerNotFound      = errors.New("peer not found")
	ErrTransportNotFound = errors.New("transport not found")
	ErrProducerNotFound  = errors.New("producer not found")
	ErrCannotConsume     = errors.New("cannot consume")
	ErrBadDirection      = errors.New("bad transport direction")
	ErrNoWorkers         = errors.New("no live workers available")
	ErrRemoveSelf        = errors.New("cannot remove yourself")
)
