package domain

import "time"

// PendingRequest is a not-yet-decided join attempt awaiting host approval.
// Owned by exactly one room; the id is unique for the room's whole lifetime
// so a rapid reconnect can never collide with a stale approval.
type PendingRequest struct {
	ID        string
	UserName  string
	Peer      PeerID
	Timestamp time.Time
}
