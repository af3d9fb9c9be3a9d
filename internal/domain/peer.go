// Package domain contains entities without logic, just meta-data
package domain

import "errors"

const (
	MaxDisplayNameLen = 36
	MaxRoomNameLen    = 64
)

var (
	ErrNameEmpty   = errors.New("display name empty")
	ErrNameTooLong = errors.New("display name too long")
	ErrRoomNameBad = errors.New("room name empty or too long")
)

// PeerID identifies one signaling connection for its whole lifetime.
type PeerID string

func ValidateDisplayName(name string) error {
	if len(name) == 0 {
		return ErrNameEmpty
	}
	if len(name) > MaxDisplayNameLen {
		return ErrNameTooLong
	}
	return nil
}
