package domain

type RoomName string

func ValidateRoomName(name RoomName) error {
	if len(name) == 0 || len(name) > MaxRoomNameLen {
		return ErrRoomNameBad
	}
	return nil
}
