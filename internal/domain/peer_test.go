package domain_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bhandari16arjun/meet/internal/domain"
)

func TestValidateDisplayName(t *testing.T) {
	require.NoError(t, domain.ValidateDisplayName("Alice"))
	require.NoError(t, domain.ValidateDisplayName(strings.Repeat("a", domain.MaxDisplayNameLen)))

	require.ErrorIs(t, domain.ValidateDisplayName(""), domain.ErrNameEmpty)
	require.ErrorIs(t, domain.ValidateDisplayName(strings.Repeat("a", domain.MaxDisplayNameLen+1)), domain.ErrNameTooLong)
}

func TestValidateRoomName(t *testing.T) {
	require.NoError(t, domain.ValidateRoomName("standup"))
	require.NoError(t, domain.ValidateRoomName(domain.RoomName(strings.Repeat("r", domain.MaxRoomNameLen))))

	require.ErrorIs(t, domain.ValidateRoomName(""), domain.ErrRoomNameBad)
	require.ErrorIs(t, domain.ValidateRoomName(domain.RoomName(strings.Repeat("r", domain.MaxRoomNameLen+1))), domain.ErrRoomNameBad)
}
