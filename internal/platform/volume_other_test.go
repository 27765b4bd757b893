//go:build !windows

package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/ffd/internal/usn"
)

func TestOpenVolume_Unsupported(t *testing.T) {
	t.Parallel()

	v, err := OpenVolume("C:")
	require.ErrorIs(t, err, usn.ErrUnsupportedPlatform)
	assert.Nil(t, v)

	drives, err := Drives()
	require.NoError(t, err)
	assert.Empty(t, drives)
}

func TestVolume_StubMethodsFail(t *testing.T) {
	t.Parallel()

	var v Volume
	_, err := v.Control(0, nil, nil)
	require.ErrorIs(t, err, usn.ErrUnsupportedPlatform)
	_, err = v.EnumUSNData(usn.EnumRequest{}, nil)
	require.ErrorIs(t, err, usn.ErrUnsupportedPlatform)
	_, err = v.ReadUSNJournal(usn.ReadJournalRequest{}, nil)
	require.ErrorIs(t, err, usn.ErrUnsupportedPlatform)
	_, err = v.QueryUSNJournal()
	require.ErrorIs(t, err, usn.ErrUnsupportedPlatform)
	_, err = FilesystemName("C:")
	require.ErrorIs(t, err, usn.ErrUnsupportedPlatform)
	assert.NoError(t, v.Close())
}
