package safefileio_test

import (
	"errors"
	"os"
	"testing"

	"github.com/isseis/elfdeps/internal/safefileio"
	safefileiotesting "github.com/isseis/elfdeps/internal/safefileio/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

var errStat = errors.New("stat failed")

func TestReader_WithMockFileSystem(t *testing.T) {
	file := safefileiotesting.NewMockFile("obj", []byte("payload"))
	mockFS := &safefileiotesting.MockFileSystem{
		OpenFileFunc: func(_ string, _ int, _ os.FileMode) (safefileio.File, error) {
			return file, nil
		},
	}

	got, err := safefileio.NewReaderWithFS(mockFS, safefileio.ReadOptions{NoFollow: true}).ReadFile("/bin/obj")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)
	assert.True(t, file.Closed)

	require.Len(t, mockFS.OpenFileCalls, 1)
	assert.Equal(t, "/bin/obj", mockFS.OpenFileCalls[0].Name)
	assert.NotZero(t, mockFS.OpenFileCalls[0].Flag&unix.O_NOFOLLOW)
}

func TestReader_StatFailure(t *testing.T) {
	file := safefileiotesting.NewMockFile("obj", []byte("payload"))
	file.StatErr = errStat
	mockFS := &safefileiotesting.MockFileSystem{
		OpenFileFunc: func(_ string, _ int, _ os.FileMode) (safefileio.File, error) {
			return file, nil
		},
	}

	_, err := safefileio.NewReaderWithFS(mockFS, safefileio.ReadOptions{}).ReadFile("/bin/obj")
	assert.ErrorIs(t, err, errStat)
	assert.True(t, file.Closed)
}

func TestReader_GrowingFileIsRejected(t *testing.T) {
	// Stat reports a small size but the content is larger than the limit.
	file := safefileiotesting.NewMockFile("obj", []byte("0123456789"))
	file.Info = safefileiotesting.MockFileInfo{FileName: "obj", FileSize: 2}
	mockFS := &safefileiotesting.MockFileSystem{
		OpenFileFunc: func(_ string, _ int, _ os.FileMode) (safefileio.File, error) {
			return file, nil
		},
	}

	_, err := safefileio.NewReaderWithFS(mockFS, safefileio.ReadOptions{MaxSize: 5}).ReadFile("/bin/obj")
	assert.ErrorIs(t, err, safefileio.ErrFileTooLarge)
}

func TestReader_OpenFailure(t *testing.T) {
	mockFS := &safefileiotesting.MockFileSystem{}

	_, err := safefileio.NewReaderWithFS(mockFS, safefileio.ReadOptions{}).ReadFile("/bin/obj")
	assert.ErrorIs(t, err, safefileiotesting.ErrOpenFileNotImplemented)
}
