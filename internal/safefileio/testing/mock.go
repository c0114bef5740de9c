// Package safefileiotesting provides test doubles for the safefileio package.
package safefileiotesting

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/isseis/elfdeps/internal/safefileio"
)

// ErrOpenFileNotImplemented is returned by MockFileSystem when OpenFileFunc is nil.
var ErrOpenFileNotImplemented = errors.New("OpenFile not implemented in mock")

// MockFileSystem implements safefileio.FileSystem for testing.
type MockFileSystem struct {
	// OpenFileFunc allows customizing OpenFile behavior
	OpenFileFunc func(name string, flag int, perm os.FileMode) (safefileio.File, error)

	// OpenFileCalls records the flags of every call
	OpenFileCalls []struct {
		Name string
		Flag int
	}
}

// OpenFile implements safefileio.FileSystem.
func (m *MockFileSystem) OpenFile(name string, flag int, perm os.FileMode) (safefileio.File, error) {
	m.OpenFileCalls = append(m.OpenFileCalls, struct {
		Name string
		Flag int
	}{Name: name, Flag: flag})
	if m.OpenFileFunc != nil {
		return m.OpenFileFunc(name, flag, perm)
	}
	return nil, ErrOpenFileNotImplemented
}

// MockFile is an in-memory safefileio.File.
type MockFile struct {
	bytes.Buffer
	Info     os.FileInfo
	StatErr  error
	CloseErr error
	Closed   bool
}

// NewMockFile returns a regular file holding content.
func NewMockFile(name string, content []byte) *MockFile {
	f := &MockFile{Info: MockFileInfo{FileName: name, FileSize: int64(len(content))}}
	_, _ = f.Write(content)
	return f
}

// Stat implements safefileio.File.
func (f *MockFile) Stat() (os.FileInfo, error) {
	if f.StatErr != nil {
		return nil, f.StatErr
	}
	return f.Info, nil
}

// Close implements safefileio.File.
func (f *MockFile) Close() error {
	f.Closed = true
	return f.CloseErr
}

// MockFileInfo is a minimal os.FileInfo.
type MockFileInfo struct {
	FileName string
	FileSize int64
	FileMode fs.FileMode
}

func (i MockFileInfo) Name() string       { return i.FileName }
func (i MockFileInfo) Size() int64        { return i.FileSize }
func (i MockFileInfo) Mode() fs.FileMode  { return i.FileMode }
func (i MockFileInfo) ModTime() time.Time { return time.Time{} }
func (i MockFileInfo) IsDir() bool        { return i.FileMode.IsDir() }
func (i MockFileInfo) Sys() any           { return nil }
