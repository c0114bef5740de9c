// Package safefileio provides file I/O with protection against symlink attacks,
// TOCTOU races on the opened file, non-regular files and memory exhaustion.
// It builds on Unix systems only.
package safefileio

import "errors"

var (
	// ErrInvalidFilePath indicates that the specified file path is invalid.
	ErrInvalidFilePath = errors.New("invalid file path")

	// ErrIsSymlink indicates that the path or one of its components is a symbolic link.
	ErrIsSymlink = errors.New("path is a symbolic link")

	// ErrNotRegularFile indicates the path names a directory, device, FIFO or socket.
	ErrNotRegularFile = errors.New("not a regular file")

	// ErrFileTooLarge indicates that the file exceeds the configured size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrFileExists indicates that the file already exists.
	ErrFileExists = errors.New("file exists")
)
