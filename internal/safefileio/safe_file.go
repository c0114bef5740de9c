package safefileio

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// DefaultMaxFileSize is the read limit used when ReadOptions.MaxSize is zero (1 GB).
const DefaultMaxFileSize = 1 << 30

// FileSystem is an interface that abstracts file system operations
type FileSystem interface {
	OpenFile(name string, flag int, perm os.FileMode) (File, error)
}

// File is an interface that abstracts file operations
type File interface {
	io.Reader
	io.Writer
	Close() error
	Stat() (os.FileInfo, error)
}

// osFS implements FileSystem using the local disk. Opening with unix.O_NOFOLLOW
// rejects a symlink in any path component, not only the last one.
type osFS struct{}

func (osFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	if flag&unix.O_NOFOLLOW != 0 {
		return openNoFollow(name, flag, perm)
	}
	// #nosec G304 - callers validate the result with Stat before reading
	return os.OpenFile(name, flag, perm)
}

// NewFileSystem returns the local disk FileSystem.
func NewFileSystem() FileSystem {
	return osFS{}
}

// ReadOptions configures a Reader.
type ReadOptions struct {
	// MaxSize is the largest file that will be read. Zero means DefaultMaxFileSize.
	MaxSize int64
	// NoFollow rejects paths that traverse a symbolic link.
	NoFollow bool
}

// Reader reads whole files after checking that they are regular and within the size limit.
type Reader struct {
	fs   FileSystem
	opts ReadOptions
}

// NewReader returns a Reader on the local disk.
func NewReader(opts ReadOptions) *Reader {
	return NewReaderWithFS(NewFileSystem(), opts)
}

// NewReaderWithFS returns a Reader using fs. If fs is nil, the local disk is used.
func NewReaderWithFS(fs FileSystem, opts ReadOptions) *Reader {
	if fs == nil {
		fs = NewFileSystem()
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = DefaultMaxFileSize
	}
	return &Reader{fs: fs, opts: opts}
}

// MaxSize returns the effective size limit.
func (r *Reader) MaxSize() int64 {
	return r.opts.MaxSize
}

// ReadFile reads the whole file at filePath.
// The file is opened non-blocking so that a FIFO cannot stall the caller before the
// regular-file check runs.
func (r *Reader) ReadFile(filePath string) ([]byte, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilePath, err)
	}

	flag := os.O_RDONLY | unix.O_NONBLOCK
	if r.opts.NoFollow {
		flag |= unix.O_NOFOLLOW
	}

	file, err := r.fs.OpenFile(absPath, flag, 0)
	if err != nil {
		if isNoFollowError(err) {
			return nil, fmt.Errorf("%w: %s", ErrIsSymlink, absPath)
		}
		return nil, err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			slog.Warn("error closing file", slog.String("path", absPath), slog.Any("error", closeErr))
		}
	}()

	return readFileContent(file, absPath, r.opts.MaxSize)
}

// readFileContent reads and validates the content of an already opened file
func readFileContent(file File, filePath string, maxSize int64) ([]byte, error) {
	fileInfo, err := validateFile(file, filePath)
	if err != nil {
		return nil, err
	}

	if fileInfo.Size() > maxSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrFileTooLarge, fileInfo.Size(), maxSize)
	}

	content, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	// The file may have grown between Stat and ReadAll.
	if int64(len(content)) > maxSize {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrFileTooLarge, maxSize)
	}

	return content, nil
}

// validateFile checks if the file is a regular file and returns its FileInfo.
// The check uses the open descriptor so it describes the file that will be read.
func validateFile(file File, filePath string) (os.FileInfo, error) {
	fileInfo, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	if !fileInfo.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s (%s)", ErrNotRegularFile, filePath, fileInfo.Mode().Type())
	}

	return fileInfo, nil
}

// SafeCreateFile creates a new file for writing. It fails if the file exists or if any
// path component is a symbolic link.
func SafeCreateFile(filePath string, perm os.FileMode) (*os.File, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilePath, err)
	}

	file, err := openNoFollow(absPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL|unix.O_NOFOLLOW, perm)
	if err != nil {
		switch {
		case os.IsExist(err):
			return nil, ErrFileExists
		case isNoFollowError(err):
			return nil, ErrIsSymlink
		default:
			return nil, fmt.Errorf("failed to create file: %w", err)
		}
	}

	if _, err := validateFile(file, absPath); err != nil {
		_ = file.Close()
		return nil, err
	}
	return file, nil
}

// openNoFollowFallback opens with O_NOFOLLOW, which only guards the last component,
// then checks the directory components with Lstat.
func openNoFollowFallback(absPath string, flag int, perm os.FileMode) (*os.File, error) {
	// #nosec G304 - absPath is cleaned by filepath.Abs and opened with O_NOFOLLOW
	file, err := os.OpenFile(absPath, flag|unix.O_NOFOLLOW, perm)
	if err != nil {
		return nil, err
	}
	if err := verifyPathComponents(absPath); err != nil {
		_ = file.Close()
		return nil, err
	}
	return file, nil
}

// verifyPathComponents checks that no directory component of absPath is a symlink.
func verifyPathComponents(absPath string) error {
	current := filepath.Dir(absPath)
	for {
		parent := filepath.Dir(current)
		if parent == current {
			return nil
		}

		fi, err := os.Lstat(current)
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", current, err)
		}
		if fi.Mode()&os.ModeSymlink != 0 {
			return &os.PathError{Op: "open", Path: current, Err: unix.ELOOP}
		}

		current = parent
	}
}
