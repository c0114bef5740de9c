//go:build linux

package safefileio

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// openNoFollow opens absPath with openat2(RESOLVE_NO_SYMLINKS), which rejects a symlink
// in any component atomically. Kernels without openat2 (or sandboxes that filter it)
// use the two-phase fallback.
func openNoFollow(absPath string, flag int, perm os.FileMode) (*os.File, error) {
	how := unix.OpenHow{
		// #nosec G115 - open flags are non-negative
		Flags:   uint64(flag | unix.O_CLOEXEC),
		Resolve: unix.RESOLVE_NO_SYMLINKS,
	}
	if flag&os.O_CREATE != 0 {
		how.Mode = uint64(perm.Perm())
	}

	fd, err := unix.Openat2(unix.AT_FDCWD, absPath, &how)
	if errors.Is(err, unix.ENOSYS) || errors.Is(err, unix.EPERM) {
		return openNoFollowFallback(absPath, flag, perm)
	}
	if err != nil {
		return nil, &os.PathError{Op: "openat2", Path: absPath, Err: err}
	}
	return os.NewFile(uintptr(fd), absPath), nil
}
