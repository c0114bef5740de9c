package safefileio

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// isNoFollowError checks if the error indicates we tried to open a symlink.
// Linux reports ELOOP for O_NOFOLLOW and RESOLVE_NO_SYMLINKS; FreeBSD reports EMLINK.
func isNoFollowError(err error) bool {
	var e *os.PathError
	if !errors.As(err, &e) {
		return false
	}
	return errors.Is(e.Err, unix.ELOOP) || errors.Is(e.Err, unix.EMLINK)
}
