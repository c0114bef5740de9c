//go:build unix && !linux

package safefileio

import (
	"os"
)

// openNoFollow uses the portable two-phase check on platforms without openat2.
func openNoFollow(absPath string, flag int, perm os.FileMode) (*os.File, error) {
	return openNoFollowFallback(absPath, flag, perm)
}
