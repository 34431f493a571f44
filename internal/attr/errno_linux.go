//go:build linux

package attr

import (
	"errors"

	"golang.org/x/sys/unix"
)

// Linux reports a missing attribute as ENODATA; ENOATTR is an alias for it.
func isNoAttr(err error) bool {
	return errors.Is(err, unix.ENODATA)
}

// isUnsupported reports whether the filesystem lacks xattr support.
func isUnsupported(err error) bool {
	return errors.Is(err, unix.ENOTSUP)
}
