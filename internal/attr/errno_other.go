//go:build !linux

package attr

import (
	"errors"

	"github.com/pkg/xattr"
)

func isNoAttr(err error) bool {
	return errors.Is(err, xattr.ENOATTR)
}

func isUnsupported(err error) bool {
	return false
}
