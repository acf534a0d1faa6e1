package fakevddk

import (
	"errors"
	"syscall"
)

// Errno picks the errno nbdkit should report to the client for err.
func Errno(err error) syscall.Errno {
	if err == nil {
		return 0
	}
	if errors.Is(err, ErrConfigCountMismatch) {
		return syscall.EINVAL
	}
	if errors.Is(err, ErrHandleClosed) {
		return syscall.EBADF
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno
	}
	return syscall.EIO
}
