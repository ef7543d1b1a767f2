package service

import (
	"errors"
	"syscall"

	"github.com/S1riyS/vaultfs/internal/pkg/kerrors"
)

type ServiceError struct {
	Code    syscall.Errno
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

func (e *ServiceError) GetCode() syscall.Errno {
	return e.Code
}

// ErrnoOf maps any error returned by the service to the errno replied to the
// driver. Unknown errors become EIO.
func ErrnoOf(err error) syscall.Errno {
	if err == nil {
		return 0
	}
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr.Code
	}
	return kerrors.EIO
}
