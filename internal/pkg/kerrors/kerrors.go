package kerrors

import "syscall"

// Kernel error codes returned to the FUSE driver
const (
	EPERM   = syscall.EPERM   // Operation not permitted
	ENOENT  = syscall.ENOENT  // No such file or directory
	EIO     = syscall.EIO     // I/O error
	EACCES  = syscall.EACCES  // Permission denied
	ENOTDIR = syscall.ENOTDIR // Not a directory
	EISDIR  = syscall.EISDIR  // Is a directory
	EINVAL  = syscall.EINVAL  // Invalid argument
	EROFS   = syscall.EROFS   // Read-only file system
)
