// Package fuse mounts a built secret tree as a read-only FUSE filesystem.
//
// Every go-fuse node holds only the inode number of the tree node it stands
// for. Attribute, lookup, listing and read callbacks are answered by the
// service layer, so the kernel sees the tree's own inode numbers and the
// "." and ".." entries the service synthesizes.
//
// All mutating operations are left unimplemented and go-fuse answers them
// with ENOTSUP; Open with write flags returns EROFS.
package fuse
