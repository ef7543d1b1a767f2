package fuse

import (
	"context"
	"syscall"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// node is a directory, secret group or secret, identified by tree inode.
type node struct {
	gofuse.Inode
	fs  *fileSystem
	ino uint64
}

var _ gofuse.InodeEmbedder = (*node)(nil)
var _ gofuse.NodeGetattrer = (*node)(nil)
var _ gofuse.NodeLookuper = (*node)(nil)
var _ gofuse.NodeReaddirer = (*node)(nil)
var _ gofuse.NodeOpener = (*node)(nil)
var _ gofuse.NodeReader = (*node)(nil)

func (n *node) Getattr(ctx context.Context, f gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	rctx := n.fs.requestContext(ctx)

	meta, err := n.fs.service.GetAttr(rctx, n.ino)
	if errno := n.fs.finish(rctx, "getattr", err); errno != 0 {
		return errno
	}

	n.fs.fillAttr(&out.Attr, &meta.Attr)
	out.SetTimeout(n.fs.attrTimeout)
	return 0
}

func (n *node) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	rctx := n.fs.requestContext(ctx)

	meta, err := n.fs.service.Lookup(rctx, n.ino, name)
	if errno := n.fs.finish(rctx, "lookup", err); errno != 0 {
		return nil, errno
	}

	n.fs.fillAttr(&out.Attr, &meta.Attr)
	out.SetEntryTimeout(n.fs.entryTimeout)
	out.SetAttrTimeout(n.fs.attrTimeout)

	child := &node{fs: n.fs, ino: meta.Ino}
	return n.NewInode(ctx, child, gofuse.StableAttr{Mode: stableMode(meta.Type), Ino: meta.Ino}), 0
}

func (n *node) Readdir(ctx context.Context) (gofuse.DirStream, syscall.Errno) {
	rctx := n.fs.requestContext(ctx)

	dirents, err := n.fs.service.ReadDir(rctx, n.ino, 0)
	if errno := n.fs.finish(rctx, "readdir", err); errno != 0 {
		return nil, errno
	}

	entries := make([]fuse.DirEntry, 0, len(dirents))
	for _, d := range dirents {
		entries = append(entries, fuse.DirEntry{
			Name: d.Name,
			Ino:  d.Ino,
			Mode: stableMode(d.Type),
		})
	}

	return gofuse.NewListDirStream(entries), 0
}

func (n *node) Open(ctx context.Context, flags uint32) (gofuse.FileHandle, uint32, syscall.Errno) {
	rctx := n.fs.requestContext(ctx)

	if flags&(syscall.O_WRONLY|syscall.O_RDWR|syscall.O_TRUNC|syscall.O_APPEND) != 0 {
		n.fs.metrics.ObserveOp("open", syscall.EROFS)
		return nil, 0, syscall.EROFS
	}

	_, err := n.fs.service.GetAttr(rctx, n.ino)
	if errno := n.fs.finish(rctx, "open", err); errno != 0 {
		return nil, 0, errno
	}

	// The tree never changes while mounted.
	return nil, fuse.FOPEN_KEEP_CACHE, 0
}

func (n *node) Read(ctx context.Context, f gofuse.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	rctx := n.fs.requestContext(ctx)

	data, err := n.fs.service.Read(rctx, n.ino, off, int64(len(dest)))
	if errno := n.fs.finish(rctx, "read", err); errno != 0 {
		return nil, errno
	}

	return fuse.ReadResultData(data), 0
}
