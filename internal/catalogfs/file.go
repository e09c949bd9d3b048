//go:build linux
// +build linux

package catalogfs

import (
	"context"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// strmNode is a virtual file whose whole content is one stream URL plus a
// trailing newline.
type strmNode struct {
	fs.Inode
	content []byte
}

var _ fs.NodeGetattrer = (*strmNode)(nil)
var _ fs.NodeOpener = (*strmNode)(nil)
var _ fs.NodeReader = (*strmNode)(nil)

func (n *strmNode) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = fuse.S_IFREG | 0444
	out.Size = uint64(len(n.content))
	return 0
}

func (n *strmNode) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	return nil, fuse.FOPEN_KEEP_CACHE, 0
}

func (n *strmNode) Read(ctx context.Context, fh fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	if off >= int64(len(n.content)) {
		return fuse.ReadResultData(nil), 0
	}
	end := off + int64(len(dest))
	if end > int64(len(n.content)) {
		end = int64(len(n.content))
	}
	return fuse.ReadResultData(n.content[off:end]), 0
}
