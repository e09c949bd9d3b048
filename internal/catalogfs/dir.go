//go:build linux
// +build linux

package catalogfs

import (
	"context"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/m3ucat/m3ucat/internal/catalog"
)

// dirNode serves one catalog group. The same node type covers folders,
// series and seasons; only the children differ.
type dirNode struct {
	fs.Inode
	fsys *catalogFS
	id   catalog.GroupID
	path string
}

var _ fs.NodeGetattrer = (*dirNode)(nil)
var _ fs.NodeReaddirer = (*dirNode)(nil)
var _ fs.NodeLookuper = (*dirNode)(nil)

func (n *dirNode) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = fuse.S_IFDIR | 0755
	return 0
}

func (n *dirNode) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	g := n.fsys.tree.Group(n.id)
	entries := make([]fuse.DirEntry, 0, len(g.Groups)+len(g.Items))
	for _, cid := range g.Groups {
		name := n.fsys.names.groups[cid]
		entries = append(entries, fuse.DirEntry{
			Name: name,
			Ino:  ino("dir:" + n.childPath(name)),
			Mode: fuse.S_IFDIR | 0755,
		})
	}
	for _, iid := range g.Items {
		name := n.fsys.names.items[iid]
		entries = append(entries, fuse.DirEntry{
			Name: name,
			Ino:  ino("file:" + n.childPath(name)),
			Mode: fuse.S_IFREG | 0444,
		})
	}
	return fs.NewListDirStream(entries), 0
}

func (n *dirNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	g := n.fsys.tree.Group(n.id)
	for _, cid := range g.Groups {
		if n.fsys.names.groups[cid] != name {
			continue
		}
		child := &dirNode{fsys: n.fsys, id: cid, path: n.childPath(name)}
		ch := n.NewInode(ctx, child, fs.StableAttr{
			Mode: fuse.S_IFDIR,
			Ino:  ino("dir:" + child.path),
		})
		out.Mode = fuse.S_IFDIR | 0755
		out.SetEntryTimeout(attrTTL)
		out.SetAttrTimeout(attrTTL)
		return ch, 0
	}
	for _, iid := range g.Items {
		if n.fsys.names.items[iid] != name {
			continue
		}
		child := &strmNode{content: strmContent(n.fsys.tree.Item(iid).URL)}
		ch := n.NewInode(ctx, child, fs.StableAttr{
			Mode: fuse.S_IFREG,
			Ino:  ino("file:" + n.childPath(name)),
		})
		out.Mode = fuse.S_IFREG | 0444
		out.Size = uint64(len(child.content))
		out.SetEntryTimeout(attrTTL)
		out.SetAttrTimeout(attrTTL)
		return ch, 0
	}
	return nil, syscall.ENOENT
}

func (n *dirNode) childPath(name string) string {
	if n.path == "" {
		return name
	}
	return n.path + "/" + name
}
