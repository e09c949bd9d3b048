//go:build linux
// +build linux

package catalogfs

import (
	"github.com/hanwen/go-fuse/v2/fs"

	"github.com/m3ucat/m3ucat/internal/catalog"
)

// catalogFS holds the snapshot served by one mount.
type catalogFS struct {
	tree  *catalog.Tree
	names *nameIndex
}

// Mount mounts tree at dir. The tree must be finalized and stays read-only
// for the life of the mount.
func Mount(dir string, tree *catalog.Tree) (Server, error) {
	root := &dirNode{
		fsys: &catalogFS{tree: tree, names: buildNameIndex(tree)},
		id:   catalog.Root,
	}
	ttl := attrTTL
	srv, err := fs.Mount(dir, root, &fs.Options{
		EntryTimeout: &ttl,
		AttrTimeout:  &ttl,
	})
	if err != nil {
		return nil, err
	}
	return srv, nil
}
