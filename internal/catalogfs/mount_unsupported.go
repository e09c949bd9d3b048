//go:build !linux
// +build !linux

package catalogfs

import (
	"fmt"

	"github.com/m3ucat/m3ucat/internal/catalog"
)

// Mount is unavailable on non-Linux builds because the catalog filesystem
// depends on go-fuse.
func Mount(dir string, tree *catalog.Tree) (Server, error) {
	return nil, fmt.Errorf("catalog mount is only supported on linux builds")
}
