// Package catalogfs exposes a finalized catalog tree as a read-only FUSE
// filesystem. Groups become directories and every stream becomes a small
// .strm file whose content is the stream URL, which media players resolve
// natively. Mounting requires Linux.
package catalogfs

import "time"

// Server is a running mount. Wait blocks until the filesystem is
// unmounted, either through Unmount or externally via fusermount -u.
type Server interface {
	Wait()
	Unmount() error
}

// attrTTL is how long the kernel may cache entry and attribute data. The
// tree never changes under a mount, so this only bounds how stale a listing
// can look after a remount on the same mountpoint.
const attrTTL = 1 * time.Second
