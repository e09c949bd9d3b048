package catalogfs

import "hash/fnv"

// ino derives a stable inode number from a node key so the same logical
// entry keeps its inode across lookups and across remounts of one catalog.
func ino(key string) uint64 {
	h := fnv.New64a()
	h.Write([]byte("m3ucat:"))
	h.Write([]byte(key))
	return h.Sum64()
}
