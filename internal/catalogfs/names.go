package catalogfs

import (
	"fmt"
	"strings"

	"github.com/m3ucat/m3ucat/internal/catalog"
)

// sanitizeName makes a catalog name usable as a single path element.
func sanitizeName(name string) string {
	s := strings.ReplaceAll(name, "/", " - ")
	s = strings.ReplaceAll(s, "\x00", "")
	s = strings.TrimSpace(s)
	if s == "" || s == "." || s == ".." {
		return "unnamed"
	}
	return s
}

// StrmFileName returns the virtual file name for one stream: "Name.strm".
func StrmFileName(name string) string {
	return sanitizeName(name) + ".strm"
}

func strmContent(url string) []byte {
	return []byte(url + "\n")
}

// nameIndex maps every group and item to a name unique within its parent
// directory. Colliding names get the node id appended.
type nameIndex struct {
	groups map[catalog.GroupID]string
	items  map[catalog.ItemID]string
}

func buildNameIndex(t *catalog.Tree) *nameIndex {
	ngroups, nitems := t.Len()
	ix := &nameIndex{
		groups: make(map[catalog.GroupID]string, ngroups),
		items:  make(map[catalog.ItemID]string, nitems),
	}
	ix.index(t, catalog.Root)
	return ix
}

func (ix *nameIndex) index(t *catalog.Tree, id catalog.GroupID) {
	g := t.Group(id)
	counts := make(map[string]int, len(g.Groups)+len(g.Items))
	for _, cid := range g.Groups {
		counts[sanitizeName(t.Group(cid).Name)]++
	}
	for _, iid := range g.Items {
		counts[StrmFileName(t.Item(iid).Name)]++
	}
	for _, cid := range g.Groups {
		base := sanitizeName(t.Group(cid).Name)
		if counts[base] <= 1 {
			ix.groups[cid] = base
		} else {
			ix.groups[cid] = fmt.Sprintf("%s [%d]", base, cid)
		}
		ix.index(t, cid)
	}
	for _, iid := range g.Items {
		name := t.Item(iid).Name
		if counts[StrmFileName(name)] <= 1 {
			ix.items[iid] = StrmFileName(name)
		} else {
			ix.items[iid] = fmt.Sprintf("%s [%d].strm", sanitizeName(name), iid)
		}
	}
}
