// Package playlist parses M3U text into catalog entries, deriving each
// entry's category, year, and episode metadata from its title and URL.
package playlist

import (
	"bufio"
	"errors"
	"io"
	"strings"

	"github.com/m3ucat/m3ucat/internal/catalog"
)

// ErrNotM3U reports input whose first non-blank line is not an #EXTM3U header.
var ErrNotM3U = errors.New("playlist: missing #EXTM3U header")

// DefaultGroup labels entries whose EXTINF carries no group-title.
const DefaultGroup = "Uncategorized"

// Providers emit very long EXTINF attribute blocks; default scanner buffers
// are too small.
const maxLineBytes = 512 * 1024

// Parse reads an M3U playlist and returns one entry per EXTINF/URL pair in
// playlist order. Dangling EXTINF lines and stray URLs are skipped rather
// than fatal; only a missing header aborts.
func Parse(r io.Reader) ([]catalog.Entry, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(nil, maxLineBytes)

	var (
		entries   []catalog.Entry
		attrs     map[string]string
		title     string
		open      bool
		sawHeader bool
	)

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if !sawHeader {
			if !strings.HasPrefix(line, "#EXTM3U") {
				return nil, ErrNotM3U
			}
			sawHeader = true
			continue
		}
		if strings.HasPrefix(line, "#EXTINF:") {
			attrs, title = parseExtinf(line)
			open = true
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		if !open {
			continue
		}
		entries = append(entries, buildEntry(attrs, title, line))
		open = false
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if !sawHeader {
		return nil, ErrNotM3U
	}
	return entries, nil
}

func buildEntry(attrs map[string]string, title, url string) catalog.Entry {
	if title == "" {
		title = attrs["tvg-name"]
	}
	e := Categorize(title, url)
	e.Logo = attrs["tvg-logo"]
	e.Group = attrs["group-title"]
	if strings.TrimSpace(e.Group) == "" {
		e.Group = DefaultGroup
	}
	return e
}

// parseExtinf splits an EXTINF line into its key="value" attributes and the
// display title after the last comma.
func parseExtinf(line string) (attrs map[string]string, title string) {
	attrs = make(map[string]string)
	line = strings.TrimPrefix(line, "#EXTINF:")
	if idx := strings.LastIndex(line, ","); idx >= 0 {
		title = strings.TrimSpace(line[idx+1:])
		line = line[:idx]
	}
	for {
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		eq := strings.IndexByte(line, '=')
		if eq <= 0 {
			break
		}
		before := strings.TrimSpace(line[:eq])
		key := before
		if idx := strings.LastIndex(before, " "); idx >= 0 {
			key = strings.TrimSpace(before[idx+1:])
		}
		line = strings.TrimSpace(line[eq+1:])
		if len(line) < 2 {
			break
		}
		quote := line[0]
		if quote != '"' && quote != '\'' {
			break
		}
		line = line[1:]
		end := strings.IndexByte(line, quote)
		if end < 0 {
			break
		}
		attrs[key] = line[:end]
		line = line[end+1:]
	}
	return attrs, title
}
