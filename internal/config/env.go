package config

import (
	"os"
	"path/filepath"
	"strings"
)

// LoadEnvFile exports every KEY=value line from path into the process
// environment. Blank lines, # comments and lines without a key are skipped,
// and single or double quotes around a value are stripped. A missing file
// is fine; callers attempt ".env" unconditionally.
func LoadEnvFile(path string) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, raw := range strings.Split(string(data), "\n") {
		if key, value, ok := parseEnvLine(raw); ok {
			os.Setenv(key, value)
		}
	}
	return nil
}

func parseEnvLine(raw string) (key, value string, ok bool) {
	line := strings.TrimSpace(raw)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}
	key, value, found := strings.Cut(line, "=")
	key = strings.TrimSpace(key)
	if !found || key == "" {
		return "", "", false
	}
	value = strings.TrimSpace(value)
	for _, q := range []string{`"`, "'"} {
		if len(value) >= 2 && strings.HasPrefix(value, q) && strings.HasSuffix(value, q) {
			value = strings.TrimSuffix(strings.TrimPrefix(value, q), q)
			break
		}
	}
	return key, value, true
}
