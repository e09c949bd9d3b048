package config

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds catalog, browse server and provider settings.
// Load from env and/or a .env file via LoadEnvFile.
type Config struct {
	// Source is the playlist origin: an http(s) URL or a local file path.
	// When empty, it is built from the provider settings below.
	Source string

	// Provider (Xtream-style portals that expose get.php)
	ProviderBaseURL string // e.g. http://provider:8080
	ProviderUser    string
	ProviderPass    string

	// Paths
	PrefsDB    string // SQLite preferences database, e.g. ./m3ucat.db
	StateFile  string // fetch checkpoint, e.g. ./m3ucat.state.json
	MountPoint string // FUSE mount point for the catalog filesystem

	// Browse server
	Listen          string        // e.g. :5260
	RefreshInterval time.Duration // how often the catalog is rebuilt from the source
	CoverLimit      int           // max cover images sampled per folder
	RateRPS         int           // API rate limit, requests per second per client
	RateBurst       int

	// Catalog
	HotWindow time.Duration // entries newer than this are flagged hot; 0 disables

	// Fetch
	FetchTimeout time.Duration // HTTP timeout for playlist downloads
}

// Load reads config from environment. Call LoadEnvFile(".env") before Load()
// to use a .env file. If ProviderUser or ProviderPass are empty, Load tries
// M3UCAT_SUBSCRIPTION_FILE with "Username:" / "Password:" lines.
func Load() *Config {
	c := &Config{
		Source:          os.Getenv("M3UCAT_SOURCE"),
		ProviderBaseURL: os.Getenv("M3UCAT_PROVIDER_URL"),
		ProviderUser:    os.Getenv("M3UCAT_PROVIDER_USER"),
		ProviderPass:    os.Getenv("M3UCAT_PROVIDER_PASS"),
		PrefsDB:         getEnv("M3UCAT_PREFS_DB", "./m3ucat.db"),
		StateFile:       getEnv("M3UCAT_STATE_FILE", "./m3ucat.state.json"),
		MountPoint:      getEnv("M3UCAT_MOUNT", "/mnt/m3ucat"),
		Listen:          getEnv("M3UCAT_LISTEN", ":5260"),
		RefreshInterval: getEnvDuration("M3UCAT_REFRESH_INTERVAL", 6*time.Hour),
		CoverLimit:      getEnvInt("M3UCAT_COVER_LIMIT", 9),
		RateRPS:         getEnvInt("M3UCAT_RATE_RPS", 20),
		RateBurst:       getEnvInt("M3UCAT_RATE_BURST", 40),
		HotWindow:       getEnvDuration("M3UCAT_HOT_WINDOW", 7*24*time.Hour),
		FetchTimeout:    getEnvDuration("M3UCAT_FETCH_TIMEOUT", 90*time.Second),
	}
	// 0 is a valid setting (refresh only at startup); negative is not.
	if c.RefreshInterval < 0 {
		c.RefreshInterval = 6 * time.Hour
	}
	if c.CoverLimit <= 0 {
		c.CoverLimit = 9
	}
	if c.RateRPS <= 0 {
		c.RateRPS = 20
	}
	if c.RateBurst < c.RateRPS {
		c.RateBurst = 2 * c.RateRPS
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 90 * time.Second
	}
	if c.HotWindow < 0 {
		c.HotWindow = 0
	}
	// Subscription file fallback for portals that hand out creds in a text file.
	if c.ProviderUser == "" || c.ProviderPass == "" {
		if user, pass, err := readSubscriptionFile(os.Getenv("M3UCAT_SUBSCRIPTION_FILE")); err == nil {
			if c.ProviderUser == "" {
				c.ProviderUser = user
			}
			if c.ProviderPass == "" {
				c.ProviderPass = pass
			}
		}
	}
	return c
}

// SourceOrBuild returns the explicit Source if set, otherwise builds a get.php
// URL from ProviderBaseURL + user + pass. Empty when neither is configured.
func (c *Config) SourceOrBuild() string {
	if c.Source != "" {
		return c.Source
	}
	if c.ProviderBaseURL == "" || c.ProviderUser == "" || c.ProviderPass == "" {
		return ""
	}
	base := strings.TrimSuffix(c.ProviderBaseURL, "/")
	return base + "/get.php?username=" + url.QueryEscape(c.ProviderUser) +
		"&password=" + url.QueryEscape(c.ProviderPass) + "&type=m3u_plus&output=ts"
}

// readSubscriptionFile reads "Username: x" and "Password: x" lines from path.
func readSubscriptionFile(path string) (user, pass string, err error) {
	if path == "" {
		return "", "", os.ErrNotExist
	}
	path = filepath.Clean(path)
	f, err := os.Open(path)
	if err != nil {
		return "", "", err
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "Username:") {
			user = strings.TrimSpace(strings.TrimPrefix(line, "Username:"))
		} else if strings.HasPrefix(line, "Password:") {
			pass = strings.TrimSpace(strings.TrimPrefix(line, "Password:"))
		}
	}
	if err := sc.Err(); err != nil {
		return "", "", err
	}
	if user == "" || pass == "" {
		return "", "", fmt.Errorf("subscription file: missing Username or Password")
	}
	return user, pass, nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		n, _ := strconv.Atoi(v)
		return n
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
