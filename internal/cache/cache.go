// Package cache keeps downloaded corpus bodies on disk so repeated training
// runs over the same URLs do not refetch them.
package cache

import (
	"crypto/sha256"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultTTL applies to validatable responses (ETag/Last-Modified) that carry
// no explicit expiry.
const DefaultTTL = 5 * time.Minute

// DiskCache stores corpus bodies on disk, keyed by source URL.
// It honours Cache-Control and Expires headers.
type DiskCache struct {
	dir string
	ttl time.Duration
}

// New creates a DiskCache writing to dir. fallbackTTL replaces DefaultTTL
// when positive. Returns nil if dir is empty.
func New(dir string, fallbackTTL time.Duration) (*DiskCache, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	if fallbackTTL <= 0 {
		fallbackTTL = DefaultTTL
	}
	return &DiskCache{dir: dir, ttl: fallbackTTL}, nil
}

// directives parses a Cache-Control header into lowercased names mapped to
// their values. Valueless directives map to "".
func directives(header string) map[string]string {
	d := make(map[string]string)
	for _, part := range strings.Split(header, ",") {
		name, value, _ := strings.Cut(strings.TrimSpace(part), "=")
		if name == "" {
			continue
		}
		d[strings.ToLower(name)] = strings.Trim(value, `"`)
	}
	return d
}

// seconds returns the positive duration of a delta-seconds directive.
func seconds(d map[string]string, name string) (time.Duration, bool) {
	n, err := strconv.Atoi(d[name])
	if err != nil || n <= 0 {
		return 0, false
	}
	return time.Duration(n) * time.Second, true
}

// expiresIn reports the time left before the Expires header, if it is in the
// future.
func expiresIn(h http.Header) (time.Duration, bool) {
	at, err := http.ParseTime(h.Get("Expires"))
	if err != nil {
		return 0, false
	}
	left := time.Until(at)
	return left, left > 0
}

// IsCacheable reports whether a fetched corpus response may be stored.
func IsCacheable(resp *http.Response) bool {
	if resp.StatusCode/100 != 2 {
		return false
	}
	d := directives(resp.Header.Get("Cache-Control"))
	if _, ok := d["no-store"]; ok {
		return false
	}
	if _, ok := d["private"]; ok {
		return false
	}
	_, maxAge := d["max-age"]
	_, sMaxAge := d["s-maxage"]
	if maxAge || sMaxAge {
		return true
	}
	if _, ok := expiresIn(resp.Header); ok {
		return true
	}
	return resp.Header.Get("ETag") != "" || resp.Header.Get("Last-Modified") != ""
}

// TTL picks how long to keep a response: s-maxage, then max-age, then
// Expires, then the cache's fallback.
func (c *DiskCache) TTL(resp *http.Response) time.Duration {
	d := directives(resp.Header.Get("Cache-Control"))
	for _, name := range []string{"s-maxage", "max-age"} {
		if ttl, ok := seconds(d, name); ok {
			return ttl
		}
	}
	if ttl, ok := expiresIn(resp.Header); ok {
		return ttl
	}
	if c == nil {
		return DefaultTTL
	}
	return c.ttl
}

func keyFor(source string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(source)))
}

func (c *DiskCache) paths(source string) (body, meta string) {
	key := keyFor(source)
	return filepath.Join(c.dir, key+".corpus"), filepath.Join(c.dir, key+".meta")
}

// Get returns the cached body and Content-Type for source if present and not
// expired. Expired entries are removed.
func (c *DiskCache) Get(source string) (body []byte, contentType string, ok bool) {
	if c == nil {
		return nil, "", false
	}
	bodyPath, metaPath := c.paths(source)

	meta, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, "", false
	}
	stamp, contentType, _ := strings.Cut(string(meta), "\n")
	expiry, err := time.Parse(time.RFC3339, strings.TrimSpace(stamp))
	if err != nil || time.Now().After(expiry) {
		os.Remove(metaPath)
		os.Remove(bodyPath)
		return nil, "", false
	}

	body, err = os.ReadFile(bodyPath)
	if err != nil {
		return nil, "", false
	}
	return body, strings.TrimSpace(contentType), true
}

// Put stores body and its Content-Type for source until ttl elapses. The
// meta file holds the expiry on its first line and the Content-Type on the
// second.
func (c *DiskCache) Put(source string, body []byte, contentType string, ttl time.Duration) error {
	if c == nil {
		return nil
	}
	bodyPath, metaPath := c.paths(source)

	if err := os.WriteFile(bodyPath, body, 0o644); err != nil {
		return fmt.Errorf("writing cache body: %w", err)
	}
	meta := time.Now().Add(ttl).Format(time.RFC3339) + "\n" + contentType + "\n"
	if err := os.WriteFile(metaPath, []byte(meta), 0o644); err != nil {
		return fmt.Errorf("writing cache meta: %w", err)
	}
	return nil
}
