package peer

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Normalize canonicalizes a peer address: lowercase scheme and host, http
// by default, default ports stripped, trailing slash stripped. Two
// addresses naming the same endpoint normalize to the same string.
func Normalize(addr string) (string, error) {
	trimmed := strings.TrimSpace(addr)
	if trimmed == "" {
		return "", fmt.Errorf("empty address")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", addr, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("address %q has no host", addr)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}

	hostport := host
	if port != "" {
		hostport = host + ":" + port
	}

	path := strings.TrimRight(u.Path, "/")
	return scheme + "://" + hostport + path, nil
}

// Set is a deduplicated collection of canonical peer addresses. It is a
// plain value owned by a single writer (the registry's sync cycle); the
// owner guards it and hands out copies, never the live map.
type Set struct {
	addrs map[string]struct{}
}

// NewSet creates an empty set.
func NewSet() *Set {
	return &Set{addrs: make(map[string]struct{})}
}

// Add inserts an address after normalization. Adding an address that
// normalizes to an existing entry is a no-op.
func (s *Set) Add(addr string) error {
	canonical, err := Normalize(addr)
	if err != nil {
		return err
	}
	s.addrs[canonical] = struct{}{}
	return nil
}

// Has reports whether an address (after normalization) is in the set.
func (s *Set) Has(addr string) bool {
	canonical, err := Normalize(addr)
	if err != nil {
		return false
	}
	_, ok := s.addrs[canonical]
	return ok
}

// Remove deletes an address (after normalization) from the set.
func (s *Set) Remove(addr string) {
	canonical, err := Normalize(addr)
	if err != nil {
		return
	}
	delete(s.addrs, canonical)
}

// Len returns the number of addresses.
func (s *Set) Len() int {
	return len(s.addrs)
}

// Addresses returns a sorted copy of the set.
func (s *Set) Addresses() []string {
	out := make([]string, 0, len(s.addrs))
	for a := range s.addrs {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy of the set.
func (s *Set) Clone() *Set {
	c := NewSet()
	for a := range s.addrs {
		c.addrs[a] = struct{}{}
	}
	return c
}
