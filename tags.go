package secs

import (
	"strings"
)

// Tag constants
const (
	tagName = "secs"
)

// Tag modifiers
const (
	modRes = "res" // Resource injection
	modMut = "mut" // Exclusive access
)

// tagInfo holds parsed tag information.
type tagInfo struct {
	Resource bool // secs:"res"
	Mutable  bool // secs:"mut"
}

// parseTag parses a secs struct tag.
func parseTag(tag string) tagInfo {
	info := tagInfo{}
	if tag == "" {
		return info
	}

	parts := strings.SplitSeq(tag, ",")
	for part := range parts {
		switch strings.TrimSpace(part) {
		case modRes:
			info.Resource = true
		case modMut:
			info.Mutable = true
		}
	}

	return info
}
