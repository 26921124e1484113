// Package sniff validates uploaded binaries by their actual signature bytes
// instead of trusting the client-declared content type.
package sniff

import (
	"github.com/gabriel-vasile/mimetype"
)

// Accepted document kinds. Anything whose signature resolves outside this
// set is rejected regardless of what the client declared.
var allowed = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
}

// Content types treated as equivalent when comparing the declared type
// against the sniffed one.
var aliases = map[string]string{
	"image/jpg":       "image/jpeg",
	"image/jpeg":      "image/jpeg",
	"image/png":       "image/png",
	"image/gif":       "image/gif",
	"application/pdf": "application/pdf",
}

// Detect returns the content type matching data's signature bytes, or ""
// when the payload is not one of the accepted document kinds.
func Detect(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	mime := mimetype.Detect(data)
	for mt := mime; mt != nil; mt = mt.Parent() {
		if allowed[mt.String()] {
			return mt.String()
		}
	}
	return ""
}

// Matches reports whether the declared content type agrees with the type
// detected from the payload bytes.
func Matches(detected, declared string) bool {
	if detected == "" {
		return false
	}
	normalized, ok := aliases[declared]
	if !ok {
		return false
	}
	return normalized == detected
}
