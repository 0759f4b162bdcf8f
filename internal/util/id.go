// Package util holds small shared helpers.
package util

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID returns an unguessable random identifier, optionally prefixed.
// Renderable handle ids are minted here; unguessable matters because
// the id is the only access control on the document bytes endpoint.
func NewID(prefix string) string {
	bytes := make([]byte, 16)
	_, _ = rand.Read(bytes)
	if prefix == "" {
		return hex.EncodeToString(bytes)
	}
	return prefix + "_" + hex.EncodeToString(bytes)
}
