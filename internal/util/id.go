package util

import (
	"strings"

	"github.com/google/uuid"
)

// NewID returns a random UUID, optionally namespaced as "<prefix>_<uuid>".
func NewID(prefix string) string {
	id := uuid.NewString()
	if prefix == "" {
		return id
	}
	return prefix + "_" + id
}

// ValidID reports whether id is a (possibly prefixed) UUID produced by NewID.
func ValidID(id, prefix string) bool {
	if prefix != "" {
		rest, ok := strings.CutPrefix(id, prefix+"_")
		if !ok {
			return false
		}
		id = rest
	}
	_, err := uuid.Parse(id)
	return err == nil
}
