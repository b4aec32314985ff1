// Package storage holds helpers shared by artifact store implementations.
package storage

import (
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/restoinsight/insights-server/internal/model"
)

// Prefix is the root under which all report artifacts are stored.
const Prefix = "reports"

// ObjectKey builds the key of an owner's artifact. Names that would not
// resolve to a direct child of the owner's prefix are rejected with
// model.ErrNotFound.
func ObjectKey(ownerID uuid.UUID, name string) (string, error) {
	if !ValidName(name) {
		return "", model.ErrNotFound
	}

	prefix := OwnerPrefix(ownerID)
	key := path.Join(prefix, name)
	if !strings.HasPrefix(key, prefix) || path.Dir(key) != strings.TrimSuffix(prefix, "/") {
		return "", model.ErrNotFound
	}

	return key, nil
}

// OwnerPrefix returns "reports/<owner>/".
func OwnerPrefix(ownerID uuid.UUID) string {
	return Prefix + "/" + ownerID.String() + "/"
}

// ValidName reports whether name is a plain file name.
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, "/\\\x00") || strings.Contains(name, "..") {
		return false
	}
	return true
}
