// Package fileid provides deterministic identifiers for source documents, used to
// name extracted text files so that two sources with the same base name never collide.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
)

const (
	prefix = "file:"
	// ShortLen is the number of hex characters kept by Short.
	ShortLen = 12
)

// FileDocID returns a stable ID for the given absolute path.
// Same path always yields the same ID.
func FileDocID(absolutePath string) string {
	return prefix + digest(absolutePath)
}

// Short returns the first ShortLen hex characters of the path digest, for use in file names.
func Short(absolutePath string) string {
	return digest(absolutePath)[:ShortLen]
}

func digest(path string) string {
	normalized := filepath.Clean(path)
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:])
}
