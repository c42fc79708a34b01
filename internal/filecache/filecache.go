// Package filecache persists compiled artifacts across process restarts,
// keyed by a content hash of the source module.
package filecache

import (
	"crypto/sha256"
	"io"
)

// Cache is the interface for compilation caches. The compiled functions
// are always cached in memory for the lifetime of a Runtime, regardless
// of this interface; implementing Cache additionally persists them
// across process restarts.
//
// Since these methods are concurrently accessed, implementations must be
// goroutine-safe.
type Cache interface {
	// Get returns content that can be read as-is to reconstruct what was
	// passed to Add under the same key. ok is false, with a nil err, when
	// nothing is cached for key. content.Close() is called automatically
	// by the caller of Get.
	Get(key Key) (content io.ReadCloser, ok bool, err error)
	// Add stores content under key. content must be returned unmodified
	// by a later Get.
	Add(key Key, content io.Reader) (err error)
	// Delete purges the entry at key, e.g. after a compiler version bump
	// invalidates previously cached artifacts.
	Delete(key Key) (err error)
}

// Key is the 256-bit content hash identifying a cached entry.
type Key = [sha256.Size]byte
