//go:build linux || darwin || freebsd

package platform

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// MmapCodeSegment allocates size bytes of anonymous, read-write memory
// suitable for holding freshly generated machine code. Callers write the
// bytes, then call MprotectRX once to flip it executable; splitting the
// steps avoids ever holding a writable+executable mapping.
func MmapCodeSegment(size int) ([]byte, error) {
	if size == 0 {
		panic("BUG: MmapCodeSegment with zero length")
	}
	b, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("mmap: %w", err)
	}
	return b, nil
}

// MprotectRX switches b, previously returned by MmapCodeSegment, from
// read-write to read-execute.
func MprotectRX(b []byte) error {
	if err := unix.Mprotect(b, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		return fmt.Errorf("mprotect: %w", err)
	}
	return nil
}

// MunmapCodeSegment releases a mapping previously returned by
// MmapCodeSegment.
func MunmapCodeSegment(b []byte) error {
	if len(b) == 0 {
		panic("BUG: MunmapCodeSegment with zero length")
	}
	return unix.Munmap(b)
}
