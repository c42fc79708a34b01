//go:build windows

package platform

import "golang.org/x/sys/windows"

func MmapCodeSegment(size int) ([]byte, error) {
	if size == 0 {
		panic("BUG: MmapCodeSegment with zero length")
	}
	addr, err := windows.VirtualAlloc(0, uintptr(size), windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil {
		return nil, err
	}
	return unsafeSlice(addr, size), nil
}

func MprotectRX(b []byte) error {
	var old uint32
	return windows.VirtualProtect(addrOf(b), uintptr(len(b)), windows.PAGE_EXECUTE_READ, &old)
}

func MunmapCodeSegment(b []byte) error {
	if len(b) == 0 {
		panic("BUG: MunmapCodeSegment with zero length")
	}
	return windows.VirtualFree(addrOf(b), 0, windows.MEM_RELEASE)
}
