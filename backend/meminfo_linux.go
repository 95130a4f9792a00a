//go:build linux

package backend

import (
	"golang.org/x/sys/unix"
)

// systemMemory returns the total RAM reported by sysinfo(2), or 0 if it
// cannot be read.
func systemMemory() uint64 {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0
	}

	return uint64(info.Totalram) * uint64(info.Unit)
}
