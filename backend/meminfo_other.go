//go:build !linux

package backend

// systemMemory is unknown off Linux. Zero disables the allocation limit.
func systemMemory() uint64 {
	return 0
}
