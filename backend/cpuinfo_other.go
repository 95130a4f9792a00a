//go:build !linux

package backend

func cpuModel() string {
	return ""
}
