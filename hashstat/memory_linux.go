//go:build linux

package hashstat

import "golang.org/x/sys/unix"

// availableMemory reports free plus buffer memory, or 0 if it is unknown.
func availableMemory() uint64 {
	var si unix.Sysinfo_t
	if err := unix.Sysinfo(&si); err != nil {
		return 0
	}
	return (uint64(si.Freeram) + uint64(si.Bufferram)) * uint64(si.Unit)
}
