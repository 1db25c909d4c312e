//go:build !linux

package hashstat

func availableMemory() uint64 { return 0 }
