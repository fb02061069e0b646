// Package bytes formats byte counts for logs.
package bytes

import "fmt"

const (
	KB = 1024
	MB = KB * 1024
	GB = MB * 1024
	TB = GB * 1024
)

func FmtMem(bytes uint64) string {
	switch {
	case bytes >= TB:
		return fmt.Sprintf("%dTB %dGB", bytes/TB, bytes%TB/GB)
	case bytes >= GB:
		return fmt.Sprintf("%dGB %dMB", bytes/GB, bytes%GB/MB)
	case bytes >= MB:
		return fmt.Sprintf("%dMB %dKB", bytes/MB, bytes%MB/KB)
	case bytes >= KB:
		return fmt.Sprintf("%dKB %dB", bytes/KB, bytes%KB)
	default:
		return fmt.Sprintf("%dB", bytes)
	}
}

// FmtDelta formats a signed change in memory, e.g. "+1KB 0B" or "-512B".
func FmtDelta(delta int64) string {
	if delta < 0 {
		return "-" + FmtMem(uint64(-delta))
	}
	return "+" + FmtMem(uint64(delta))
}
