//go:build !linux && !darwin && !windows
// +build !linux,!darwin,!windows

package handler

// getDiskStats reports nothing on platforms without a statfs binding.
func getDiskStats(path string) (total, free, used int64, usedPct float64) {
	return 0, 0, 0, 0
}
