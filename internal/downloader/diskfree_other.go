//go:build !linux && !darwin && !freebsd && !windows

package downloader

func freeDiskSpace(path string) int64 {
	return -1
}
