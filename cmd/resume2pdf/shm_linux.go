//go:build linux

package main

import "golang.org/x/sys/unix"

// devShmSize returns the size of /dev/shm in bytes, or 0 if unknown.
func devShmSize() int64 {
	var st unix.Statfs_t
	if err := unix.Statfs("/dev/shm", &st); err != nil {
		return 0
	}
	return int64(st.Blocks) * int64(st.Bsize) // #nosec G115 -- block counts fit in int64
}
