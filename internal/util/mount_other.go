//go:build !linux && !darwin

package util

import "syscall"

func platformMount(path string, stat *syscall.Statfs_t) MountInfo {
	return MountInfo{}
}
