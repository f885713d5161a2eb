//go:build darwin

package util

import (
	"strings"
	"syscall"
)

var networkFSTypes = []string{"nfs", "smbfs", "afpfs", "cifs", "webdav", "osxfuse", "macfuse"}

func platformMount(path string, stat *syscall.Statfs_t) MountInfo {
	info := MountInfo{
		FSType:     strings.ToLower(cString(stat.Fstypename[:])),
		MountPoint: cString(stat.Mntonname[:]),
	}
	for _, n := range networkFSTypes {
		if strings.Contains(info.FSType, n) {
			info.Network = true
			break
		}
	}
	return info
}

// cString converts a NUL-terminated int8 array
func cString(arr []int8) string {
	b := make([]byte, 0, len(arr))
	for _, c := range arr {
		if c == 0 {
			break
		}
		b = append(b, byte(c))
	}
	return string(b)
}
