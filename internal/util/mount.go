package util

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// MountInfo describes the filesystem that holds a path
type MountInfo struct {
	Network    bool   // network-mounted (NFS, SMB/CIFS, sshfs, ...)
	FSType     string // filesystem type, empty when unknown
	MountPoint string // mount point, empty when unknown
}

// StatMount reports the filesystem of path. A path that does not exist yet
// is resolved through its nearest existing parent.
func StatMount(path string) (MountInfo, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return MountInfo{}, fmt.Errorf("failed to get absolute path: %w", err)
	}

	for {
		if _, err := os.Stat(absPath); err == nil {
			break
		}
		parent := filepath.Dir(absPath)
		if parent == absPath {
			return MountInfo{}, fmt.Errorf("no existing parent for %s", path)
		}
		absPath = parent
	}

	var stat syscall.Statfs_t
	if err := syscall.Statfs(absPath, &stat); err != nil {
		return MountInfo{}, fmt.Errorf("failed to stat filesystem: %w", err)
	}

	return platformMount(absPath, &stat), nil
}

// OnNetworkFS reports whether path lives on a network filesystem
func OnNetworkFS(path string) bool {
	info, err := StatMount(path)
	return err == nil && info.Network
}
