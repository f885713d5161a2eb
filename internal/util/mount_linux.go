//go:build linux

package util

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// Linux VFS magic numbers of network filesystems
var networkMagic = map[uint32]string{
	0x6969:     "nfs",
	0xff534d42: "cifs",
	0x517b:     "smb",
	0xfe534d42: "smb2",
	0x564c:     "ncp",
}

var networkFSTypes = []string{"nfs", "cifs", "smb", "ncpfs", "fuse.sshfs", "fuse.rclone", "9p"}

func platformMount(path string, stat *syscall.Statfs_t) MountInfo {
	var info MountInfo
	if proto, ok := networkMagic[uint32(stat.Type)]; ok {
		info.Network = true
		info.FSType = proto
	}

	f, err := os.Open("/proc/mounts")
	if err != nil {
		return info
	}
	defer f.Close()

	mounts, err := readMounts(f)
	if err != nil {
		return info
	}

	if mp, fsType := longestMount(mounts, path); mp != "" {
		info.MountPoint = mp
		info.FSType = fsType
		if isNetworkFSType(fsType) {
			info.Network = true
		}
	}
	return info
}

// readMounts parses /proc/mounts lines into mount point -> filesystem type
func readMounts(r io.Reader) (map[string]string, error) {
	mounts := make(map[string]string)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		// device mountpoint fstype options dump pass
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		mounts[fields[1]] = fields[2]
	}
	return mounts, scanner.Err()
}

func longestMount(mounts map[string]string, path string) (string, string) {
	best, bestType := "", ""
	for mp, fsType := range mounts {
		if !within(mp, path) || len(mp) <= len(best) {
			continue
		}
		best, bestType = mp, fsType
	}
	return best, bestType
}

func within(mountPoint, path string) bool {
	if mountPoint == "/" {
		return true
	}
	rel, err := filepath.Rel(mountPoint, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, "../")
}

func isNetworkFSType(fsType string) bool {
	fsType = strings.ToLower(fsType)
	for _, n := range networkFSTypes {
		if strings.HasPrefix(fsType, n) {
			return true
		}
	}
	return false
}
