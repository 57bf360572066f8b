//go:build linux

package watcher

import (
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Filesystem magic numbers from statfs(2).
const (
	nfsSuperMagic   = 0x6969
	smbSuperMagic   = 0x517B
	smb2SuperMagic  = 0xFE534D42
	cifsMagicNumber = 0xFF534D42
	fuseSuperMagic  = 0x65735546
)

func detectFilesystemType(path string) FilesystemType {
	var st unix.Statfs_t
	// The database may not exist yet; its directory decides.
	if err := unix.Statfs(path, &st); err != nil {
		if err := unix.Statfs(filepath.Dir(path), &st); err != nil {
			return FSTypeUnknown
		}
	}
	switch uint32(st.Type) {
	case nfsSuperMagic:
		return FSTypeNFS
	case smbSuperMagic, smb2SuperMagic, cifsMagicNumber:
		return FSTypeSMB
	case fuseSuperMagic:
		// sshfs is the common FUSE mount for remote files; it cannot be told
		// apart from other FUSE filesystems via statfs.
		return FSTypeFUSE
	default:
		return FSTypeLocal
	}
}
