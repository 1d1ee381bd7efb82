//go:build unix

package filelock

import "syscall"

// Filesystem magic numbers from statfs(2), trimmed to the two this module
// actually cares about: NFS and CIFS/SMB are the common network filesystems
// where rename(2) is not guaranteed atomic across a crash or a concurrent
// reader on another host, which is exactly the assumption lockrecord's
// atomic-write path and BasicLock's single-writer-per-path model both lean
// on. AFS/NCP/FUSE detection from the source this was adapted from is
// dropped: FUSE covers too many backends (some honor rename atomicity, some
// don't) to report as a single yes/no, and AFS/NCP are not filesystems this
// module has ever been asked to run a lock directory on.
const (
	nfsMagic  = 0x6969     // NFS_SUPER_MAGIC (also NFS4)
	cifsMagic = 0xff534d42 // CIFS_MAGIC_NUMBER
	smbMagic  = 0x517b     // SMB_SUPER_MAGIC
)

// checkRenameSafety reports whether dir sits on a filesystem where this
// module's atomic-rename write path cannot be trusted, and names that
// filesystem for logging. It returns false, "" on local disks and whenever
// detection itself fails — a failed check is not treated as a finding.
func checkRenameSafety(dir string) (onNetworkFS bool, fsName string) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(dir, &stat); err != nil {
		return false, ""
	}

	switch stat.Type {
	case nfsMagic:
		return true, "NFS"
	case cifsMagic, smbMagic:
		return true, "CIFS/SMB"
	default:
		return false, ""
	}
}
