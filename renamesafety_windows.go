//go:build windows

package filelock

// checkRenameSafety reports whether dir sits on a filesystem where this
// module's atomic-rename write path cannot be trusted. Detection is not
// implemented on Windows; it always reports safe.
func checkRenameSafety(_ string) (onNetworkFS bool, fsName string) {
	return false, ""
}
