package filelock

import "github.com/retrohook/filelock/internal/diag"

// CheckWritable verifies that dir — typically the directory a lock file
// will live in — is writable, creating it first if necessary. Callers that
// want to fail fast before constructing a handle, rather than discovering a
// permissions problem on first TryAcquireFor, can use this as a pre-flight
// check.
func CheckWritable(dir string) (ok bool, message string) {
	result := diag.CheckWritable(dir)
	return result.Status == diag.StatusOK, result.Message
}
