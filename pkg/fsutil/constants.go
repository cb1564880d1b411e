// Package fsutil holds the file system helpers shared by solvent: the
// platform directories it keeps its state in and atomic file replacement.
package fsutil

// File and directory permission constants.
const (
	FileModeDefault = 0o644 // -rw-r--r--
	FileModeSecure  = 0o600 // -rw-------: config files may carry repository keys

	DirModeDefault = 0o755 // drwxr-xr-x
	DirModePrivate = 0o700 // drwx------
)
