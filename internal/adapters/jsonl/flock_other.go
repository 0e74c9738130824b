//go:build !unix

package jsonl

import "os"

// lockFile only creates the lock file on platforms without flock; the
// in-process mutex still serializes writers within this process.
func lockFile(path string, exclusive bool) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
}

func unlockFile(f *os.File) {
	f.Close()
}
