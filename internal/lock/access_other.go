//go:build !unix

package lock

import "os"

// dirWritable probes dir by creating and removing a temporary file, since
// there is no access(2) equivalent here.
func dirWritable(dir string) bool {
	f, err := os.CreateTemp(dir, ".fslock-probe-*")
	if err != nil {
		return false
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return true
}
