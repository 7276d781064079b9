package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// ErrExists is returned by WriteExclusive when the target already exists.
var ErrExists = fs.ErrExist

// WriteExclusive creates path and writes data to it, failing with ErrExists
// if the file is already present. A partially written file is removed.
func WriteExclusive(path string, data []byte, mode os.FileMode) error {
	out, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, mode)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("create %s: %w", path, ErrExists)
		}
		return err
	}

	if _, err := out.Write(data); err != nil {
		_ = out.Close()
		_ = os.Remove(path)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
