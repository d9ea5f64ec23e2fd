package files

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/afero"

	"blmne/pkg/errs"
)

// WriteFileAtomic replaces path with content on the host filesystem. Readers
// see either the old or the new file, never a partial write.
func WriteFileAtomic(path string, content []byte, mode os.FileMode) error {
	return host.WriteFileAtomic(path, content, mode)
}

func (m *Manager) WriteFileAtomic(path string, content []byte, mode os.FileMode) error {
	return m.writeAtomic(path, mode, func(w io.Writer) error {
		_, err := io.Copy(w, bytes.NewReader(content))
		return err
	}, nil)
}

func (m *Manager) writeAtomic(path string, mode os.FileMode, write func(io.Writer) error, after func() error) error {
	parent := filepath.Dir(path)
	base := filepath.Base(path)

	tempFile, err := afero.TempFile(m.fs, parent, "."+base+".tmp-*")
	if err != nil {
		return errs.FromOS(err, "create temp file for %s", path)
	}
	tempPath := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = m.fs.Remove(tempPath)
		}
	}()

	if err := write(tempFile); err != nil {
		_ = tempFile.Close()
		return errs.IO("write %s: %v", path, err)
	}
	if err := tempFile.Sync(); err != nil {
		_ = tempFile.Close()
		return errs.IO("sync %s: %v", path, err)
	}
	if err := tempFile.Close(); err != nil {
		return errs.IO("close temp file for %s: %v", path, err)
	}
	if err := m.fs.Chmod(tempPath, mode); err != nil {
		return errs.IO("chmod %s: %v", path, err)
	}

	if err := m.fs.Rename(tempPath, path); err != nil {
		if runtime.GOOS != "windows" {
			return errs.IO("rename into %s: %v", path, err)
		}
		if removeErr := m.fs.Remove(path); removeErr != nil && !os.IsNotExist(removeErr) {
			return errs.IO("remove %s before rename: %v", path, removeErr)
		}
		if renameErr := m.fs.Rename(tempPath, path); renameErr != nil {
			return errs.IO("rename into %s after remove: %v", path, renameErr)
		}
	}
	cleanup = false

	if after != nil {
		if err := after(); err != nil {
			return errs.IO("finalize %s: %v", path, err)
		}
	}
	return nil
}
