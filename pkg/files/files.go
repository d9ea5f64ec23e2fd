// Package files prepares an app's output layout: conventional output
// directories and the optional auxiliary inputs copied under canonical names so
// downstream tooling can find them without knowing their original names.
//
// The package-level functions work on the host filesystem. Manager binds the
// same operations to any afero.Fs.
package files

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"blmne/pkg/config"
	"blmne/pkg/errs"
	"blmne/pkg/logger"
)

// DefaultOutputDirs are the directories every app is expected to produce.
var DefaultOutputDirs = []string{"out_dir", "out_figs", "out_report"}

type Manager struct {
	fs afero.Fs
}

func NewManager(fs afero.Fs) *Manager {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Manager{fs: fs}
}

var host = NewManager(afero.NewOsFs())

func EnsureOutputDirs(names ...string) error { return host.EnsureOutputDirs(names...) }

func ReadOptionalFiles(cfg *config.Config) (OptionalFiles, error) {
	return host.ReadOptionalFiles(cfg)
}

func ReadAndCopyOptionalFiles(cfg *config.Config, outDir string) (OptionalFiles, error) {
	return host.ReadAndCopyOptionalFiles(cfg, outDir)
}

func CopyOptionalFiles(desc OptionalFiles, outDir string) error {
	return host.CopyOptionalFiles(desc, outDir)
}

// EnsureOutputDirs creates every named directory (and parents). Existing
// directories are left alone; an existing non-directory is an error.
func (m *Manager) EnsureOutputDirs(names ...string) error {
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			return errs.Validation("output directory name cannot be empty")
		}
		info, err := m.fs.Stat(name)
		switch {
		case err == nil && info.IsDir():
			continue
		case err == nil:
			return errs.IO("output path %s exists and is not a directory", name)
		case !os.IsNotExist(err):
			return errs.FromOS(err, "checking output directory %s", name)
		}
		if err := m.fs.MkdirAll(name, 0o755); err != nil {
			return errs.FromOS(err, "creating output directory %s", name)
		}
		logger.Debugf("created output directory %s", name)
	}
	return nil
}

// ReadOptionalFiles resolves every optional-file role from cfg without copying.
//
// An existing <role>_override file replaces the base input. A configured file
// that does not exist is skipped with a warning and listed in Missing; the
// caller decides whether that aborts the run. Downstream keyword arguments
// come from cfg.Kwargs, which never carries these roles.
func (m *Manager) ReadOptionalFiles(cfg *config.Config) (OptionalFiles, error) {
	if cfg == nil {
		return OptionalFiles{}, errs.Validation("config is required to read optional files")
	}
	out := OptionalFiles{paths: make(map[Role]string, len(Roles))}
	for _, role := range Roles {
		configured := false
		if base, ok := cfg.Inputs.Lookup(string(role)); ok {
			configured = true
			exists, err := m.exists(base)
			if err != nil {
				return OptionalFiles{}, err
			}
			if exists {
				out.paths[role] = base
			} else {
				logger.Warnf("optional %s file %s not found, skipping", role.Label(), base)
			}
		}
		if key := role.OverrideKey(); key != "" {
			if override, ok := cfg.Inputs.Lookup(key); ok {
				configured = true
				exists, err := m.exists(override)
				if err != nil {
					return OptionalFiles{}, err
				}
				if exists {
					logger.Infof("using %s %s instead of the base %s file", key, override, role.Label())
					out.paths[role] = override
				} else {
					logger.Warnf("%s file %s not found, keeping the base input", key, override)
				}
			}
		}
		if _, ok := out.paths[role]; configured && !ok {
			out.Missing = append(out.Missing, role)
		}
	}
	return out, nil
}

// ReadAndCopyOptionalFiles resolves the optional files and copies the present
// ones into outDir. Re-running it over unchanged sources is safe.
func (m *Manager) ReadAndCopyOptionalFiles(cfg *config.Config, outDir string) (OptionalFiles, error) {
	desc, err := m.ReadOptionalFiles(cfg)
	if err != nil {
		return OptionalFiles{}, err
	}
	if err := m.CopyOptionalFiles(desc, outDir); err != nil {
		return OptionalFiles{}, err
	}
	return desc, nil
}

// CopyOptionalFiles copies each present entry to outDir under its canonical
// name. Absent roles are skipped.
func (m *Manager) CopyOptionalFiles(desc OptionalFiles, outDir string) error {
	if strings.TrimSpace(outDir) == "" {
		return errs.Validation("output directory cannot be empty")
	}
	present := desc.Present()
	if len(present) == 0 {
		return nil
	}
	if err := m.EnsureOutputDirs(outDir); err != nil {
		return err
	}
	for _, role := range present {
		src, _ := desc.Path(role)
		dst := filepath.Join(outDir, role.DestName())
		if err := m.copyFile(src, dst); err != nil {
			return err
		}
		logger.Debugf("copied %s file %s -> %s", role.Label(), src, dst)
	}
	return nil
}

func (m *Manager) exists(path string) (bool, error) {
	ok, err := afero.Exists(m.fs, path)
	if err != nil {
		return false, errs.FromOS(err, "checking %s", path)
	}
	return ok, nil
}

// copyFile writes src to a temp file next to dst and renames it into place,
// carrying over the source modification time.
func (m *Manager) copyFile(src, dst string) error {
	if samePath(src, dst) {
		return nil
	}
	in, err := m.fs.Open(src)
	if err != nil {
		return errs.FromOS(err, "opening %s", src)
	}
	defer func() {
		_ = in.Close()
	}()
	info, err := in.Stat()
	if err != nil {
		return errs.FromOS(err, "stat %s", src)
	}
	if info.IsDir() {
		return errs.Validation("optional file %s is a directory", src)
	}
	return m.writeAtomic(dst, info.Mode().Perm(), func(w io.Writer) error {
		_, err := io.Copy(w, in)
		return err
	}, func() error {
		return m.fs.Chtimes(dst, info.ModTime(), info.ModTime())
	})
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
