// Package api contains file helpers shared by the versioned configuration
// types.
package api

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/not-in-stock/terminal-profiles-hm/pkg/yaml"
)

// AppName names the per-user configuration and cache directories.
const AppName = "termpack"

// ProjectConfigNames are the file names searched for by [FindConfigFile] when
// looking for a configuration next to an input file.
var ProjectConfigNames = []string{".termpack.yaml", ".termpack.yml"}

var (
	// ErrIsDirectory is returned when a file path names a directory.
	ErrIsDirectory = errors.New("path is a directory")
	// ErrIrregularFile is returned for sockets, devices and other non-regular
	// files.
	ErrIrregularFile = errors.New("not a regular file")
)

// GetConfigPath returns the path of filename in the termpack directory under
// $XDG_CONFIG_HOME, or ~/.config when that is unset. Without a home
// directory the system temporary directory is used.
func GetConfigPath(filename string) string {
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		return filepath.Join(xdgHome, AppName, filename)
	}

	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".config", AppName, filename)
	}

	path := filepath.Join(os.TempDir(), AppName, filename)
	slog.Warn("no user config directory, using temp path",
		slog.String("path", path),
		slog.Any("err", err),
	)

	return path
}

// regularFile reports whether a regular file exists at path. Paths that
// exist but are not regular files are errors.
func regularFile(path string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("stat %s: %w", path, err)
	case info.IsDir():
		return false, fmt.Errorf("%s: %w", path, ErrIsDirectory)
	case !info.Mode().IsRegular():
		return false, fmt.Errorf("%s: %w", path, ErrIrregularFile)
	}

	return true, nil
}

// ReadFile reads the regular file at path.
func ReadFile(path string) ([]byte, error) {
	ok, err := regularFile(path)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, fmt.Errorf("read %s: %w", path, fs.ErrNotExist)
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: Paths come from flags and config lookup.
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// MarshalYAML serializes obj as YAML.
func MarshalYAML(obj any) ([]byte, error) {
	return yaml.Marshal(obj) //nolint:wrapcheck // Already wrapped.
}

// writeFile creates the parent directories of path and writes data to it.
func writeFile(path string, data []byte) error {
	err := os.MkdirAll(filepath.Dir(path), 0o700)
	if err != nil {
		return fmt.Errorf("create directories: %w", err)
	}

	err = os.WriteFile(path, data, 0o600)
	if err != nil {
		return fmt.Errorf("write file: %w", err)
	}

	return nil
}

// WriteIfNotExists writes data to path unless a file is already there.
func WriteIfNotExists(path string, data []byte) error {
	exists, err := regularFile(path)
	if err != nil || exists {
		return err
	}

	return writeFile(path, data)
}

// ancestors yields dir followed by each of its parents, ending at the root.
func ancestors(dir string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for {
			if !yield(dir) {
				return
			}

			parent := filepath.Dir(dir)
			if parent == dir {
				return
			}

			dir = parent
		}
	}
}

// FindConfigFile looks for any of fileNames in the directory of targetPath
// (or targetPath itself, when it is a directory) and then in each parent
// directory. Names are tried in order within a directory. It returns an empty
// path when nothing is found.
func FindConfigFile(targetPath string, fileNames []string) (string, error) {
	absPath, err := filepath.Abs(targetPath)
	if err != nil {
		return "", fmt.Errorf("get absolute path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return "", fmt.Errorf("stat path: %w", err)
	}

	start := absPath
	if !info.IsDir() {
		start = filepath.Dir(absPath)
	}

	for dir := range ancestors(start) {
		for _, name := range fileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
	}

	return "", nil
}

// BackupPath returns the path an existing file at path is moved to before it
// is replaced at time now.
func BackupPath(path string, now time.Time) string {
	return fmt.Sprintf("%s.%d.old", path, now.UnixNano())
}

// WriteDefaultFile writes defaultData to path if no file exists there. With
// force, an existing file is first moved to its [BackupPath]. kind describes
// the file in logs and errors.
func WriteDefaultFile(path string, defaultData []byte, force bool, kind string) error {
	exists, err := regularFile(path)
	if err != nil {
		return err
	}

	logger := slog.With(slog.String("type", kind), slog.String("path", path))

	if exists && !force {
		logger.Debug("file already exists, skipping write")

		return nil
	}

	if exists {
		backup := BackupPath(path, time.Now())
		logger.Info("backing up existing file", slog.String("backup", backup))

		err = os.Rename(path, backup)
		if err != nil {
			return fmt.Errorf("back up %s file: %w", kind, err)
		}
	}

	logger.Info("write default file")

	err = writeFile(path, defaultData)
	if err != nil {
		return fmt.Errorf("write %s file: %w", kind, err)
	}

	return nil
}
