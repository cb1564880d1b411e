package fsutil

import (
	"os"
	"path/filepath"
)

// AppName is the directory name used below the platform directories.
const AppName = "solvent"

// GetCacheDir returns the platform-specific cache directory for the application.
// On Linux: ~/.cache/solvent/
// On macOS: ~/Library/Caches/solvent/
// On Windows: %LOCALAPPDATA%\solvent\
func GetCacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, AppName), nil
}

// GetConfigDir returns the platform-specific configuration directory.
func GetConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, AppName), nil
}

// GetDataDir returns the data directory, honouring XDG_DATA_HOME.
// Without it, ~/.local/share/solvent is used.
func GetDataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", AppName), nil
}

// GetInstalledPath returns the default location of the installed repository.
// Format: <data_dir>/installed.solv
func GetInstalledPath() (string, error) {
	dataDir, err := GetDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "installed.solv"), nil
}

// EnsureDir creates path and its parents with DirModeDefault.
func EnsureDir(path string) error {
	return os.MkdirAll(path, DirModeDefault)
}

// EnsureFileDir creates the parent directory of filePath.
func EnsureFileDir(filePath string) error {
	return EnsureDir(filepath.Dir(filePath))
}
