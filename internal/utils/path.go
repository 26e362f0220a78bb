package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/charmbracelet/log"
)

// PathResolver finds model and count files given on the command line,
// trying the working directory, the executable directory and the user data
// directory in that order.
type PathResolver struct {
	executableDir string
	dataDir       string
}

// NewPathResolver creates a resolver for appName's data directory.
func NewPathResolver(appName string) (*PathResolver, error) {
	execPath, err := os.Executable()
	if err != nil {
		return nil, err
	}
	if resolved, err := filepath.EvalSymlinks(execPath); err == nil {
		execPath = resolved
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Warnf("Could not determine home directory: %v", err)
		homeDir = os.TempDir()
	}

	pr := newPathResolver(filepath.Dir(execPath), dataDirFor(homeDir, appName))
	log.Debugf("PathResolver initialized: execDir=%s, dataDir=%s", pr.executableDir, pr.dataDir)
	return pr, nil
}

func newPathResolver(execDir, dataDir string) *PathResolver {
	return &PathResolver{executableDir: execDir, dataDir: dataDir}
}

// dataDirFor returns the platform data directory for appName
func dataDirFor(homeDir, appName string) string {
	switch runtime.GOOS {
	case "linux":
		if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
			return filepath.Join(dataHome, appName)
		}
		return filepath.Join(homeDir, ".local", "share", appName)
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, appName)
		}
		return filepath.Join(homeDir, "AppData", "Roaming", appName)
	default:
		return filepath.Join(homeDir, ".config", appName, "data")
	}
}

// DataDir returns the user data directory.
func (pr *PathResolver) DataDir() string {
	return pr.dataDir
}

// Candidates lists where Resolve looks for name.
func (pr *PathResolver) Candidates(name string) []string {
	if filepath.IsAbs(name) {
		return []string{name}
	}
	candidates := []string{name}
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, name))
	}
	return append(candidates,
		filepath.Join(pr.executableDir, name),
		filepath.Join(pr.dataDir, name),
	)
}

// Resolve returns the first existing candidate for name.
func (pr *PathResolver) Resolve(name string) (string, error) {
	for _, path := range pr.Candidates(name) {
		if FileExists(path) {
			log.Debugf("Resolved %s to %s", name, path)
			return path, nil
		}
		log.Debugf("Path candidate not found: %s", path)
	}
	return "", fmt.Errorf("%s: %w", name, os.ErrNotExist)
}
