// Package fileops provides the small set of filesystem helpers the template
// store and pack import rely on: path validation, atomic copies, and a flat
// markdown directory scan.
package fileops

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// ExpandPath expands a leading ~/ to the user's home directory. Paths that
// do not start with ~/ are returned unchanged.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// ValidatePathSecurity rejects paths with traversal sequences and absolute
// paths that point into reserved system locations. It performs no filesystem
// access beyond symlink resolution for the reserved-directory check.
func ValidatePathSecurity(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("path cannot be empty")
	}

	if strings.Contains(path, "..") || strings.Contains(filepath.Clean(path), "..") {
		return fmt.Errorf("path traversal not allowed")
	}

	if filepath.IsAbs(path) && IsReservedDirectory(filepath.Clean(path)) {
		return fmt.Errorf("path points into a reserved system directory")
	}

	return nil
}

// SanitizeFilename reduces a name to a safe base filename: path components
// and traversal sequences are stripped, and the result must be non-empty.
func SanitizeFilename(filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("filename cannot be empty")
	}

	clean := filepath.Base(filename)
	clean = strings.ReplaceAll(clean, "..", "")
	clean = strings.TrimSpace(clean)

	if clean == "" || clean == "." || clean == string(filepath.Separator) {
		return "", fmt.Errorf("invalid filename after sanitization: %q", filename)
	}
	if strings.ContainsAny(clean, `/`) {
		return "", fmt.Errorf("filename contains path separators: %q", clean)
	}

	return clean, nil
}

// IsReservedDirectory reports whether path is, or sits inside, a system
// location that application data must never be written to. Symlinks are
// resolved before comparison; user temp directories are exempt.
func IsReservedDirectory(path string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return true
	}
	if resolved, err := filepath.EvalSymlinks(absPath); err == nil {
		absPath = resolved
	}
	absPath = filepath.Clean(absPath)

	if absPath == "/" || absPath == `\` || absPath == `C:\` {
		return true
	}

	for _, reserved := range reservedDirectories() {
		reservedAbs, err := filepath.Abs(reserved)
		if err != nil {
			continue
		}
		if resolved, err := filepath.EvalSymlinks(reservedAbs); err == nil {
			reservedAbs = resolved
		}
		reservedAbs = filepath.Clean(reservedAbs)

		if strings.EqualFold(absPath, reservedAbs) {
			return true
		}
		prefix := strings.ToLower(reservedAbs) + string(os.PathSeparator)
		if strings.HasPrefix(strings.ToLower(absPath), prefix) && !isUserTempDirectory(absPath) {
			return true
		}
	}

	return false
}

func reservedDirectories() []string {
	var dirs []string

	switch runtime.GOOS {
	case "windows":
		dirs = []string{
			`C:\Windows`,
			`C:\Program Files`,
			`C:\Program Files (x86)`,
			`C:\System32`,
		}
	case "darwin":
		dirs = []string{
			"/System", "/usr/bin", "/usr/sbin", "/bin", "/sbin", "/etc",
			"/var/log", "/var/db", "/var/root", "/private/etc",
		}
	default:
		dirs = []string{
			"/bin", "/sbin", "/usr/bin", "/usr/sbin", "/etc", "/boot",
			"/dev", "/proc", "/sys", "/var/log", "/var/lib", "/root",
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".ssh"), filepath.Join(home, ".gnupg"))
	}

	return dirs
}

// isUserTempDirectory exempts per-user temp locations that live under
// otherwise reserved trees (macOS keeps them under /var/folders).
func isUserTempDirectory(path string) bool {
	if runtime.GOOS == "darwin" && strings.Contains(path, "/var/folders/") {
		return true
	}
	if runtime.GOOS == "linux" && (path == "/tmp" || strings.HasPrefix(path, "/tmp/")) {
		return true
	}
	return strings.HasPrefix(filepath.Clean(path), filepath.Clean(os.TempDir()))
}

// EnsureDirectoryExists creates the directory and any missing parents.
// Safe to call when the directory already exists.
func EnsureDirectoryExists(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	return nil
}

// AtomicCopy copies src to dest through a temp file in the destination
// directory and a rename, so dest is either fully written or untouched.
// Existing destination files are overwritten.
func AtomicCopy(srcPath, destPath string) error {
	srcFile, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer srcFile.Close()

	tempPath := destPath + ".tmp"
	tempFile, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	var copied bool
	defer func() {
		tempFile.Close()
		if !copied {
			os.Remove(tempPath)
		}
	}()

	if _, err := io.Copy(tempFile, srcFile); err != nil {
		return fmt.Errorf("failed to copy file contents: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	if err := os.Rename(tempPath, destPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	copied = true
	return nil
}

// FileInfo describes one file found by ScanMarkdown.
type FileInfo struct {
	Name string // base name, e.g. "create_new_post.md"
	Path string // absolute or dir-relative full path
	Size int64
}

// ScanMarkdown lists the *.md files directly inside dir. The scan is not
// recursive and follows no symlinked directories; regular-file symlinks are
// skipped too, since scanned content gets copied rather than linked.
func ScanMarkdown(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !entry.Type().IsRegular() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(entry.Name()), ".md") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		files = append(files, FileInfo{
			Name: entry.Name(),
			Path: filepath.Join(dir, entry.Name()),
			Size: info.Size(),
		})
	}

	return files, nil
}
