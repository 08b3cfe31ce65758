package prompts

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"wpmcp/internal/credentials"
	"wpmcp/internal/logging"
	"wpmcp/pkg/fileops"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing/transport/http"
)

// PackSource is a git repository holding shareable prompt templates. Sync
// clones or updates a local cache of the repository; Import copies its
// top-level template files into the user's template directory.
//
// Authentication follows a public-first strategy: the repository is fetched
// without credentials, and only on an authentication failure is the token
// from the credential store used. SSH-style URLs (git@host:owner/repo.git)
// are rewritten to HTTPS so the token path works for them too.
type PackSource struct {
	RemoteURL string
	Path      string // local cache directory for the cloned pack
}

// sshURLPattern matches scp-style git URLs: git@github.com:owner/repo.git
var sshURLPattern = regexp.MustCompile(`^git@([^:]+):(.+?)(\.git)?$`)

// NewPackSource builds a PackSource caching the pack under cacheRoot, in a
// directory derived from the repository name.
func NewPackSource(remoteURL, cacheRoot string) (*PackSource, error) {
	name, err := RepoName(remoteURL)
	if err != nil {
		return nil, err
	}
	return &PackSource{
		RemoteURL: remoteURL,
		Path:      filepath.Join(cacheRoot, name),
	}, nil
}

// RepoName extracts the repository name from a git URL, sanitized for use
// as a directory name.
func RepoName(remoteURL string) (string, error) {
	trimmed := strings.TrimSpace(remoteURL)
	if trimmed == "" {
		return "", fmt.Errorf("pack URL cannot be empty")
	}

	trimmed = strings.TrimSuffix(trimmed, "/")
	trimmed = strings.TrimSuffix(trimmed, ".git")

	idx := strings.LastIndexAny(trimmed, "/:")
	if idx < 0 || idx == len(trimmed)-1 {
		return "", fmt.Errorf("cannot derive a repository name from %q", remoteURL)
	}

	name, err := fileops.SanitizeFilename(trimmed[idx+1:])
	if err != nil {
		return "", fmt.Errorf("cannot derive a repository name from %q: %w", remoteURL, err)
	}
	return name, nil
}

// Sync clones the pack repository (shallow) when the cache is empty, or
// fast-forwards it when it already exists. Public access is attempted first;
// a stored pack token is used only when the remote rejects anonymous access.
func (ps *PackSource) Sync(logger *logging.AppLogger) error {
	if strings.TrimSpace(ps.RemoteURL) == "" {
		return fmt.Errorf("pack URL cannot be empty")
	}

	remoteURL := normalizePackURL(ps.RemoteURL)

	cleanPath := filepath.Clean(fileops.ExpandPath(ps.Path))
	if err := fileops.ValidatePathSecurity(cleanPath); err != nil {
		return fmt.Errorf("invalid pack cache path: %w", err)
	}

	if _, err := os.Stat(filepath.Join(cleanPath, ".git")); err == nil {
		logger.Debug("Updating template pack", "url", remoteURL, "path", cleanPath)
		return ps.pullWithAuth(cleanPath, logger)
	}

	logger.Debug("Cloning template pack", "url", remoteURL, "path", cleanPath)
	return ps.cloneWithAuth(cleanPath, remoteURL, logger)
}

// Import copies the pack's top-level *.md files with valid frontmatter into
// templateDir, overwriting templates of the same name. It returns the names
// of the imported templates. Invalid files are skipped with a warning.
func (ps *PackSource) Import(templateDir string, logger *logging.AppLogger) ([]string, error) {
	if err := fileops.EnsureDirectoryExists(templateDir); err != nil {
		return nil, fmt.Errorf("cannot prepare template directory: %w", err)
	}

	files, err := fileops.ScanMarkdown(ps.Path)
	if err != nil {
		return nil, fmt.Errorf("cannot scan pack directory: %w", err)
	}

	var imported []string
	for _, file := range files {
		content, err := os.ReadFile(file.Path)
		if err != nil {
			logger.Warn("Cannot read pack file, skipping", "path", file.Path, "error", err)
			continue
		}

		tmpl, err := ParseTemplate(content, templateName(file.Name), file.Path)
		if err != nil {
			logger.Warn("Pack file is not a valid template, skipping", "path", file.Path, "error", err)
			continue
		}

		dest := filepath.Join(templateDir, file.Name)
		if err := fileops.AtomicCopy(file.Path, dest); err != nil {
			return imported, fmt.Errorf("failed to import %s: %w", file.Name, err)
		}

		logger.Debug("Imported template", "name", tmpl.Name, "dest", dest)
		imported = append(imported, tmpl.Name)
	}

	return imported, nil
}

func (ps *PackSource) cloneWithAuth(localPath, remoteURL string, logger *logging.AppLogger) error {
	err := ps.clone(localPath, remoteURL, nil)
	if err == nil {
		return nil
	}

	if !isAuthError(err) {
		return fmt.Errorf("failed to clone template pack: %w", err)
	}

	auth, authErr := packAuth(logger)
	if authErr != nil {
		return authErr
	}
	if auth == nil {
		return fmt.Errorf("template pack requires authentication - store a token with 'wpmcp templates token' first")
	}

	if cloneErr := ps.clone(localPath, remoteURL, auth); cloneErr != nil {
		return fmt.Errorf("failed to clone template pack: %w", cloneErr)
	}
	return nil
}

func (ps *PackSource) clone(localPath, remoteURL string, auth *http.BasicAuth) error {
	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return fmt.Errorf("failed to create pack cache directory: %w", err)
	}

	_, err := git.PlainClone(localPath, &git.CloneOptions{
		URL:          remoteURL,
		Depth:        1,
		SingleBranch: true,
		Auth:         auth,
	})
	return err
}

func (ps *PackSource) pullWithAuth(localPath string, logger *logging.AppLogger) error {
	err := ps.pull(localPath, nil)
	if err == nil {
		return nil
	}

	if !isAuthError(err) {
		return fmt.Errorf("failed to update template pack: %w", err)
	}

	auth, authErr := packAuth(logger)
	if authErr != nil {
		return authErr
	}
	if auth == nil {
		return fmt.Errorf("template pack requires authentication - store a token with 'wpmcp templates token' first")
	}

	if pullErr := ps.pull(localPath, auth); pullErr != nil {
		return fmt.Errorf("failed to update template pack: %w", pullErr)
	}
	return nil
}

func (ps *PackSource) pull(localPath string, auth *http.BasicAuth) error {
	repo, err := git.PlainOpen(localPath)
	if err != nil {
		return fmt.Errorf("failed to open pack repository: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get working tree: %w", err)
	}

	err = worktree.Pull(&git.PullOptions{
		RemoteName:   "origin",
		Depth:        1,
		SingleBranch: true,
		Auth:         auth,
	})
	if err == git.NoErrAlreadyUpToDate {
		return nil
	}
	return err
}

// packAuth builds BasicAuth from the stored pack token, or nil when none is
// stored. Git forges accept a token as the password with any username.
func packAuth(logger *logging.AppLogger) (*http.BasicAuth, error) {
	token, found, err := credentials.NewManager().PackToken()
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	logger.Debug("Using stored token for pack authentication")
	return &http.BasicAuth{
		Username: "token",
		Password: token,
	}, nil
}

// normalizePackURL rewrites scp-style SSH URLs to HTTPS so the token
// fallback applies to them; HTTPS URLs pass through unchanged.
func normalizePackURL(remoteURL string) string {
	trimmed := strings.TrimSpace(remoteURL)
	if m := sshURLPattern.FindStringSubmatch(trimmed); m != nil {
		return fmt.Sprintf("https://%s/%s.git", m[1], strings.TrimSuffix(m[2], ".git"))
	}
	return trimmed
}

// isAuthError reports whether a git transport error indicates missing or
// rejected credentials.
func isAuthError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"authentication required",
		"authorization failed",
		"invalid credentials",
		"401",
		"403",
		"forbidden",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
