package prompts

import (
	"embed"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"wpmcp/internal/logging"
)

//go:embed templates/*.md
var builtinFS embed.FS

// Store holds the resolved set of prompt templates: the embedded built-ins,
// overlaid with whatever valid templates the user dropped into the template
// directory. The store is built once at startup and read-only afterwards.
type Store struct {
	templates map[string]*Template
	logger    *logging.AppLogger
}

// NewStore builds the template store. Built-ins load first, then templateDir
// is scanned (non-recursively) for *.md files; a user template with the same
// name as a built-in shadows it. Invalid files are skipped with a warning —
// one broken template never prevents the server from starting. A missing
// template directory is not an error.
func NewStore(templateDir string, logger *logging.AppLogger) (*Store, error) {
	s := &Store{
		templates: make(map[string]*Template),
		logger:    logger,
	}

	if err := s.loadBuiltins(); err != nil {
		return nil, err
	}
	s.loadUserTemplates(templateDir)

	return s, nil
}

// loadBuiltins loads the templates embedded in the binary. These are part of
// the build, so a parse failure here is a programming error and fatal.
func (s *Store) loadBuiltins() error {
	entries, err := fs.ReadDir(builtinFS, "templates")
	if err != nil {
		return err
	}

	for _, entry := range entries {
		content, err := fs.ReadFile(builtinFS, "templates/"+entry.Name())
		if err != nil {
			return err
		}

		tmpl, err := ParseTemplate(content, templateName(entry.Name()), "builtin")
		if err != nil {
			return err
		}
		s.templates[tmpl.Name] = tmpl
	}

	return nil
}

// loadUserTemplates overlays templates from the user's template directory.
func (s *Store) loadUserTemplates(dir string) {
	if dir == "" {
		return
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("Cannot read template directory", "dir", dir, "error", err)
		}
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".md") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		content, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("Cannot read template file, skipping", "path", path, "error", err)
			continue
		}

		tmpl, err := ParseTemplate(content, templateName(entry.Name()), path)
		if err != nil {
			s.logger.Warn("Invalid template file, skipping", "path", path, "error", err)
			continue
		}

		if prev, ok := s.templates[tmpl.Name]; ok {
			s.logger.Debug("Template shadows existing one", "name", tmpl.Name, "previous", prev.Source)
		}
		s.templates[tmpl.Name] = tmpl
	}
}

// Get returns the template with the given name.
func (s *Store) Get(name string) (*Template, bool) {
	tmpl, ok := s.templates[name]
	return tmpl, ok
}

// Templates returns all templates sorted by name.
func (s *Store) Templates() []*Template {
	out := make([]*Template, 0, len(s.templates))
	for _, tmpl := range s.templates {
		out = append(out, tmpl)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of registered templates.
func (s *Store) Len() int {
	return len(s.templates)
}

// templateName derives a template name from a file name: the base name
// without the .md extension.
func templateName(fileName string) string {
	return strings.TrimSuffix(fileName, filepath.Ext(fileName))
}
