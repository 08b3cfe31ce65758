// Package prompts manages the prompt templates the MCP server registers.
//
// A template is a markdown file with YAML frontmatter describing its name,
// description, and arguments. The built-in templates ship embedded in the
// binary; user templates live in the configured template directory and
// shadow built-ins with the same name. Template packs can be pulled from
// git repositories and imported into the template directory.
package prompts

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/adrg/frontmatter"
)

// Argument describes one template argument as declared in frontmatter.
// Optional arguments may carry a default that is substituted when the
// caller omits them.
type Argument struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Required    bool   `yaml:"required"`
	Default     string `yaml:"default"`
}

// Template is a parsed prompt template. Body is the markdown content with
// the frontmatter stripped; placeholders of the form {{name}} are replaced
// on Render.
type Template struct {
	Name        string
	Description string
	Arguments   []Argument
	Body        string

	// Origin of the template: "builtin" or the file path it was read from.
	Source string
}

// templateMatter mirrors the frontmatter schema of a template file.
type templateMatter struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Arguments   []Argument `yaml:"arguments"`
}

var placeholderPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)

// ParseTemplate parses a template file. fallbackName is used when the
// frontmatter does not set a name (the file basename without extension).
// Files without a description are rejected: the description is what MCP
// clients show when listing prompts.
func ParseTemplate(content []byte, fallbackName, source string) (*Template, error) {
	var matter templateMatter
	body, err := frontmatter.Parse(bytes.NewReader(content), &matter)
	if err != nil {
		return nil, fmt.Errorf("invalid frontmatter: %w", err)
	}

	name := matter.Name
	if name == "" {
		name = fallbackName
	}
	if name == "" {
		return nil, fmt.Errorf("template has no name")
	}

	if matter.Description == "" {
		return nil, fmt.Errorf("template %q is missing the required 'description' field", name)
	}

	for _, arg := range matter.Arguments {
		if strings.TrimSpace(arg.Name) == "" {
			return nil, fmt.Errorf("template %q declares an argument without a name", name)
		}
		if arg.Required && arg.Default != "" {
			return nil, fmt.Errorf("template %q: argument %q is required and cannot carry a default", name, arg.Name)
		}
	}

	return &Template{
		Name:        name,
		Description: matter.Description,
		Arguments:   matter.Arguments,
		Body:        strings.TrimSpace(string(body)),
		Source:      source,
	}, nil
}

// Render substitutes the supplied argument values into the template body.
// Missing optional arguments fall back to their declared defaults; missing
// required arguments are an error. Rendering is pure string formatting and
// performs no I/O.
func (t *Template) Render(args map[string]string) (string, error) {
	values := make(map[string]string, len(t.Arguments))
	for _, arg := range t.Arguments {
		v, ok := args[arg.Name]
		if !ok || v == "" {
			if arg.Required {
				return "", fmt.Errorf("missing required argument %q", arg.Name)
			}
			v = arg.Default
		}
		values[arg.Name] = v
	}

	rendered := placeholderPattern.ReplaceAllStringFunc(t.Body, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		if v, ok := values[name]; ok {
			return v
		}
		// Placeholders for undeclared arguments are left as-is rather than
		// silently dropped, so a typo in the frontmatter stays visible.
		return match
	})

	return rendered, nil
}

// Argument returns the declared argument with the given name, if any.
func (t *Template) Argument(name string) (Argument, bool) {
	for _, arg := range t.Arguments {
		if arg.Name == name {
			return arg, true
		}
	}
	return Argument{}, false
}
