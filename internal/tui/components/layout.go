// Package components holds the shared layout used by the setup wizard
// screens: title/subtitle/content/error/help sections with responsive
// word-wrapping.
package components

import (
	"strings"

	"wpmcp/internal/tui/styles"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"
)

type LayoutConfig struct {
	Title    string
	Subtitle string
	HelpText string
	MarginX  int
	MarginY  int
	MaxWidth int
}

type LayoutModel struct {
	config LayoutConfig
	width  int
	height int
	err    error
}

func NewLayout(config LayoutConfig) LayoutModel {
	if config.MarginX == 0 {
		config.MarginX = 2
	}
	if config.MarginY == 0 {
		config.MarginY = 1
	}
	if config.MaxWidth == 0 {
		config.MaxWidth = 100
	}

	return LayoutModel{config: config}
}

func (m LayoutModel) Update(msg tea.Msg) (LayoutModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}
	return m, nil
}

func (m LayoutModel) SetError(err error) LayoutModel {
	if err != nil {
		m.err = err
	}
	return m
}

func (m LayoutModel) ClearError() LayoutModel {
	m.err = nil
	return m
}

func (m LayoutModel) GetError() error {
	return m.err
}

// SetConfig swaps the screen headings while preserving margin/width defaults.
func (m LayoutModel) SetConfig(config LayoutConfig) LayoutModel {
	if config.MarginX == 0 {
		config.MarginX = m.config.MarginX
	}
	if config.MarginY == 0 {
		config.MarginY = m.config.MarginY
	}
	if config.MaxWidth == 0 {
		config.MaxWidth = m.config.MaxWidth
	}
	m.config = config
	return m
}

// Render assembles the full screen: title, subtitle, content, then error and
// help text, each wrapped to the content width.
func (m LayoutModel) Render(content string) string {
	sections := []string{}
	contentWidth := m.ContentWidth()

	if m.config.Title != "" {
		title := m.wrapText(m.config.Title, contentWidth)
		sections = append(sections, styles.TitleStyle.Render(title))
	}

	if m.config.Subtitle != "" {
		subtitle := m.wrapText(m.config.Subtitle, contentWidth)
		sections = append(sections, styles.SubtitleStyle.Render(subtitle))
	}

	if content != "" {
		wrappedContent := m.wrapText(content, contentWidth)
		sections = append(sections, styles.NormalTextStyle.Render(wrappedContent))
	}

	if m.err != nil {
		errorText := "Error: " + m.err.Error()
		wrappedError := m.wrapText(errorText, contentWidth)
		sections = append(sections, styles.ErrorStyle.Render(wrappedError))
	}

	if m.config.HelpText != "" {
		help := m.wrapText(m.config.HelpText, contentWidth)
		sections = append(sections, styles.HelpStyle.Render(help))
	}

	joined := strings.Join(sections, "\n\n")
	return m.addMargins(joined)
}

// wrapText word-wraps while preserving manual line and paragraph breaks.
func (m LayoutModel) wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}

	paragraphs := strings.Split(text, "\n\n")
	var wrappedParagraphs []string

	for _, paragraph := range paragraphs {
		lines := strings.Split(paragraph, "\n")
		var wrappedLines []string

		for _, line := range lines {
			line = strings.TrimSpace(line)
			if line == "" {
				wrappedLines = append(wrappedLines, "")
				continue
			}
			wrappedLines = append(wrappedLines, wordwrap.String(line, width))
		}

		wrappedParagraphs = append(wrappedParagraphs, strings.Join(wrappedLines, "\n"))
	}

	return strings.Join(wrappedParagraphs, "\n\n")
}

func (m LayoutModel) addMargins(content string) string {
	lines := strings.Split(content, "\n")
	marginLeft := strings.Repeat(" ", m.config.MarginX)

	for i, line := range lines {
		lines[i] = marginLeft + line
	}

	marginTop := strings.Repeat("\n", m.config.MarginY)
	marginBottom := strings.Repeat("\n", m.config.MarginY)
	return marginTop + strings.Join(lines, "\n") + marginBottom
}

func (m LayoutModel) ContentWidth() int {
	available := m.width - (m.config.MarginX * 2)
	if available > m.config.MaxWidth {
		return m.config.MaxWidth
	}
	if available < 40 {
		return 40 // Minimum readable width
	}
	return available
}

// InputWidth sizes text inputs relative to the content area.
func (m LayoutModel) InputWidth() int {
	contentWidth := m.ContentWidth()
	inputWidth := contentWidth - 8

	if inputWidth > 80 {
		return 80
	}
	if inputWidth < 30 {
		return 30
	}
	return inputWidth
}
