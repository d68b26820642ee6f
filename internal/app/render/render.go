package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"

	"loglens/internal/app/aggregator"
	"loglens/internal/app/entry"
	"loglens/internal/config"
)

// service tag colors, assigned by name hash
var servicePalette = []lipgloss.Color{
	lipgloss.Color("#00ADD8"),
	lipgloss.Color("#5FD700"),
	lipgloss.Color("#FF8700"),
	lipgloss.Color("#AF87FF"),
	lipgloss.Color("#FF5F87"),
	lipgloss.Color("#FFD700"),
	lipgloss.Color("#5FAFAF"),
	lipgloss.Color("#D78700"),
}

const fallbackWidth = 80

// Renderer writes a colorized console preview of a synthesized document
type Renderer struct {
	headerStyle   lipgloss.Style
	errorStyle    lipgloss.Style
	warningStyle  lipgloss.Style
	bannerStyle   lipgloss.Style
	mutedStyle    lipgloss.Style
	serviceStyles map[string]lipgloss.Style
	maxServiceLen int
}

// NewRenderer creates a console renderer
func NewRenderer() *Renderer {
	return &Renderer{
		headerStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("#6C6C6C")),
		errorStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F")),
		warningStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700")),
		bannerStyle:   lipgloss.NewStyle().Bold(true),
		mutedStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("#8A8A8A")),
		serviceStyles: make(map[string]lipgloss.Style),
	}
}

// Render writes the banner and every document line to w
func (r *Renderer) Render(w io.Writer, doc *aggregator.Document) {
	r.RenderBanner(w, doc)

	byRow := make(map[int]entry.Entry, len(doc.Entries))
	for _, e := range doc.Entries {
		byRow[e.Row] = e
	}

	lines := strings.Split(strings.TrimRight(doc.Text, "\n"), "\n")
	if doc.Text == "" {
		lines = nil
	}

	for i, line := range lines {
		if strings.HasPrefix(line, "// ") {
			fmt.Fprintln(w, r.headerStyle.Render(line))
			continue
		}

		if e, exists := byRow[i+1]; exists {
			fmt.Fprintln(w, r.renderEntry(line, e))
			continue
		}

		fmt.Fprintln(w, line)
	}
}

// RenderBanner writes a one-line summary header sized to the terminal
func (r *Renderer) RenderBanner(w io.Writer, doc *aggregator.Document) {
	width, _, err := term.GetSize(os.Stdout.Fd())
	if err != nil || width < 40 {
		width = fallbackWidth
	}

	services := make(map[string]bool)
	for _, stat := range doc.Stats {
		services[stat.Service] = true
	}

	title := r.bannerStyle.Render(config.AppName)
	facts := r.mutedStyle.Render(fmt.Sprintf("%d entries from %d files, %d services",
		len(doc.Entries), len(doc.Stats), len(services)))

	rule := r.mutedStyle.Render(strings.Repeat("─", width))

	fmt.Fprintln(w, title+" "+facts)
	fmt.Fprintln(w, rule)
}

// renderEntry colors the service tag and highlights error levels. Lines
// carrying an emoji tag instead of a plain service prefix keep it as is.
func (r *Renderer) renderEntry(line string, e entry.Entry) string {
	if len(e.Service) > r.maxServiceLen {
		r.maxServiceLen = len(e.Service)
	}

	prefix := ""
	rest := line

	if strings.HasPrefix(line, e.Service) {
		padding := strings.Repeat(" ", r.maxServiceLen-len(e.Service))
		prefix = r.serviceStyle(e.Service).Render(e.Service) + padding
		rest = line[len(e.Service):]
	}

	switch e.Level {
	case entry.LevelError:
		rest = r.errorStyle.Render(rest)
	case entry.LevelWarning:
		rest = r.warningStyle.Render(rest)
	}

	return prefix + rest
}

// serviceStyle returns a stable color per service name
func (r *Renderer) serviceStyle(service string) lipgloss.Style {
	if style, exists := r.serviceStyles[service]; exists {
		return style
	}

	color := servicePalette[entry.ServiceHash(service)%len(servicePalette)]
	style := lipgloss.NewStyle().Foreground(color).Bold(true)
	r.serviceStyles[service] = style

	return style
}
