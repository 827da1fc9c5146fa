package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/ai9campus/smarttutor/internal/tutor"
)

var (
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	tutorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	dimStyle    = lipgloss.NewStyle().Faint(true)

	noticeBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)

	levelColors = map[tutor.Level]lipgloss.Color{
		tutor.LevelInfo:    lipgloss.Color("39"),
		tutor.LevelWarning: lipgloss.Color("214"),
		tutor.LevelError:   lipgloss.Color("196"),
	}
)

type renderer struct {
	md *glamour.TermRenderer
}

// newRenderer builds a markdown renderer. An empty style picks one from the
// terminal background.
func newRenderer(style string, width int) (*renderer, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	md, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, fmt.Errorf("create markdown renderer: %w", err)
	}
	return &renderer{md: md}, nil
}

func (r *renderer) markdown(text string) string {
	out, err := r.md.Render(text)
	if err != nil {
		return text + "\n"
	}
	return out
}

func (r *renderer) panel(p tutor.Panel) string {
	return r.markdown("## " + p.Title + "\n\n" + p.Markdown)
}

func (r *renderer) notice(n tutor.Notice) string {
	color, ok := levelColors[n.Level]
	if !ok {
		color = levelColors[tutor.LevelInfo]
	}
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(n.Title))
	if n.Detail != "" {
		b.WriteString("\n" + n.Detail)
	}
	if len(n.Suggestions) > 0 {
		b.WriteString("\n\nPossible solutions:")
		for _, s := range n.Suggestions {
			b.WriteString("\n  • " + s)
		}
	}
	return noticeBox.BorderForeground(color).Render(b.String()) + "\n"
}
