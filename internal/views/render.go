package views

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

type AppData struct {
	Header     string
	Sidebar    string
	MainPane   string
	DetailPane string
	Overlay    string
	StatusLine string
	IsError    bool
	Footer     string
}

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	panelStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	cursorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	overdueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	todayStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Strikethrough(true)
)

var priorityStyles = map[string]lipgloss.Style{
	"high":   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
	"medium": lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	"low":    lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
}

func RenderApp(data AppData) string {
	sidebar := panelStyle.Width(24).Render(data.Sidebar)
	main := panelStyle.Width(56).Render(data.MainPane)
	columns := []string{sidebar, main}
	if data.DetailPane != "" {
		columns = append(columns, panelStyle.Width(44).Render(data.DetailPane))
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, columns...)

	status := statusStyle.Render(data.StatusLine)
	if data.IsError {
		status = errorStyle.Render(data.StatusLine)
	}

	lines := []string{
		headerStyle.Render(data.Header),
		row,
	}
	if data.Overlay != "" {
		lines = append(lines, panelStyle.Render(data.Overlay))
	}
	lines = append(lines, status)
	if data.Footer != "" {
		lines = append(lines, footerStyle.Render(data.Footer))
	}
	return strings.Join(lines, "\n")
}

func RenderMarkdown(md string) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	out, err := glamour.Render(md, "dark")
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}
