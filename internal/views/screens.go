package views

import (
	"fmt"
	"strings"
)

type SidebarItem struct {
	Name   string
	Icon   string
	Count  int
	Active bool
}

type SidebarData struct {
	AllActive     bool
	ActiveCount   int
	ArchivedCount int
	ArchiveView   bool
	Categories    []SidebarItem
}

type TaskRowData struct {
	ID        int64
	Title     string
	Category  string
	Priority  string
	Due       string
	Overdue   bool
	DueToday  bool
	Completed bool
	Selected  bool
	Cursor    bool
}

type TaskListData struct {
	Title         string
	Search        string
	Filters       string
	Rows          []TaskRowData
	SelectedCount int
	Loading       string
	EmptyText     string
	Archive       bool
}

type DetailData struct {
	Title       string
	Category    string
	Priority    string
	Due         string
	CreatedAt   string
	CompletedAt string
	Archived    bool
	Description string
}

type HelpPanelData struct {
	CurrentView string
	Bindings    []string
	HelpView    string
}

func RenderSidebar(data SidebarData) string {
	var b strings.Builder
	b.WriteString("categories:\n")
	b.WriteString(sidebarLine("All tasks", data.ActiveCount, data.AllActive && !data.ArchiveView))
	for _, c := range data.Categories {
		label := c.Name
		if c.Icon != "" {
			label = fmt.Sprintf("%s (%s)", c.Name, strings.ToLower(c.Icon))
		}
		b.WriteString(sidebarLine(label, c.Count, c.Active && !data.ArchiveView))
	}
	b.WriteString("\n")
	b.WriteString(sidebarLine("Archive", data.ArchivedCount, data.ArchiveView))
	return strings.TrimSpace(b.String())
}

func sidebarLine(label string, count int, active bool) string {
	line := fmt.Sprintf("%s %s", label, mutedStyle.Render(fmt.Sprintf("[%d]", count)))
	if active {
		return cursorStyle.Render("> ") + line + "\n"
	}
	return "  " + line + "\n"
}

func RenderTaskList(data TaskListData) string {
	var b strings.Builder
	b.WriteString(data.Title + ":\n")
	if data.Search != "" {
		b.WriteString(fmt.Sprintf("search: %q\n", data.Search))
	}
	if data.Filters != "" {
		b.WriteString("filters: " + data.Filters + "\n")
	}
	if data.Archive && data.SelectedCount > 0 {
		b.WriteString(fmt.Sprintf("selected: %d\n", data.SelectedCount))
	}
	if data.Loading != "" {
		b.WriteString(data.Loading + "\n")
		return strings.TrimSpace(b.String())
	}
	if len(data.Rows) == 0 {
		b.WriteString(mutedStyle.Render(data.EmptyText))
		return strings.TrimSpace(b.String())
	}
	for _, row := range data.Rows {
		b.WriteString(renderTaskRow(row, data.Archive) + "\n")
	}
	return strings.TrimSpace(b.String())
}

func renderTaskRow(row TaskRowData, archive bool) string {
	cursor := "  "
	if row.Cursor {
		cursor = cursorStyle.Render("> ")
	}
	box := "[ ]"
	if archive {
		if row.Selected {
			box = "[*]"
		}
	} else if row.Completed {
		box = "[x]"
	}

	title := row.Title
	if row.Completed {
		title = doneStyle.Render(title)
	}
	parts := []string{cursor + box, priorityBadge(row.Priority), title}
	if row.Due != "" {
		due := "due:" + row.Due
		switch {
		case row.Overdue && !row.Completed:
			due = overdueStyle.Render(due)
		case row.DueToday:
			due = todayStyle.Render(due)
		}
		parts = append(parts, due)
	}
	if row.Category != "" {
		parts = append(parts, mutedStyle.Render("#"+row.Category))
	}
	return strings.Join(parts, " ")
}

func priorityBadge(priority string) string {
	label := "[" + strings.ToUpper(priority) + "]"
	if style, ok := priorityStyles[priority]; ok {
		return style.Render(label)
	}
	return label
}

func RenderDetail(data DetailData) string {
	if strings.TrimSpace(data.Title) == "" {
		return "details:\n(no selection)"
	}
	var b strings.Builder
	b.WriteString("details:\n")
	b.WriteString(headerStyle.Render(data.Title) + "\n")
	b.WriteString(fmt.Sprintf("category: %s\n", data.Category))
	b.WriteString(fmt.Sprintf("priority: %s\n", priorityBadge(data.Priority)))
	if data.Due != "" {
		b.WriteString(fmt.Sprintf("due: %s\n", data.Due))
	}
	b.WriteString(fmt.Sprintf("created: %s\n", data.CreatedAt))
	if data.CompletedAt != "" {
		b.WriteString(fmt.Sprintf("completed: %s\n", data.CompletedAt))
	}
	if data.Archived {
		b.WriteString("archived\n")
	}
	if data.Description != "" {
		b.WriteString("\n" + data.Description)
	}
	return strings.TrimSpace(b.String())
}

func RenderInput(label, view string) string {
	return fmt.Sprintf("%s:\n%s", label, view)
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: /%s", input)
}

func RenderConfirm(prompt string) string {
	if prompt == "" {
		return ""
	}
	return errorStyle.Render(prompt) + " [y/n]"
}

func RenderHelpPanel(data HelpPanelData) string {
	return fmt.Sprintf("help:\n%s view:\n%s\n%s",
		strings.ToLower(data.CurrentView),
		strings.Join(data.Bindings, "\n"),
		data.HelpView,
	)
}
