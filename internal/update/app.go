package update

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/taskflow/internal/commands"
	"github.com/sandeepkv93/taskflow/internal/model"
	"github.com/sandeepkv93/taskflow/internal/query"
	"github.com/sandeepkv93/taskflow/internal/views"
)

const timeLayout = "2006-01-02 15:04"

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), m.loadSpinner.Tick, waitForCountsCmd(m.events))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		var cmd tea.Cmd
		switch m.mode {
		case modeSearch, modeQuickAdd, modePalette:
			m, cmd = m.handleInputKey(typed)
		case modeConfirm:
			m, cmd = m.handleConfirmKey(typed)
		case modeDescribe:
			m, cmd = m.handleDescribeKey(typed)
		default:
			m, cmd = m.handleKey(typed)
		}
		m.syncDetail()
		return m, cmd
	case tea.WindowSizeMsg:
		m.helpModel.Width = typed.Width
		return m, nil
	case spinner.TickMsg:
		if m.Loading {
			var cmd tea.Cmd
			m.loadSpinner, cmd = m.loadSpinner.Update(typed)
			return m, cmd
		}
		return m, nil
	case DataLoadedMsg:
		m.Loading = false
		if typed.Err != nil {
			m.setError(typed.Err)
			return m, nil
		}
		if typed.View != m.CurrentView {
			return m, nil
		}
		m.Categories = typed.Categories
		m.Tasks = typed.Tasks
		m.Counts = typed.Counts
		m.clampCursor()
		m.syncDetail()
		return m, nil
	case MutationDoneMsg:
		if typed.Err != nil {
			m.setError(typed.Err)
		} else {
			m.Status = StatusBar{Text: typed.Text}
		}
		return m, m.loadCmd()
	case CountsChangedMsg:
		m.Counts = typed.Counts
		return m, waitForCountsCmd(m.events)
	case SwitchViewMsg:
		if typed.View == ViewTasks || typed.View == ViewArchive {
			return m.switchView(typed.View)
		}
		return m, nil
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		if typed.Err != nil {
			m.setError(typed.Err)
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	k := m.Keys
	switch {
	case key.Matches(msg, k.Quit):
		m.Quitting = true
		return m, tea.Quit
	case key.Matches(msg, k.Help):
		m.HelpVisible = !m.HelpVisible
		return m, nil
	case key.Matches(msg, k.Tasks):
		return m.switchView(ViewTasks)
	case key.Matches(msg, k.Archive):
		return m.switchView(ViewArchive)
	case key.Matches(msg, k.Up):
		m.moveCursor(-1)
		return m, nil
	case key.Matches(msg, k.Down):
		m.moveCursor(1)
		return m, nil
	case key.Matches(msg, k.Palette):
		m.openInput(modePalette)
		return m, nil
	case key.Matches(msg, k.Search):
		m.openInput(modeSearch)
		m.searchInput.SetValue(m.Filter.Search)
		return m, nil
	case key.Matches(msg, k.Add):
		if m.CurrentView != ViewTasks {
			return m, nil
		}
		m.openInput(modeQuickAdd)
		return m, nil
	case key.Matches(msg, k.Clear):
		m.resetFilter()
		m.Status = StatusBar{Text: "search and filters cleared"}
		return m, nil
	}

	if m.CurrentView == ViewArchive {
		return m.handleArchiveKey(msg)
	}
	return m.handleTasksKey(msg)
}

func (m Model) handleTasksKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	k := m.Keys
	switch {
	case key.Matches(msg, k.NextCategory):
		return m.cycleCategory(1)
	case key.Matches(msg, k.PrevCategory):
		return m.cycleCategory(-1)
	}
	task, ok := m.currentTask()
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(msg, k.Toggle):
		return m, m.toggleCmd(task)
	case key.Matches(msg, k.Edit):
		m.openInput(modePalette)
		m.commandInput.SetValue(m.editLine(task))
		m.commandInput.CursorEnd()
		return m, nil
	case key.Matches(msg, k.Describe):
		m.mode = modeDescribe
		m.editing = task
		m.descriptionArea.SetValue(task.Description)
		m.descriptionArea.Focus()
		return m, nil
	case key.Matches(msg, k.ArchiveTask):
		return m, m.archiveCmd(task)
	case key.Matches(msg, k.Delete):
		return m.askConfirm(fmt.Sprintf("delete %q permanently?", task.Title), m.deleteCmd(task)), nil
	}
	return m, nil
}

func (m Model) handleArchiveKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	k := m.Keys
	switch {
	case key.Matches(msg, k.SelectAll):
		m.Selection.SelectAll(taskIDs(m.VisibleTasks()))
		return m, nil
	case key.Matches(msg, k.BulkRestore):
		if m.Selection.Len() == 0 {
			return m, nil
		}
		return m, m.bulkRestoreCmd(m.Selection)
	case key.Matches(msg, k.BulkDelete):
		if m.Selection.Len() == 0 {
			return m, nil
		}
		prompt := fmt.Sprintf("delete %d selected tasks permanently?", m.Selection.Len())
		return m.askConfirm(prompt, m.bulkDeleteCmd(m.Selection)), nil
	}
	task, ok := m.currentTask()
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(msg, k.Toggle):
		m.Selection.Toggle(task.ID)
		return m, nil
	case key.Matches(msg, k.Restore):
		return m, m.restoreCmd(task)
	case key.Matches(msg, k.Delete):
		return m.askConfirm(fmt.Sprintf("delete %q permanently?", task.Title), m.deleteCmd(task)), nil
	}
	return m, nil
}

func (m Model) handleInputKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	input := m.activeInput()
	switch msg.Type {
	case tea.KeyEsc:
		if m.mode == modeSearch {
			m.Filter.Search = ""
		}
		m.closeInput()
		return m, nil
	case tea.KeyEnter:
		value := strings.TrimSpace(input.Value())
		mode := m.mode
		m.closeInput()
		switch mode {
		case modeSearch:
			m.Filter.Search = value
			return m, nil
		case modeQuickAdd:
			return m.quickAdd(value)
		case modePalette:
			return m.executePaletteCommand(value)
		}
		return m, nil
	default:
		updated, _ := input.Update(msg)
		*input = updated
	}
	if m.mode == modeSearch {
		m.Filter.Search = input.Value()
		m.clampCursor()
	}
	return m, nil
}

func (m Model) handleDescribeKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyEsc:
		m.closeDescription()
		m.Status = StatusBar{Text: "description unchanged"}
		return m, nil
	case key.Matches(msg, m.Keys.Save):
		description := m.descriptionArea.Value()
		task := m.editing
		m.closeDescription()
		if description == task.Description {
			m.Status = StatusBar{Text: "description unchanged"}
			return m, nil
		}
		return m, m.editCmd(task, model.TaskPatch{Description: &description})
	}
	var cmd tea.Cmd
	m.descriptionArea, cmd = m.descriptionArea.Update(msg)
	return m, cmd
}

func (m *Model) closeDescription() {
	m.descriptionArea.Reset()
	m.descriptionArea.Blur()
	m.editing = model.Task{}
	m.mode = modeNormal
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	action := m.confirm.action
	m.confirm = confirmState{}
	m.mode = modeNormal
	switch strings.ToLower(msg.String()) {
	case "y", "enter":
		return m, action
	default:
		m.Status = StatusBar{Text: "cancelled"}
		return m, nil
	}
}

func (m Model) quickAdd(value string) (Model, tea.Cmd) {
	if value == "" {
		return m, nil
	}
	return m.executePaletteCommand("add " + value)
}

func (m Model) switchView(v View) (Model, tea.Cmd) {
	if m.CurrentView == v {
		return m, nil
	}
	m.CurrentView = v
	m.Tasks = nil
	m.Cursor = 0
	m.Selection.Clear()
	m.Loading = true
	return m, m.loadCmd()
}

func (m Model) cycleCategory(step int) (Model, tea.Cmd) {
	ids := []int64{0}
	for _, c := range m.Categories {
		ids = append(ids, c.ID)
	}
	pos := 0
	for i, id := range ids {
		if id == m.CategoryID {
			pos = i
		}
	}
	pos = (pos + step + len(ids)) % len(ids)
	m.CategoryID = ids[pos]
	m.Cursor = 0
	return m, nil
}

func (m *Model) askConfirm(prompt string, action tea.Cmd) Model {
	m.mode = modeConfirm
	m.confirm = confirmState{prompt: prompt, action: action}
	return *m
}

func (m *Model) openInput(mode inputMode) {
	m.mode = mode
	input := m.activeInput()
	input.SetValue("")
	input.Focus()
}

func (m *Model) closeInput() {
	if input := m.activeInput(); input != nil {
		input.SetValue("")
		input.Blur()
	}
	m.mode = modeNormal
}

func (m *Model) activeInput() *textinput.Model {
	switch m.mode {
	case modeSearch:
		return &m.searchInput
	case modeQuickAdd:
		return &m.quickAddInput
	case modePalette:
		return &m.commandInput
	}
	return nil
}

// resetFilter drops search and filters, keeping the configured status.
func (m *Model) resetFilter() {
	m.Filter = FilterState{Filters: query.Filters{Status: m.defaultStatus}}
	m.Cursor = 0
}

func (m *Model) setError(err error) {
	m.LastError = err
	m.Status = StatusBar{Text: err.Error(), IsError: true}
	m.log.Error("action failed", "err", err)
}

// VisibleTasks is the current view after category scoping, search, filters
// and display ordering.
func (m Model) VisibleTasks() []model.Task {
	tasks := m.Tasks
	if m.CurrentView == ViewTasks && m.CategoryID != 0 {
		scoped := make([]model.Task, 0, len(tasks))
		for _, t := range tasks {
			if t.CategoryID == m.CategoryID {
				scoped = append(scoped, t)
			}
		}
		tasks = scoped
	}
	tasks = query.Filter(tasks, m.Filter.Search, m.Filter.Filters)
	return query.SortForDisplay(tasks)
}

func (m Model) currentTask() (model.Task, bool) {
	visible := m.VisibleTasks()
	if m.Cursor < 0 || m.Cursor >= len(visible) {
		return model.Task{}, false
	}
	return visible[m.Cursor], true
}

func (m *Model) moveCursor(delta int) {
	m.Cursor += delta
	m.clampCursor()
}

func (m *Model) clampCursor() {
	n := len(m.VisibleTasks())
	if m.Cursor >= n {
		m.Cursor = n - 1
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}
}

func (m *Model) syncDetail() {
	task, ok := m.currentTask()
	if !ok {
		m.detail.SetContent("")
		return
	}
	md := task.Description
	if strings.TrimSpace(md) == "" {
		md = "_No description_"
	}
	m.detail.SetContent(views.RenderMarkdown(md))
}

func (m Model) View() string {
	status := m.Status.Text
	if m.Loading {
		status = strings.TrimSpace(m.loadSpinner.View() + " loading " + status)
	}

	overlay := ""
	switch m.mode {
	case modeSearch:
		overlay = views.RenderInput("search", m.searchInput.View())
	case modeQuickAdd:
		overlay = views.RenderInput("new task", m.quickAddInput.View())
	case modePalette:
		overlay = views.RenderCommandPalette(true, m.commandInput.Value())
	case modeConfirm:
		overlay = views.RenderConfirm(m.confirm.prompt)
	case modeDescribe:
		overlay = views.RenderInput("description of "+m.editing.Title+" (ctrl+s save, esc cancel)", m.descriptionArea.View())
	}
	if m.HelpVisible {
		overlay = strings.TrimSpace(overlay + "\n" + m.renderHelpView())
	}

	return views.RenderApp(views.AppData{
		Header:     fmt.Sprintf("taskflow | view: %s | category: %s", m.CurrentView, m.activeCategoryLabel()),
		Sidebar:    m.renderSidebar(),
		MainPane:   m.renderTaskList(),
		DetailPane: m.renderDetail(),
		Overlay:    overlay,
		StatusLine: status,
		IsError:    m.Status.IsError,
		Footer:     m.renderFooter(),
	})
}

func (m Model) activeCategoryLabel() string {
	if m.CurrentView == ViewArchive || m.CategoryID == 0 {
		return "all"
	}
	if name := m.categoryName(m.CategoryID); name != "" {
		return name
	}
	return "all"
}

func (m Model) renderSidebar() string {
	items := make([]views.SidebarItem, 0, len(m.Categories))
	for _, c := range m.Categories {
		items = append(items, views.SidebarItem{
			Name:   c.Name,
			Icon:   c.Icon,
			Count:  m.Counts.Category(c.ID),
			Active: c.ID == m.CategoryID,
		})
	}
	return views.RenderSidebar(views.SidebarData{
		AllActive:     m.CategoryID == 0,
		ActiveCount:   m.Counts.Active,
		ArchivedCount: m.Counts.Archived,
		ArchiveView:   m.CurrentView == ViewArchive,
		Categories:    items,
	})
}

func (m Model) renderTaskList() string {
	visible := m.VisibleTasks()
	now := m.now()
	rows := make([]views.TaskRowData, 0, len(visible))
	for i, t := range visible {
		row := views.TaskRowData{
			ID:        t.ID,
			Title:     t.Title,
			Category:  m.categoryName(t.CategoryID),
			Priority:  string(t.Priority),
			Completed: t.Completed,
			Selected:  m.Selection.Contains(t.ID),
			Cursor:    i == m.Cursor,
		}
		if t.DueDate != nil {
			label := query.DescribeDue(*t.DueDate, now)
			row.Due, row.Overdue, row.DueToday = label.Text, label.Overdue, label.Today
		}
		rows = append(rows, row)
	}

	data := views.TaskListData{
		Title:         strings.ToLower(string(m.CurrentView)),
		Search:        m.Filter.Search,
		Filters:       describeFilters(m.Filter.Filters),
		Rows:          rows,
		SelectedCount: m.Selection.Len(),
		Archive:       m.CurrentView == ViewArchive,
		EmptyText:     "(no tasks)",
	}
	if m.Loading && len(m.Tasks) == 0 {
		data.Loading = m.loadSpinner.View() + " loading tasks"
	}
	if !m.Filter.IsZero() && len(rows) == 0 {
		data.EmptyText = "(no tasks match the current search and filters)"
	}
	if m.CurrentView == ViewArchive && len(rows) == 0 && m.Filter.IsZero() {
		data.EmptyText = "(archive is empty)"
	}
	return views.RenderTaskList(data)
}

func (m Model) renderDetail() string {
	task, ok := m.currentTask()
	if !ok {
		return views.RenderDetail(views.DetailData{})
	}
	data := views.DetailData{
		Title:       task.Title,
		Category:    m.categoryName(task.CategoryID),
		Priority:    string(task.Priority),
		CreatedAt:   task.CreatedAt.Local().Format(timeLayout),
		Archived:    task.Archived,
		Description: m.detail.View(),
	}
	if task.DueDate != nil {
		data.Due = task.DueDate.Format(commands.DateLayout)
	}
	if task.CompletedAt != nil {
		data.CompletedAt = task.CompletedAt.Local().Format(timeLayout)
	}
	return views.RenderDetail(data)
}

func describeFilters(f query.Filters) string {
	var parts []string
	if f.Priority != "" {
		parts = append(parts, "priority:"+string(f.Priority))
	}
	if f.Status != model.StatusAny {
		parts = append(parts, "status:"+string(f.Status))
	}
	if f.DueDate != nil {
		parts = append(parts, "due:"+f.DueDate.Format(commands.DateLayout))
	}
	return strings.Join(parts, " ")
}

func taskIDs(tasks []model.Task) []int64 {
	out := make([]int64, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}
