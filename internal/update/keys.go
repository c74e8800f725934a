package update

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"

	"github.com/sandeepkv93/taskflow/internal/views"
)

type KeyMap struct {
	Up           key.Binding
	Down         key.Binding
	Tasks        key.Binding
	Archive      key.Binding
	NextCategory key.Binding
	PrevCategory key.Binding
	Toggle       key.Binding
	ArchiveTask  key.Binding
	Restore      key.Binding
	SelectAll    key.Binding
	BulkRestore  key.Binding
	BulkDelete   key.Binding
	Delete       key.Binding
	Edit         key.Binding
	Describe     key.Binding
	Save         key.Binding
	Add          key.Binding
	Search       key.Binding
	Palette      key.Binding
	Clear        key.Binding
	Help         key.Binding
	Quit         key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:           key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/up", "move up")),
		Down:         key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/down", "move down")),
		Tasks:        key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "tasks")),
		Archive:      key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "archive")),
		NextCategory: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next category")),
		PrevCategory: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous category")),
		Toggle:       key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "complete / select")),
		ArchiveTask:  key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "archive task")),
		Restore:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "restore task")),
		SelectAll:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "select all / none")),
		BulkRestore:  key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "restore selected")),
		BulkDelete:   key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "delete selected")),
		Delete:       key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete task")),
		Edit:         key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit task")),
		Describe:     key.NewBinding(key.WithKeys("E"), key.WithHelp("E", "edit description")),
		Save:         key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save description")),
		Add:          key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new task")),
		Search:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "search")),
		Palette:      key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "command palette")),
		Clear:        key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear search and filters")),
		Help:         key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		Quit:         key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

type helpKeyMap struct {
	short []key.Binding
	full  [][]key.Binding
}

func (k helpKeyMap) ShortHelp() []key.Binding  { return k.short }
func (k helpKeyMap) FullHelp() [][]key.Binding { return k.full }

func (m Model) globalBindings() []key.Binding {
	k := m.Keys
	return []key.Binding{k.Tasks, k.Archive, k.Add, k.Search, k.Palette, k.Help, k.Quit}
}

func (m Model) viewBindings() []key.Binding {
	k := m.Keys
	if m.CurrentView == ViewArchive {
		return []key.Binding{k.Up, k.Down, k.Toggle, k.SelectAll, k.Restore, k.BulkRestore, k.BulkDelete, k.Delete, k.Clear}
	}
	return []key.Binding{k.Up, k.Down, k.NextCategory, k.PrevCategory, k.Toggle, k.Edit, k.Describe, k.ArchiveTask, k.Delete, k.Clear}
}

func (m Model) renderFooter() string {
	return m.helpModel.View(helpKeyMap{short: m.globalBindings()})
}

func (m Model) renderHelpView() string {
	bindings := m.viewBindings()
	plain := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		plain = append(plain, fmt.Sprintf("- %s: %s", h.Key, h.Desc))
	}
	full := m.helpModel
	full.ShowAll = true
	return views.RenderHelpPanel(views.HelpPanelData{
		CurrentView: string(m.CurrentView),
		Bindings:    plain,
		HelpView:    full.View(helpKeyMap{full: [][]key.Binding{m.globalBindings(), bindings}}),
	})
}
