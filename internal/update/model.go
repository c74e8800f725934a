// Package update is the terminal front end: a bubbletea model that reads
// through the stores, shows the sorted and filtered task lists, and routes
// every mutation through the lifecycle coordinator.
package update

import (
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/taskflow/internal/lifecycle"
	"github.com/sandeepkv93/taskflow/internal/model"
	"github.com/sandeepkv93/taskflow/internal/notify"
	"github.com/sandeepkv93/taskflow/internal/query"
)

type View string

const (
	ViewTasks   View = "Tasks"
	ViewArchive View = "Archive"
)

type FilterState struct {
	Search  string
	Filters query.Filters
}

func (f FilterState) IsZero() bool {
	return f.Search == "" && f.Filters.IsZero()
}

type StatusBar struct {
	Text    string
	IsError bool
}

type inputMode int

const (
	modeNormal inputMode = iota
	modeSearch
	modeQuickAdd
	modePalette
	modeConfirm
	modeDescribe
)

type confirmState struct {
	prompt string
	action tea.Cmd
}

// Deps wires the model to the core. Coordinator is required.
type Deps struct {
	Coordinator   *lifecycle.Coordinator
	Events        <-chan notify.Event
	Log           *slog.Logger
	DefaultStatus model.Status
	Now           func() time.Time
}

type Model struct {
	CurrentView View
	CategoryID  int64
	Filter      FilterState
	Categories  []model.Category
	Tasks       []model.Task
	Counts      lifecycle.Counts
	Cursor      int
	Selection   *lifecycle.Selection
	Status      StatusBar
	Keys        KeyMap
	HelpVisible bool
	Loading     bool
	Quitting    bool
	LastError   error

	mode    inputMode
	confirm confirmState
	// editing is the task whose description is open in descriptionArea.
	editing model.Task

	defaultStatus model.Status

	coord  *lifecycle.Coordinator
	events <-chan notify.Event
	log    *slog.Logger
	now    func() time.Time

	searchInput     textinput.Model
	quickAddInput   textinput.Model
	commandInput    textinput.Model
	descriptionArea textarea.Model
	loadSpinner     spinner.Model
	helpModel       help.Model
	detail          viewport.Model
}

type SwitchViewMsg struct {
	View View
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

// DataLoadedMsg carries a fresh read of categories, the current view's
// tasks, and counts.
type DataLoadedMsg struct {
	View       View
	Categories []model.Category
	Tasks      []model.Task
	Counts     lifecycle.Counts
	Err        error
}

type MutationDoneMsg struct {
	Text string
	Err  error
}

type CountsChangedMsg struct {
	Counts lifecycle.Counts
}

func NewModel(deps Deps) Model {
	log := deps.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	m := Model{
		CurrentView: ViewTasks,
		Selection:   lifecycle.NewSelection(),
		Keys:        DefaultKeyMap(),
		Loading:     true,
		coord:       deps.Coordinator,
		events:      deps.Events,
		log:         log,
		now:         now,

		defaultStatus: deps.DefaultStatus,
	}
	m.resetFilter()
	m.initBubbleComponents()
	return m
}

func (m *Model) initBubbleComponents() {
	m.searchInput = textinput.New()
	m.searchInput.Prompt = "search> "
	m.searchInput.CharLimit = 128
	m.searchInput.Width = 42

	m.quickAddInput = textinput.New()
	m.quickAddInput.Prompt = "add> "
	m.quickAddInput.Placeholder = "title #category !priority due:YYYY-MM-DD"
	m.quickAddInput.CharLimit = 256
	m.quickAddInput.Width = 48

	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 48

	m.descriptionArea = textarea.New()
	m.descriptionArea.SetWidth(54)
	m.descriptionArea.SetHeight(8)
	m.descriptionArea.ShowLineNumbers = false
	m.descriptionArea.Placeholder = "Task description (markdown)"

	m.loadSpinner = spinner.New()
	m.loadSpinner.Spinner = spinner.Dot

	m.helpModel = help.New()
	m.detail = viewport.New(44, 12)
}
