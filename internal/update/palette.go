package update

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/taskflow/internal/commands"
	"github.com/sandeepkv93/taskflow/internal/query"
)

var errNoTarget = errors.New("no task under the cursor")

func (m Model) executePaletteCommand(input string) (Model, tea.Cmd) {
	cmd, err := commands.Parse(input, m.now().Location())
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}

	var next tea.Cmd
	handlers := commands.Handlers{
		Add: func(args commands.AddArgs) (commands.Result, error) {
			if m.CurrentView != ViewTasks {
				return commands.Result{}, errors.New("switch to the tasks view to add tasks")
			}
			in, err := m.taskInputFromArgs(args)
			if err != nil {
				return commands.Result{}, err
			}
			next = m.createCmd(in)
			return commands.Result{Message: "adding " + in.Title}, nil
		},
		Edit: func(args commands.EditArgs) (commands.Result, error) {
			task, ok := m.currentTask()
			if !ok {
				return commands.Result{}, errNoTarget
			}
			patch, err := m.patchFromArgs(args)
			if err != nil {
				return commands.Result{}, err
			}
			next = m.editCmd(task, patch)
			return commands.Result{Message: "saving " + task.Title}, nil
		},
		Search: func(args commands.SearchArgs) (commands.Result, error) {
			m.Filter.Search = strings.TrimSpace(args.Query)
			m.Cursor = 0
			if m.Filter.Search == "" {
				return commands.Result{Message: "search cleared"}, nil
			}
			return commands.Result{Message: fmt.Sprintf("search: %q", m.Filter.Search)}, nil
		},
		Filter: func(args commands.FilterArgs) (commands.Result, error) {
			filters := query.Filters{Priority: args.Priority, Status: args.Status, DueDate: args.DueDate}
			if err := filters.Validate(); err != nil {
				return commands.Result{}, err
			}
			m.Filter.Filters = filters
			m.Cursor = 0
			if filters.IsZero() {
				return commands.Result{Message: "filters cleared"}, nil
			}
			return commands.Result{Message: "filters: " + describeFilters(filters)}, nil
		},
		Clear: func() (commands.Result, error) {
			m.resetFilter()
			return commands.Result{Message: "search and filters cleared"}, nil
		},
		Category: func(args commands.CategoryArgs) (commands.Result, error) {
			if strings.EqualFold(args.Name, "all") {
				m.CategoryID = 0
				m.Cursor = 0
				return commands.Result{Message: "category: all"}, nil
			}
			cat, ok := m.categoryByName(args.Name)
			if !ok {
				return commands.Result{}, fmt.Errorf("unknown category %q", args.Name)
			}
			m.CategoryID = cat.ID
			m.Cursor = 0
			return commands.Result{Message: "category: " + cat.Name}, nil
		},
		Complete: func() (commands.Result, error) {
			task, ok := m.currentTask()
			if !ok || m.CurrentView != ViewTasks {
				return commands.Result{}, errNoTarget
			}
			next = m.toggleCmd(task)
			return commands.Result{}, nil
		},
		Archive: func() (commands.Result, error) {
			task, ok := m.currentTask()
			if !ok || m.CurrentView != ViewTasks {
				return commands.Result{}, errNoTarget
			}
			next = m.archiveCmd(task)
			return commands.Result{}, nil
		},
		Restore: func() (commands.Result, error) {
			if m.CurrentView != ViewArchive {
				return commands.Result{}, errors.New("restore works in the archive view")
			}
			if m.Selection.Len() > 0 {
				next = m.bulkRestoreCmd(m.Selection)
				return commands.Result{}, nil
			}
			task, ok := m.currentTask()
			if !ok {
				return commands.Result{}, errNoTarget
			}
			next = m.restoreCmd(task)
			return commands.Result{}, nil
		},
		Delete: func() (commands.Result, error) {
			if m.CurrentView == ViewArchive && m.Selection.Len() > 0 {
				prompt := fmt.Sprintf("delete %d selected tasks permanently?", m.Selection.Len())
				m.askConfirm(prompt, m.bulkDeleteCmd(m.Selection))
				return commands.Result{}, nil
			}
			task, ok := m.currentTask()
			if !ok {
				return commands.Result{}, errNoTarget
			}
			m.askConfirm(fmt.Sprintf("delete %q permanently?", task.Title), m.deleteCmd(task))
			return commands.Result{}, nil
		},
		View: func(args commands.ViewArgs) (commands.Result, error) {
			target := ViewTasks
			if args.View == commands.ViewArchive {
				target = ViewArchive
			}
			m, next = m.switchView(target)
			return commands.Result{Message: "view: " + strings.ToLower(string(target))}, nil
		},
	}

	res, err := commands.Execute(cmd, handlers)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}
	if res.Message != "" {
		m.Status = StatusBar{Text: res.Message}
	}
	return m, next
}
