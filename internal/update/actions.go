package update

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/taskflow/internal/commands"
	"github.com/sandeepkv93/taskflow/internal/lifecycle"
	"github.com/sandeepkv93/taskflow/internal/model"
	"github.com/sandeepkv93/taskflow/internal/notify"
)

func (m Model) loadCmd() tea.Cmd {
	coord := m.coord
	view := m.CurrentView
	return func() tea.Msg {
		ctx := context.Background()
		msg := DataLoadedMsg{View: view}
		cats, err := coord.Categories().ListAll(ctx)
		if err != nil {
			msg.Err = err
			return msg
		}
		var tasks []model.Task
		if view == ViewArchive {
			tasks, err = coord.Tasks().ListArchived(ctx)
		} else {
			tasks, err = coord.Tasks().ListActive(ctx)
		}
		if err != nil {
			msg.Err = err
			return msg
		}
		counts, err := coord.Counts(ctx)
		if err != nil {
			msg.Err = err
			return msg
		}
		msg.Categories, msg.Tasks, msg.Counts = cats, tasks, counts
		return msg
	}
}

func waitForCountsCmd(ch <-chan notify.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return CountsChangedMsg{Counts: ev.Counts}
	}
}

func mutationCmd(fn func(context.Context) (string, error)) tea.Cmd {
	return func() tea.Msg {
		text, err := fn(context.Background())
		return MutationDoneMsg{Text: text, Err: err}
	}
}

func (m Model) toggleCmd(task model.Task) tea.Cmd {
	coord := m.coord
	return mutationCmd(func(ctx context.Context) (string, error) {
		updated, err := coord.ToggleComplete(ctx, task.ID)
		if err != nil {
			return "", fmt.Errorf("toggle %q: %w", task.Title, err)
		}
		if updated.Completed {
			return fmt.Sprintf("completed: %s", updated.Title), nil
		}
		return fmt.Sprintf("reopened: %s", updated.Title), nil
	})
}

func (m Model) archiveCmd(task model.Task) tea.Cmd {
	coord := m.coord
	return mutationCmd(func(ctx context.Context) (string, error) {
		if _, err := coord.Archive(ctx, task.ID); err != nil {
			return "", fmt.Errorf("archive %q: %w", task.Title, err)
		}
		return fmt.Sprintf("archived: %s", task.Title), nil
	})
}

func (m Model) restoreCmd(task model.Task) tea.Cmd {
	coord := m.coord
	return mutationCmd(func(ctx context.Context) (string, error) {
		if _, err := coord.Restore(ctx, task.ID); err != nil {
			return "", fmt.Errorf("restore %q: %w", task.Title, err)
		}
		return fmt.Sprintf("restored: %s", task.Title), nil
	})
}

func (m Model) deleteCmd(task model.Task) tea.Cmd {
	coord := m.coord
	return mutationCmd(func(ctx context.Context) (string, error) {
		if err := coord.DeleteTask(ctx, task.ID); err != nil {
			return "", fmt.Errorf("delete %q: %w", task.Title, err)
		}
		return fmt.Sprintf("deleted: %s", task.Title), nil
	})
}

func (m Model) bulkRestoreCmd(sel *lifecycle.Selection) tea.Cmd {
	coord := m.coord
	return mutationCmd(func(ctx context.Context) (string, error) {
		res, err := coord.BulkRestore(ctx, sel)
		if err != nil {
			return "", fmt.Errorf("restore selected tasks: %w", err)
		}
		return fmt.Sprintf("%d tasks restored", res.Applied), nil
	})
}

func (m Model) bulkDeleteCmd(sel *lifecycle.Selection) tea.Cmd {
	coord := m.coord
	return mutationCmd(func(ctx context.Context) (string, error) {
		res, err := coord.BulkDelete(ctx, sel)
		if err != nil {
			return "", fmt.Errorf("delete selected tasks: %w", err)
		}
		return fmt.Sprintf("%d tasks permanently deleted", res.Applied), nil
	})
}

func (m Model) createCmd(in model.TaskInput) tea.Cmd {
	coord := m.coord
	return mutationCmd(func(ctx context.Context) (string, error) {
		task, err := coord.CreateTask(ctx, in)
		if err != nil {
			return "", fmt.Errorf("add task: %w", err)
		}
		return fmt.Sprintf("added: %s", task.Title), nil
	})
}

// taskInputFromArgs resolves the category named in add, falling back to the
// active category and then to the first one.
func (m Model) taskInputFromArgs(add commands.AddArgs) (model.TaskInput, error) {
	in := model.TaskInput{Title: add.Title, Priority: add.Priority, DueDate: add.DueDate}
	switch {
	case add.Category != "":
		cat, ok := m.categoryByName(add.Category)
		if !ok {
			return in, fmt.Errorf("%w: %q", model.ErrUnknownCategory, add.Category)
		}
		in.CategoryID = cat.ID
	case m.CategoryID != 0:
		in.CategoryID = m.CategoryID
	case len(m.Categories) > 0:
		in.CategoryID = m.Categories[0].ID
	default:
		return in, model.ErrMissingCategory
	}
	return in, nil
}

func (m Model) editCmd(task model.Task, patch model.TaskPatch) tea.Cmd {
	coord := m.coord
	return mutationCmd(func(ctx context.Context) (string, error) {
		updated, err := coord.EditTask(ctx, task.ID, patch)
		if err != nil {
			return "", fmt.Errorf("edit %q: %w", task.Title, err)
		}
		return fmt.Sprintf("saved: %s", updated.Title), nil
	})
}

// patchFromArgs turns the non-empty fields of edit into a task patch.
func (m Model) patchFromArgs(edit commands.EditArgs) (model.TaskPatch, error) {
	patch := model.TaskPatch{DueDate: edit.DueDate, ClearDueDate: edit.ClearDueDate}
	if edit.Title != "" {
		title := edit.Title
		patch.Title = &title
	}
	if edit.Category != "" {
		cat, ok := m.categoryByName(edit.Category)
		if !ok {
			return patch, fmt.Errorf("%w: %q", model.ErrUnknownCategory, edit.Category)
		}
		patch.CategoryID = &cat.ID
	}
	if edit.Priority != "" {
		priority := edit.Priority
		patch.Priority = &priority
	}
	return patch, nil
}

// editLine renders task as an edit command for the palette to start from.
func (m Model) editLine(task model.Task) string {
	parts := []string{"edit", task.Title}
	if name := m.categoryName(task.CategoryID); name != "" && !strings.ContainsAny(name, " \t") {
		parts = append(parts, "#"+name)
	}
	parts = append(parts, "!"+string(task.Priority))
	if task.DueDate != nil {
		parts = append(parts, "due:"+task.DueDate.Format(commands.DateLayout))
	}
	return strings.Join(parts, " ")
}

func (m Model) categoryByName(name string) (model.Category, bool) {
	for _, c := range m.Categories {
		if strings.EqualFold(c.Name, strings.TrimSpace(name)) {
			return c, true
		}
	}
	return model.Category{}, false
}

func (m Model) categoryName(id int64) string {
	for _, c := range m.Categories {
		if c.ID == id {
			return c.Name
		}
	}
	return ""
}
