package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/sandeepkv93/taskflow/internal/model"
)

type Type string

const (
	TypeAdd      Type = "add"
	TypeEdit     Type = "edit"
	TypeSearch   Type = "search"
	TypeFilter   Type = "filter"
	TypeClear    Type = "clear"
	TypeCategory Type = "category"
	TypeComplete Type = "complete"
	TypeArchive  Type = "archive"
	TypeRestore  Type = "restore"
	TypeDelete   Type = "delete"
	TypeView     Type = "view"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

const DateLayout = "2006-01-02"

// AddArgs is "add <title> [#category] [!priority] [due:YYYY-MM-DD]".
type AddArgs struct {
	Title    string
	Category string
	Priority model.Priority
	DueDate  *time.Time
}

// EditArgs is "edit [title] [#category] [!priority] [due:YYYY-MM-DD|due:none]".
// Empty fields are left unchanged.
type EditArgs struct {
	Title        string
	Category     string
	Priority     model.Priority
	DueDate      *time.Time
	ClearDueDate bool
}

func (e EditArgs) IsEmpty() bool {
	return e.Title == "" && e.Category == "" && e.Priority == "" && e.DueDate == nil && !e.ClearDueDate
}

type SearchArgs struct {
	Query string
}

type FilterArgs struct {
	Priority model.Priority
	Status   model.Status
	DueDate  *time.Time
}

type CategoryArgs struct {
	// Name is matched case-insensitively. "all" selects every category.
	Name string
}

type View string

const (
	ViewTasks   View = "tasks"
	ViewArchive View = "archive"
)

type ViewArgs struct {
	View View
}

type Command struct {
	Type     Type
	Raw      string
	Add      *AddArgs
	Edit     *EditArgs
	Search   *SearchArgs
	Filter   *FilterArgs
	Category *CategoryArgs
	View     *ViewArgs
}

// Parse reads one palette line. Dates are interpreted in loc; nil means
// time.Local.
func Parse(input string, loc *time.Location) (Command, error) {
	if loc == nil {
		loc = time.Local
	}
	raw := strings.TrimSpace(input)
	raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch Type(head) {
	case TypeAdd:
		return parseAdd(input, args, loc)
	case TypeEdit:
		return parseEdit(input, args, loc)
	case TypeSearch:
		return Command{Type: TypeSearch, Raw: input, Search: &SearchArgs{Query: strings.Join(args, " ")}}, nil
	case TypeFilter:
		return parseFilter(input, args, loc)
	case TypeCategory:
		return parseCategory(input, args)
	case TypeView:
		return parseView(input, args)
	case TypeClear, TypeComplete, TypeArchive, TypeRestore, TypeDelete:
		if len(args) > 0 {
			return Command{}, invalidArg("%s takes no arguments", head)
		}
		return Command{Type: Type(head), Raw: input}, nil
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseAdd(raw string, args []string, loc *time.Location) (Command, error) {
	fields, err := parseTaskFields(args, loc, false)
	if err != nil {
		return Command{}, err
	}
	if fields.Title == "" {
		return Command{}, invalidArg("add requires a title")
	}
	add := AddArgs{Title: fields.Title, Category: fields.Category, Priority: fields.Priority, DueDate: fields.DueDate}
	return Command{Type: TypeAdd, Raw: raw, Add: &add}, nil
}

func parseEdit(raw string, args []string, loc *time.Location) (Command, error) {
	fields, err := parseTaskFields(args, loc, true)
	if err != nil {
		return Command{}, err
	}
	if fields.IsEmpty() {
		return Command{}, invalidArg("edit requires a title, #category, !priority or due:")
	}
	return Command{Type: TypeEdit, Raw: raw, Edit: &fields}, nil
}

// parseTaskFields reads the shared add/edit tokens. Plain words form the
// title; due:none is accepted only when allowClear is set.
func parseTaskFields(args []string, loc *time.Location, allowClear bool) (EditArgs, error) {
	out := EditArgs{}
	words := make([]string, 0, len(args))
	for _, arg := range args {
		switch {
		case strings.HasPrefix(arg, "#") && len(arg) > 1:
			out.Category = arg[1:]
		case strings.HasPrefix(arg, "!") && len(arg) > 1:
			p, err := model.ParsePriority(arg[1:])
			if err != nil {
				return EditArgs{}, invalidArg("unknown priority %q", arg[1:])
			}
			out.Priority = p
		case hasKey(arg, "due:"):
			value := arg[len("due:"):]
			if allowClear && strings.EqualFold(value, "none") {
				out.DueDate, out.ClearDueDate = nil, true
				continue
			}
			due, err := parseDate(value, loc)
			if err != nil {
				return EditArgs{}, err
			}
			out.DueDate, out.ClearDueDate = &due, false
		default:
			words = append(words, arg)
		}
	}
	out.Title = strings.TrimSpace(strings.Join(words, " "))
	return out, nil
}

func parseFilter(raw string, args []string, loc *time.Location) (Command, error) {
	if len(args) == 0 {
		return Command{}, invalidArg("filter requires priority:, status: or due:")
	}
	f := FilterArgs{}
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, ":")
		if !ok || value == "" {
			return Command{}, invalidArg("malformed filter %q", arg)
		}
		switch strings.ToLower(key) {
		case "priority":
			p, err := model.ParsePriority(value)
			if err != nil {
				return Command{}, invalidArg("unknown priority %q", value)
			}
			f.Priority = p
		case "status":
			s, err := model.ParseStatus(value)
			if err != nil {
				return Command{}, invalidArg("unknown status %q", value)
			}
			f.Status = s
		case "due":
			due, err := parseDate(value, loc)
			if err != nil {
				return Command{}, err
			}
			f.DueDate = &due
		default:
			return Command{}, invalidArg("unknown filter %q", key)
		}
	}
	return Command{Type: TypeFilter, Raw: raw, Filter: &f}, nil
}

func parseCategory(raw string, args []string) (Command, error) {
	name := strings.TrimSpace(strings.Join(args, " "))
	if name == "" {
		return Command{}, invalidArg("category requires a name")
	}
	return Command{Type: TypeCategory, Raw: raw, Category: &CategoryArgs{Name: name}}, nil
}

func parseView(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalidArg("view requires tasks or archive")
	}
	v := View(strings.ToLower(args[0]))
	if v != ViewTasks && v != ViewArchive {
		return Command{}, invalidArg("unknown view %q", args[0])
	}
	return Command{Type: TypeView, Raw: raw, View: &ViewArgs{View: v}}, nil
}

func parseDate(value string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, value, loc)
	if err != nil {
		return time.Time{}, invalidArg("date %q must be YYYY-MM-DD", value)
	}
	return t, nil
}

func hasKey(arg, key string) bool {
	return len(arg) > len(key) && strings.EqualFold(arg[:len(key)], key)
}

func invalidArg(format string, a ...any) *CommandError {
	return &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf(format, a...)}
}
