package commands

import "fmt"

type Result struct {
	Message string
}

// Handlers binds palette commands to actions. Complete, Archive, Restore and
// Delete act on whatever the caller considers the current target.
type Handlers struct {
	Add      func(AddArgs) (Result, error)
	Edit     func(EditArgs) (Result, error)
	Search   func(SearchArgs) (Result, error)
	Filter   func(FilterArgs) (Result, error)
	Clear    func() (Result, error)
	Category func(CategoryArgs) (Result, error)
	Complete func() (Result, error)
	Archive  func() (Result, error)
	Restore  func() (Result, error)
	Delete   func() (Result, error)
	View     func(ViewArgs) (Result, error)
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeAdd:
		if handlers.Add == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Add(*cmd.Add)
	case TypeEdit:
		if handlers.Edit == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Edit(*cmd.Edit)
	case TypeSearch:
		if handlers.Search == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Search(*cmd.Search)
	case TypeFilter:
		if handlers.Filter == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Filter(*cmd.Filter)
	case TypeCategory:
		if handlers.Category == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Category(*cmd.Category)
	case TypeView:
		if handlers.View == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.View(*cmd.View)
	case TypeClear:
		return call(cmd.Type, handlers.Clear)
	case TypeComplete:
		return call(cmd.Type, handlers.Complete)
	case TypeArchive:
		return call(cmd.Type, handlers.Archive)
	case TypeRestore:
		return call(cmd.Type, handlers.Restore)
	case TypeDelete:
		return call(cmd.Type, handlers.Delete)
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}

func call(t Type, fn func() (Result, error)) (Result, error) {
	if fn == nil {
		return Result{}, missing(t)
	}
	return fn()
}

func missing(t Type) *CommandError {
	return &CommandError{Code: ErrCodeHandlerMissing, Message: fmt.Sprintf("%s handler not configured", t)}
}
