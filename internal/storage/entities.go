package storage

import (
	"database/sql"
	"time"

	"github.com/sandeepkv93/taskflow/internal/model"
)

const (
	sqlTimeLayout = time.RFC3339Nano
	// due_date holds a calendar day, not an instant.
	sqlDateLayout = "2006-01-02"
)

type taskRow struct {
	ID          int64          `db:"id"`
	Title       string         `db:"title"`
	Description string         `db:"description"`
	CategoryID  int64          `db:"category_id"`
	Priority    string         `db:"priority"`
	DueDate     sql.NullString `db:"due_date"`
	Completed   int            `db:"completed"`
	CompletedAt sql.NullString `db:"completed_at"`
	Archived    int            `db:"archived"`
	CreatedAt   string         `db:"created_at"`
	SortOrder   int64          `db:"sort_order"`
}

const taskColumns = `id, title, description, category_id, priority, due_date, completed, completed_at, archived, created_at, sort_order`

// toModel converts the row; due dates are read as midnight in loc.
func (r taskRow) toModel(loc *time.Location) (model.Task, error) {
	createdAt, err := parseRequiredTime(r.CreatedAt)
	if err != nil {
		return model.Task{}, err
	}
	dueDate, err := parseNullableDate(r.DueDate, loc)
	if err != nil {
		return model.Task{}, err
	}
	completedAt, err := parseNullableTime(r.CompletedAt)
	if err != nil {
		return model.Task{}, err
	}
	return model.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		CategoryID:  r.CategoryID,
		Priority:    model.Priority(r.Priority),
		DueDate:     dueDate,
		Completed:   r.Completed == 1,
		CompletedAt: completedAt,
		Archived:    r.Archived == 1,
		CreatedAt:   createdAt,
		Order:       r.SortOrder,
	}, nil
}

type categoryRow struct {
	ID        int64  `db:"id"`
	Name      string `db:"name"`
	Color     string `db:"color"`
	Icon      string `db:"icon"`
	SortOrder int64  `db:"sort_order"`
}

const categoryColumns = `id, name, color, icon, sort_order`

func (r categoryRow) toModel() model.Category {
	return model.Category{ID: r.ID, Name: r.Name, Color: r.Color, Icon: r.Icon, Order: r.SortOrder}
}

func nullTime(v *time.Time) any {
	if v == nil {
		return nil
	}
	return v.UTC().Format(sqlTimeLayout)
}

// nullDate keeps the calendar day of v in its own location.
func nullDate(v *time.Time) any {
	if v == nil {
		return nil
	}
	return v.Format(sqlDateLayout)
}

func mustTime(v time.Time) string {
	return v.UTC().Format(sqlTimeLayout)
}

func parseNullableTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	tm, err := time.Parse(sqlTimeLayout, v.String)
	if err != nil {
		return nil, err
	}
	return &tm, nil
}

func parseNullableDate(v sql.NullString, loc *time.Location) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	day, err := time.ParseInLocation(sqlDateLayout, v.String, loc)
	if err != nil {
		// Rows written before due dates were stored as days carry a full timestamp.
		tm, tsErr := time.Parse(sqlTimeLayout, v.String)
		if tsErr != nil {
			return nil, err
		}
		tm = tm.In(loc)
		day = time.Date(tm.Year(), tm.Month(), tm.Day(), 0, 0, 0, 0, loc)
	}
	return &day, nil
}

func parseRequiredTime(v string) (time.Time, error) {
	return time.Parse(sqlTimeLayout, v)
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
