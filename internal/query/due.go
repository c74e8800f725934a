package query

import "time"

type DueLabel struct {
	Text    string
	Overdue bool
	Today   bool
}

// DescribeDue renders a due date relative to now. Dates before today are
// overdue; today and tomorrow get names, anything else a short date.
func DescribeDue(due, now time.Time) DueLabel {
	due = due.In(now.Location())
	today := startOfDay(now)
	day := startOfDay(due)
	switch {
	case day.Equal(today):
		return DueLabel{Text: "Today", Today: true}
	case day.Equal(today.AddDate(0, 0, 1)):
		return DueLabel{Text: "Tomorrow"}
	}
	label := DueLabel{Text: due.Format("Jan 2"), Overdue: day.Before(today)}
	if due.Year() != now.Year() {
		label.Text = due.Format("Jan 2, 2006")
	}
	return label
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
