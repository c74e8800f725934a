package lifecycle

import "github.com/sandeepkv93/taskflow/internal/model"

// Counts backs the sidebar and archive badges. ByCategory counts active
// tasks only.
type Counts struct {
	Active     int
	Archived   int
	ByCategory map[int64]int
}

func CountTasks(tasks []model.Task) Counts {
	c := Counts{ByCategory: make(map[int64]int)}
	for _, t := range tasks {
		if t.Archived {
			c.Archived++
			continue
		}
		c.Active++
		c.ByCategory[t.CategoryID]++
	}
	return c
}

// Category returns the active count for id, zero when it has none.
func (c Counts) Category(id int64) int {
	return c.ByCategory[id]
}

// Observer is notified synchronously after every mutation that may change
// counts. It must not block.
type Observer interface {
	OnCountsChanged(Counts)
}

type ObserverFunc func(Counts)

func (f ObserverFunc) OnCountsChanged(c Counts) {
	f(c)
}
