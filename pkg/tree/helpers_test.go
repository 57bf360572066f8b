package tree

import (
	"context"
	"fmt"
	"time"

	"github.com/vanderheijden86/tododb/pkg/model"
)

var testEpoch = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

// td builds a todo; parent 0 means root.
func td(id, parent int64, title string) model.Todo {
	t := model.Todo{ID: id, Title: title, CreatedAt: testEpoch, UpdatedAt: testEpoch}
	if parent != 0 {
		t.ParentID = model.Ptr(parent)
	}
	return t
}

// sample is a small project tree:
//
//	1 Project
//	├── 2 Design
//	│   └── 4 Wireframes
//	└── 3 Build
//	    ├── 5 Backend
//	    └── 6 Frontend
//	7 Chores
func sample() []model.Todo {
	return []model.Todo{
		td(1, 0, "Project"),
		td(2, 1, "Design"),
		td(3, 1, "Build"),
		td(4, 2, "Wireframes"),
		td(5, 3, "Backend"),
		td(6, 3, "Frontend"),
		td(7, 0, "Chores"),
	}
}

// memStore is an in-memory ParentUpdater over a todo slice.
type memStore struct {
	todos []model.Todo
	calls int
	fail  error
}

func (m *memStore) UpdateParent(_ context.Context, id int64, parent *int64) error {
	m.calls++
	if m.fail != nil {
		return m.fail
	}
	for i := range m.todos {
		if m.todos[i].ID == id {
			if parent == nil {
				m.todos[i].ParentID = nil
			} else {
				m.todos[i].ParentID = model.Ptr(*parent)
			}
			return nil
		}
	}
	return fmt.Errorf("no todo %d", id)
}

func (m *memStore) parents() map[int64]int64 {
	out := make(map[int64]int64)
	for _, t := range m.todos {
		if t.ParentID != nil {
			out[t.ID] = *t.ParentID
		}
	}
	return out
}

// hasParentCycle walks every todo's parent chain and reports a repeat.
func hasParentCycle(todos []model.Todo) bool {
	parent := make(map[int64]int64)
	for _, t := range todos {
		if t.ParentID != nil {
			parent[t.ID] = *t.ParentID
		}
	}
	for _, t := range todos {
		seen := map[int64]bool{t.ID: true}
		cur := t.ID
		for {
			p, ok := parent[cur]
			if !ok {
				break
			}
			if seen[p] {
				return true
			}
			seen[p] = true
			cur = p
		}
	}
	return false
}
