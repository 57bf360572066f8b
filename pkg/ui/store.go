package ui

import (
	"context"

	"github.com/vanderheijden86/tododb/pkg/model"
)

// Store is the subset of the record store the UI writes through.
type Store interface {
	LoadAll(ctx context.Context) ([]model.Todo, error)
	Create(ctx context.Context, n model.NewTodo) (int64, error)
	Update(ctx context.Context, id int64, title, description string) error
	UpdateParent(ctx context.Context, id int64, parent *int64) error
	SetCompleted(ctx context.Context, id int64, done bool) error
	ToggleCompleted(ctx context.Context, id int64) (bool, error)
	ToggleHidden(ctx context.Context, id int64) (bool, error)
	Delete(ctx context.Context, id int64) (int64, error)
}
