// Package model defines the task record shared by the store, the tree
// engine and the UI.
package model

import (
	"strings"
	"time"
)

// Todo is a persisted task. ParentID is nil for roots.
type Todo struct {
	ID          int64      `json:"id" toml:"id"`
	ParentID    *int64     `json:"parent_id,omitempty" toml:"parent_id,omitempty"`
	Title       string     `json:"title" toml:"-"`
	Description string     `json:"description,omitempty" toml:"-"`
	CreatedAt   time.Time  `json:"created_at" toml:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" toml:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" toml:"completed_at,omitempty"`
	DueBy       *time.Time `json:"due_by,omitempty" toml:"due_by,omitempty"`
	Hidden      bool       `json:"hidden,omitempty" toml:"hidden"`
}

// NewTodo is the input to creating a todo; the store assigns the id.
type NewTodo struct {
	Title       string
	Description string
	ParentID    *int64
	DueBy       *time.Time
}

// IsCompleted reports whether the todo has a completion timestamp.
func (t Todo) IsCompleted() bool {
	return t.CompletedAt != nil
}

// IsRoot reports whether the todo declares no parent.
func (t Todo) IsRoot() bool {
	return t.ParentID == nil
}

// IDMod is the two-digit suffix shown next to each line and used by goto.
func (t Todo) IDMod() int64 {
	return IDMod(t.ID)
}

// IDMod returns id mod 100, always non-negative.
func IDMod(id int64) int64 {
	m := id % 100
	if m < 0 {
		m += 100
	}
	return m
}

// Validate checks the fields a store requires before insert.
func (n NewTodo) Validate() error {
	if strings.TrimSpace(n.Title) == "" {
		return ErrEmptyTitle
	}
	return nil
}

// Ptr returns a pointer to id, handy for building ParentID values.
func Ptr(id int64) *int64 {
	return &id
}
