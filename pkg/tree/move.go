package tree

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnknownNode is returned when an id is not present in the Forest.
var ErrUnknownNode = errors.New("unknown todo")

// CycleError rejects a move that would make a node its own ancestor.
type CycleError struct {
	Source      int64
	Destination int64
}

func (e *CycleError) Error() string {
	if e.Source == e.Destination {
		return fmt.Sprintf("cannot move #%d under itself", e.Source)
	}
	return fmt.Sprintf("cannot move #%d under its descendant #%d", e.Source, e.Destination)
}

// Candidate is a legal destination for a move.
type Candidate struct {
	ID int64
	// Current marks the node that is already the source's parent.
	Current bool
}

// Subtree returns id and all of its descendants.
func (f *Forest) Subtree(id int64) map[int64]struct{} {
	out := make(map[int64]struct{})
	if _, ok := f.Nodes[id]; !ok {
		return out
	}
	stack := []int64{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := out[cur]; seen {
			continue
		}
		out[cur] = struct{}{}
		stack = append(stack, f.Nodes[cur].Children...)
	}
	return out
}

// Descendants returns the ids below id, in pre-order.
func (f *Forest) Descendants(id int64) []int64 {
	n, ok := f.Nodes[id]
	if !ok {
		return nil
	}
	var out []int64
	var walk func(ids []int64)
	walk = func(ids []int64) {
		for _, c := range ids {
			out = append(out, c)
			walk(f.Nodes[c].Children)
		}
	}
	walk(n.Children)
	return out
}

// CandidateDestinations lists every node that source may be moved under, in
// tree order: everything except source and its subtree. The current parent
// is included and flagged.
func CandidateDestinations(f *Forest, source int64) ([]Candidate, error) {
	if _, ok := f.Nodes[source]; !ok {
		return nil, fmt.Errorf("candidate destinations for #%d: %w", source, ErrUnknownNode)
	}
	excluded := f.Subtree(source)
	parent, hasParent := f.Parent(source)

	out := make([]Candidate, 0, len(f.Nodes)-len(excluded))
	for l := range Flatten(f, AllExpanded, nil) {
		if _, skip := excluded[l.ID]; skip {
			continue
		}
		out = append(out, Candidate{ID: l.ID, Current: hasParent && l.ID == parent})
	}
	return out, nil
}

// ValidateMove checks that source may be placed under dest (nil for root).
func ValidateMove(f *Forest, source int64, dest *int64) error {
	if _, ok := f.Nodes[source]; !ok {
		return fmt.Errorf("move #%d: %w", source, ErrUnknownNode)
	}
	if dest == nil {
		return nil
	}
	if _, ok := f.Nodes[*dest]; !ok {
		return fmt.Errorf("move #%d under #%d: %w", source, *dest, ErrUnknownNode)
	}
	if _, inside := f.Subtree(source)[*dest]; inside {
		return &CycleError{Source: source, Destination: *dest}
	}
	return nil
}

// ParentUpdater persists a new parent for a todo. A nil parent makes it a root.
type ParentUpdater interface {
	UpdateParent(ctx context.Context, id int64, parent *int64) error
}

// Move reparents source under dest (nil for root) through store. It reports
// whether anything was written; callers must rebuild the Forest after a
// successful move before walking it again.
func Move(ctx context.Context, store ParentUpdater, f *Forest, source int64, dest *int64) (bool, error) {
	if err := ValidateMove(f, source, dest); err != nil {
		return false, err
	}
	cur := f.Nodes[source].Todo.ParentID
	switch {
	case dest == nil && cur == nil:
		return false, nil
	case dest != nil && cur != nil && *dest == *cur:
		return false, nil
	}
	if err := store.UpdateParent(ctx, source, dest); err != nil {
		return false, fmt.Errorf("move #%d: %w", source, err)
	}
	return true, nil
}
