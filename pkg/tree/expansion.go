package tree

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"

	json "github.com/goccy/go-json"
)

// Expander reports whether a node's children should be walked.
type Expander interface {
	IsExpanded(id int64) bool
}

// allExpanded treats every node as expanded.
type allExpanded struct{}

func (allExpanded) IsExpanded(int64) bool { return true }

// AllExpanded is an Expander that opens every node. Search scopes and
// exports walk the forest through it.
var AllExpanded Expander = allExpanded{}

// ExpansionState maps node ids to expanded/collapsed. Nodes never touched
// are expanded. It is independent of any Forest and survives rebuilds.
type ExpansionState struct {
	collapsed map[int64]bool
}

// NewExpansionState returns an empty state: everything expanded.
func NewExpansionState() *ExpansionState {
	return &ExpansionState{collapsed: make(map[int64]bool)}
}

// IsExpanded reports whether id is expanded.
func (e *ExpansionState) IsExpanded(id int64) bool {
	if e == nil {
		return true
	}
	return !e.collapsed[id]
}

// Set records an explicit state for id.
func (e *ExpansionState) Set(id int64, expanded bool) {
	if expanded {
		delete(e.collapsed, id)
		return
	}
	if e.collapsed == nil {
		e.collapsed = make(map[int64]bool)
	}
	e.collapsed[id] = true
}

// Toggle flips id and returns the new state.
func (e *ExpansionState) Toggle(id int64) bool {
	expanded := !e.IsExpanded(id)
	e.Set(id, expanded)
	return expanded
}

// ExpandAll clears every collapsed entry.
func (e *ExpansionState) ExpandAll() {
	clear(e.collapsed)
}

// CollapseAll collapses every node in f that has children.
func (e *ExpansionState) CollapseAll(f *Forest) {
	if e.collapsed == nil {
		e.collapsed = make(map[int64]bool)
	}
	for id, n := range f.Nodes {
		if n.HasChildren() {
			e.collapsed[id] = true
		}
	}
}

// ExpandPath expands every ancestor of id so that id becomes reachable.
func (e *ExpansionState) ExpandPath(f *Forest, id int64) {
	for _, a := range f.Ancestors(id) {
		delete(e.collapsed, a)
	}
}

// Prune drops entries for ids that no longer exist in f.
func (e *ExpansionState) Prune(f *Forest) {
	for id := range e.collapsed {
		if _, ok := f.Nodes[id]; !ok {
			delete(e.collapsed, id)
		}
	}
}

// CollapsedCount returns how many nodes are explicitly collapsed.
func (e *ExpansionState) CollapsedCount() int {
	return len(e.collapsed)
}

// ── Persistence ──

// expansionFile is the on-disk checkpoint. Only collapsed ids are stored;
// anything absent uses the expanded default.
type expansionFile struct {
	Version   int     `json:"version"`
	Collapsed []int64 `json:"collapsed"`
}

// ExpansionStateVersion is the current schema version of the checkpoint file.
const ExpansionStateVersion = 1

// ExpansionStateFile is the checkpoint file name inside the state directory.
const ExpansionStateFile = "tree-state.json"

// Save writes the state to path, creating parent directories.
func (e *ExpansionState) Save(path string) error {
	st := expansionFile{Version: ExpansionStateVersion, Collapsed: make([]int64, 0, len(e.collapsed))}
	for id := range e.collapsed {
		st.Collapsed = append(st.Collapsed, id)
	}
	slices.Sort(st.Collapsed)

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal expansion state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write expansion state: %w", err)
	}
	return nil
}

// LoadExpansionState reads a checkpoint written by Save. A missing or
// corrupt file yields an empty state; corruption is logged.
func LoadExpansionState(path string) *ExpansionState {
	e := NewExpansionState()
	data, err := os.ReadFile(path)
	if err != nil {
		return e
	}
	var st expansionFile
	if err := json.Unmarshal(data, &st); err != nil {
		log.Printf("warning: invalid tree state file, using defaults: %v", err)
		return e
	}
	for _, id := range st.Collapsed {
		e.collapsed[id] = true
	}
	return e
}
