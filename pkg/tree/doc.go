// Package tree turns the flat todo list into a navigable forest and owns the
// interactive state that rides on top of it.
//
// The pieces, leaf first:
//
//   - Build converts records into a Forest (an id-keyed arena, children kept
//     as sorted id lists, no back-pointers).
//   - ExpansionState remembers which nodes are collapsed. It outlives any
//     single Forest; unseen nodes default to expanded.
//   - Flatten walks a Forest in pre-order and yields the visible Lines.
//   - CandidateDestinations and Move reparent a node without creating cycles.
//   - Searcher and GotoState produce ordered match sets with cyclic
//     next/previous navigation over the visible ordering.
//
// A Forest is never mutated after Build. Every change goes through the store
// followed by a full rebuild.
package tree
