// Package batch holds the label session: the raw form inputs an operator
// types, the values derived from them, the submit gate, and the history of
// batches submitted in this process.
//
// Derived values (known-code flag, label plan, use-by date) are never stored.
// Every read recomputes them from the raw inputs so they cannot go stale.
//
// The lifecycle is cyclic: Editing -> Ready -> Submitted -> Editing. A
// submission keeps every field so the next batch of a shift only needs a new
// code and quantity.
package batch
