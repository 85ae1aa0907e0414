// Package dag models the dependency relation between the tasks of a single
// job as a directed acyclic graph. The config validator builds one graph per
// job, rejects cycles, and derives a deterministic topological execution
// order from it.
package dag
