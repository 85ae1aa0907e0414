// Package state records what the deployer last applied: a versioned snapshot
// mapping workflow keys to the job settings and job IDs they were deployed
// with. The reconciler diffs the next desired configuration against the
// current snapshot; every successful apply writes a new current snapshot and
// an immutable historic copy.
//
// Snapshots are stored through the Store interface. The filesystem store is
// the in-repo implementation; remote object storage remains an external
// collaborator behind the same interface.
package state
