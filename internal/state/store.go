package state

import (
	"context"
	"errors"
)

// ErrNotFound is returned by ReadCurrent when no snapshot has been written
// yet. The caller treats it as an empty first deployment.
var ErrNotFound = errors.New("state: no current snapshot")

// Store persists deployment snapshots. WriteHistoric keeps an immutable copy
// per version; WriteCurrent replaces the single current snapshot.
type Store interface {
	ReadCurrent(ctx context.Context) (*Snapshot, error)
	WriteCurrent(ctx context.Context, snap *Snapshot) error
	WriteHistoric(ctx context.Context, snap *Snapshot) error
	ListHistoric(ctx context.Context) ([]string, error)
}
