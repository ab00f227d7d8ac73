package repositories

import (
	"context"

	"github.com/ledgergames/splitsecond/pkg/ledger"
)

// Repository persists ledger object snapshots so the ledger can be
// restored after a restart. The ledger itself stays authoritative while
// the process is running; the repository is only read at startup.
type Repository interface {
	Close(ctx context.Context) error
	SaveObject(ctx context.Context, timestamp int64, snapshot ledger.ObjectSnapshot) error
	SaveObjects(ctx context.Context, timestamp int64, snapshots []ledger.ObjectSnapshot) error
	LoadObjects(ctx context.Context) ([]ledger.ObjectSnapshot, error)
	LoadObject(ctx context.Context, objectID string) (*ledger.ObjectSnapshot, error)
}
