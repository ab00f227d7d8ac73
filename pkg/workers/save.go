package workers

import (
	"context"
	"time"

	"github.com/ledgergames/splitsecond/pkg/ledger"
	"github.com/ledgergames/splitsecond/pkg/log"
	"github.com/ledgergames/splitsecond/pkg/repositories"
)

// SaveObjectRequest asks the worker to persist one object now rather
// than waiting for the next periodic snapshot.
type SaveObjectRequest struct {
	Timestamp int64
	ObjectID  string
}

type SaveLedgerWorker struct {
	repository   repositories.Repository
	ledger       *ledger.Ledger
	saveObjectCh <-chan SaveObjectRequest
	interval     time.Duration
}

type NewSaveLedgerWorkerOptions struct {
	Repository   repositories.Repository
	Ledger       *ledger.Ledger
	SaveObjectCh <-chan SaveObjectRequest
	Interval     time.Duration
}

// NewSaveLedgerWorker creates a new SaveLedgerWorker.
// The worker processes save requests from the API handlers and
// periodically snapshots the whole ledger to the repository.
func NewSaveLedgerWorker(opts NewSaveLedgerWorkerOptions) *SaveLedgerWorker {
	return &SaveLedgerWorker{
		repository:   opts.Repository,
		ledger:       opts.Ledger,
		saveObjectCh: opts.SaveObjectCh,
		interval:     opts.Interval,
	}
}

func (w *SaveLedgerWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case saveRequest := <-w.saveObjectCh:
			w.saveObject(ctx, saveRequest)
		case t := <-ticker.C:
			w.saveLedger(ctx, t.UnixMilli())
		}
	}
}

func (w *SaveLedgerWorker) saveObject(ctx context.Context, saveRequest SaveObjectRequest) {
	snapshot, err := w.ledger.SnapshotObject(saveRequest.ObjectID)
	if err != nil {
		log.Error("Failed to snapshot object %s: %v", saveRequest.ObjectID, err)
		return
	}
	if err := w.repository.SaveObject(ctx, saveRequest.Timestamp, *snapshot); err != nil {
		log.Error("Failed to save object %s: %v", saveRequest.ObjectID, err)
	}
}

func (w *SaveLedgerWorker) saveLedger(ctx context.Context, timestamp int64) {
	snapshots, err := w.ledger.Snapshot()
	if err != nil {
		log.Error("Failed to snapshot ledger: %v", err)
		return
	}
	if len(snapshots) == 0 {
		return
	}
	if err := w.repository.SaveObjects(ctx, timestamp, snapshots); err != nil {
		log.Error("Failed to save ledger snapshot: %v", err)
	}
}
