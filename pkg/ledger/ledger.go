package ledger

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/ledgergames/splitsecond/pkg/clock"
	"github.com/ledgergames/splitsecond/pkg/game"
	gametypes "github.com/ledgergames/splitsecond/pkg/game/types"
	"github.com/ledgergames/splitsecond/pkg/log"
	"github.com/ledgergames/splitsecond/pkg/queue"
)

// object is one entry in the object table. Exactly one of Game or Board
// is set, matching Type.
type object struct {
	id      string
	objType string
	owner   string
	shared  bool
	version uint64
	game    *gametypes.Game
	board   *gametypes.Leaderboard
}

// Ledger is the in-process object runtime. It holds every owned Game
// and shared Leaderboard, applies transactions one at a time under a
// single lock, and records finalized transactions by digest.
//
// The single lock is what gives shared objects their total order: no
// two stop calls can interleave their reads and writes of the same
// leaderboard.
type Ledger struct {
	lock       sync.RWMutex
	objects    map[string]*object
	txs        map[string]*TransactionRecord
	clock      clock.Clock
	eventQueue queue.Queue
}

type NewLedgerOptions struct {
	Clock clock.Clock
	// EventQueue receives every emitted ResultEvent. Optional.
	EventQueue queue.Queue
}

func NewLedger(opts NewLedgerOptions) *Ledger {
	return &Ledger{
		objects:    make(map[string]*object),
		txs:        make(map[string]*TransactionRecord),
		clock:      opts.Clock,
		eventQueue: opts.EventQueue,
	}
}

// Submit executes one transaction atomically. The returned record is
// always non-nil and queryable by digest afterwards; the error mirrors
// the record's failure status for callers that want to branch on it.
// A failed transaction mutates nothing.
func (l *Ledger) Submit(tx *Transaction) (*TransactionRecord, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	record := &TransactionRecord{
		Digest:      uuid.New().String(),
		Kind:        tx.Kind,
		Sender:      tx.Sender,
		TimestampMs: l.clock.NowMs(),
	}

	err := l.apply(tx, record)
	if err != nil {
		record.Status = TxStatusFailure
		record.Error = err.Error()
		record.ObjectChanges = nil
		record.Events = nil
	} else {
		record.Status = TxStatusSuccess
	}
	l.txs[record.Digest] = record

	for _, event := range record.Events {
		l.emit(event)
	}

	return record, err
}

func (l *Ledger) apply(tx *Transaction, record *TransactionRecord) error {
	switch tx.Kind {
	case TxCreateLeaderboard:
		return l.applyCreateLeaderboard(record)
	case TxCreateGame:
		return l.applyCreateGame(tx, record)
	case TxStart:
		return l.applyStart(tx, record)
	case TxStop:
		return l.applyStop(tx, record)
	case TxResetBest:
		return l.applyResetBest(tx, record)
	default:
		return fmt.Errorf("unknown transaction kind: %s", tx.Kind)
	}
}

func (l *Ledger) applyCreateLeaderboard(record *TransactionRecord) error {
	id := uuid.New().String()
	obj := &object{
		id:      id,
		objType: TypeTagLeaderboard,
		shared:  true,
		version: 1,
		board:   gametypes.NewLeaderboard(id),
	}
	l.objects[id] = obj
	record.ObjectChanges = append(record.ObjectChanges, ObjectChange{
		Kind:       ChangeCreated,
		ObjectID:   id,
		ObjectType: TypeTagLeaderboard,
		Shared:     true,
	})
	log.Info("Created leaderboard %s", id)
	return nil
}

func (l *Ledger) applyCreateGame(tx *Transaction, record *TransactionRecord) error {
	id := uuid.New().String()
	obj := &object{
		id:      id,
		objType: TypeTagGame,
		owner:   tx.Sender,
		version: 1,
		game:    gametypes.NewGame(id, tx.Sender),
	}
	l.objects[id] = obj
	record.ObjectChanges = append(record.ObjectChanges, ObjectChange{
		Kind:       ChangeCreated,
		ObjectID:   id,
		ObjectType: TypeTagGame,
		Owner:      tx.Sender,
	})
	log.Info("Created game %s for %s", id, tx.Sender)
	return nil
}

func (l *Ledger) applyStart(tx *Transaction, record *TransactionRecord) error {
	obj, err := l.ownedGame(tx.GameID, tx.Sender)
	if err != nil {
		return err
	}
	if err := game.Start(obj.game, l.clock); err != nil {
		return err
	}
	l.markMutated(obj, record)
	return nil
}

func (l *Ledger) applyStop(tx *Transaction, record *TransactionRecord) error {
	obj, err := l.ownedGame(tx.GameID, tx.Sender)
	if err != nil {
		return err
	}
	boardObj, err := l.sharedLeaderboard(tx.LeaderboardID)
	if err != nil {
		return err
	}
	event, err := game.Stop(obj.game, boardObj.board, l.clock, tx.Name)
	if err != nil {
		return err
	}
	l.markMutated(obj, record)
	l.markMutated(boardObj, record)
	record.Events = append(record.Events, *event)
	log.Debug("Player %s stopped with diff %d (best %d)", event.Player, event.DiffMs, event.NewBestMs)
	return nil
}

func (l *Ledger) applyResetBest(tx *Transaction, record *TransactionRecord) error {
	obj, err := l.ownedGame(tx.GameID, tx.Sender)
	if err != nil {
		return err
	}
	game.ResetBest(obj.game)
	l.markMutated(obj, record)
	return nil
}

func (l *Ledger) ownedGame(id, sender string) (*object, error) {
	obj, ok := l.objects[id]
	if !ok {
		return nil, &ErrObjectNotFound{ObjectID: id}
	}
	if obj.objType != TypeTagGame {
		return nil, &ErrWrongObjectType{ObjectID: id, Want: TypeTagGame, Got: obj.objType}
	}
	if obj.owner != sender {
		return nil, &ErrUnauthorized{ObjectID: id, Sender: sender}
	}
	return obj, nil
}

func (l *Ledger) sharedLeaderboard(id string) (*object, error) {
	obj, ok := l.objects[id]
	if !ok {
		return nil, &ErrObjectNotFound{ObjectID: id}
	}
	if obj.objType != TypeTagLeaderboard {
		return nil, &ErrWrongObjectType{ObjectID: id, Want: TypeTagLeaderboard, Got: obj.objType}
	}
	return obj, nil
}

func (l *Ledger) markMutated(obj *object, record *TransactionRecord) {
	obj.version++
	record.ObjectChanges = append(record.ObjectChanges, ObjectChange{
		Kind:       ChangeMutated,
		ObjectID:   obj.id,
		ObjectType: obj.objType,
		Owner:      obj.owner,
		Shared:     obj.shared,
	})
}

func (l *Ledger) emit(event gametypes.ResultEvent) {
	if l.eventQueue == nil {
		return
	}
	if err := l.eventQueue.Enqueue(&event); err != nil {
		log.Warn("Failed to enqueue result event: %v", err)
	}
}

// GetObject returns the loosely-typed read form of an object.
func (l *Ledger) GetObject(id string) (*RawObject, error) {
	l.lock.RLock()
	defer l.lock.RUnlock()

	obj, ok := l.objects[id]
	if !ok {
		return nil, &ErrObjectNotFound{ObjectID: id}
	}
	return renderObject(obj), nil
}

// GetOwnedObjects returns all objects owned by the given address,
// optionally filtered by type tag.
func (l *Ledger) GetOwnedObjects(owner, typeTag string) []*RawObject {
	l.lock.RLock()
	defer l.lock.RUnlock()

	var raws []*RawObject
	for _, obj := range l.objects {
		if obj.shared || obj.owner != owner {
			continue
		}
		if typeTag != "" && obj.objType != typeTag {
			continue
		}
		raws = append(raws, renderObject(obj))
	}
	return raws
}

// GetTransaction returns a finalized transaction record by digest.
func (l *Ledger) GetTransaction(digest string) (*TransactionRecord, error) {
	l.lock.RLock()
	defer l.lock.RUnlock()

	record, ok := l.txs[digest]
	if !ok {
		return nil, &ErrTransactionNotFound{Digest: digest}
	}
	return record, nil
}

// renderObject produces the raw read form: u64 fields as decimal
// strings, optional timestamps as string-or-null, names as byte arrays.
// Callers hold at least the read lock.
func renderObject(obj *object) *RawObject {
	raw := &RawObject{
		ObjectID: obj.id,
		Version:  obj.version,
		Type:     obj.objType,
		Owner:    obj.owner,
		Shared:   obj.shared,
	}
	switch obj.objType {
	case TypeTagGame:
		content := map[string]interface{}{
			"best_diff_ms": strconv.FormatUint(obj.game.BestDiffMs, 10),
		}
		if obj.game.ActiveStart != nil {
			content["active_start_ms"] = strconv.FormatInt(*obj.game.ActiveStart, 10)
		} else {
			content["active_start_ms"] = nil
		}
		raw.Content = content
	case TypeTagLeaderboard:
		entries := make([]interface{}, 0, len(obj.board.Entries))
		for _, entry := range obj.board.Entries {
			entries = append(entries, map[string]interface{}{
				"player":       entry.Player,
				"best_diff_ms": strconv.FormatUint(entry.BestDiffMs, 10),
				"name":         nameBytes(entry.Name),
			})
		}
		raw.Content = map[string]interface{}{
			"entries": entries,
		}
	}
	return raw
}

func nameBytes(name string) []interface{} {
	b := []byte(name)
	out := make([]interface{}, len(b))
	for i, v := range b {
		out[i] = int(v)
	}
	return out
}
