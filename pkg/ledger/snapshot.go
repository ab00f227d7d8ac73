package ledger

import (
	"encoding/json"
	"fmt"

	gametypes "github.com/ledgergames/splitsecond/pkg/game/types"
)

// ObjectSnapshot is the persistable form of one object. Data is the
// canonical JSON of the typed state, not the loosely-typed read form.
type ObjectSnapshot struct {
	ObjectID string
	Type     string
	Owner    string
	Shared   bool
	Version  uint64
	Data     []byte
}

// Snapshot returns a persistable copy of every object in the ledger.
func (l *Ledger) Snapshot() ([]ObjectSnapshot, error) {
	l.lock.RLock()
	defer l.lock.RUnlock()

	snapshots := make([]ObjectSnapshot, 0, len(l.objects))
	for _, obj := range l.objects {
		var data []byte
		var err error
		switch obj.objType {
		case TypeTagGame:
			data, err = json.Marshal(obj.game)
		case TypeTagLeaderboard:
			data, err = json.Marshal(obj.board)
		default:
			err = fmt.Errorf("unknown object type: %s", obj.objType)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to marshal object %s: %v", obj.id, err)
		}
		snapshots = append(snapshots, ObjectSnapshot{
			ObjectID: obj.id,
			Type:     obj.objType,
			Owner:    obj.owner,
			Shared:   obj.shared,
			Version:  obj.version,
			Data:     data,
		})
	}
	return snapshots, nil
}

// SnapshotObject returns a persistable copy of a single object.
func (l *Ledger) SnapshotObject(id string) (*ObjectSnapshot, error) {
	l.lock.RLock()
	defer l.lock.RUnlock()

	obj, ok := l.objects[id]
	if !ok {
		return nil, &ErrObjectNotFound{ObjectID: id}
	}
	var data []byte
	var err error
	switch obj.objType {
	case TypeTagGame:
		data, err = json.Marshal(obj.game)
	case TypeTagLeaderboard:
		data, err = json.Marshal(obj.board)
	default:
		err = fmt.Errorf("unknown object type: %s", obj.objType)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal object %s: %v", obj.id, err)
	}
	return &ObjectSnapshot{
		ObjectID: obj.id,
		Type:     obj.objType,
		Owner:    obj.owner,
		Shared:   obj.shared,
		Version:  obj.version,
		Data:     data,
	}, nil
}

// Restore loads objects from snapshots, replacing any objects with the
// same ids. Used once at startup before the ledger accepts transactions.
func (l *Ledger) Restore(snapshots []ObjectSnapshot) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	for _, snapshot := range snapshots {
		obj := &object{
			id:      snapshot.ObjectID,
			objType: snapshot.Type,
			owner:   snapshot.Owner,
			shared:  snapshot.Shared,
			version: snapshot.Version,
		}
		switch snapshot.Type {
		case TypeTagGame:
			g := &gametypes.Game{}
			if err := json.Unmarshal(snapshot.Data, g); err != nil {
				return fmt.Errorf("failed to unmarshal game %s: %v", snapshot.ObjectID, err)
			}
			obj.game = g
		case TypeTagLeaderboard:
			board := &gametypes.Leaderboard{}
			if err := json.Unmarshal(snapshot.Data, board); err != nil {
				return fmt.Errorf("failed to unmarshal leaderboard %s: %v", snapshot.ObjectID, err)
			}
			obj.board = board
		default:
			return fmt.Errorf("unknown object type in snapshot: %s", snapshot.Type)
		}
		l.objects[snapshot.ObjectID] = obj
	}
	return nil
}
