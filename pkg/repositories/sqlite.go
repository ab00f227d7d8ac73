package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ledgergames/splitsecond/pkg/ledger"
	_ "github.com/mattn/go-sqlite3"
)

type SQLiteRepository struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS objects (
	object_id TEXT PRIMARY KEY,
	object_type TEXT NOT NULL,
	owner TEXT NOT NULL DEFAULT '',
	shared INTEGER NOT NULL DEFAULT 0,
	version INTEGER NOT NULL,
	data BLOB NOT NULL,
	updated_at INTEGER NOT NULL
);
`

func NewSQLiteRepository(ctx context.Context, path string) (Repository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return nil, fmt.Errorf("failed to create schema: %v", err)
	}

	return &SQLiteRepository{
		db: db,
	}, nil
}

func (r *SQLiteRepository) Close(ctx context.Context) error {
	return r.db.Close()
}

func (r *SQLiteRepository) SaveObject(ctx context.Context, timestamp int64, snapshot ledger.ObjectSnapshot) error {
	data, err := compressData(snapshot.Data)
	if err != nil {
		return err
	}
	q := `
	INSERT OR REPLACE INTO objects (object_id, object_type, owner, shared, version, data, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?);
	`
	_, err = r.db.ExecContext(ctx, q, snapshot.ObjectID, snapshot.Type, snapshot.Owner, snapshot.Shared, snapshot.Version, data, timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert object: %v", err)
	}
	return nil
}

func (r *SQLiteRepository) SaveObjects(ctx context.Context, timestamp int64, snapshots []ledger.ObjectSnapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	for _, snapshot := range snapshots {
		data, err := compressData(snapshot.Data)
		if err != nil {
			return err
		}
		q := `
		INSERT OR REPLACE INTO objects (object_id, object_type, owner, shared, version, data, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?);
		`
		_, err = tx.ExecContext(ctx, q, snapshot.ObjectID, snapshot.Type, snapshot.Owner, snapshot.Shared, snapshot.Version, data, timestamp)
		if err != nil {
			return fmt.Errorf("failed to insert object: %v", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}
	return nil
}

func (r *SQLiteRepository) LoadObjects(ctx context.Context) ([]ledger.ObjectSnapshot, error) {
	q := `
	SELECT object_id, object_type, owner, shared, version, data FROM objects;
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query objects: %v", err)
	}
	defer rows.Close()

	var snapshots []ledger.ObjectSnapshot
	for rows.Next() {
		snapshot, err := scanSnapshot(rows.Scan)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, *snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read objects: %v", err)
	}
	return snapshots, nil
}

func (r *SQLiteRepository) LoadObject(ctx context.Context, objectID string) (*ledger.ObjectSnapshot, error) {
	q := `
	SELECT object_id, object_type, owner, shared, version, data FROM objects WHERE object_id = ?;
	`
	snapshot, err := scanSnapshot(r.db.QueryRowContext(ctx, q, objectID).Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, &ErrNotFound{}
		}
		return nil, err
	}
	return snapshot, nil
}

func scanSnapshot(scan func(dest ...interface{}) error) (*ledger.ObjectSnapshot, error) {
	var snapshot ledger.ObjectSnapshot
	var data []byte
	if err := scan(&snapshot.ObjectID, &snapshot.Type, &snapshot.Owner, &snapshot.Shared, &snapshot.Version, &data); err != nil {
		return nil, err
	}
	decompressed, err := decompressData(data)
	if err != nil {
		return nil, err
	}
	snapshot.Data = decompressed
	return &snapshot, nil
}
