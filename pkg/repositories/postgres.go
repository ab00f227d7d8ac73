package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/ledgergames/splitsecond/pkg/ledger"
)

type PostgresRepository struct {
	conn *pgx.Conn
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS objects (
	object_id TEXT PRIMARY KEY,
	object_type TEXT NOT NULL,
	owner TEXT NOT NULL DEFAULT '',
	shared BOOLEAN NOT NULL DEFAULT FALSE,
	version BIGINT NOT NULL,
	data BYTEA NOT NULL,
	updated_at BIGINT NOT NULL
);
`

// NewPostgresRepository creates a Repository backed by postgres.
// The caller is responsible for calling Close() on the repository.
func NewPostgresRepository(ctx context.Context, connStr string) (Repository, error) {
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	if _, err := conn.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("failed to create schema: %v", err)
	}

	return &PostgresRepository{
		conn: conn,
	}, nil
}

func (r *PostgresRepository) Close(ctx context.Context) error {
	return r.conn.Close(ctx)
}

func (r *PostgresRepository) SaveObject(ctx context.Context, timestamp int64, snapshot ledger.ObjectSnapshot) error {
	data, err := compressData(snapshot.Data)
	if err != nil {
		return err
	}
	q := `
	INSERT INTO objects (object_id, object_type, owner, shared, version, data, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (object_id) DO UPDATE SET version = $5, data = $6, updated_at = $7;
	`
	_, err = r.conn.Exec(ctx, q, snapshot.ObjectID, snapshot.Type, snapshot.Owner, snapshot.Shared, snapshot.Version, data, timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert object: %v", err)
	}
	return nil
}

func (r *PostgresRepository) SaveObjects(ctx context.Context, timestamp int64, snapshots []ledger.ObjectSnapshot) error {
	tx, err := r.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	for _, snapshot := range snapshots {
		data, err := compressData(snapshot.Data)
		if err != nil {
			return err
		}
		q := `
		INSERT INTO objects (object_id, object_type, owner, shared, version, data, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (object_id) DO UPDATE SET version = $5, data = $6, updated_at = $7;
		`
		_, err = tx.Exec(ctx, q, snapshot.ObjectID, snapshot.Type, snapshot.Owner, snapshot.Shared, snapshot.Version, data, timestamp)
		if err != nil {
			return fmt.Errorf("failed to insert object: %v", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}
	return nil
}

func (r *PostgresRepository) LoadObjects(ctx context.Context) ([]ledger.ObjectSnapshot, error) {
	rows, err := r.conn.Query(ctx, "SELECT object_id, object_type, owner, shared, version, data FROM objects")
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

func (r *PostgresRepository) LoadObject(ctx context.Context, objectID string) (*ledger.ObjectSnapshot, error) {
	q := `
	SELECT object_id, object_type, owner, shared, version, data FROM objects WHERE object_id = $1;
	`
	snapshot, err := scanSnapshot(r.conn.QueryRow(ctx, q, objectID).Scan)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, &ErrNotFound{}
		}
		return nil, err
	}
	return snapshot, nil
}
