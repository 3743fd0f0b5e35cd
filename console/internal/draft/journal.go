// Package draft keeps unsaved inspection measurements in a local SQLite file
// so data entry survives between runs of the inspect command.
package draft

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/rs/zerolog/log"

	"github.com/mesboard/mesboard/console/internal/errs"
	"github.com/mesboard/mesboard/console/internal/inspection"
	"github.com/mesboard/mesboard/pkg/types"
)

const schemaVersion = 1

const createTablesSQL = `
CREATE TABLE IF NOT EXISTS schema_versions (
    version    INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS drafts (
    inspection_id  INTEGER NOT NULL,
    item_index     INTEGER NOT NULL,
    standard_id    INTEGER NOT NULL,
    measured_value TEXT    NOT NULL DEFAULT '',
    result         TEXT    NOT NULL DEFAULT 'PENDING',
    remarks        TEXT    NOT NULL DEFAULT '',
    updated_at     TIMESTAMP NOT NULL,
    PRIMARY KEY (inspection_id, item_index)
);
`

// Journal is a SQLite-backed draft store. Safe for concurrent use.
type Journal struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the journal at path. Use ":memory:" for a
// throwaway journal.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errs.Wrap(errs.KindStorage, "draft.Open", err)
	}
	// A single connection keeps ":memory:" databases coherent.
	db.SetMaxOpenConns(1)

	j := &Journal{db: db, now: time.Now}
	if err := j.initSchema(); err != nil {
		db.Close()
		return nil, errs.Wrap(errs.KindStorage, "draft.Open", err)
	}
	log.Debug().Str("path", path).Msg("draft: journal opened")
	return j, nil
}

func (j *Journal) initSchema() error {
	if _, err := j.db.Exec(createTablesSQL); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	_, err := j.db.Exec(
		`INSERT OR IGNORE INTO schema_versions (version, applied_at) VALUES (?, ?)`,
		schemaVersion, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (j *Journal) Close() error { return j.db.Close() }

// Save replaces the draft for inspectionID with items, atomically.
func (j *Journal) Save(ctx context.Context, inspectionID int64, items []inspection.Item) (err error) {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.Wrap(errs.KindStorage, "draft.Save", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback() //nolint:errcheck
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM drafts WHERE inspection_id = ?`, inspectionID); err != nil {
		return errs.Wrap(errs.KindStorage, "draft.Save", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO drafts (
            inspection_id, item_index, standard_id, measured_value, result, remarks, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errs.Wrap(errs.KindStorage, "draft.Save", err)
	}
	defer stmt.Close()

	at := j.now().UTC()
	for i, it := range items {
		result := it.Result
		if result == "" {
			result = types.ResultPending
		}
		if _, err = stmt.ExecContext(ctx,
			inspectionID, i, it.StandardID, it.MeasuredValue, string(result), it.Remarks, at,
		); err != nil {
			return errs.Wrap(errs.KindStorage, "draft.Save", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return errs.Wrap(errs.KindStorage, "draft.Save", err)
	}
	log.Debug().Int64("inspection", inspectionID).Int("items", len(items)).Msg("draft: saved")
	return nil
}

// Load returns the drafted items for inspectionID in item order. A missing
// draft yields an empty slice.
func (j *Journal) Load(ctx context.Context, inspectionID int64) ([]inspection.Item, error) {
	rows, err := j.db.QueryContext(ctx, `
        SELECT standard_id, measured_value, result, remarks
        FROM drafts
        WHERE inspection_id = ?
        ORDER BY item_index`, inspectionID)
	if err != nil {
		return nil, errs.Wrap(errs.KindStorage, "draft.Load", err)
	}
	defer rows.Close()

	items := []inspection.Item{}
	for rows.Next() {
		var (
			it     inspection.Item
			result string
		)
		if err := rows.Scan(&it.StandardID, &it.MeasuredValue, &result, &it.Remarks); err != nil {
			return nil, errs.Wrap(errs.KindStorage, "draft.Load", err)
		}
		it.Result = types.Result(result)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.KindStorage, "draft.Load", err)
	}
	return items, nil
}

// Delete removes the draft for inspectionID. Deleting a missing draft is not
// an error.
func (j *Journal) Delete(ctx context.Context, inspectionID int64) error {
	if _, err := j.db.ExecContext(ctx, `DELETE FROM drafts WHERE inspection_id = ?`, inspectionID); err != nil {
		return errs.Wrap(errs.KindStorage, "draft.Delete", err)
	}
	return nil
}

// List returns the ids of inspections that have a draft, ascending.
func (j *Journal) List(ctx context.Context) ([]int64, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT DISTINCT inspection_id FROM drafts ORDER BY inspection_id`)
	if err != nil {
		return nil, errs.Wrap(errs.KindStorage, "draft.List", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, errs.Wrap(errs.KindStorage, "draft.List", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.KindStorage, "draft.List", err)
	}
	return ids, nil
}
