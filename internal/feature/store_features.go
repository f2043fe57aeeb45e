package feature

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Insert appends a new feature at the back of the priority order. The
// priority is computed inside the insert statement so concurrent creates
// never observe the same maximum.
func (s *Store) Insert(ctx context.Context, draft Draft) (*Feature, error) {
	ctx = ensureContext(ctx)
	stepsJSON, err := encodeSteps(draft.Steps)
	if err != nil {
		return nil, err
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO features (priority, category, name, description, steps_json, passes, created_at, updated_at)
         VALUES ((SELECT COALESCE(MAX(priority), 0) + 1 FROM features), ?, ?, ?, ?, 0, ?, ?)`,
		draft.Category,
		draft.Name,
		draft.Description,
		stepsJSON,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert feature: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

// InsertBatch appends drafts in order inside a single transaction. The batch
// receives consecutive priorities starting directly after the current
// maximum, so either every draft lands or none do.
func (s *Store) InsertBatch(ctx context.Context, drafts []Draft) ([]*Feature, error) {
	if len(drafts) == 0 {
		return nil, nil
	}
	ctx = ensureContext(ctx)
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin batch tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var base int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(priority), 0) FROM features`).Scan(&base); err != nil {
		return nil, fmt.Errorf("read max priority: %w", err)
	}

	ids := make([]int64, 0, len(drafts))
	for i, draft := range drafts {
		stepsJSON, err := encodeSteps(draft.Steps)
		if err != nil {
			return nil, err
		}
		res, err := tx.ExecContext(
			ctx,
			`INSERT INTO features (priority, category, name, description, steps_json, passes, created_at, updated_at)
             VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
			base+int64(i)+1,
			draft.Category,
			draft.Name,
			draft.Description,
			stepsJSON,
			timestamp,
			timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("insert feature %d of %d: %w", i+1, len(drafts), err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("last insert id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit batch: %w", err)
	}

	return s.byIDs(ctx, ids)
}

// ImportRecords loads rows produced by an earlier export, keeping the
// priorities and passing state they carry. Records without a priority are
// appended after the highest one seen. The whole import runs in one
// transaction.
func (s *Store) ImportRecords(ctx context.Context, records []Record) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}
	ctx = ensureContext(ctx)
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var next int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(priority), 0) + 1 FROM features`).Scan(&next); err != nil {
		return 0, fmt.Errorf("read max priority: %w", err)
	}

	for i, rec := range records {
		priority := rec.Priority
		switch {
		case priority <= 0:
			priority = next
			next++
		case priority >= next:
			next = priority + 1
		}
		stepsJSON, err := encodeSteps(rec.Steps)
		if err != nil {
			return 0, err
		}
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO features (priority, category, name, description, steps_json, passes, created_at, updated_at)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			priority,
			rec.Category,
			rec.Name,
			rec.Description,
			stepsJSON,
			boolToInt(rec.Passes),
			timestamp,
			timestamp,
		); err != nil {
			return 0, fmt.Errorf("import record %d of %d: %w", i+1, len(records), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return int64(len(records)), nil
}

// GetByID fetches a feature by identifier. A missing id yields (nil, nil).
func (s *Store) GetByID(ctx context.Context, id int64) (*Feature, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+featureColumns+` FROM features WHERE id = ?`, id)
	f, err := scanFeature(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get feature: %w", err)
	}
	return f, nil
}

// List returns one page of the backlog in (priority, id) order together with
// the total number of rows matching the filters. Page and count run in the
// same transaction so they describe the same snapshot.
func (s *Store) List(ctx context.Context, query ListQuery) ([]*Feature, int64, error) {
	ctx = ensureContext(ctx)

	limit := query.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	offset := query.Offset
	if offset < 0 {
		offset = 0
	}

	conditions := make([]string, 0, 2)
	args := make([]any, 0, 2)
	if query.Passes != nil {
		conditions = append(conditions, "passes = ?")
		args = append(args, boolToInt(*query.Passes))
	}
	if query.Category != "" {
		conditions = append(conditions, "category = ?")
		args = append(args, query.Category)
	}
	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("begin list tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var total int64
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM features`+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count features: %w", err)
	}

	rows, err := tx.QueryContext(
		ctx,
		`SELECT `+featureColumns+` FROM features`+whereClause+` ORDER BY priority, id LIMIT ? OFFSET ?`,
		append(args, limit, offset)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list features: %w", err)
	}
	defer rows.Close()

	features := make([]*Feature, 0, limit)
	for rows.Next() {
		f, err := scanFeature(rows)
		if err != nil {
			return nil, 0, err
		}
		features = append(features, f)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("commit list tx: %w", err)
	}
	return features, total, nil
}

// NextPending returns the highest-priority feature that is not yet passing,
// or (nil, nil) when everything passes.
func (s *Store) NextPending(ctx context.Context) (*Feature, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT `+featureColumns+` FROM features WHERE passes = 0 ORDER BY priority, id LIMIT 1`,
	)
	f, err := scanFeature(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next pending feature: %w", err)
	}
	return f, nil
}

// SetPasses updates the passing state of a feature and returns the updated
// row. A missing id yields (nil, nil).
func (s *Store) SetPasses(ctx context.Context, id int64, passes bool) (*Feature, error) {
	ctx = ensureContext(ctx)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE features SET passes = ?, updated_at = ? WHERE id = ?`,
		boolToInt(passes),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("update passes: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, nil
	}
	return s.GetByID(ctx, id)
}

// Remove deletes a feature by identifier. The freed id is never handed out
// again.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ensureContext(ctx), `DELETE FROM features WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete feature: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

func (s *Store) byIDs(ctx context.Context, ids []int64) ([]*Feature, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := makePlaceholders(len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+featureColumns+` FROM features WHERE id IN (`+placeholders+`) ORDER BY id`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("load features by id: %w", err)
	}
	defer rows.Close()

	features := make([]*Feature, 0, len(ids))
	for rows.Next() {
		f, err := scanFeature(rows)
		if err != nil {
			return nil, err
		}
		features = append(features, f)
	}
	return features, rows.Err()
}
