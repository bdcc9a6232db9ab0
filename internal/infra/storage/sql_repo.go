package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SQLSaveRepository implements SaveRepository.
type SQLSaveRepository struct {
	db *DB
}

// NewSaveRepository creates a save repository on db.
func NewSaveRepository(db *DB) *SQLSaveRepository {
	return &SQLSaveRepository{db: db}
}

// Put stores a new revision and points the slot at it.
func (r *SQLSaveRepository) Put(ctx context.Context, rec SaveRecord) error {
	tx, err := r.db.SQL.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	savedAt := rec.SavedAt.UnixMilli()
	_, err = tx.ExecContext(ctx, r.db.q(`
		INSERT INTO save_revisions (revision, slot, data, playtime, stage, reset_times, saved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`), rec.Revision, rec.Slot, rec.Data, rec.Playtime, rec.Stage, rec.ResetTimes, savedAt)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, r.db.q(`
		INSERT INTO save_slots (slot, revision, data, playtime, stage, reset_times, saved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			revision = excluded.revision,
			data = excluded.data,
			playtime = excluded.playtime,
			stage = excluded.stage,
			reset_times = excluded.reset_times,
			saved_at = excluded.saved_at
	`), rec.Slot, rec.Revision, rec.Data, rec.Playtime, rec.Stage, rec.ResetTimes, savedAt)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// Latest returns the current revision of slot.
func (r *SQLSaveRepository) Latest(ctx context.Context, slot string) (*SaveRecord, error) {
	row := r.db.SQL.QueryRowContext(ctx, r.db.q(`
		SELECT slot, revision, data, playtime, stage, reset_times, saved_at
		FROM save_slots WHERE slot = ?
	`), slot)

	rec, err := scanSave(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSave
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// History returns up to limit revisions of slot, newest first.
func (r *SQLSaveRepository) History(ctx context.Context, slot string, limit int) ([]SaveRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.SQL.QueryContext(ctx, r.db.q(`
		SELECT slot, revision, data, playtime, stage, reset_times, saved_at
		FROM save_revisions WHERE slot = ?
		ORDER BY saved_at DESC LIMIT ?
	`), slot, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SaveRecord
	for rows.Next() {
		rec, err := scanSave(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// Delete drops slot and all of its revisions.
func (r *SQLSaveRepository) Delete(ctx context.Context, slot string) error {
	tx, err := r.db.SQL.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, r.db.q(`DELETE FROM save_revisions WHERE slot = ?`), slot); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, r.db.q(`DELETE FROM save_slots WHERE slot = ?`), slot); err != nil {
		return err
	}
	return tx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSave(row scanner) (*SaveRecord, error) {
	var rec SaveRecord
	var savedAt int64
	if err := row.Scan(&rec.Slot, &rec.Revision, &rec.Data, &rec.Playtime, &rec.Stage, &rec.ResetTimes, &savedAt); err != nil {
		return nil, err
	}
	rec.SavedAt = time.UnixMilli(savedAt)
	return &rec, nil
}

// SQLMessageRepository implements MessageRepository.
type SQLMessageRepository struct {
	db *DB
}

// NewMessageRepository creates a message repository on db.
func NewMessageRepository(db *DB) *SQLMessageRepository {
	return &SQLMessageRepository{db: db}
}

// Append stores one message.
func (r *SQLMessageRepository) Append(ctx context.Context, msg MessageRecord) error {
	_, err := r.db.SQL.ExecContext(ctx, r.db.q(`
		INSERT INTO messages (id, slot, seq, created_at, msg_type, body, playtime)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`), msg.ID, msg.Slot, msg.Seq, msg.Timestamp.UnixMilli(), msg.Type, msg.Text, msg.Playtime)
	return err
}

// Since returns slot's messages created at or after t.
func (r *SQLMessageRepository) Since(ctx context.Context, slot string, t time.Time) ([]MessageRecord, error) {
	return r.query(ctx, `
		SELECT id, slot, seq, created_at, msg_type, body, playtime
		FROM messages WHERE slot = ? AND created_at >= ?
		ORDER BY created_at ASC, seq ASC
	`, slot, t.UnixMilli())
}

// ByType returns slot's messages of one type.
func (r *SQLMessageRepository) ByType(ctx context.Context, slot, msgType string) ([]MessageRecord, error) {
	return r.query(ctx, `
		SELECT id, slot, seq, created_at, msg_type, body, playtime
		FROM messages WHERE slot = ? AND msg_type = ?
		ORDER BY created_at ASC, seq ASC
	`, slot, msgType)
}

func (r *SQLMessageRepository) query(ctx context.Context, query string, args ...any) ([]MessageRecord, error) {
	rows, err := r.db.SQL.QueryContext(ctx, r.db.q(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MessageRecord
	for rows.Next() {
		var m MessageRecord
		var created int64
		if err := rows.Scan(&m.ID, &m.Slot, &m.Seq, &created, &m.Type, &m.Text, &m.Playtime); err != nil {
			return nil, err
		}
		m.Timestamp = time.UnixMilli(created)
		out = append(out, m)
	}
	return out, rows.Err()
}
