package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/zjrosen/capwire/internal/history"
	"github.com/zjrosen/capwire/internal/log"
)

// historyRepository implements history.Repository using SQLite.
type historyRepository struct {
	db *sql.DB
}

func newHistoryRepository(db *sql.DB) *historyRepository {
	return &historyRepository{db: db}
}

var _ history.Repository = (*historyRepository)(nil)

// Save inserts a session and its resolutions in one transaction.
func (r *historyRepository) Save(s *history.Session) error {
	session := toSessionModel(s)
	resolutions, err := toResolutionModels(s.ID, s.Resolutions)
	if err != nil {
		return fmt.Errorf("encoding attempts: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(
		`INSERT INTO sessions (id, version_tier, vendor_tag, is_64bit, recorded_at) VALUES (?, ?, ?, ?, ?)`,
		session.ID, session.VersionTier, session.VendorTag, session.Is64Bit, session.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO resolutions (session_id, seq, capability, outcome, candidate, depth, error, attempts)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("failed to prepare resolution insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, m := range resolutions {
		if _, err := stmt.Exec(m.SessionID, m.Seq, m.Capability, m.Outcome, m.Candidate, m.Depth, m.Error, m.Attempts); err != nil {
			return fmt.Errorf("failed to insert resolution: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit session: %w", err)
	}
	log.Debug(log.CatHistory, "session recorded", "session", s.ID, "resolutions", len(resolutions))
	return nil
}

// Find loads a session with its resolutions in the order they happened.
func (r *historyRepository) Find(id string) (*history.Session, error) {
	var m SessionModel
	err := r.db.QueryRow(
		`SELECT id, version_tier, vendor_tag, is_64bit, recorded_at FROM sessions WHERE id = ?`, id,
	).Scan(&m.ID, &m.VersionTier, &m.VendorTag, &m.Is64Bit, &m.RecordedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &history.NotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	rows, err := r.db.Query(
		`SELECT session_id, seq, capability, outcome, candidate, depth, error, attempts
		 FROM resolutions WHERE session_id = ? ORDER BY seq`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load resolutions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	s := &history.Session{ID: m.ID, Profile: m.profile(), RecordedAt: m.recordedAt()}
	for rows.Next() {
		var rm ResolutionModel
		if err := rows.Scan(&rm.SessionID, &rm.Seq, &rm.Capability, &rm.Outcome,
			&rm.Candidate, &rm.Depth, &rm.Error, &rm.Attempts); err != nil {
			return nil, fmt.Errorf("failed to scan resolution row: %w", err)
		}
		res, err := rm.toDomain()
		if err != nil {
			return nil, fmt.Errorf("decoding attempts of %s: %w", rm.Capability, err)
		}
		s.Resolutions = append(s.Resolutions, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating resolution rows: %w", err)
	}
	return s, nil
}

// List returns session summaries, newest first.
func (r *historyRepository) List(filter history.ListFilter) ([]history.Summary, error) {
	query := `SELECT s.id, s.version_tier, s.vendor_tag, s.is_64bit, s.recorded_at,
			COUNT(r.id),
			COALESCE(SUM(CASE WHEN r.outcome = 'failed' THEN 1 ELSE 0 END), 0)
		FROM sessions s
		LEFT JOIN resolutions r ON r.session_id = s.id`
	var args []any

	if filter.Capability != "" {
		query += ` WHERE EXISTS (
			SELECT 1 FROM resolutions x WHERE x.session_id = s.id AND x.capability = ?)`
		args = append(args, filter.Capability)
	}

	query += ` GROUP BY s.id ORDER BY s.recorded_at DESC, s.rowid DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []history.Summary
	for rows.Next() {
		var (
			m   SessionModel
			sum history.Summary
		)
		if err := rows.Scan(&m.ID, &m.VersionTier, &m.VendorTag, &m.Is64Bit, &m.RecordedAt,
			&sum.Resolutions, &sum.Failures); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		sum.ID = m.ID
		sum.Profile = m.profile()
		sum.RecordedAt = m.recordedAt()
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session rows: %w", err)
	}
	return out, nil
}

// Prune deletes sessions recorded before the cutoff; their resolutions go
// with them through the foreign key.
func (r *historyRepository) Prune(before time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE recorded_at < ?`, before.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to prune sessions: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	log.Info(log.CatHistory, "pruned sessions", "count", n, "before", before)
	return n, nil
}
