package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/bias-detector/internal/history"
	"github.com/jonathan/bias-detector/internal/types"
)

// HistoryStore is a history.Store backed by PostgreSQL.
type HistoryStore struct {
	db *DB
}

var _ history.Store = (*HistoryStore)(nil)

// NewHistoryStore returns a store using db. Call db.EnsureSchema first.
func NewHistoryStore(db *DB) *HistoryStore {
	return &HistoryStore{db: db}
}

const historyColumns = `id, key, title, company, group_name, analyzed_at,
	original_score, improved_score, issue_count, resolved_count, text, result`

// Save inserts or replaces a record. A record without an id is assigned one.
func (s *HistoryStore) Save(ctx context.Context, r *history.Record) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	var resultJSON []byte
	if r.Result != nil {
		var err error
		resultJSON, err = json.Marshal(r.Result)
		if err != nil {
			return fmt.Errorf("failed to marshal analysis result: %w", err)
		}
	}

	_, err := s.db.pool.Exec(ctx,
		`INSERT INTO analysis_history (`+historyColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (id) DO UPDATE SET
		   key = $2, title = $3, company = $4, group_name = $5, analyzed_at = $6,
		   original_score = $7, improved_score = $8, issue_count = $9,
		   resolved_count = $10, text = $11, result = $12`,
		r.ID, r.Key, r.Title, r.Company, r.Group, r.AnalyzedAt,
		r.OriginalScore, r.ImprovedScore, r.IssueCount, r.ResolvedCount, r.Text, resultJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to save history record %s: %w", r.ID, err)
	}
	return nil
}

// Get retrieves a record by id. It returns nil, nil when none exists.
func (s *HistoryStore) Get(ctx context.Context, id uuid.UUID) (*history.Record, error) {
	row := s.db.pool.QueryRow(ctx,
		`SELECT `+historyColumns+` FROM analysis_history WHERE id = $1`, id)
	r, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get history record: %w", err)
	}
	return r, nil
}

// List retrieves records matching f, newest first. The status condition is
// evaluated in SQL with the same thresholds as history.ComputeStatus.
func (s *HistoryStore) List(ctx context.Context, f history.Filter) ([]history.Record, error) {
	query, args := buildListQuery(f)
	rows, err := s.db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	records := []history.Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		records = append(records, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", err)
	}
	return records, nil
}

// Delete removes a record and reports whether it existed.
func (s *HistoryStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := s.db.pool.Exec(ctx, `DELETE FROM analysis_history WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete history record: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func buildListQuery(f history.Filter) (string, []any) {
	var where []string
	var args []any

	if q := strings.TrimSpace(f.Query); q != "" {
		args = append(args, "%"+escapeLike(strings.ToLower(q))+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(LOWER(title) LIKE $%[1]d OR LOWER(company) LIKE $%[1]d OR LOWER(group_name) LIKE $%[1]d OR LOWER(key) LIKE $%[1]d)", n))
	}
	switch f.Status {
	case history.StatusExcellent:
		where = append(where, "improved_score >= 95")
	case history.StatusNeedsWork:
		where = append(where, "improved_score < 95 AND original_score < 40")
	case history.StatusImproved:
		where = append(where, "improved_score < 95 AND original_score >= 40")
	}

	query := `SELECT ` + historyColumns + ` FROM analysis_history`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY analyzed_at DESC, key ASC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	return query, args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func scanRecord(row pgx.Row) (*history.Record, error) {
	var r history.Record
	var resultJSON []byte
	err := row.Scan(&r.ID, &r.Key, &r.Title, &r.Company, &r.Group, &r.AnalyzedAt,
		&r.OriginalScore, &r.ImprovedScore, &r.IssueCount, &r.ResolvedCount, &r.Text, &resultJSON)
	if err != nil {
		return nil, err
	}
	if len(resultJSON) > 0 {
		var result types.AnalysisResult
		if err := json.Unmarshal(resultJSON, &result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal analysis result: %w", err)
		}
		r.Result = &result
	}
	return &r, nil
}
