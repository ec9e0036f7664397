package db

import (
	"context"
	"fmt"
	"time"

	"github.com/attpc/daqdash/model"
)

func (s *SQLStorage) AppendLog(ctx context.Context, entry model.LogEntry) error {
	_, err := s.db.ExecContext(ctx,
		`insert into log_entries (logged_at, level, message, attrs) values ($1, $2, $3, $4)`,
		entry.Time.UTC(), entry.Level, entry.Message, entry.Attrs)
	if err != nil {
		return fmt.Errorf("could not store log entry: %w", err)
	}

	return nil
}

// RecentLogs returns up to limit entries, newest first.
func (s *SQLStorage) RecentLogs(ctx context.Context, limit int) ([]model.LogEntry, error) {
	if limit <= 0 {
		return []model.LogEntry{}, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`select logged_at, level, message, attrs from log_entries
		order by logged_at desc limit $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("could not query log entries: %w", err)
	}

	defer rows.Close()

	result := make([]model.LogEntry, 0, limit)

	for rows.Next() {
		var entry model.LogEntry

		if err := rows.Scan(&entry.Time, &entry.Level, &entry.Message, &entry.Attrs); err != nil {
			return nil, fmt.Errorf("could not scan log entry: %w", err)
		}

		result = append(result, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not read log entries: %w", err)
	}

	return result, nil
}

// PruneLogs deletes entries logged before cutoff and returns how many went.
func (s *SQLStorage) PruneLogs(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `delete from log_entries where logged_at < $1`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("could not prune log entries: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("could not count pruned log entries: %w", err)
	}

	return n, nil
}
