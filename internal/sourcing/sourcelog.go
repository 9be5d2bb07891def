package sourcing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/vaxsource/immunize-cli/internal/db"
)

// LogEntry represents a row in imm.source_log: one sourcing attempt for one
// dataset release.
type LogEntry struct {
	ID          string     `json:"id"`
	DatasetUID  string     `json:"dataset_uid"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Entries     int64      `json:"entries"`
	Error       string     `json:"error,omitempty"`
}

// SourceLog records sourcing attempts. It writes outside the dataset
// transaction on purpose: a failed run must stay visible after the rollback.
type SourceLog struct {
	pool db.Pool
}

// NewSourceLog creates a SourceLog backed by the given connection pool.
func NewSourceLog(pool db.Pool) *SourceLog {
	return &SourceLog{pool: pool}
}

// Start records the beginning of a sourcing run and returns its ID.
func (s *SourceLog) Start(ctx context.Context, datasetUID string) (string, error) {
	id := uuid.NewString()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO imm.source_log (id, dataset_uid, status, started_at)
		 VALUES ($1, $2, 'running', now())`,
		id, datasetUID,
	)
	if err != nil {
		return "", eris.Wrapf(err, "sourcelog: start run for %s", datasetUID)
	}
	return id, nil
}

// Complete marks a sourcing run as successful.
func (s *SourceLog) Complete(ctx context.Context, runID string, entries int64) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE imm.source_log
		 SET status = 'complete', completed_at = now(), entries = $1
		 WHERE id = $2`,
		entries, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sourcelog: complete run %s", runID)
	}
	return nil
}

// Fail marks a sourcing run as failed with an error message.
func (s *SourceLog) Fail(ctx context.Context, runID string, errMsg string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE imm.source_log
		 SET status = 'failed', completed_at = now(), error = $1
		 WHERE id = $2`,
		errMsg, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sourcelog: fail run %s", runID)
	}
	return nil
}

// ListAll returns every sourcing run, most recent first.
func (s *SourceLog) ListAll(ctx context.Context) ([]LogEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, dataset_uid, status, started_at, completed_at, entries, error
		 FROM imm.source_log ORDER BY started_at DESC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sourcelog: list all")
	}
	defer rows.Close()

	var entries []LogEntry
	for rows.Next() {
		var e LogEntry
		var errStr *string
		if err := rows.Scan(&e.ID, &e.DatasetUID, &e.Status, &e.StartedAt, &e.CompletedAt, &e.Entries, &errStr); err != nil {
			return nil, eris.Wrap(err, "sourcelog: scan entry")
		}
		if errStr != nil {
			e.Error = *errStr
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
