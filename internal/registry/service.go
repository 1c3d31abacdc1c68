// Package registry tracks repositories and their evaluation history in Postgres.
package registry

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Evaluation statuses.
const (
	StatusCompleted = "COMPLETED"
	StatusNoData    = "NO_DATA"
)

// ErrNotFound is returned when a repository or evaluation does not exist.
var ErrNotFound = errors.New("not found")

// Service provides repository and evaluation bookkeeping backed by Postgres.
type Service struct {
	db *sql.DB
}

// Repository is a repository tracked by chaoscope.
type Repository struct {
	ID              string     `json:"id"`
	FullName        string     `json:"fullName"`
	CreatedAt       time.Time  `json:"createdAt"`
	LastEvaluatedAt *time.Time `json:"lastEvaluatedAt,omitempty"`
}

// Evaluation is one recorded evaluation of a repository.
type Evaluation struct {
	ID           string          `json:"id"`
	RepositoryID string          `json:"repositoryId"`
	Status       string          `json:"status"`
	OverallScore *float64        `json:"overallScore,omitempty"`
	OverallLevel *string         `json:"overallLevel,omitempty"`
	ValidMonths  int             `json:"validMonths"`
	ErrorMessage *string         `json:"error,omitempty"`
	Result       json.RawMessage `json:"result,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// NewService creates a new registry Service.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

const repoColumns = `id, full_name, created_at, last_evaluated_at`

func scanRepository(row interface{ Scan(...any) error }) (*Repository, error) {
	r := &Repository{}
	if err := row.Scan(&r.ID, &r.FullName, &r.CreatedAt, &r.LastEvaluatedAt); err != nil {
		return nil, err
	}
	return r, nil
}

// UpsertRepository creates the repository record if it does not exist.
func (s *Service) UpsertRepository(ctx context.Context, fullName string) (*Repository, error) {
	r, err := scanRepository(s.db.QueryRowContext(ctx,
		`INSERT INTO repositories (full_name)
		 VALUES ($1)
		 ON CONFLICT (full_name) DO UPDATE SET updated_at = now()
		 RETURNING `+repoColumns,
		fullName,
	))
	if err != nil {
		return nil, fmt.Errorf("upsert repository %s: %w", fullName, err)
	}
	return r, nil
}

// GetRepository retrieves a repository by full name.
func (s *Service) GetRepository(ctx context.Context, fullName string) (*Repository, error) {
	r, err := scanRepository(s.db.QueryRowContext(ctx,
		`SELECT `+repoColumns+` FROM repositories WHERE full_name = $1`,
		fullName,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get repository %s: %w", fullName, err)
	}
	return r, nil
}

// ListRepositories returns every tracked repository ordered by name.
func (s *Service) ListRepositories(ctx context.Context) ([]Repository, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+repoColumns+` FROM repositories ORDER BY full_name`,
	)
	if err != nil {
		return nil, fmt.Errorf("list repositories: %w", err)
	}
	defer rows.Close()

	repos := []Repository{}
	for rows.Next() {
		r, err := scanRepository(rows)
		if err != nil {
			return nil, fmt.Errorf("scan repository: %w", err)
		}
		repos = append(repos, *r)
	}
	return repos, rows.Err()
}

// DeleteRepository removes a repository and, by cascade, its evaluations.
func (s *Service) DeleteRepository(ctx context.Context, fullName string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM repositories WHERE full_name = $1`, fullName)
	if err != nil {
		return fmt.Errorf("delete repository %s: %w", fullName, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete repository %s: %w", fullName, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

const evalColumns = `id, repository_id, status, overall_score, overall_level, valid_months, error_message, result, created_at`

func scanEvaluation(row interface{ Scan(...any) error }) (*Evaluation, error) {
	e := &Evaluation{}
	var result []byte
	if err := row.Scan(&e.ID, &e.RepositoryID, &e.Status, &e.OverallScore, &e.OverallLevel,
		&e.ValidMonths, &e.ErrorMessage, &result, &e.CreatedAt); err != nil {
		return nil, err
	}
	if len(result) > 0 {
		e.Result = json.RawMessage(result)
	}
	return e, nil
}

// RecordEvaluation inserts an evaluation row and stamps the repository's
// last evaluation time.
func (s *Service) RecordEvaluation(ctx context.Context, e Evaluation) (*Evaluation, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var result any
	if len(e.Result) > 0 {
		result = []byte(e.Result)
	}
	rec, err := scanEvaluation(tx.QueryRowContext(ctx,
		`INSERT INTO evaluations (repository_id, status, overall_score, overall_level, valid_months, error_message, result)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+evalColumns,
		e.RepositoryID, e.Status, e.OverallScore, e.OverallLevel, e.ValidMonths, e.ErrorMessage, result,
	))
	if err != nil {
		return nil, fmt.Errorf("insert evaluation: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE repositories SET last_evaluated_at = $1, updated_at = now() WHERE id = $2`,
		rec.CreatedAt, e.RepositoryID,
	); err != nil {
		return nil, fmt.Errorf("stamp repository: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return rec, nil
}

// LatestEvaluation returns the most recent evaluation of a repository.
func (s *Service) LatestEvaluation(ctx context.Context, fullName string) (*Evaluation, error) {
	e, err := scanEvaluation(s.db.QueryRowContext(ctx,
		`SELECT e.id, e.repository_id, e.status, e.overall_score, e.overall_level, e.valid_months, e.error_message, e.result, e.created_at
		 FROM evaluations e JOIN repositories r ON r.id = e.repository_id
		 WHERE r.full_name = $1
		 ORDER BY e.created_at DESC
		 LIMIT 1`,
		fullName,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest evaluation %s: %w", fullName, err)
	}
	return e, nil
}

// ListEvaluations returns up to limit evaluations of a repository, newest
// first. Result documents are omitted.
func (s *Service) ListEvaluations(ctx context.Context, fullName string, limit int) ([]Evaluation, error) {
	if limit <= 0 || limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT e.id, e.repository_id, e.status, e.overall_score, e.overall_level, e.valid_months, e.error_message, NULL, e.created_at
		 FROM evaluations e JOIN repositories r ON r.id = e.repository_id
		 WHERE r.full_name = $1
		 ORDER BY e.created_at DESC
		 LIMIT $2`,
		fullName, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	defer rows.Close()

	evals := []Evaluation{}
	for rows.Next() {
		e, err := scanEvaluation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan evaluation: %w", err)
		}
		evals = append(evals, *e)
	}
	return evals, rows.Err()
}

// MaxHistoryLimit caps ListEvaluations.
const MaxHistoryLimit = 100
