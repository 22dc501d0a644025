package evidence

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the query surface the Postgres store needs. Both *pgxpool.Pool
// and pgx.Tx satisfy it, so the store works inside and outside transactions.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// recordColumns is the column list shared by every evidence SELECT.
const recordColumns = `id, complaint_id, file_url, file_name, mime_type,
	size_bytes, description, storage_location, uploaded_by, created_at`

// Compile-time checks that PostgresStore implements the persistence ports.
var (
	_ Repository     = (*PostgresStore)(nil)
	_ CaseDirectory  = (*PostgresStore)(nil)
	_ PromotionGuard = (*PostgresStore)(nil)
)

// PostgresStore implements the persistence ports on top of the evidence,
// complaints and evidence_promotions tables. Plain SQL through pgx, no ORM.
type PostgresStore struct {
	db DBTX
}

// NewPostgresStore creates a store over the given connection or pool.
func NewPostgresStore(db DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts a new evidence record.
func (s *PostgresStore) Create(ctx context.Context, record *Record) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO evidence (id, complaint_id, file_url, file_name, mime_type,
			size_bytes, description, storage_location, uploaded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		record.ID, record.CaseID, record.FilePath, record.FileName, record.MimeType,
		record.SizeBytes, record.Description, record.Location, record.UploadedBy, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("evidence: insert record: %w", err)
	}
	return nil
}

// FindByPath returns the record owning the given storage key.
func (s *PostgresStore) FindByPath(ctx context.Context, filePath string) (*Record, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM evidence WHERE file_url = $1`, filePath)
	return scanRecord(row)
}

// ListByCase returns every record attached to a case.
func (s *PostgresStore) ListByCase(ctx context.Context, caseID string) ([]*Record, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+recordColumns+` FROM evidence WHERE complaint_id = $1`, caseID)
	if err != nil {
		return nil, fmt.Errorf("evidence: list by case: %w", err)
	}
	defer rows.Close()

	var result []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("evidence: list by case: %w", err)
	}
	return result, nil
}

// MarkPermanent flips a record's storage location to permanent.
func (s *PostgresStore) MarkPermanent(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE evidence SET storage_location = $1 WHERE id = $2`,
		LocationPermanent, id)
	if err != nil {
		return fmt.Errorf("evidence: mark permanent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// FindCase returns the case with the given ID.
func (s *PostgresStore) FindCase(ctx context.Context, id string) (*Case, error) {
	var c Case
	err := s.db.QueryRow(ctx,
		`SELECT id, submitter_id, published FROM complaints WHERE id = $1`, id,
	).Scan(&c.ID, &c.SubmitterID, &c.Published)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCaseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("evidence: find case: %w", err)
	}
	return &c, nil
}

// Acquire claims the promotion in-progress flag via the table's primary-key
// constraint: a second concurrent insert for the same case affects no rows.
func (s *PostgresStore) Acquire(ctx context.Context, caseID string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		INSERT INTO evidence_promotions (complaint_id, started_at)
		VALUES ($1, now())
		ON CONFLICT (complaint_id) DO NOTHING`, caseID)
	if err != nil {
		return false, fmt.Errorf("evidence: acquire promotion lock: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Release clears the promotion in-progress flag.
func (s *PostgresStore) Release(ctx context.Context, caseID string) error {
	_, err := s.db.Exec(ctx,
		`DELETE FROM evidence_promotions WHERE complaint_id = $1`, caseID)
	if err != nil {
		return fmt.Errorf("evidence: release promotion lock: %w", err)
	}
	return nil
}

func scanRecord(row pgx.Row) (*Record, error) {
	var r Record
	err := row.Scan(&r.ID, &r.CaseID, &r.FilePath, &r.FileName, &r.MimeType,
		&r.SizeBytes, &r.Description, &r.Location, &r.UploadedBy, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("evidence: scan record: %w", err)
	}
	return &r, nil
}
