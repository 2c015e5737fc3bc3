package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"nhbrcforms/database"
	"nhbrcforms/domain/apperrors"
	"nhbrcforms/domain/contracts"
	"nhbrcforms/domain/province"
	"nhbrcforms/domain/submission"
)

const submissionColumns = `id, reference_number, province, builder_name, list_item_id, site_id,
	folder, used_fallback, uploaded_urls, failed_files, created_at`

// SqliteSubmissionRepository implements contracts.SubmissionRepository on the submissions table.
type SqliteSubmissionRepository struct {
	*BaseRepository
}

// NewSqliteSubmissionRepository creates a submission repository with read/write separation.
func NewSqliteSubmissionRepository(database *database.Database) contracts.SubmissionRepository {
	return &SqliteSubmissionRepository{BaseRepository: NewBaseRepository(database)}
}

func (r *SqliteSubmissionRepository) Save(ctx context.Context, result *submission.Result) error {
	urls, err := r.ToJSONList(result.UploadedFileURLs)
	if err != nil {
		return fmt.Errorf("encode uploaded urls: %w", err)
	}
	failed, err := r.ToJSONList(result.FailedFiles)
	if err != nil {
		return fmt.Errorf("encode failed files: %w", err)
	}

	_, err = r.WriteDB().ExecContext(ctx, `
		INSERT INTO submissions (`+submissionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.ID,
		int64(result.ReferenceNumber),
		result.Province.String(),
		result.BuilderName,
		result.ListItemID,
		result.SiteID,
		result.Folder,
		r.ToNullBool(result.UsedFallbackFolder),
		urls,
		failed,
		r.ToTimestamp(result.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert submission %s: %w", result.ReferenceNumber, err)
	}
	return nil
}

func (r *SqliteSubmissionRepository) GetByReference(ctx context.Context, ref submission.ReferenceNumber) (*submission.Result, error) {
	row := r.ReadDB().QueryRowContext(ctx,
		"SELECT "+submissionColumns+" FROM submissions WHERE reference_number = ?", int64(ref))

	result, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &apperrors.NotFoundError{Kind: "submission", Name: ref.String()}
	}
	if err != nil {
		return nil, fmt.Errorf("get submission %s: %w", ref, err)
	}
	return result, nil
}

func (r *SqliteSubmissionRepository) ListRecent(ctx context.Context, limit int) ([]*submission.Result, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.ReadDB().QueryContext(ctx,
		"SELECT "+submissionColumns+" FROM submissions ORDER BY created_at DESC, reference_number DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var results []*submission.Result
	for rows.Next() {
		result, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *SqliteSubmissionRepository) scan(row rowScanner) (*submission.Result, error) {
	var (
		result       submission.Result
		ref          int64
		prov         string
		usedFallback sql.NullBool
		urls, failed string
		createdAt    string
	)
	if err := row.Scan(&result.ID, &ref, &prov, &result.BuilderName, &result.ListItemID, &result.SiteID,
		&result.Folder, &usedFallback, &urls, &failed, &createdAt); err != nil {
		return nil, err
	}

	var err error
	if result.UploadedFileURLs, err = r.FromJSONList(urls); err != nil {
		return nil, err
	}
	if result.FailedFiles, err = r.FromJSONList(failed); err != nil {
		return nil, err
	}
	if result.CreatedAt, err = r.FromTimestamp(createdAt); err != nil {
		return nil, err
	}
	result.ReferenceNumber = submission.ReferenceNumber(ref)
	result.Province = province.Province(prov)
	result.UsedFallbackFolder = r.FromNullBool(usedFallback)
	return &result, nil
}
