package contracts

import (
	"context"

	"nhbrcforms/domain/submission"
)

// SubmissionRepository keeps a local log of accepted submissions.
type SubmissionRepository interface {
	// Save records an accepted submission.
	Save(ctx context.Context, result *submission.Result) error

	// GetByReference returns the submission recorded under ref, or ErrNotFound.
	GetByReference(ctx context.Context, ref submission.ReferenceNumber) (*submission.Result, error)

	// ListRecent returns up to limit submissions, newest first.
	ListRecent(ctx context.Context, limit int) ([]*submission.Result, error)
}
