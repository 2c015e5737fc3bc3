package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"nhbrcforms/domain/apperrors"
	"nhbrcforms/domain/contracts"
	"nhbrcforms/domain/province"
	"nhbrcforms/domain/submission"
	"nhbrcforms/infrastructure/metrics"
	"nhbrcforms/logging"
)

// SubmissionService runs the intake pipeline for one registration form:
// validate, resolve the province, allocate a reference, upload the
// attachments and create the list item.
type SubmissionService struct {
	provinces contracts.ProvinceResolver
	allocator *ReferenceAllocator
	graph     contracts.GraphConnector
	uploads   *UploadOrchestrator
	records   contracts.SubmissionRepository
	maxFiles  int
	metrics   *metrics.Recorder
	logger    *logging.Logger
	now       func() time.Time
}

// SubmissionServiceDeps groups the collaborators of SubmissionService.
// Records and Metrics are optional.
type SubmissionServiceDeps struct {
	Provinces contracts.ProvinceResolver
	Allocator *ReferenceAllocator
	Graph     contracts.GraphConnector
	Uploads   *UploadOrchestrator
	Records   contracts.SubmissionRepository
	MaxFiles  int
	Metrics   *metrics.Recorder
}

// NewSubmissionService creates a new submission service with dependency injection.
func NewSubmissionService(deps SubmissionServiceDeps) *SubmissionService {
	maxFiles := deps.MaxFiles
	if maxFiles <= 0 {
		maxFiles = submission.DefaultMaxFiles
	}
	return &SubmissionService{
		provinces: deps.Provinces,
		allocator: deps.Allocator,
		graph:     deps.Graph,
		uploads:   deps.Uploads,
		records:   deps.Records,
		maxFiles:  maxFiles,
		metrics:   deps.Metrics,
		logger:    logging.Default().WithComponent("submission_service"),
		now:       time.Now,
	}
}

// Submit processes one submission. Validation and province configuration are
// checked before a reference number is allocated, so rejected input never
// advances the counter. Attachment failures are reported on the result, not as an error.
func (s *SubmissionService) Submit(ctx context.Context, in *submission.Submission) (*submission.Result, error) {
	start := s.now()
	id := uuid.NewString()
	ctx = logging.WithSubmissionID(ctx, id)
	log := s.logger.WithContext(ctx)

	if err := in.Validate(s.maxFiles); err != nil {
		s.metrics.SubmissionFinished(provinceLabel(in.Province), metrics.OutcomeRejected, time.Since(start))
		log.Warn("Submission rejected", "reason", err.Error(), "files", len(in.Files))
		return nil, err
	}

	result, err := s.process(ctx, id, in)
	if err != nil {
		outcome := metrics.OutcomeFailure
		if apperrors.IsValidation(err) {
			outcome = metrics.OutcomeRejected
		}
		s.metrics.SubmissionFinished(provinceLabel(in.Province), outcome, time.Since(start))
		log.SubmissionError("Submission failed", err, in.Province)
		return nil, err
	}

	outcome := metrics.OutcomeSuccess
	if result.PartialFailure() {
		outcome = metrics.OutcomePartial
	}
	elapsed := time.Since(start)
	s.metrics.SubmissionFinished(result.Province.String(), outcome, elapsed)
	log.Submission("Submission completed", result.ReferenceNumber.String(), result.Province.String(),
		slog.String("list_item_id", result.ListItemID),
		slog.Int("uploaded_files", len(result.UploadedFileURLs)),
		slog.Int("failed_files", len(result.FailedFiles)),
		slog.Bool("fallback_folder", result.UsedFallbackFolder))
	log.Performance("submit_form", elapsed,
		slog.String("reference_number", result.ReferenceNumber.String()),
		slog.Int("files", len(in.Files)))

	s.record(ctx, result)
	return result, nil
}

func (s *SubmissionService) process(ctx context.Context, id string, in *submission.Submission) (*submission.Result, error) {
	target, err := s.provinces.Resolve(in.Province)
	if err != nil {
		return nil, err
	}

	ref, err := s.allocator.Next(ctx)
	if err != nil {
		return nil, fmt.Errorf("allocate reference number: %w", err)
	}

	session, err := s.graph.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire graph session: %w", err)
	}

	siteID, err := session.ResolveSiteID(ctx, target.SiteURL)
	if err != nil {
		return nil, fmt.Errorf("resolve site for %s: %w", target.Province, err)
	}

	uploaded, err := s.uploads.UploadAll(ctx, session, siteID, in.Files, submission.FormContext{
		BuilderName:     in.BuilderName,
		ReferenceNumber: ref,
	})
	if err != nil {
		return nil, err
	}

	list, err := session.FindList(ctx, siteID, target.ListName)
	if err != nil {
		return nil, fmt.Errorf("find list for %s: %w", target.Province, err)
	}

	fields := submission.ListFields(in, ref, target.Province, uploaded.URLs)
	itemID, err := session.CreateListItem(ctx, siteID, list.ID, fields)
	if err != nil {
		return nil, fmt.Errorf("create list item %s: %w", ref, err)
	}

	failed := make([]string, 0, len(uploaded.Failures))
	for _, f := range uploaded.Failures {
		failed = append(failed, f.FileName)
	}
	if len(failed) == 0 {
		failed = nil
	}

	return &submission.Result{
		ID:                 id,
		ReferenceNumber:    ref,
		Province:           target.Province,
		BuilderName:        in.BuilderName,
		ListItemID:         itemID,
		SiteID:             siteID,
		Folder:             uploaded.Folder,
		UsedFallbackFolder: uploaded.UsedFallback,
		UploadedFileURLs:   uploaded.URLs,
		FailedFiles:        failed,
		CreatedAt:          s.now().UTC(),
	}, nil
}

// record stores the result locally. A failure is logged and otherwise ignored.
func (s *SubmissionService) record(ctx context.Context, result *submission.Result) {
	if s.records == nil {
		return
	}
	if err := s.records.Save(ctx, result); err != nil {
		s.logger.WithContext(ctx).Warn("Failed to record submission locally",
			"reference_number", result.ReferenceNumber.String(),
			"error", err.Error())
	}
}

// GenerateReference allocates a reference number outside of a submission.
func (s *SubmissionService) GenerateReference(ctx context.Context) (submission.ReferenceNumber, error) {
	return s.allocator.Next(ctx)
}

// Lookup returns the locally recorded submission for a reference such as "NHBRC10001".
func (s *SubmissionService) Lookup(ctx context.Context, reference string) (*submission.Result, error) {
	ref, err := submission.ParseReferenceNumber(reference)
	if err != nil {
		return nil, &apperrors.ValidationError{Field: "referenceNumber", Message: err.Error()}
	}
	if s.records == nil {
		return nil, &apperrors.NotFoundError{Kind: "submission", Name: ref.String()}
	}
	result, err := s.records.GetByReference(ctx, ref)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("lookup submission %s: %w", ref, err)
	}
	return result, nil
}

// provinceLabel keeps metric label values bounded to the known provinces.
func provinceLabel(name string) string {
	if p, ok := province.Parse(name); ok {
		return p.String()
	}
	return "unknown"
}
