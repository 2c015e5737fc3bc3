package application

import (
	"context"
	"fmt"
	"time"

	"nhbrcforms/domain/apperrors"
	"nhbrcforms/domain/contracts"
	"nhbrcforms/domain/submission"
	"nhbrcforms/infrastructure/metrics"
	"nhbrcforms/logging"
)

const (
	DefaultRootFolder     = "D1 Documents"
	DefaultFallbackFolder = "General Uploads"
)

// UploadOrchestrator stores a submission's attachments in the province site's
// document library. Per-file failures are recorded and skipped; a folder that
// cannot be ensured sends every file to the fallback folder instead.
type UploadOrchestrator struct {
	rootFolder     string
	fallbackFolder string
	maxFiles       int
	metrics        *metrics.Recorder
	logger         *logging.Logger
	now            func() time.Time
}

// NewUploadOrchestrator creates an orchestrator. Empty folder names and a
// non-positive maxFiles fall back to the defaults.
func NewUploadOrchestrator(rootFolder, fallbackFolder string, maxFiles int, rec *metrics.Recorder) *UploadOrchestrator {
	if rootFolder == "" {
		rootFolder = DefaultRootFolder
	}
	if fallbackFolder == "" {
		fallbackFolder = DefaultFallbackFolder
	}
	if maxFiles <= 0 {
		maxFiles = submission.DefaultMaxFiles
	}
	return &UploadOrchestrator{
		rootFolder:     rootFolder,
		fallbackFolder: fallbackFolder,
		maxFiles:       maxFiles,
		metrics:        rec,
		logger:         logging.Default().WithComponent("upload_orchestrator"),
		now:            time.Now,
	}
}

// UploadAll uploads files in order and returns the URLs of those that were stored.
// The only error it returns is a ValidationError for too many files.
func (o *UploadOrchestrator) UploadAll(ctx context.Context, session contracts.GraphSession, siteID string, files []submission.File, form submission.FormContext) (*submission.UploadOutcome, error) {
	if len(files) > o.maxFiles {
		return nil, &apperrors.ValidationError{
			Field:   "files",
			Message: fmt.Sprintf("Maximum %d files allowed", o.maxFiles),
		}
	}

	outcome := &submission.UploadOutcome{URLs: []string{}}
	if len(files) == 0 {
		return outcome, nil
	}

	log := o.logger.WithContext(ctx)
	sanitized := submission.SanitizeBuilderName(form.BuilderName)

	folder, err := o.ensureBuilderFolder(ctx, session, siteID, sanitized)
	if err != nil {
		log.Warn("Folder creation failed, using fallback folder",
			"folder", o.rootFolder+"/"+sanitized,
			"fallback", o.fallbackFolder,
			"error", err.Error())
		o.metrics.FolderFallback()
		folder = o.fallbackFolder
		outcome.UsedFallback = true
	}
	outcome.Folder = folder

	for i, f := range files {
		fileName := submission.StoredFileName(sanitized, form.ReferenceNumber, o.now(), f)

		item, err := o.uploadOne(ctx, session, siteID, folder, fileName, f)
		if err != nil {
			log.Error("File upload failed, continuing with remaining files",
				"index", i,
				"file", f.Name,
				"target", folder+"/"+fileName,
				"error", err.Error())
			o.metrics.FileUploaded(false)
			outcome.Failures = append(outcome.Failures, submission.UploadFailure{Index: i, FileName: f.Name, Err: err})
			continue
		}

		o.metrics.FileUploaded(true)
		outcome.URLs = append(outcome.URLs, item.WebURL)
		log.SharePoint("File uploaded", "file", f.Name, "stored_as", item.Name, "size", f.Size)
	}

	return outcome, nil
}

func (o *UploadOrchestrator) ensureBuilderFolder(ctx context.Context, session contracts.GraphSession, siteID, sanitized string) (string, error) {
	root, err := session.EnsureFolder(ctx, siteID, "", o.rootFolder)
	if err != nil {
		return "", fmt.Errorf("ensure root folder: %w", err)
	}
	folder, err := session.EnsureFolder(ctx, siteID, root, sanitized)
	if err != nil {
		return "", fmt.Errorf("ensure builder folder: %w", err)
	}
	return folder, nil
}

func (o *UploadOrchestrator) uploadOne(ctx context.Context, session contracts.GraphSession, siteID, folder, fileName string, f submission.File) (*contracts.DriveItem, error) {
	if f.Open == nil {
		return nil, fmt.Errorf("attachment %q has no content", f.Name)
	}
	content, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open attachment: %w", err)
	}
	defer content.Close()

	return session.UploadFile(ctx, siteID, folder, fileName, content, f.Size)
}
