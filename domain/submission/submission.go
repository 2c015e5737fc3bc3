package submission

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"nhbrcforms/domain/apperrors"
	"nhbrcforms/domain/province"
)

// ReferencePrefix is prepended to every allocated reference number.
const ReferencePrefix = "NHBRC"

// DefaultMaxFiles is the attachment limit per submission.
const DefaultMaxFiles = 3

// ReferenceNumber is the sequential, human-facing identifier of a submission.
type ReferenceNumber int64

func (r ReferenceNumber) String() string {
	return ReferencePrefix + strconv.FormatInt(int64(r), 10)
}

// ParseReferenceNumber parses "NHBRC10001" (or a bare "10001").
func ParseReferenceNumber(s string) (ReferenceNumber, error) {
	n, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(s), ReferencePrefix), 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid reference number %q", s)
	}
	return ReferenceNumber(n), nil
}

// File is one attachment of a submission.
type File struct {
	FieldName   string
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// NewFileFromBytes builds an in-memory attachment.
func NewFileFromBytes(fieldName, name, contentType string, content []byte) File {
	return File{
		FieldName:   fieldName,
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(content)), nil
		},
	}
}

// Extension returns the original file extension without the dot.
func (f File) Extension() string {
	base := path.Base(strings.ReplaceAll(f.Name, `\`, "/"))
	return strings.TrimPrefix(path.Ext(base), ".")
}

// Submission is the typed form input of POST /api/submit-form.
type Submission struct {
	Province           string
	BuilderName        string
	CompetentPerson    string
	PropertyDetails    string
	RegistrationNumber string
	CompanyName        string
	Files              []File
}

// Validate checks the preconditions that must hold before any allocation or network call.
func (s *Submission) Validate(maxFiles int) error {
	if strings.TrimSpace(s.Province) == "" {
		return &apperrors.ValidationError{Field: "province", Message: "Province is required"}
	}
	if len(s.Files) > maxFiles {
		return &apperrors.ValidationError{
			Field:   "files",
			Message: fmt.Sprintf("Maximum %d files allowed", maxFiles),
		}
	}
	return nil
}

// FormContext carries the submission data the upload step names files with.
type FormContext struct {
	BuilderName     string
	ReferenceNumber ReferenceNumber
}

// UploadFailure records an attachment that could not be stored.
type UploadFailure struct {
	Index    int
	FileName string
	Err      error
}

// UploadOutcome is the result of uploading a submission's attachments.
type UploadOutcome struct {
	URLs         []string
	Folder       string
	UsedFallback bool
	Failures     []UploadFailure
}

// Result is what an accepted submission produced.
type Result struct {
	ID                 string
	ReferenceNumber    ReferenceNumber
	Province           province.Province
	BuilderName        string
	ListItemID         string
	SiteID             string
	Folder             string
	UsedFallbackFolder bool
	UploadedFileURLs   []string
	FailedFiles        []string
	CreatedAt          time.Time
}

// PartialFailure reports whether some attachments were not stored.
func (r *Result) PartialFailure() bool {
	return len(r.FailedFiles) > 0
}
