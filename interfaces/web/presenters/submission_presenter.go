package presenters

import (
	"errors"
	"net/http"
	"time"

	"nhbrcforms/domain/apperrors"
	"nhbrcforms/domain/submission"
)

// Submission-related view data structures

// SubmitResponse is the success body of POST /api/submit-form.
type SubmitResponse struct {
	Success          bool     `json:"success"`
	ReferenceNumber  string   `json:"referenceNumber"`
	ItemID           string   `json:"itemId"`
	UploadedFileURLs []string `json:"uploadedFileUrls"`
	Province         string   `json:"province"`
	PartialFailure   bool     `json:"partialFailure,omitempty"`
	FailedFiles      []string `json:"failedFiles,omitempty"`
}

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// ReferenceResponse is the body of GET /api/generate-reference.
type ReferenceResponse struct {
	Success         bool   `json:"success"`
	ReferenceNumber string `json:"referenceNumber"`
}

// SubmissionRecordView is a locally recorded submission.
type SubmissionRecordView struct {
	Success            bool     `json:"success"`
	ID                 string   `json:"id"`
	ReferenceNumber    string   `json:"referenceNumber"`
	Province           string   `json:"province"`
	BuilderName        string   `json:"builderName"`
	ItemID             string   `json:"itemId"`
	Folder             string   `json:"folder"`
	UsedFallbackFolder bool     `json:"usedFallbackFolder"`
	UploadedFileURLs   []string `json:"uploadedFileUrls"`
	FailedFiles        []string `json:"failedFiles,omitempty"`
	CreatedAt          string   `json:"createdAt"`
}

// SubmissionPresenter shapes submission results and errors for the JSON API.
type SubmissionPresenter struct{}

// NewSubmissionPresenter creates a new submission presenter
func NewSubmissionPresenter() *SubmissionPresenter {
	return &SubmissionPresenter{}
}

// Submitted converts an accepted submission into the response body.
func (p *SubmissionPresenter) Submitted(r *submission.Result) *SubmitResponse {
	urls := r.UploadedFileURLs
	if urls == nil {
		urls = []string{}
	}
	return &SubmitResponse{
		Success:          true,
		ReferenceNumber:  r.ReferenceNumber.String(),
		ItemID:           r.ListItemID,
		UploadedFileURLs: urls,
		Province:         r.Province.String(),
		PartialFailure:   r.PartialFailure(),
		FailedFiles:      r.FailedFiles,
	}
}

// Reference converts an allocated reference number into the response body.
func (p *SubmissionPresenter) Reference(ref submission.ReferenceNumber) *ReferenceResponse {
	return &ReferenceResponse{Success: true, ReferenceNumber: ref.String()}
}

// Record converts a stored submission into its view.
func (p *SubmissionPresenter) Record(r *submission.Result) *SubmissionRecordView {
	urls := r.UploadedFileURLs
	if urls == nil {
		urls = []string{}
	}
	return &SubmissionRecordView{
		Success:            true,
		ID:                 r.ID,
		ReferenceNumber:    r.ReferenceNumber.String(),
		Province:           r.Province.String(),
		BuilderName:        r.BuilderName,
		ItemID:             r.ListItemID,
		Folder:             r.Folder,
		UsedFallbackFolder: r.UsedFallbackFolder,
		UploadedFileURLs:   urls,
		FailedFiles:        r.FailedFiles,
		CreatedAt:          r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// Error maps an error onto an HTTP status and response body.
// Validation failures are the caller's fault; everything else is a server failure.
func (p *SubmissionPresenter) Error(err error) (int, *ErrorResponse) {
	status := http.StatusInternalServerError
	var (
		ve *apperrors.ValidationError
		nf *apperrors.NotFoundError
	)
	switch {
	case errors.As(err, &ve):
		status = http.StatusBadRequest
	case errors.As(err, &nf) && nf.Kind == "submission":
		status = http.StatusNotFound
	}
	return status, &ErrorResponse{Success: false, Error: err.Error()}
}
