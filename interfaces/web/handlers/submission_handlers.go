package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"nhbrcforms/domain/apperrors"
	"nhbrcforms/domain/submission"
	"nhbrcforms/interfaces/web/presenters"
	"nhbrcforms/logging"
)

// multipartMemory is how much of a multipart body is kept in memory before
// spilling attachments to temporary files.
const multipartMemory = 8 << 20

// SubmissionService is the application surface the submission endpoints use.
type SubmissionService interface {
	Submit(ctx context.Context, in *submission.Submission) (*submission.Result, error)
	GenerateReference(ctx context.Context) (submission.ReferenceNumber, error)
	Lookup(ctx context.Context, reference string) (*submission.Result, error)
}

// SubmissionHandlers handles the registration form API.
type SubmissionHandlers struct {
	service      SubmissionService
	presenter    *presenters.SubmissionPresenter
	maxBodyBytes int64
	logger       *logging.Logger
}

// NewSubmissionHandlers creates the submission handlers. maxBodyBytes caps the request body.
func NewSubmissionHandlers(service SubmissionService, presenter *presenters.SubmissionPresenter, maxBodyBytes int64) *SubmissionHandlers {
	return &SubmissionHandlers{
		service:      service,
		presenter:    presenter,
		maxBodyBytes: maxBodyBytes,
		logger:       logging.Default().WithComponent("submission_handler"),
	}
}

// SubmitForm handles POST /api/submit-form.
func (h *SubmissionHandlers) SubmitForm(w http.ResponseWriter, r *http.Request) {
	log := h.logger.WithContext(r.Context())

	if h.maxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			RenderJSON(w, http.StatusRequestEntityTooLarge, &presenters.ErrorResponse{Error: "Request body too large"})
			return
		}
		log.Warn("Unreadable submission body", "error", err.Error())
		RenderJSON(w, http.StatusBadRequest, &presenters.ErrorResponse{Error: "Invalid multipart form data"})
		return
	}
	defer r.MultipartForm.RemoveAll()

	in, ignored := submissionFromForm(r.MultipartForm)
	if len(ignored) > 0 {
		log.Info("Ignoring unknown form fields", "fields", ignored)
	}

	result, err := h.service.Submit(r.Context(), in)
	if err != nil {
		status, body := h.presenter.Error(err)
		RenderJSON(w, status, body)
		return
	}

	RenderJSON(w, http.StatusOK, h.presenter.Submitted(result))
}

// GenerateReference handles GET /api/generate-reference.
func (h *SubmissionHandlers) GenerateReference(w http.ResponseWriter, r *http.Request) {
	ref, err := h.service.GenerateReference(r.Context())
	if err != nil {
		h.logger.WithContext(r.Context()).Error("Failed to generate reference number", "error", err.Error())
		status, body := h.presenter.Error(err)
		RenderJSON(w, status, body)
		return
	}
	RenderJSON(w, http.StatusOK, h.presenter.Reference(ref))
}

// GetSubmission handles GET /api/submissions/{referenceNumber}.
func (h *SubmissionHandlers) GetSubmission(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "referenceNumber")

	result, err := h.service.Lookup(r.Context(), reference)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) && !apperrors.IsValidation(err) {
			h.logger.WithContext(r.Context()).Error("Submission lookup failed", "reference", reference, "error", err.Error())
		}
		status, body := h.presenter.Error(err)
		RenderJSON(w, status, body)
		return
	}
	RenderJSON(w, http.StatusOK, h.presenter.Record(result))
}
